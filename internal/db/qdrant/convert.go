package qdrant

import (
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"

	"github.com/kailas-cloud/vecrec/internal/db"
)

// toFilter translates db.Filter into a Qdrant must-filter. Multi-value tag
// conditions become a keywords match, which Qdrant evaluates as "any of".
func toFilter(f db.Filter) *pb.Filter {
	if f.IsEmpty() {
		return nil
	}

	must := make([]*pb.Condition, 0, len(f.Tags)+len(f.Ranges))
	for _, t := range f.Tags {
		switch len(t.Values) {
		case 0:
			continue
		case 1:
			must = append(must, fieldMatch(t.Field, &pb.Match{
				MatchValue: &pb.Match_Keyword{Keyword: t.Values[0]},
			}))
		default:
			must = append(must, fieldMatch(t.Field, &pb.Match{
				MatchValue: &pb.Match_Keywords{Keywords: &pb.RepeatedStrings{Strings: t.Values}},
			}))
		}
	}
	for _, r := range f.Ranges {
		must = append(must, &pb.Condition{
			ConditionOneOf: &pb.Condition_Field{
				Field: &pb.FieldCondition{
					Key:   r.Field,
					Range: &pb.Range{Gte: r.Min, Lte: r.Max},
				},
			},
		})
	}
	return &pb.Filter{Must: must}
}

func fieldMatch(key string, m *pb.Match) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{Key: key, Match: m},
		},
	}
}

func toPayload(in map[string]any) map[string]*pb.Value {
	out := make(map[string]*pb.Value, len(in))
	for k, v := range in {
		out[k] = toValue(v)
	}
	return out
}

func toValue(v any) *pb.Value {
	switch tv := v.(type) {
	case string:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: tv}}
	case int:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(tv)}}
	case int64:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: tv}}
	case float64:
		return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: tv}}
	case bool:
		return &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: tv}}
	case []string:
		vals := make([]*pb.Value, len(tv))
		for i, s := range tv {
			vals[i] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
		}
		return &pb.Value{Kind: &pb.Value_ListValue{ListValue: &pb.ListValue{Values: vals}}}
	default:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: fmt.Sprint(tv)}}
	}
}

func fromPayload(in map[string]*pb.Value) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = fromValue(v)
	}
	return out
}

func fromValue(v *pb.Value) any {
	switch k := v.GetKind().(type) {
	case *pb.Value_StringValue:
		return k.StringValue
	case *pb.Value_IntegerValue:
		return k.IntegerValue
	case *pb.Value_DoubleValue:
		return k.DoubleValue
	case *pb.Value_BoolValue:
		return k.BoolValue
	case *pb.Value_ListValue:
		out := make([]string, 0, len(k.ListValue.GetValues()))
		for _, item := range k.ListValue.GetValues() {
			out = append(out, item.GetStringValue())
		}
		return out
	default:
		return nil
	}
}
