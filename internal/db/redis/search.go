package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/vecrec/internal/db"
)

// SearchKNN runs a filtered KNN vector query via FT.SEARCH. The filter is a
// pre-filter: KNN ranks only documents that satisfy it.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	knnPart := fmt.Sprintf("[KNN %d @vector $BLOB]", q.K)
	queryStr := fmt.Sprintf("*=>%s", knnPart)
	if f := buildFilter(q.Filter); f != "" {
		queryStr = fmt.Sprintf("(%s)=>%s", f, knnPart)
	}

	args := []string{q.IndexName, queryStr}
	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)+1))
		args = append(args, q.ReturnFields...)
		args = append(args, "__vector_score")
	}
	args = append(args,
		"LIMIT", "0", strconv.Itoa(q.K),
		"PARAMS", "2", "BLOB", vectorToBytes(q.Vector),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	res, err := parseEntries(raw)
	if err != nil {
		return nil, err
	}
	for i := range res.Entries {
		e := &res.Entries[i]
		if d, ok := e.Fields["__vector_score"]; ok {
			if dist, err := strconv.ParseFloat(d, 64); err == nil {
				e.Score = 1.0 - dist // cosine distance -> cosine similarity
			}
			delete(e.Fields, "__vector_score")
		}
	}
	return res, nil
}

// SearchList performs one page of a filtered scan via FT.SEARCH.
func (s *Store) SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	args := []string{
		q.IndexName, queryOrAll(q.Filter),
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit),
	}
	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)))
		args = append(args, q.ReturnFields...)
	}
	args = append(args, "DIALECT", "2")

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return parseEntries(raw)
}

// --- Result parsing ---

// parseEntries reads the RESP2 reply [total, key1, fields1, key2, fields2, ...].
func parseEntries(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, (len(raw)-1)/2)
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}
		entries = append(entries, db.SearchEntry{
			Key:    key,
			Fields: parseFieldPairs(fields),
		})
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// --- Filter building ---

func queryOrAll(f db.Filter) string {
	if q := buildFilter(f); q != "" {
		return q
	}
	return "*"
}

// buildFilter translates a db.Filter into an FT.SEARCH query string.
// Conditions are intersected; values within one tag condition are OR-ed.
func buildFilter(f db.Filter) string {
	if f.IsEmpty() {
		return ""
	}

	parts := make([]string, 0, len(f.Tags)+len(f.Ranges))
	for _, t := range f.Tags {
		if len(t.Values) == 0 {
			continue
		}
		escaped := make([]string, len(t.Values))
		for i, v := range t.Values {
			escaped[i] = tagEscaper.Replace(v)
		}
		parts = append(parts, fmt.Sprintf("@%s:{%s}", t.Field, strings.Join(escaped, " | ")))
	}
	for _, r := range f.Ranges {
		parts = append(parts, buildNumericFilter(r))
	}

	return strings.Join(parts, " ")
}

func buildNumericFilter(r db.RangeFilter) string {
	minBound, maxBound := "-inf", "+inf"
	if r.Min != nil {
		minBound = strconv.FormatFloat(*r.Min, 'g', -1, 64)
	}
	if r.Max != nil {
		maxBound = strconv.FormatFloat(*r.Max, 'g', -1, 64)
	}
	return fmt.Sprintf("@%s:[%s %s]", r.Field, minBound, maxBound)
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	" ", "\\ ",
)

// vectorToBytes encodes v as little-endian FLOAT32, the layout FT indexes expect.
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// VectorToBytes is the exported encoder used when writing hashes.
func VectorToBytes(v []float32) string { return vectorToBytes(v) }

// BytesToVector decodes a FLOAT32 blob. It fails when the length is not a multiple of 4.
func BytesToVector(s string) ([]float32, error) {
	if len(s)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(s))
	}
	out := make([]float32, len(s)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32([]byte(s[i*4 : i*4+4])))
	}
	return out, nil
}
