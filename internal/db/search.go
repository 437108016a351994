package db

// TagFilter matches documents whose tag field holds any of Values.
type TagFilter struct {
	Field  string
	Values []string
}

// RangeFilter matches documents whose numeric field lies in [Min, Max].
// A nil bound is open.
type RangeFilter struct {
	Field string
	Min   *float64
	Max   *float64
}

// Filter is a conjunction of tag and range conditions used as a search pre-filter.
type Filter struct {
	Tags   []TagFilter
	Ranges []RangeFilter
}

// IsEmpty reports whether the filter has no conditions.
func (f Filter) IsEmpty() bool {
	return len(f.Tags) == 0 && len(f.Ranges) == 0
}

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Filter       Filter
	Vector       []float32
	K            int
	ReturnFields []string
}

// ListQuery is the input for a paginated filtered scan.
type ListQuery struct {
	IndexName    string
	Filter       Filter
	Offset       int
	Limit        int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
// For KNN results Score is the cosine similarity (1 - cosine distance).
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
