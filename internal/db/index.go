package db

import (
	"errors"
	"fmt"
)

// DistanceMetric used by FT.SEARCH vector similarity queries.
// The catalog compares embeddings by cosine only.
type DistanceMetric string

// DistanceCosine is cosine distance; KNN scores are converted back to similarity.
const DistanceCosine DistanceMetric = "COSINE"

// IndexFieldType enumerates the FT field types the catalog schema uses.
type IndexFieldType int

const (
	// IndexFieldNumeric is a numeric field (price, stock).
	IndexFieldNumeric IndexFieldType = iota
	// IndexFieldTag is a tag field (category path runs).
	IndexFieldTag
	// IndexFieldVector is an HNSW vector field.
	IndexFieldVector
)

// IndexField describes a single field in an FT index schema.
type IndexField struct {
	Name  string
	Alias string // AS alias in FT.CREATE SCHEMA
	Type  IndexFieldType

	TagSeparator string

	VectorDim         int
	VectorDistance    DistanceMetric
	VectorM           int // HNSW M, 0 keeps the server default
	VectorEFConstruct int // HNSW EF_CONSTRUCTION, 0 keeps the server default
}

// key is the name the field is addressed by in queries.
func (f *IndexField) key() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// IndexDefinition is an FT index over hashes sharing a key prefix.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(idx.Name) {
		return fmt.Errorf("index name %q contains invalid characters", idx.Name)
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]struct{}, len(idx.Fields))
	vectors := 0
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("field %d: name is required", i)
		}
		if _, dup := seen[f.key()]; dup {
			return fmt.Errorf("duplicate field name: %s", f.key())
		}
		seen[f.key()] = struct{}{}

		if f.Type == IndexFieldVector {
			vectors++
			if f.VectorDim <= 0 {
				return fmt.Errorf("vector field %s requires positive DIM", f.Name)
			}
		}
	}
	if vectors > 1 {
		return errors.New("at most one vector field is supported")
	}
	return nil
}

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == ':' || r == '-'
		if !isAlpha && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
