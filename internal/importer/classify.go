package importer

import (
	"strings"
)

// RowStatus is the mutually exclusive outcome of classifying a row.
type RowStatus string

const (
	StatusValid     RowStatus = "valid"
	StatusInvalid   RowStatus = "invalid"
	StatusDuplicate RowStatus = "duplicate"
)

// KeySet is a case-insensitive set of keys. A nil KeySet means "not supplied".
type KeySet map[string]struct{}

func NewKeySet(keys ...string) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

func (s KeySet) Add(k string) {
	if k = key(k); k != "" {
		s[k] = struct{}{}
	}
}

func (s KeySet) Has(k string) bool {
	_, ok := s[key(k)]
	return ok
}

// RowClassification is the verdict for the row at Index.
type RowClassification struct {
	Index            int        `json:"index"`
	Row              int        `json:"row"`
	Status           RowStatus  `json:"status"`
	UnknownReference bool       `json:"unknownReference,omitempty"`
	DuplicateOf      int        `json:"duplicateOf,omitempty"`
	Issues           []RowIssue `json:"issues,omitempty"`
}

// Classification holds per-row verdicts in input order plus statistics.
type Classification struct {
	Rows  []RowClassification `json:"rows"`
	Stats ImportStatistics    `json:"stats"`
}

// Classify partitions rows into valid, invalid and duplicate. The first
// occurrence of a natural key wins, whatever its own validity. existingSKUs
// drives the unknown-reference flag and may be nil.
func Classify(rows []NormalizedRow, existingSKUs KeySet) *Classification {
	c := &Classification{Rows: make([]RowClassification, len(rows))}
	firstSeen := make(map[string]int, len(rows))

	for i, row := range rows {
		rc := RowClassification{Index: i, Row: row.SourceRow(), Status: StatusValid}

		k := row.NaturalKey()
		if first, seen := firstSeen[k]; seen && !emptyKey(k) {
			rc.Status = StatusDuplicate
			rc.DuplicateOf = rows[first].SourceRow()
		} else {
			if !emptyKey(k) {
				firstSeen[k] = i
			}
			if issues := row.Issues(); len(issues) > 0 {
				rc.Status = StatusInvalid
				rc.Issues = issues
			}
		}

		if existingSKUs != nil {
			if ref := row.ReferenceKey(); ref != "" && !existingSKUs.Has(ref) {
				rc.UnknownReference = true
			}
		}

		c.Rows[i] = rc
	}

	c.Stats = computeStatistics(rows, c.Rows)
	return c
}

// emptyKey treats composite keys with blank parts ("|") as empty.
func emptyKey(k string) bool {
	return strings.Trim(k, "|") == ""
}

// DefaultSelection returns the indexes of valid rows, the pre-checked set.
func (c *Classification) DefaultSelection() []int {
	var out []int
	for _, rc := range c.Rows {
		if rc.Status == StatusValid {
			out = append(out, rc.Index)
		}
	}
	return out
}

// Selectable reports whether index addresses a classified row.
func (c *Classification) Selectable(index int) bool {
	return index >= 0 && index < len(c.Rows)
}

// UnknownReferences returns the indexes flagged as unknown-reference.
func (c *Classification) UnknownReferences() []int {
	var out []int
	for _, rc := range c.Rows {
		if rc.UnknownReference {
			out = append(out, rc.Index)
		}
	}
	return out
}
