package importer

import (
	"strings"
)

// HeaderPredicate tests a normalised header cell.
type HeaderPredicate func(header string) bool

// Contains matches when the header contains every given substring.
func Contains(subs ...string) HeaderPredicate {
	return func(h string) bool {
		for _, s := range subs {
			if !strings.Contains(h, s) {
				return false
			}
		}
		return true
	}
}

// Equals matches when the header equals any of the given values.
func Equals(values ...string) HeaderPredicate {
	return func(h string) bool {
		for _, v := range values {
			if h == v {
				return true
			}
		}
		return false
	}
}

func AllOf(preds ...HeaderPredicate) HeaderPredicate {
	return func(h string) bool {
		for _, p := range preds {
			if !p(h) {
				return false
			}
		}
		return true
	}
}

func AnyOf(preds ...HeaderPredicate) HeaderPredicate {
	return func(h string) bool {
		for _, p := range preds {
			if p(h) {
				return true
			}
		}
		return false
	}
}

func Not(p HeaderPredicate) HeaderPredicate {
	return func(h string) bool { return !p(h) }
}

// FieldSpec declares one logical field of a format. Order inside a format
// is priority order: more specific predicates come first.
type FieldSpec struct {
	Name     string
	Label    string
	Required bool
	Match    HeaderPredicate
	// Example is the sample value written into downloadable templates.
	Example string
}

// FieldMap maps logical field names to column indexes.
type FieldMap map[string]int

// Index returns the column of a field, or -1 when it was not resolved.
func (m FieldMap) Index(name string) int {
	if i, ok := m[name]; ok {
		return i
	}
	return -1
}

// NormalizeHeader lower-cases a header, drops template markers ("*"),
// turns underscores into spaces and collapses whitespace.
func NormalizeHeader(h string) string {
	h = strings.ToLower(h)
	h = strings.ReplaceAll(h, "_", " ")
	h = strings.Trim(h, " \t\r\n*\ufeff")
	return strings.Join(strings.Fields(h), " ")
}

// ResolveHeaders scans headers left to right and binds each one to the first
// still-unbound field whose predicate matches.
func ResolveHeaders(format FormatID, header []string, specs []FieldSpec) (FieldMap, error) {
	fm := make(FieldMap, len(specs))

	for col, raw := range header {
		h := NormalizeHeader(raw)
		if h == "" {
			continue
		}
		for _, spec := range specs {
			if _, bound := fm[spec.Name]; bound {
				continue
			}
			if spec.Match(h) {
				fm[spec.Name] = col
				break
			}
		}
	}

	var missing *MissingColumnsError
	for _, spec := range specs {
		if !spec.Required || fm.Index(spec.Name) >= 0 {
			continue
		}
		if missing == nil {
			missing = &MissingColumnsError{Format: format}
		}
		missing.Fields = append(missing.Fields, spec.Name)
		missing.Labels = append(missing.Labels, spec.Label)
	}
	if missing != nil {
		return nil, missing
	}

	return fm, nil
}
