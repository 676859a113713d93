package domain

import "strings"

// Field is a bit set of candidate fields the search engine may match on
type Field uint8

const (
	FieldID Field = 1 << iota
	FieldTitle
	FieldDescription
	FieldAuthor
	FieldNone

	FieldAll = FieldID | FieldTitle | FieldDescription | FieldAuthor
)

// Has reports whether every bit of f is set
func (s Field) Has(f Field) bool {
	return s&f == f
}

func (s Field) String() string {
	if s == 0 {
		return "none"
	}
	var names []string
	for _, f := range []struct {
		bit  Field
		name string
	}{
		{FieldID, "id"},
		{FieldTitle, "title"},
		{FieldDescription, "description"},
		{FieldAuthor, "author"},
		{FieldNone, "none"},
	} {
		if s.Has(f.bit) {
			names = append(names, f.name)
		}
	}
	return strings.Join(names, "|")
}

// FilterSpec selects which fields a query is matched against
type FilterSpec struct {
	Fields  Field
	Query   string // Disambiguating value; empty means "use the identifier"
	Enabled bool   // True when the operator asked for filtering
}

// Effective resolves the wildcard and the none marker. The result is never
// empty: with no concrete field selected, matching falls back to the title.
func (f FilterSpec) Effective() Field {
	if f.Fields.Has(FieldAll) {
		return FieldAll
	}
	fields := f.Fields &^ FieldNone
	if fields == 0 {
		return FieldTitle
	}
	return fields
}
