package search

import "strings"

// TokenKind identifies the syntactic class of a scanned token.
type TokenKind string

const (
	TokenOperator  TokenKind = "operator"
	TokenField     TokenKind = "field"
	TokenString    TokenKind = "string"
	TokenDateRange TokenKind = "date_range"
	TokenBoolean   TokenKind = "boolean"
	TokenGroup     TokenKind = "group"
	TokenKeyword   TokenKind = "keyword"
)

// FieldType is the declared value type of a searchable field. The tokenizer
// records it on field tokens but performs no semantic validation beyond
// syntactic shape.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldBoolean  FieldType = "boolean"
	FieldDatetime FieldType = "datetime"
)

// Token is one unit of a scanned query. Raw is the exact source text, so
// joining raws with single spaces and re-tokenizing reproduces the sequence.
// Value is the normalized payload: the unescaped string body, the uppercase
// operator, the bracket contents of a date range, or the field value with
// quotes stripped.
type Token struct {
	Kind      TokenKind
	Raw       string
	Value     string
	Field     string    // field tokens only
	FieldType FieldType // field tokens only
}

// FieldRegistry declares the searchable fields and their types. Lookups are
// case-insensitive.
type FieldRegistry struct {
	fields map[string]FieldType
}

// NewFieldRegistry builds a registry from a name-to-type map.
func NewFieldRegistry(fields map[string]FieldType) *FieldRegistry {
	normalized := make(map[string]FieldType, len(fields))
	for name, ft := range fields {
		normalized[strings.ToLower(name)] = ft
	}
	return &FieldRegistry{fields: normalized}
}

// Lookup resolves a field name to its declared type.
func (r *FieldRegistry) Lookup(name string) (FieldType, bool) {
	if r == nil {
		return "", false
	}
	ft, ok := r.fields[strings.ToLower(name)]
	return ft, ok
}

// EmailFields is the field registry of the mail search bar.
func EmailFields() *FieldRegistry {
	return NewFieldRegistry(map[string]FieldType{
		"from":    FieldText,
		"to":      FieldText,
		"cc":      FieldText,
		"subject": FieldText,
		"body":    FieldText,
		"label":   FieldText,
		"folder":  FieldText,
		"has":     FieldBoolean,
		"is":      FieldBoolean,
		"unread":  FieldBoolean,
		"starred": FieldBoolean,
		"date":    FieldDatetime,
		"before":  FieldDatetime,
		"after":   FieldDatetime,
	})
}

// Join reassembles tokens into a query string equivalent to the original.
func Join(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.Raw
	}
	return strings.Join(parts, " ")
}
