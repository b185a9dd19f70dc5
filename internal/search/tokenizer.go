package search

import "strings"

// Tokenize scans a free-text query into an ordered token sequence in a
// single left-to-right pass, longest match first at each position. It never
// fails: malformed runs degrade to keywords and any single character nothing
// matches is skipped. For well-formed input the scan is idempotent:
// re-joining the raw token texts with single spaces and re-tokenizing yields
// the same sequence.
func Tokenize(query string, fields *FieldRegistry) []Token {
	var tokens []Token
	i := 0
	n := len(query)
	for i < n {
		c := query[i]
		if isSpace(c) {
			i++
			continue
		}
		switch {
		case c == '"':
			tok, next := scanQuoted(query, i)
			tokens = append(tokens, tok)
			i = next
		case c == '[':
			tok, next := scanBracketed(query, i)
			tokens = append(tokens, tok)
			i = next
		default:
			if tok, next, ok := scanField(query, i, fields); ok {
				tokens = append(tokens, tok)
				i = next
				continue
			}
			if tok, next, ok := scanOperator(query, i); ok {
				tokens = append(tokens, tok)
				i = next
				continue
			}
			if tok, next, ok := scanBoolean(query, i); ok {
				tokens = append(tokens, tok)
				i = next
				continue
			}
			if c == '(' || c == ')' {
				tokens = append(tokens, Token{Kind: TokenGroup, Raw: string(c), Value: string(c)})
				i++
				continue
			}
			if tok, next, ok := scanKeyword(query, i); ok {
				tokens = append(tokens, tok)
				i = next
				continue
			}
			// Defensive fallback: nothing matched this character.
			i++
		}
	}
	return tokens
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}

func isFieldValueChar(c byte) bool {
	if isWordChar(c) {
		return true
	}
	switch c {
	case '-', '.', '/', '@', '*', '~', '?':
		return true
	}
	return false
}

// scanQuoted consumes a "..." string starting at the opening quote. A
// backslash escapes the next character, including an embedded quote; an
// unterminated string consumes to end of input.
func scanQuoted(q string, start int) (Token, int) {
	var value strings.Builder
	i := start + 1
	n := len(q)
	for i < n {
		c := q[i]
		if c == '\\' && i+1 < n {
			value.WriteByte(q[i+1])
			i += 2
			continue
		}
		if c == '"' {
			i++
			return Token{Kind: TokenString, Raw: q[start:i], Value: value.String()}, i
		}
		value.WriteByte(c)
		i++
	}
	return Token{Kind: TokenString, Raw: q[start:], Value: value.String()}, n
}

// scanBracketed consumes a [...] date range. Contents are kept raw; an
// unterminated range consumes to end of input.
func scanBracketed(q string, start int) (Token, int) {
	i := start + 1
	n := len(q)
	for i < n {
		if q[i] == ']' {
			i++
			return Token{Kind: TokenDateRange, Raw: q[start:i], Value: q[start+1 : i-1]}, i
		}
		i++
	}
	return Token{Kind: TokenDateRange, Raw: q[start:], Value: q[start+1:]}, n
}

// scanField matches word:value where value is a run of word/-./@*~? chars, a
// quoted string, a bracketed range, or literal true/false. The field's
// declared type comes from the registry; unregistered names default to text.
func scanField(q string, start int, fields *FieldRegistry) (Token, int, bool) {
	i := start
	n := len(q)
	for i < n && isWordChar(q[i]) {
		i++
	}
	if i == start || i >= n || q[i] != ':' {
		return Token{}, 0, false
	}
	name := q[start:i]
	i++ // colon
	if i >= n {
		return Token{}, 0, false
	}

	var value string
	var end int
	switch q[i] {
	case '"':
		tok, next := scanQuoted(q, i)
		value, end = tok.Value, next
	case '[':
		tok, next := scanBracketed(q, i)
		value, end = tok.Value, next
	default:
		j := i
		for j < n && isFieldValueChar(q[j]) {
			j++
		}
		if j == i {
			return Token{}, 0, false
		}
		value, end = q[i:j], j
	}

	fieldType := FieldText
	if ft, ok := fields.Lookup(name); ok {
		fieldType = ft
	}
	return Token{
		Kind:      TokenField,
		Raw:       q[start:end],
		Value:     value,
		Field:     name,
		FieldType: fieldType,
	}, end, true
}

// scanOperator matches whole-word AND/OR/NOT, case-insensitively. The word
// must be followed by whitespace or end of input.
func scanOperator(q string, start int) (Token, int, bool) {
	for _, op := range [...]string{"AND", "OR", "NOT"} {
		end := start + len(op)
		if end > len(q) {
			continue
		}
		if !strings.EqualFold(q[start:end], op) {
			continue
		}
		if end < len(q) && !isSpace(q[end]) {
			continue
		}
		return Token{Kind: TokenOperator, Raw: q[start:end], Value: op}, end, true
	}
	return Token{}, 0, false
}

// scanBoolean matches bare true/false as whole words.
func scanBoolean(q string, start int) (Token, int, bool) {
	for _, lit := range [...]string{"true", "false"} {
		end := start + len(lit)
		if end > len(q) {
			continue
		}
		if !strings.EqualFold(q[start:end], lit) {
			continue
		}
		if end < len(q) && !isSpace(q[end]) {
			continue
		}
		return Token{Kind: TokenBoolean, Raw: q[start:end], Value: lit}, end, true
	}
	return Token{}, 0, false
}

// scanKeyword consumes a maximal run of characters excluding whitespace,
// parens, brackets and quotes.
func scanKeyword(q string, start int) (Token, int, bool) {
	i := start
	n := len(q)
	for i < n {
		c := q[i]
		if isSpace(c) || c == '(' || c == ')' || c == '[' || c == ']' || c == '"' {
			break
		}
		i++
	}
	if i == start {
		return Token{}, 0, false
	}
	word := q[start:i]
	return Token{Kind: TokenKeyword, Raw: word, Value: word}, i, true
}
