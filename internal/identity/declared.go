package identity

import (
	"errors"
	"strings"
	"unicode"
)

var (
	errUnterminatedString = errors.New("unterminated string literal")
	errUnbalanced         = errors.New("unbalanced brackets")
)

// DeclaredIDs returns the literal dag_id values passed to DAG(...) or
// <module>.DAG(...) calls in Python source, in source order without duplicates.
// Only plain string literals count; f-strings and expressions are ignored.
// Source that cannot be tokenized yields an empty result.
func DeclaredIDs(source string) []string {
	toks, err := tokenize(source)
	if err != nil {
		return nil
	}

	var ids []string
	seen := make(map[string]struct{})
	for i := 0; i+1 < len(toks); i++ {
		if toks[i].kind != tokName || toks[i].text != "DAG" || !toks[i+1].is("(") {
			continue
		}
		if i > 0 && toks[i-1].kind == tokName && (toks[i-1].text == "def" || toks[i-1].text == "class") {
			continue
		}
		id, ok := dagIDArg(toks, i+1)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// dagIDArg scans the call whose opening paren is toks[open] for a top-level
// dag_id="literal" keyword argument.
func dagIDArg(toks []token, open int) (string, bool) {
	depth := 0
	for j := open; j < len(toks); j++ {
		t := toks[j]
		switch {
		case t.kind == tokOp && strings.ContainsAny(t.text, "([{") && len(t.text) == 1:
			depth++
			continue
		case t.kind == tokOp && strings.ContainsAny(t.text, ")]}") && len(t.text) == 1:
			depth--
			if depth == 0 {
				return "", false
			}
			continue
		}
		if depth != 1 || t.kind != tokName || t.text != "dag_id" {
			continue
		}
		if j+2 >= len(toks) || !toks[j+1].is("=") {
			continue
		}
		// Adjacent literals concatenate.
		var b strings.Builder
		k := j + 2
		for k < len(toks) && toks[k].kind == tokString {
			if toks[k].fstring {
				return "", false
			}
			b.WriteString(toks[k].text)
			k++
		}
		if k == j+2 || k >= len(toks) {
			return "", false
		}
		if !toks[k].is(",") && !toks[k].is(")") {
			return "", false
		}
		return b.String(), true
	}
	return "", false
}

type tokenKind int

const (
	tokName tokenKind = iota
	tokString
	tokOp
)

type token struct {
	kind    tokenKind
	text    string
	fstring bool
}

func (t token) is(op string) bool {
	return t.kind == tokOp && t.text == op
}

// tokenize is a minimal Python lexer: names, string literals with their
// decoded value, and punctuation. Numbers and whitespace are dropped.
func tokenize(src string) ([]token, error) {
	rs := []rune(src)
	var toks []token
	var stack []rune
	closer := map[rune]rune{')': '(', ']': '[', '}': '{'}

	for i := 0; i < len(rs); {
		c := rs[i]
		switch {
		case c == '#':
			for i < len(rs) && rs[i] != '\n' {
				i++
			}
		case unicode.IsSpace(c) || c == '\\':
			i++
		case c == '"' || c == '\'':
			tok, next, err := lexString(rs, i, "")
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i = next
		case c == '_' || unicode.IsLetter(c):
			j := i
			for j < len(rs) && (rs[j] == '_' || unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j])) {
				j++
			}
			word := string(rs[i:j])
			if j < len(rs) && (rs[j] == '"' || rs[j] == '\'') && isStringPrefix(word) {
				tok, next, err := lexString(rs, j, strings.ToLower(word))
				if err != nil {
					return nil, err
				}
				toks = append(toks, tok)
				i = next
				continue
			}
			toks = append(toks, token{kind: tokName, text: word})
			i = j
		case unicode.IsDigit(c):
			for i < len(rs) && (rs[i] == '_' || rs[i] == '.' || unicode.IsLetter(rs[i]) || unicode.IsDigit(rs[i])) {
				i++
			}
		case c == '(' || c == '[' || c == '{':
			stack = append(stack, c)
			toks = append(toks, token{kind: tokOp, text: string(c)})
			i++
		case c == ')' || c == ']' || c == '}':
			if len(stack) == 0 || stack[len(stack)-1] != closer[c] {
				return nil, errUnbalanced
			}
			stack = stack[:len(stack)-1]
			toks = append(toks, token{kind: tokOp, text: string(c)})
			i++
		default:
			if i+1 < len(rs) && rs[i+1] == '=' && strings.ContainsRune("=<>!:+-*/%&|^@", c) {
				toks = append(toks, token{kind: tokOp, text: string(rs[i : i+2])})
				i += 2
				continue
			}
			toks = append(toks, token{kind: tokOp, text: string(c)})
			i++
		}
	}
	if len(stack) != 0 {
		return nil, errUnbalanced
	}
	return toks, nil
}

func isStringPrefix(word string) bool {
	if len(word) == 0 || len(word) > 2 {
		return false
	}
	for _, r := range strings.ToLower(word) {
		if !strings.ContainsRune("rbuf", r) {
			return false
		}
	}
	return true
}

// lexString reads the literal starting at the quote rs[start].
func lexString(rs []rune, start int, prefix string) (token, int, error) {
	raw := strings.ContainsRune(prefix, 'r')
	tok := token{kind: tokString, fstring: strings.ContainsRune(prefix, 'f')}

	q := rs[start]
	triple := start+2 < len(rs) && rs[start+1] == q && rs[start+2] == q
	i := start + 1
	if triple {
		i = start + 3
	}

	var b strings.Builder
	for i < len(rs) {
		c := rs[i]
		switch {
		case c == '\\' && i+1 < len(rs):
			if raw {
				b.WriteRune(c)
				b.WriteRune(rs[i+1])
			} else {
				b.WriteString(unescape(rs[i+1]))
			}
			i += 2
			continue
		case c == '\n' && !triple:
			return token{}, 0, errUnterminatedString
		case c == q && !triple:
			tok.text = b.String()
			return tok, i + 1, nil
		case c == q && triple && i+2 < len(rs) && rs[i+1] == q && rs[i+2] == q:
			tok.text = b.String()
			return tok, i + 3, nil
		}
		b.WriteRune(c)
		i++
	}
	return token{}, 0, errUnterminatedString
}

func unescape(r rune) string {
	switch r {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case '\n':
		return ""
	case '\\', '\'', '"':
		return string(r)
	default:
		return "\\" + string(r)
	}
}
