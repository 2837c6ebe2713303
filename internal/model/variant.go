package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// VariantKind identifies which shape a Variant holds.
type VariantKind int

const (
	VariantAbsent VariantKind = iota
	VariantText
	VariantList
	VariantStructured
)

func (k VariantKind) String() string {
	switch k {
	case VariantText:
		return "text"
	case VariantList:
		return "list"
	case VariantStructured:
		return "structured"
	default:
		return "absent"
	}
}

// Variant holds a field whose shape is chosen by the scoring service:
// nothing, a string, a list of strings, or an arbitrary object.
type Variant struct {
	kind       VariantKind
	text       string
	list       []string
	structured map[string]any
}

// Text returns a text variant. An empty string is Absent.
func Text(s string) Variant {
	if strings.TrimSpace(s) == "" {
		return Variant{}
	}
	return Variant{kind: VariantText, text: s}
}

// List returns a list variant. An empty list is Absent.
func List(items ...string) Variant {
	if len(items) == 0 {
		return Variant{}
	}
	return Variant{kind: VariantList, list: append([]string(nil), items...)}
}

// Structured returns an object variant. An empty object is Absent.
func Structured(m map[string]any) Variant {
	if len(m) == 0 {
		return Variant{}
	}
	return Variant{kind: VariantStructured, structured: m}
}

// VariantOf converts a decoded JSON value into a Variant.
// Scalars other than strings become text; list items that are not strings
// are rendered in their JSON form.
func VariantOf(v any) Variant {
	switch x := v.(type) {
	case nil:
		return Variant{}
	case Variant:
		return x
	case string:
		return Text(x)
	case []string:
		return List(x...)
	case []any:
		items := make([]string, 0, len(x))
		for _, item := range x {
			if s, ok := item.(string); ok {
				items = append(items, s)
				continue
			}
			b, err := json.Marshal(item)
			if err != nil {
				items = append(items, fmt.Sprint(item))
				continue
			}
			items = append(items, string(b))
		}
		return List(items...)
	case map[string]any:
		return Structured(x)
	default:
		return Text(fmt.Sprint(x))
	}
}

func (v Variant) Kind() VariantKind { return v.kind }

// IsZero reports whether the variant is Absent.
func (v Variant) IsZero() bool { return v.kind == VariantAbsent }

// Items returns the list items, or nil for other kinds.
func (v Variant) Items() []string { return v.list }

// Render produces display text: list items become "  - item" lines and
// objects are rendered as indented JSON.
func (v Variant) Render() string {
	switch v.kind {
	case VariantText:
		return v.text
	case VariantList:
		var b strings.Builder
		for i, item := range v.list {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString("  - ")
			b.WriteString(item)
		}
		return b.String()
	case VariantStructured:
		out, err := json.MarshalIndent(v.structured, "", "  ")
		if err != nil {
			return fmt.Sprint(v.structured)
		}
		return string(out)
	default:
		return ""
	}
}

func (v Variant) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case VariantText:
		return json.Marshal(v.text)
	case VariantList:
		return json.Marshal(v.list)
	case VariantStructured:
		return json.Marshal(v.structured)
	default:
		return []byte("null"), nil
	}
}

func (v *Variant) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*v = VariantOf(raw)
	return nil
}
