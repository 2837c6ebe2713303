package enrich

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

// ErrNotObject is returned when a response decodes to something other than a JSON object.
var ErrNotObject = errors.New("response is not a JSON object")

var fencedObject = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ParseObject decodes a model response as a JSON object. When the text as a
// whole is not an object, the first fenced ```json block is tried once.
func ParseObject(text string) (map[string]any, error) {
	obj, err := decodeObject(text)
	if err == nil {
		return obj, nil
	}
	if m := fencedObject.FindStringSubmatch(text); m != nil {
		if obj, ferr := decodeObject(m[1]); ferr == nil {
			return obj, nil
		}
	}
	return nil, fmt.Errorf("parsing response: %w", err)
}

func decodeObject(text string) (map[string]any, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return obj, nil
}

// stringField returns obj[key] when it is a non-empty string.
func stringField(obj map[string]any, key string) (string, bool) {
	s, ok := obj[key].(string)
	return s, ok && s != ""
}
