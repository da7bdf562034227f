package inference

import (
	"encoding/json"
	"errors"
	"strings"
)

var errNoObject = errors.New("response contains no json object")

// parseObject decodes raw as a JSON object, falling back to the span between
// the first '{' and the last '}' when raw carries prose or code fences.
func parseObject(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if obj, err := decodeObject(raw); err == nil {
		return obj, nil
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, errNoObject
	}
	obj, err := decodeObject(raw[start : end+1])
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func decodeObject(s string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errNoObject
	}
	return obj, nil
}
