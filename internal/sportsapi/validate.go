package sportsapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ExtractArray returns the elements of the array found by walking path through
// nested objects. When the value at the end of the path is an object wrapping its
// own "data" array, that array is used.
//
// A missing key, a non-array value, null or an empty array are all KindMissingData.
// A body that is not JSON is KindMalformedResponse.
func ExtractArray(body []byte, path ...string) ([]json.RawMessage, error) {
	const op = "extract data"

	if !json.Valid(body) {
		return nil, NewError(KindMalformedResponse, op, errors.New("body is not valid JSON"))
	}

	current := json.RawMessage(body)
	for i, key := range path {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(current, &obj); err != nil {
			return nil, NewError(KindMissingData, op,
				fmt.Errorf("%s is not an object", strings.Join(path[:i], ".")))
		}
		next, ok := obj[key]
		if !ok {
			return nil, NewError(KindMissingData, op,
				fmt.Errorf("field %q not found", strings.Join(path[:i+1], ".")))
		}
		current = next
	}

	items, err := asArray(current)
	if err != nil {
		return nil, NewError(KindMissingData, op, fmt.Errorf("%s: %w", describePath(path), err))
	}
	if len(items) == 0 {
		return nil, NewError(KindMissingData, op, fmt.Errorf("%s is empty", describePath(path)))
	}
	return items, nil
}

func asArray(raw json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, errors.New("value is null")
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	case '{':
		var wrapper struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil || len(wrapper.Data) == 0 {
			return nil, errors.New("value is not an array")
		}
		if t := bytes.TrimSpace(wrapper.Data); len(t) == 0 || t[0] != '[' {
			return nil, errors.New("value is not an array")
		}
		var items []json.RawMessage
		if err := json.Unmarshal(wrapper.Data, &items); err != nil {
			return nil, err
		}
		return items, nil
	}
	return nil, errors.New("value is not an array")
}

func describePath(path []string) string {
	if len(path) == 0 {
		return "response"
	}
	return strings.Join(path, ".")
}

// IsEmpty reports whether err means "no fixtures available" rather than a failure.
func IsEmpty(err error) bool {
	return errors.Is(err, ErrMissingData)
}
