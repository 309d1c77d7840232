package jsonutil

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FlexibleString decodes from a JSON string, number or boolean. Knowledge API
// deployments disagree on whether identifiers are strings or integers.
type FlexibleString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexibleString) UnmarshalJSON(data []byte) error {
	*s = FlexibleString(FlexibleStringValue(data))
	return nil
}

// String returns the decoded value.
func (s FlexibleString) String() string {
	return string(s)
}

// FlexibleStringValue converts a json.RawMessage to a string. Numbers keep their
// literal form and booleans render as "true"/"false". Returns empty string for
// null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(trimmed, &strVal); err == nil {
		return strVal
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err == nil {
		switch val := v.(type) {
		case json.Number:
			return val.String()
		case bool:
			return strconv.FormatBool(val)
		}
	}

	// Objects and arrays: return raw representation
	return string(trimmed)
}
