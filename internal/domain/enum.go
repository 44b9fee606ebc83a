package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// decodeEnum accepts either the enum name or its zero-based ordinal, which is how the
// storefront and older clients send enum values.
func decodeEnum(data []byte, names []string) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		for _, n := range names {
			if n == s {
				return n, nil
			}
		}
		return "", fmt.Errorf("unknown value %q", s)
	}

	var ordinal int
	if err := json.Unmarshal(data, &ordinal); err != nil {
		return "", err
	}
	if ordinal < 0 || ordinal >= len(names) {
		return "", fmt.Errorf("unknown ordinal %d", ordinal)
	}
	return names[ordinal], nil
}
