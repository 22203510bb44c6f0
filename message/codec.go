package message

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Encode serializes a message for the wire using goccy/go-json, a drop-in,
// faster replacement for encoding/json — the same choice the teacher makes
// in configs/utils.go's JToString/JPrint helpers and throughout
// network/coordinator/msg.go's PaGossip envelope marshaling.
func Encode(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("message: encode: %w", err)
	}
	return b, nil
}

// Decode deserializes a message of the given concrete type pointed to by v.
func Decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("message: decode: %w", err)
	}
	return nil
}
