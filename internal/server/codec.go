package server

import (
	"encoding/json"
	"fmt"
)

// JSONCodec carries gRPC messages as JSON so plain Go structs can be used as
// request and response types.
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json codec: marshal %T: %w", v, err)
	}
	return b, nil
}

func (JSONCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json codec: unmarshal %T: %w", v, err)
	}
	return nil
}

func (JSONCodec) Name() string { return "json" }
