package serializer

import (
	"encoding/json"

	"github.com/ilpomo/open-core/errors"
)

// JSON is the lenient structured format. Encode produces a compact layout
// with no extraneous whitespace. Decode never fails on malformed input:
// it returns the nil sentinel instead, which callers must test for.
type JSON struct{}

// Encode serializes a value as compact JSON.
func (JSON) Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.WrapInvalid(err, "JSON", "Encode", "marshal")
	}
	return data, nil
}

// Decode deserializes JSON bytes into a value. Malformed input yields
// (nil, nil) rather than an error.
func (JSON) Decode(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, nil
	}
	return v, nil
}
