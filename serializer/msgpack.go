package serializer

import (
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ilpomo/open-core/errors"
)

// Msgpack is the binary-compact structured format. Unlike JSON, Decode fails
// loudly on malformed input.
type Msgpack struct{}

// Encode serializes a value as MessagePack.
func (Msgpack) Encode(v any) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Msgpack", "Encode", "marshal")
	}
	return data, nil
}

// Decode deserializes MessagePack bytes into a value.
func (Msgpack) Decode(data []byte) (any, error) {
	var v any
	if err := msgpack.Unmarshal(data, &v); err != nil {
		return nil, errors.WrapInvalid(err, "Msgpack", "Decode", "unmarshal")
	}
	return v, nil
}
