package serializer

import (
	"bytes"
	"encoding/gob"

	"github.com/ilpomo/open-core/errors"
)

func init() {
	// Concrete types that may travel inside the envelope's any field.
	gob.Register(map[string]any{})
	gob.Register([]any{})
	gob.Register([]byte(nil))
	gob.Register(int(0))
	gob.Register(int64(0))
	gob.Register(float64(0))
	gob.Register(string(""))
	gob.Register(bool(false))
}

// envelope wraps the value so gob can encode interface-typed data.
type envelope struct {
	V any
}

// Native is the pass-through format for exchanging arbitrary Go values
// between Go peers, built on encoding/gob. Values of types beyond the
// defaults registered above must be registered with gob.Register before use.
// Decode fails loudly on malformed input.
type Native struct{}

// Encode serializes a Go value with gob.
func (Native) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(envelope{V: v}); err != nil {
		return nil, errors.WrapInvalid(err, "Native", "Encode", "gob encode")
	}
	return buf.Bytes(), nil
}

// Decode deserializes gob bytes back into a Go value.
func (Native) Decode(data []byte) (any, error) {
	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return nil, errors.WrapInvalid(err, "Native", "Decode", "gob decode")
	}
	return env.V, nil
}
