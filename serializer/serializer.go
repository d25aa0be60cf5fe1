// Package serializer defines the codec capability used to turn messages into
// frame payloads and back. Every format is referenced only through the
// two-method Serializer interface, so formats are swappable without touching
// any other component.
//
// Three built-in formats are provided:
//
//   - JSON: human-readable, deterministic layout. Decode is lenient: malformed
//     input yields a nil sentinel instead of an error.
//   - Msgpack: binary-compact. Decode fails loudly on malformed input.
//   - Native: gob-encoded Go values for process-to-process exchange between Go
//     peers. Decode fails loudly on malformed input.
//
// Callers picking JSON must check for a nil result rather than an error;
// subscribe loops may key their termination on the sentinel.
package serializer

// Serializer encodes values into bytes and decodes bytes back into values.
// Decode is the left inverse of Encode: for every value v produced by the
// supported domain, Decode(Encode(v)) round-trips.
//
// Implementations are stateless per call and safe for concurrent use.
type Serializer interface {
	// Encode serializes a value into its byte representation.
	Encode(v any) ([]byte, error)

	// Decode deserializes bytes back into a value. The lenient JSON format
	// returns (nil, nil) on malformed input; strict formats return an error.
	Decode(data []byte) (any, error)
}
