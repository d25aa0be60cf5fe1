package endpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEndpointConstruction(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"inproc", Inproc("ref"), "inproc://ref"},
		{"ipc", IPC("ref"), "ipc:///tmp/ref.ipc"},
		{"udp", UDP("127.0.0.1", 5555), "udp://127.0.0.1:5555"},
		{"tcp", TCP("127.0.0.1", 5555), "tcp://127.0.0.1:5555"},
		{"pgm", PGM("127.0.0.1", 5555), "pgm://127.0.0.1;5555"},
		{"epgm", EPGM("127.0.0.1", 5555), "epgm://127.0.0.1;5555"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, test.got)
		})
	}
}

// TestEndpointInjectivity ensures distinct scheme and parameter pairs never
// collide in string form.
func TestEndpointInjectivity(t *testing.T) {
	endpoints := []string{
		Inproc("ref"),
		IPC("ref"),
		UDP("127.0.0.1", 5555),
		TCP("127.0.0.1", 5555),
		PGM("127.0.0.1", 5555),
		EPGM("127.0.0.1", 5555),
		TCP("127.0.0.1", 5556),
		TCP("10.0.0.1", 5555),
		Inproc("ref2"),
	}

	seen := make(map[string]struct{}, len(endpoints))
	for _, ep := range endpoints {
		_, dup := seen[ep]
		assert.False(t, dup, "endpoint %q produced twice", ep)
		seen[ep] = struct{}{}
	}
}

// Malformed inputs are passed through verbatim, not validated here.
func TestEndpointNoValidation(t *testing.T) {
	assert.Equal(t, "tcp://not an ip:-1", TCP("not an ip", -1))
	assert.Equal(t, "inproc://", Inproc(""))
}
