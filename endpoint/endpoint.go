// Package endpoint builds canonical endpoint strings for every transport
// scheme a socket can be linked to. Construction is pure string formatting:
// inputs are passed through verbatim and validated, if at all, by the
// transport that ultimately binds or connects to the endpoint.
package endpoint

import "fmt"

// Transport scheme prefixes.
const (
	SchemeInproc = "inproc"
	SchemeIPC    = "ipc"
	SchemeUDP    = "udp"
	SchemeTCP    = "tcp"
	SchemePGM    = "pgm"
	SchemeEPGM   = "epgm"
)

// Inproc returns the in-process endpoint for the given reference,
// e.g. Inproc("events") -> "inproc://events".
func Inproc(reference string) string {
	return fmt.Sprintf("%s://%s", SchemeInproc, reference)
}

// IPC returns the inter-process endpoint for the given reference,
// e.g. IPC("events") -> "ipc:///tmp/events.ipc".
func IPC(reference string) string {
	return fmt.Sprintf("%s:///tmp/%s.ipc", SchemeIPC, reference)
}

// UDP returns the UDP endpoint for the given address and port,
// e.g. UDP("127.0.0.1", 5555) -> "udp://127.0.0.1:5555".
func UDP(address string, port int) string {
	return fmt.Sprintf("%s://%s:%d", SchemeUDP, address, port)
}

// TCP returns the TCP endpoint for the given address and port,
// e.g. TCP("127.0.0.1", 5555) -> "tcp://127.0.0.1:5555".
func TCP(address string, port int) string {
	return fmt.Sprintf("%s://%s:%d", SchemeTCP, address, port)
}

// PGM returns the multicast endpoint for the given address and port,
// e.g. PGM("127.0.0.1", 5555) -> "pgm://127.0.0.1;5555".
func PGM(address string, port int) string {
	return fmt.Sprintf("%s://%s;%d", SchemePGM, address, port)
}

// EPGM returns the encapsulated-multicast endpoint for the given address and
// port, e.g. EPGM("127.0.0.1", 5555) -> "epgm://127.0.0.1;5555".
func EPGM(address string, port int) string {
	return fmt.Sprintf("%s://%s;%d", SchemeEPGM, address, port)
}
