package network

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"
)

// TCPProber checks whether a hostname accepts TCP connections.
type TCPProber struct {
	port    int
	timeout time.Duration
}

// NewTCPProber returns TCPProber dialing port with a hard deadline of timeout.
func NewTCPProber(port int, timeout time.Duration) TCPProber {
	return TCPProber{port: port, timeout: timeout}
}

// Probe returns nil if a connection was established within the deadline.
// The connection is closed without exchanging any data. The deadline
// covers the whole attempt including address lookup.
func (p TCPProber) Probe(ctx context.Context, hostname string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(hostname, strconv.Itoa(p.port)))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	conn.Close() //nolint:errcheck,gosec

	return nil
}
