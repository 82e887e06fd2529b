package service

import (
	"context"
	"net"
	"time"
)

const defaultDialTimeout = 3 * time.Second

// Connectivity gates a poll. Offline skips the poll without counting an attempt.
type Connectivity interface {
	Online(ctx context.Context) bool
}

type AlwaysOnline struct{}

func (AlwaysOnline) Online(context.Context) bool {
	return true
}

// TCPProbe reports online when a TCP connection to address can be opened.
type TCPProbe struct {
	address string
	timeout time.Duration
}

// NewConnectivity returns AlwaysOnline for an empty address.
func NewConnectivity(address string, timeout time.Duration) Connectivity {
	if address == "" {
		return AlwaysOnline{}
	}

	if timeout <= 0 {
		timeout = defaultDialTimeout
	}

	return &TCPProbe{address: address, timeout: timeout}
}

func (p *TCPProbe) Online(ctx context.Context) bool {
	dialer := net.Dialer{Timeout: p.timeout}

	conn, err := dialer.DialContext(ctx, "tcp", p.address)
	if err != nil {
		return false
	}

	_ = conn.Close()

	return true
}
