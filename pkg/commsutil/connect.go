// Package commsutil provides COMMS (NATS) connection helpers, subjects and payload codecs
// shared by the operation gateway, the backend responder and the event publisher.
package commsutil

import (
	"fmt"
	"log/slog"
	"time"

	comms "github.com/nats-io/nats.go"
)

const logPrefix = "commsutil:connect"

// ConnectOptions configures Connect. Zero values use defaults.
type ConnectOptions struct {
	URL  string
	Name string
	// Timeout bounds the initial dial only.
	Timeout time.Duration
}

// Connect opens a COMMS connection that reconnects in the background and logs state changes.
func Connect(opts ConnectOptions) (*comms.Conn, error) {
	url := opts.URL
	if url == "" {
		url = comms.DefaultURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	slog.Info(fmt.Sprintf("%s - Connecting to COMMS at %s as %s", logPrefix, url, opts.Name))

	nc, err := comms.Connect(url,
		comms.Name(opts.Name),
		comms.Timeout(timeout),
		comms.ReconnectWait(2*time.Second),
		comms.MaxReconnects(60),
		comms.DisconnectErrHandler(func(_ *comms.Conn, err error) {
			slog.Warn(fmt.Sprintf("%s - COMMS disconnected: %v", logPrefix, err))
		}),
		comms.ReconnectHandler(func(nc *comms.Conn) {
			slog.Info(fmt.Sprintf("%s - COMMS reconnected to %s", logPrefix, nc.ConnectedUrl()))
		}),
		comms.ClosedHandler(func(_ *comms.Conn) {
			slog.Info(fmt.Sprintf("%s - COMMS connection closed", logPrefix))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to connect to COMMS: %w", logPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Connected to COMMS at %s", logPrefix, nc.ConnectedUrl()))
	return nc, nil
}
