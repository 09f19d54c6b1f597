package discord

import (
	"errors"
	"log/slog"
)

// ///////////////////////////////////////////////
// Publisher
// ///////////////////////////////////////////////

// Transport is the connection surface Publisher drives. *Client satisfies
// it; tests substitute fakes.
type Transport interface {
	Connect() error
	SetActivity(*Activity) error
	ClearActivity() error
	Close() error
	Connected() bool
}

// Publisher owns the daemon's Discord connection policy. The connection is
// established lazily on the first publish and reused after that; the main
// loop calls [Publisher.Disconnect] whenever a required process disappears.
//
// Exactly two failure kinds are treated as "Discord not ready" and logged
// without propagating: no reachable IPC socket ([ErrIPCNotAvailable]) and a
// connection dropped between publishes ([ErrNotConnected]). Everything else
// is returned to the caller and ends the session.
type Publisher struct {
	transport Transport
}

// NewPublisher wraps transport with the daemon's connection policy.
func NewPublisher(transport Transport) *Publisher {
	return &Publisher{transport: transport}
}

// Connected reports whether the underlying transport holds a connection.
func (p *Publisher) Connected() bool {
	return p.transport.Connected()
}

// Publish delivers activity, connecting first when needed. A nil activity
// clears the presence. The returned bool reports whether the presence host
// accepted the update; recognized not-ready failures return (false, nil).
func (p *Publisher) Publish(activity *Activity) (bool, error) {
	if !p.transport.Connected() {
		if err := p.transport.Connect(); err != nil {
			if recognized(err) {
				slog.Info("Discord not ready, will retry", "error", err)
				return false, nil
			}
			return false, err
		}
		slog.Info("connected to Discord")
	}

	var err error
	if activity == nil {
		err = p.transport.ClearActivity()
	} else {
		err = p.transport.SetActivity(activity)
	}
	if err != nil {
		if recognized(err) {
			// The pipe dropped between publishes. Disconnect so the next
			// publish redials instead of writing into a dead socket.
			slog.Info("Discord connection lost, will reconnect", "error", err)
			p.Disconnect()
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Disconnect closes the connection and clears the connected flag. Safe to
// call repeatedly.
func (p *Publisher) Disconnect() {
	if !p.transport.Connected() {
		return
	}
	if err := p.transport.Close(); err != nil {
		slog.Debug("closing Discord connection", "error", err)
	}
}

// recognized reports whether err is one of the two non-fatal presence-host
// failures.
func recognized(err error) bool {
	return errors.Is(err, ErrIPCNotAvailable) || errors.Is(err, ErrNotConnected)
}
