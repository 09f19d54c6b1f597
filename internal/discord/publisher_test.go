package discord

import (
	"errors"
	"testing"
)

// fakeTransport records Publisher's calls and returns scripted errors.
type fakeTransport struct {
	connected  bool
	connectErr error
	setErr     error

	connects int
	sets     int
	clears   int
	closes   int
	lastSet  *Activity
}

func (f *fakeTransport) Connect() error {
	f.connects++
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeTransport) SetActivity(a *Activity) error {
	f.sets++
	f.lastSet = a
	return f.setErr
}

func (f *fakeTransport) ClearActivity() error {
	f.clears++
	return f.setErr
}

func (f *fakeTransport) Close() error {
	f.closes++
	f.connected = false
	return nil
}

func (f *fakeTransport) Connected() bool { return f.connected }

func TestPublishConnectsLazily(t *testing.T) {
	ft := &fakeTransport{}
	p := NewPublisher(ft)

	ok, err := p.Publish(&Activity{Details: "In menus"})
	if err != nil || !ok {
		t.Fatalf("Publish = (%v, %v), want (true, nil)", ok, err)
	}
	if ft.connects != 1 || ft.sets != 1 {
		t.Errorf("connects=%d sets=%d, want 1/1", ft.connects, ft.sets)
	}

	// Second publish reuses the connection.
	if _, err := p.Publish(&Activity{Details: "In game"}); err != nil {
		t.Fatal(err)
	}
	if ft.connects != 1 {
		t.Errorf("connects = %d after second publish, want 1", ft.connects)
	}
}

func TestPublishDiscordNotReadyIsNonFatal(t *testing.T) {
	ft := &fakeTransport{connectErr: ErrIPCNotAvailable}
	p := NewPublisher(ft)

	ok, err := p.Publish(&Activity{})
	if err != nil {
		t.Fatalf("not-ready connect propagated error: %v", err)
	}
	if ok {
		t.Error("Publish reported success without a connection")
	}
	if ft.sets != 0 {
		t.Error("activity sent despite failed connect")
	}
}

func TestPublishUnrecognizedConnectErrorPropagates(t *testing.T) {
	ft := &fakeTransport{connectErr: errors.New("handshake rejected: invalid client id")}
	p := NewPublisher(ft)

	if _, err := p.Publish(&Activity{}); err == nil {
		t.Fatal("unrecognized connect error was swallowed")
	}
}

func TestPublishDroppedConnectionDisconnects(t *testing.T) {
	ft := &fakeTransport{connected: true, setErr: ErrNotConnected}
	p := NewPublisher(ft)

	ok, err := p.Publish(&Activity{})
	if err != nil {
		t.Fatalf("dropped-pipe publish propagated error: %v", err)
	}
	if ok {
		t.Error("Publish reported success on a dead pipe")
	}
	if ft.closes != 1 {
		t.Errorf("closes = %d, want 1 (clear connected flag before reconnect)", ft.closes)
	}
}

func TestPublishNilClears(t *testing.T) {
	ft := &fakeTransport{connected: true}
	p := NewPublisher(ft)

	if ok, err := p.Publish(nil); err != nil || !ok {
		t.Fatalf("Publish(nil) = (%v, %v)", ok, err)
	}
	if ft.clears != 1 || ft.sets != 0 {
		t.Errorf("clears=%d sets=%d, want 1/0", ft.clears, ft.sets)
	}
}

func TestDisconnectIdempotent(t *testing.T) {
	ft := &fakeTransport{connected: true}
	p := NewPublisher(ft)

	p.Disconnect()
	p.Disconnect()
	if ft.closes != 1 {
		t.Errorf("closes = %d, want 1", ft.closes)
	}
}
