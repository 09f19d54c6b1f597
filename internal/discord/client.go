// Package discord publishes Rich Presence over Discord's local IPC socket.
//
// [Client] speaks the raw IPC protocol (handshake plus SET_ACTIVITY
// frames); [Publisher] layers the daemon's connection policy on top: lazy
// connect on first publish, explicit disconnect when a required process
// goes away, and a fixed set of failures treated as "Discord not ready"
// rather than fatal. Platform socket discovery lives in the conn_* files.
package discord

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
)

// ErrNotConnected is returned when a command is sent without an active
// connection.
var ErrNotConnected = errors.New("not connected")

// ///////////////////////////////////////////////
// Activity Payload
// ///////////////////////////////////////////////

// Timestamps holds the elapsed-timer anchor of an activity.
type Timestamps struct {
	Start int64 `json:"start,omitempty"`
}

// Assets selects the activity's images: the large image shows the current
// gamemode, the small overlay the selected class.
type Assets struct {
	LargeImage string `json:"large_image,omitempty"`
	LargeText  string `json:"large_text,omitempty"`
	SmallImage string `json:"small_image,omitempty"`
	SmallText  string `json:"small_text,omitempty"`
}

// Activity is the Rich Presence payload sent to Discord.
type Activity struct {
	Details    string      `json:"details,omitempty"`
	State      string      `json:"state,omitempty"`
	Timestamps *Timestamps `json:"timestamps,omitempty"`
	Assets     *Assets     `json:"assets,omitempty"`
}

// ///////////////////////////////////////////////
// Client
// ///////////////////////////////////////////////

// Client manages one connection to Discord's IPC socket.
type Client struct {
	// appID is the Discord application identifier sent in the handshake.
	appID string

	// mu serializes connection use; the watcher goroutine and the tick
	// path may both touch the client.
	mu sync.Mutex
	// conn is the live socket, nil while disconnected.
	conn net.Conn
	// nonce tags outgoing command frames.
	nonce uint64
}

// NewClient returns a client for the given Discord application ID.
func NewClient(appID string) *Client {
	return &Client{appID: appID}
}

// Connect dials Discord's IPC socket and performs the handshake. An
// existing connection is torn down first, so Connect doubles as reconnect.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	conn, err := connectToDiscord()
	if err != nil {
		return err
	}
	c.conn = conn

	if err := c.handshake(); err != nil {
		c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// SetActivity publishes activity as the current Rich Presence.
func (c *Client) SetActivity(activity *Activity) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendActivity(activity)
}

// ClearActivity removes the published Rich Presence without disconnecting.
func (c *Client) ClearActivity() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendActivity(nil)
}

// Close clears the activity best-effort and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	_ = c.sendActivity(nil)

	err := c.conn.Close()
	c.conn = nil
	return err
}

// Connected reports whether the client holds an open connection.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// sendActivity writes one SET_ACTIVITY command. A nil activity clears the
// presence. Caller must hold c.mu.
func (c *Client) sendActivity(activity *Activity) error {
	if c.conn == nil {
		return ErrNotConnected
	}

	c.nonce++
	payload, err := json.Marshal(map[string]any{
		"cmd": "SET_ACTIVITY",
		"args": map[string]any{
			"pid":      os.Getpid(),
			"activity": activity,
		},
		"nonce": strconv.FormatUint(c.nonce, 10),
	})
	if err != nil {
		return fmt.Errorf("marshaling activity: %w", err)
	}

	frame, err := encodeFrame(opFrame, payload)
	if err != nil {
		return fmt.Errorf("encoding activity: %w", err)
	}
	if _, err := c.conn.Write(frame); err != nil {
		return fmt.Errorf("writing activity: %w", err)
	}
	return nil
}

// handshake opens the session and checks Discord's reply for a rejection.
// Caller must hold c.mu.
func (c *Client) handshake() error {
	payload, err := json.Marshal(map[string]any{
		"v":         1,
		"client_id": c.appID,
	})
	if err != nil {
		return fmt.Errorf("marshaling handshake: %w", err)
	}

	frame, err := encodeFrame(opHandshake, payload)
	if err != nil {
		return fmt.Errorf("encoding handshake: %w", err)
	}
	if _, err := c.conn.Write(frame); err != nil {
		return fmt.Errorf("writing handshake: %w", err)
	}

	op, respData, err := decodeFrame(c.conn)
	if err != nil {
		return fmt.Errorf("reading handshake response: %w", err)
	}
	if op != opFrame {
		return fmt.Errorf("unexpected handshake response opcode: %d", op)
	}

	var resp map[string]any
	if err := json.Unmarshal(respData, &resp); err != nil {
		return fmt.Errorf("parsing handshake response: %w", err)
	}
	if evt, _ := resp["evt"].(string); evt == "ERROR" {
		msg, _ := resp["data"].(map[string]any)["message"].(string)
		return fmt.Errorf("handshake rejected: %s", msg)
	}
	return nil
}
