// Package srcquery implements the Source engine A2S_INFO server query used
// to read live player counts off the server the client is connected to.
package srcquery

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/time/rate"
)

// Info is the subset of the A2S_INFO response presence cares about.
type Info struct {
	Name       string
	Map        string
	Game       string
	Players    int
	MaxPlayers int
	Bots       int
}

// HumanPlayers returns the player count with bots removed.
func (i *Info) HumanPlayers() int {
	if n := i.Players - i.Bots; n > 0 {
		return n
	}
	return 0
}

// infoRequest is the A2S_INFO probe; servers answering with a challenge get
// it resent with the 4-byte challenge appended.
var infoRequest = []byte("\xff\xff\xff\xffTSource Engine Query\x00")

const (
	headerChallenge = 0x41
	headerInfo      = 0x49
)

// Querier issues rate-limited A2S_INFO queries. Game servers kick clients
// that flood the query port, and the main loop may ask for stats every
// tick, so queries are throttled here rather than at each call site.
type Querier struct {
	// Timeout bounds one full query including a challenge round trip.
	Timeout time.Duration

	limiter *rate.Limiter
}

// NewQuerier returns a Querier allowing one query per interval with a burst
// of one.
func NewQuerier(interval, timeout time.Duration) *Querier {
	return &Querier{
		Timeout: timeout,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Query sends A2S_INFO to addr ("ip:port") and parses the reply. When the
// rate limit has no token available the query is skipped with an error
// rather than waiting, so a tick never blocks on the limiter.
func (q *Querier) Query(ctx context.Context, addr string) (*Info, error) {
	if !q.limiter.Allow() {
		return nil, fmt.Errorf("query to %s rate limited", addr)
	}

	d := net.Dialer{Timeout: q.Timeout}
	conn, err := d.DialContext(ctx, "udp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(q.Timeout))

	if _, err := conn.Write(infoRequest); err != nil {
		return nil, fmt.Errorf("send query to %s: %w", addr, err)
	}

	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("read reply from %s: %w", addr, err)
	}

	payload, header, err := splitReply(buf[:n])
	if err != nil {
		return nil, fmt.Errorf("reply from %s: %w", addr, err)
	}

	if header == headerChallenge {
		if len(payload) < 4 {
			return nil, fmt.Errorf("reply from %s: short challenge", addr)
		}
		if _, err := conn.Write(append(append([]byte{}, infoRequest...), payload[:4]...)); err != nil {
			return nil, fmt.Errorf("send challenged query to %s: %w", addr, err)
		}
		n, err = conn.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("read challenged reply from %s: %w", addr, err)
		}
		if payload, header, err = splitReply(buf[:n]); err != nil {
			return nil, fmt.Errorf("challenged reply from %s: %w", addr, err)
		}
	}

	if header != headerInfo {
		return nil, fmt.Errorf("reply from %s: unexpected header 0x%02x", addr, header)
	}
	return parseInfo(payload)
}

// splitReply validates the simple-packet prefix and returns the payload
// after the header byte.
func splitReply(data []byte) (payload []byte, header byte, err error) {
	if len(data) < 5 {
		return nil, 0, fmt.Errorf("short packet (%d bytes)", len(data))
	}
	if !bytes.Equal(data[:4], []byte{0xff, 0xff, 0xff, 0xff}) {
		return nil, 0, fmt.Errorf("not a simple response packet")
	}
	return data[5:], data[4], nil
}

// parseInfo decodes an A2S_INFO payload (everything after the 'I' header).
func parseInfo(data []byte) (*Info, error) {
	r := &reader{data: data}

	r.byte() // protocol version
	info := &Info{}
	info.Name = r.cstring()
	info.Map = r.cstring()
	r.cstring() // folder
	info.Game = r.cstring()
	r.skip(2) // app id
	info.Players = int(r.byte())
	info.MaxPlayers = int(r.byte())
	info.Bots = int(r.byte())

	if r.failed {
		return nil, fmt.Errorf("truncated info payload")
	}
	return info, nil
}

// reader is a cursor over the reply payload that records overruns instead
// of erroring at every field.
type reader struct {
	data   []byte
	pos    int
	failed bool
}

func (r *reader) byte() byte {
	if r.pos >= len(r.data) {
		r.failed = true
		return 0
	}
	b := r.data[r.pos]
	r.pos++
	return b
}

func (r *reader) skip(n int) {
	if r.pos+n > len(r.data) {
		r.failed = true
		r.pos = len(r.data)
		return
	}
	r.pos += n
}

func (r *reader) cstring() string {
	end := bytes.IndexByte(r.data[r.pos:], 0)
	if end < 0 {
		r.failed = true
		r.pos = len(r.data)
		return ""
	}
	s := string(r.data[r.pos : r.pos+end])
	r.pos += end + 1
	return s
}
