package discord

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ///////////////////////////////////////////////
// Wire Format
// ///////////////////////////////////////////////

// opcode tags a Discord IPC frame.
type opcode uint32

const (
	// opHandshake opens the session after connecting.
	opHandshake opcode = 0
	// opFrame carries a command or event payload.
	opFrame opcode = 1
	// opClose ends the session.
	opClose opcode = 2
)

// A frame on the wire is [4-byte LE opcode][4-byte LE length][JSON payload].
const headerSize = 8

// maxPayload caps frame payloads at 1 MB in both directions; Discord
// rejects larger frames and a larger inbound length means a corrupt stream.
const maxPayload = 1 << 20

// maxIPCSlots is how many numbered IPC sockets Discord may listen on (0-9).
const maxIPCSlots = 10

// ErrPayloadTooLarge is returned when a frame payload exceeds the 1 MB cap.
var ErrPayloadTooLarge = errors.New("payload too large")

// ErrIPCNotAvailable is returned when no Discord IPC socket can be reached.
var ErrIPCNotAvailable = errors.New("discord IPC not available")

// encodeFrame serializes one IPC frame.
func encodeFrame(op opcode, payload []byte) ([]byte, error) {
	if len(payload) > maxPayload {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, len(payload), maxPayload)
	}
	frame := make([]byte, headerSize+len(payload))
	binary.LittleEndian.PutUint32(frame[0:4], uint32(op))
	binary.LittleEndian.PutUint32(frame[4:8], uint32(len(payload)))
	copy(frame[headerSize:], payload)
	return frame, nil
}

// decodeFrame reads exactly one IPC frame from r, tolerating partial reads.
func decodeFrame(r io.Reader) (opcode, []byte, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, fmt.Errorf("reading frame header: %w", err)
	}

	op := opcode(binary.LittleEndian.Uint32(header[0:4]))
	length := binary.LittleEndian.Uint32(header[4:8])
	if length > maxPayload {
		return 0, nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, length, maxPayload)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, fmt.Errorf("reading frame payload: %w", err)
	}
	return op, payload, nil
}
