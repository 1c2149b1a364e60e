package protocol

import (
	"bytes"
	"errors"
)

var (
	// ErrFrameLength is returned for frames whose length byte does not fit
	ErrFrameLength = errors.New("frame length mismatch")

	// ErrFrameCRC is returned for frames whose CRC does not match
	ErrFrameCRC = errors.New("frame crc mismatch")

	// ErrPayloadTooLong is returned when a payload cannot be framed
	ErrPayloadTooLong = errors.New("payload too long")
)

// Frame is one decoded message. Payload may alias the receive buffer.
type Frame struct {
	Type    uint8
	Payload []byte
}

// EncodeFrame writes a complete frame for msgType and payload to out
func EncodeFrame(out OutputBuffer, msgType uint8, payload []byte) error {
	if len(payload) > MaxPayload {
		return ErrPayloadTooLong
	}

	cursor := out.CurPosition()
	out.Output([]byte{msgType})
	out.Output(payload)
	out.Output([]byte{uint8(1 + len(payload))})

	crc := CRC8(out.DataSince(cursor))
	out.Output([]byte{crc})
	out.Output(endMarker[:])
	return nil
}

// AppendFrame appends a complete frame to dst
func AppendFrame(dst []byte, msgType uint8, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return dst, ErrPayloadTooLong
	}
	start := len(dst)
	dst = append(dst, msgType)
	dst = append(dst, payload...)
	dst = append(dst, uint8(1+len(payload)))
	dst = append(dst, CRC8(dst[start:]))
	return append(dst, endMarker[:]...), nil
}

// NextFrame decodes the first frame in data.
//
// consumed is the number of bytes the caller should drop, including any
// rejected frame; it is 0 when no complete frame is buffered yet. A non-nil
// error means the consumed bytes held a frame that failed its checks.
func NextFrame(data []byte) (f Frame, consumed int, err error) {
	idx := bytes.Index(data, endMarker[:])
	if idx < 0 {
		// No terminator within the longest possible frame: drop the noise,
		// keeping a tail that may hold a partial marker.
		if len(data) > FrameLengthMax {
			return Frame{}, len(data) - (len(endMarker) - 1), ErrFrameLength
		}
		return Frame{}, 0, nil
	}

	consumed = idx + len(endMarker)
	body := data[:idx]
	if len(body) < 3 {
		return Frame{}, consumed, ErrFrameLength
	}

	crc := body[len(body)-1]
	n := int(body[len(body)-2])
	if n == 0 || n > len(body)-2 {
		return Frame{}, consumed, ErrFrameLength
	}

	// Bytes before the declared frame are line noise and are skipped.
	msg := body[len(body)-2-n : len(body)-1]
	if CRC8(msg) != crc {
		return Frame{}, consumed, ErrFrameCRC
	}

	return Frame{Type: msg[0], Payload: msg[1 : len(msg)-1]}, consumed, nil
}
