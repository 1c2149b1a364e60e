package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		msgType uint8
		payload []byte
	}{
		{"empty payload", MsgStop, nil},
		{"action finished", MsgActionFinished, []byte{0}},
		{"text", MsgText, []byte("hello")},
		{"payload holding marker bytes", MsgText, []byte{0xBA, 0xDD, 0x1C}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := AppendFrame(nil, tt.msgType, tt.payload)
			if err != nil {
				t.Fatalf("AppendFrame failed: %v", err)
			}

			f, n, err := NextFrame(frame)
			if err != nil {
				t.Fatalf("NextFrame failed: %v", err)
			}
			if n != len(frame) {
				t.Errorf("consumed %d, want %d", n, len(frame))
			}
			if f.Type != tt.msgType || !bytes.Equal(f.Payload, tt.payload) {
				t.Errorf("decoded %d %v, want %d %v", f.Type, f.Payload, tt.msgType, tt.payload)
			}
		})
	}
}

func TestFrameLayout(t *testing.T) {
	frame, _ := AppendFrame(nil, MsgActionFinished, []byte{0x08})

	want := []byte{MsgActionFinished, 0x08, 0x02}
	want = append(want, CRC8(want))
	want = append(want, 0xBA, 0xDD, 0x1C, 0xC5)

	if !bytes.Equal(frame, want) {
		t.Errorf("frame = % X, want % X", frame, want)
	}

	out := NewScratchOutput()
	if err := EncodeFrame(out, MsgActionFinished, []byte{0x08}); err != nil {
		t.Fatalf("EncodeFrame failed: %v", err)
	}
	if !bytes.Equal(out.Result(), want) {
		t.Errorf("EncodeFrame = % X, want % X", out.Result(), want)
	}
}

func TestNextFramePartial(t *testing.T) {
	frame, _ := AppendFrame(nil, MsgGoTo, make([]byte, GoToSize))

	for cut := 0; cut < len(frame); cut++ {
		if _, n, err := NextFrame(frame[:cut]); n != 0 || err != nil {
			t.Fatalf("partial frame of %d bytes: consumed=%d err=%v", cut, n, err)
		}
	}
}

func TestNextFrameRejects(t *testing.T) {
	good, _ := AppendFrame(nil, MsgText, []byte("ok"))

	badCRC := append([]byte(nil), good...)
	badCRC[len(badCRC)-5] ^= 0xFF

	badLen := append([]byte(nil), good...)
	badLen[len(badLen)-6] = 50

	tests := []struct {
		name string
		data []byte
		err  error
	}{
		{"bad crc", badCRC, ErrFrameCRC},
		{"length past start", badLen, ErrFrameLength},
		{"too short", []byte{0x01, 0xBA, 0xDD, 0x1C, 0xC5}, ErrFrameLength},
		{"zero length", []byte{0x05, 0x00, 0x00, 0xBA, 0xDD, 0x1C, 0xC5}, ErrFrameLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, n, err := NextFrame(tt.data)
			if !errors.Is(err, tt.err) {
				t.Errorf("err = %v, want %v", err, tt.err)
			}
			if n != len(tt.data) {
				t.Errorf("consumed %d, want %d", n, len(tt.data))
			}
		})
	}
}

func TestNextFrameSkipsNoise(t *testing.T) {
	frame, _ := AppendFrame(nil, MsgOdometry, []byte{1, 2, 3})
	data := append([]byte{0x00, 0x42, 0x99}, frame...)

	f, n, err := NextFrame(data)
	if err != nil {
		t.Fatalf("NextFrame failed: %v", err)
	}
	if n != len(data) || f.Type != MsgOdometry || !bytes.Equal(f.Payload, []byte{1, 2, 3}) {
		t.Errorf("decoded %+v consumed %d", f, n)
	}
}

func TestNextFrameDropsRunawayNoise(t *testing.T) {
	noise := bytes.Repeat([]byte{0x55}, FrameLengthMax+10)
	_, n, err := NextFrame(noise)
	if !errors.Is(err, ErrFrameLength) {
		t.Errorf("err = %v, want ErrFrameLength", err)
	}
	if n != len(noise)-3 {
		t.Errorf("consumed %d, want %d", n, len(noise)-3)
	}
}

func TestAppendFrameTooLong(t *testing.T) {
	if _, err := AppendFrame(nil, MsgText, make([]byte, MaxPayload+1)); !errors.Is(err, ErrPayloadTooLong) {
		t.Errorf("err = %v, want ErrPayloadTooLong", err)
	}
}
