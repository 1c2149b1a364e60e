package protocol

import (
	"bytes"
	"testing"
)

func TestScratchOutput(t *testing.T) {
	scratch := NewScratchOutput()

	scratch.Output([]byte{1, 2, 3})
	if scratch.CurPosition() != 3 {
		t.Errorf("Expected position 3, got %d", scratch.CurPosition())
	}

	scratch.Output([]byte{4, 5})
	if since := scratch.DataSince(2); !bytes.Equal(since, []byte{3, 4, 5}) {
		t.Errorf("DataSince(2) = %v, want [3 4 5]", since)
	}
	if scratch.DataSince(9) != nil {
		t.Error("DataSince past the end should be nil")
	}

	scratch.Reset()
	if len(scratch.Result()) != 0 {
		t.Errorf("After reset, expected empty result, got %v", scratch.Result())
	}
}

func TestScratchOutputOverflow(t *testing.T) {
	scratch := NewScratchOutput()
	scratch.Output(make([]byte, MessageMax-2))
	scratch.Output([]byte{1, 2, 3, 4})

	if scratch.CurPosition() != MessageMax {
		t.Errorf("Expected position capped at %d, got %d", MessageMax, scratch.CurPosition())
	}
	if got := scratch.Result()[MessageMax-1]; got != 2 {
		t.Errorf("Expected last stored byte 2, got %d", got)
	}
}

func payloadOf(n int, fill byte) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = fill + byte(i)
	}
	return p
}

func TestRxRingPartialFrame(t *testing.T) {
	r := NewRxRing(0)
	frame := mustFrame(t, MsgSetHome, payloadOf(SetHomeSize, 1))

	r.Write(frame[:len(frame)-3])
	if _, ok, _ := r.Next(); ok {
		t.Fatal("Frame returned before its end marker")
	}

	r.Write(frame[len(frame)-3:])
	f, ok, err := r.Next()
	if !ok || err != nil {
		t.Fatalf("Next = ok %v, err %v", ok, err)
	}
	if f.Type != MsgSetHome || !bytes.Equal(f.Payload, payloadOf(SetHomeSize, 1)) {
		t.Errorf("Frame = %+v", f)
	}
	if r.Buffered() != 0 {
		t.Errorf("Expected ring drained, %d bytes left", r.Buffered())
	}
}

func TestRxRingFramesAcrossWrap(t *testing.T) {
	r := NewRxRing(0)

	// Move the read position most of the way round the ring
	r.Write(mustFrame(t, MsgText, payloadOf(200, 0)))
	if _, ok, err := r.Next(); !ok || err != nil {
		t.Fatalf("First frame: ok %v, err %v", ok, err)
	}

	first := payloadOf(40, 10)
	second := payloadOf(40, 90)
	r.Write(mustFrame(t, MsgText, first))
	r.Write(mustFrame(t, MsgText, second))

	for i, want := range [][]byte{first, second} {
		f, ok, err := r.Next()
		if !ok || err != nil {
			t.Fatalf("Frame %d: ok %v, err %v", i, ok, err)
		}
		if !bytes.Equal(f.Payload, want) {
			t.Errorf("Frame %d payload = %v, want %v", i, f.Payload, want)
		}
	}
}

func TestRxRingDropsNoise(t *testing.T) {
	r := NewRxRing(0)
	noise := bytes.Repeat([]byte{0x55}, FrameLengthMax+10)
	if n := r.Write(noise); n != len(noise) {
		t.Fatalf("Write stored %d of %d bytes", n, len(noise))
	}

	_, ok, err := r.Next()
	if !ok || err != ErrFrameLength {
		t.Fatalf("Next = ok %v, err %v, want ErrFrameLength", ok, err)
	}
	if r.Buffered() != len(endMarker)-1 {
		t.Errorf("Expected a %d byte tail, got %d", len(endMarker)-1, r.Buffered())
	}

	// The kept tail is skipped as leading noise
	r.Write(mustFrame(t, MsgStop, nil))
	f, ok, err := r.Next()
	if !ok || err != nil || f.Type != MsgStop {
		t.Errorf("Next = %+v, ok %v, err %v", f, ok, err)
	}
}

func TestRxRingBadCRC(t *testing.T) {
	r := NewRxRing(0)
	frame := mustFrame(t, MsgEnablePID, nil)
	frame[2] ^= 0xFF
	r.Write(frame)
	r.Write(mustFrame(t, MsgDisablePID, nil))

	if _, ok, err := r.Next(); !ok || err != ErrFrameCRC {
		t.Errorf("Next = ok %v, err %v, want ErrFrameCRC", ok, err)
	}
	if f, ok, err := r.Next(); !ok || err != nil || f.Type != MsgDisablePID {
		t.Errorf("Frame after bad one = %+v, ok %v, err %v", f, ok, err)
	}
}

func TestRxRingFull(t *testing.T) {
	r := NewRxRing(2 * FrameLengthMax)
	if n := r.Write(make([]byte, 3*FrameLengthMax)); n != 2*FrameLengthMax {
		t.Errorf("Write stored %d bytes, want %d", n, 2*FrameLengthMax)
	}

	r.Reset()
	if r.Buffered() != 0 {
		t.Errorf("Expected empty ring after reset, got %d", r.Buffered())
	}
}
