package protocol

// OutputBuffer is where frames are encoded for transmission
type OutputBuffer interface {
	Output(data []byte)
	CurPosition() int
	DataSince(pos int) []byte
}

// ScratchOutput collects outbound frames in a fixed array between USB
// writes. Bytes past MessageMax are dropped.
type ScratchOutput struct {
	buf [MessageMax]byte
	pos int
}

// NewScratchOutput creates an empty ScratchOutput
func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

func (s *ScratchOutput) Output(data []byte) {
	s.pos += copy(s.buf[s.pos:], data)
}

func (s *ScratchOutput) CurPosition() int {
	return s.pos
}

func (s *ScratchOutput) DataSince(pos int) []byte {
	if pos > s.pos {
		return nil
	}
	return s.buf[pos:s.pos]
}

// Result returns everything written since the last Reset
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.pos]
}

func (s *ScratchOutput) Reset() {
	s.pos = 0
}

// RxRing is the receive side of the link: a byte ring filled by the serial
// reader and drained one frame at a time with Next. One writer and one
// reader may use it concurrently without locking.
type RxRing struct {
	buf   []byte
	read  int
	write int

	// frame holds the bytes of the frame last returned by Next
	frame [FrameLengthMax]byte
}

// NewRxRing creates a ring holding up to capacity bytes. The capacity is
// raised to one full frame if smaller, so noise can always be dropped.
func NewRxRing(capacity int) *RxRing {
	if capacity <= FrameLengthMax {
		capacity = FrameLengthMax + 1
	}
	return &RxRing{buf: make([]byte, capacity+1)}
}

func (r *RxRing) wrap(i int) int {
	if i >= len(r.buf) {
		return i - len(r.buf)
	}
	return i
}

func (r *RxRing) at(offset int) byte {
	return r.buf[r.wrap(r.read+offset)]
}

// Write stores as much of data as fits and returns the count stored
func (r *RxRing) Write(data []byte) int {
	n := 0
	for _, b := range data {
		next := r.wrap(r.write + 1)
		if next == r.read {
			break
		}
		r.buf[r.write] = b
		r.write = next
		n++
	}
	return n
}

// Buffered returns the number of unread bytes
func (r *RxRing) Buffered() int {
	n := r.write - r.read
	if n < 0 {
		n += len(r.buf)
	}
	return n
}

// Reset drops everything buffered
func (r *RxRing) Reset() {
	r.read = 0
	r.write = 0
}

func (r *RxRing) discard(n int) {
	r.read = r.wrap(r.read + n)
}

// frameEnd returns the offset just past the first end marker, or 0 if no
// marker is buffered
func (r *RxRing) frameEnd() int {
	n := r.Buffered()
	for i := 0; i+len(endMarker) <= n; i++ {
		j := 0
		for j < len(endMarker) && r.at(i+j) == endMarker[j] {
			j++
		}
		if j == len(endMarker) {
			return i + len(endMarker)
		}
	}
	return 0
}

// Next removes the first terminated frame from the ring. ok is false when
// no complete frame is buffered. A non-nil err means the removed bytes were
// a frame that failed its checks, or noise with no end marker in reach.
// The payload is valid until the following call.
func (r *RxRing) Next() (f Frame, ok bool, err error) {
	end := r.frameEnd()
	if end == 0 {
		n := r.Buffered()
		if n <= FrameLengthMax {
			return Frame{}, false, nil
		}
		// Keep a tail that may hold the start of a marker
		r.discard(n - (len(endMarker) - 1))
		return Frame{}, true, ErrFrameLength
	}

	// A frame is never longer than FrameLengthMax, so anything before that
	// is noise
	start := 0
	if end > FrameLengthMax {
		start = end - FrameLengthMax
	}
	m := end - start
	for i := 0; i < m; i++ {
		r.frame[i] = r.at(start + i)
	}
	r.discard(end)

	f, _, err = NextFrame(r.frame[:m])
	return f, true, err
}
