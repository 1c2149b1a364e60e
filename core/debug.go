package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// MotionEvent captures a control-loop event for post-mortem analysis
type MotionEvent struct {
	EventType uint8  // Event type code
	Code      uint8  // Action or message code
	Clock     uint32 // System time at event
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtActionInstalled = 1 // action placed in the active slot
	EvtActionFinished  = 2 // action completion reported
	EvtSelfReplace     = 3 // install of the already-active action ignored
	EvtControlOverrun  = 4 // control tick skipped, previous still running
	EvtFrameRejected   = 5 // inbound frame failed length or CRC check
	EvtHoldArmed       = 6 // idle hold captured current ticks
	EvtStop            = 7 // stop command received
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Event capture ring buffer (non-blocking, for post-mortem)
	eventRing     [EventRingSize]MotionEvent
	eventRingHead uint8
	eventsEnabled bool = true

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// InitAsyncDebug starts the async debug output goroutine
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	debugChan = make(chan string, 16)
	go debugOutputWorker()
}

// debugOutputWorker runs in background, drains debug channel
func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer
// Blocks if debug is enabled (use DebugAsync for non-blocking)
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for async output (non-blocking)
// Returns immediately even if channel is full (drops message)
func DebugAsync(msg string) {
	if debugEnabled && debugChan != nil {
		select {
		case debugChan <- msg:
		default:
		}
	}
}

// RecordEvent captures an event in the ring buffer.
// Safe to call from the control tick; never blocks.
func RecordEvent(eventType, code uint8, value1, value2 uint32) {
	if !eventsEnabled {
		return
	}
	state := DisableInterrupts()
	idx := eventRingHead
	eventRing[idx] = MotionEvent{
		EventType: eventType,
		Code:      code,
		Clock:     GetTime(),
		Value1:    value1,
		Value2:    value2,
	}
	eventRingHead = (idx + 1) % EventRingSize
	RestoreInterrupts(state)
}

// EventCount returns how many slots of the ring hold events of eventType
func EventCount(eventType uint8) int {
	n := 0
	for i := range eventRing {
		if eventRing[i].EventType == eventType {
			n++
		}
	}
	return n
}

func eventName(eventType uint8) string {
	switch eventType {
	case EvtActionInstalled:
		return "INSTALL"
	case EvtActionFinished:
		return "FINISH"
	case EvtSelfReplace:
		return "SELF_REPLACE"
	case EvtControlOverrun:
		return "OVERRUN!"
	case EvtFrameRejected:
		return "FRAME_REJECT"
	case EvtHoldArmed:
		return "HOLD_ARMED"
	case EvtStop:
		return "STOP"
	}
	return "UNKNOWN"
}

// DumpEventRing outputs the event ring buffer (call on shutdown/error)
func DumpEventRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[EVENT] === Event Ring Dump ===")

	// Read from oldest to newest
	start := eventRingHead
	for i := uint8(0); i < EventRingSize; i++ {
		idx := (start + i) % EventRingSize
		evt := &eventRing[idx]
		if evt.EventType == 0 {
			continue // Empty slot
		}

		debugPrintln("[EVENT] " + eventName(evt.EventType) +
			" code=" + utoa(uint32(evt.Code)) +
			" clock=" + utoa(evt.Clock) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[EVENT] === End Dump ===")
}

// ClearEventRing clears the event buffer
func ClearEventRing() {
	for i := range eventRing {
		eventRing[i] = MotionEvent{}
	}
	eventRingHead = 0
}
