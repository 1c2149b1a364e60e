package motion

// State is an action's lifecycle state
type State uint8

const (
	NotStarted State = iota
	InProgress
	Finished
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case InProgress:
		return "in_progress"
	case Finished:
		return "finished"
	}
	return "unknown"
}

// Action is one navigation command. The set of actions is closed: only
// types in this package implement advance.
type Action interface {
	// Code is the wire command code reported when the action finishes
	Code() uint8
	State() State
	IsFinished() bool

	advance(pose Pose, ticks Ticks, d *Drive)
	base() *lifecycle
}

// lifecycle carries the state shared by every action
type lifecycle struct {
	state    State
	reported bool
}

func (l *lifecycle) State() State     { return l.state }
func (l *lifecycle) IsFinished() bool { return l.state == Finished }
func (l *lifecycle) base() *lifecycle { return l }

func (l *lifecycle) begin() {
	if l.state == NotStarted {
		l.state = InProgress
	}
}

func (l *lifecycle) finish() {
	l.state = Finished
}

// markReported returns true the first time it is called
func (l *lifecycle) markReported() bool {
	if l.reported {
		return false
	}
	l.reported = true
	return true
}

// Precision is an action's completion tolerance
type Precision struct {
	// Delay is the dwell, in control ticks, spent inside tolerance before
	// finishing. Zero behaves as one.
	Delay uint16

	// Error is the position tolerance in ticks
	Error float64

	// Trajectory is the corridor tolerance in ticks around the start-to-target
	// line, checked together with Error. Zero disables it.
	Trajectory float64
}

func (p Precision) dwell() uint16 {
	if p.Delay == 0 {
		return 1
	}
	return p.Delay
}

// settle counts consecutive ticks inside tolerance
type settle struct {
	count uint16
}

func (s *settle) inside(p Precision) bool {
	if s.count < 0xFFFF {
		s.count++
	}
	return s.count >= p.dwell()
}

func (s *settle) outside() {
	s.count = 0
}
