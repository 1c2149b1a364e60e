package base

import (
	"testing"
	"time"

	"rollingbase/protocol"
)

const squareMission = `
name: square
home: {x: 0, y: 0, theta: 0}
steps:
  - action: go_to
    target: {x: 50, y: 0}
    max_speed: 120
  - action: orient
    target: {x: 50, y: 50}
  - action: servo
    pin: 6
    angle: 45
  - action: stepper
    pin: 2
    steps: 400
    pause: 1ms
`

func TestParseMission(t *testing.T) {
	m, err := ParseMission([]byte(squareMission))
	if err != nil {
		t.Fatalf("ParseMission: %v", err)
	}
	if m.Name != "square" || m.Home == nil {
		t.Errorf("Header = %q, home %v", m.Name, m.Home)
	}
	if len(m.Steps) != 4 {
		t.Fatalf("Steps = %d, want 4", len(m.Steps))
	}
	if s := m.Steps[0]; s.Target.X != 50 || s.MaxSpeed != 120 {
		t.Errorf("Step 1 = %+v", s)
	}
	if s := m.Steps[3]; s.Steps != 400 || s.Pause != time.Millisecond {
		t.Errorf("Step 4 = %+v", s)
	}
}

func TestParseMissionErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown action", "steps:\n  - action: fly\n"},
		{"servo angle", "steps:\n  - action: servo\n    angle: 200\n"},
		{"bad yaml", "steps: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseMission([]byte(tt.yaml)); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestLoadMissionMissingFile(t *testing.T) {
	if _, err := LoadMission("/nonexistent/mission.yaml"); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestMissionRun(t *testing.T) {
	b, fc := newTestBase(t)
	m, err := ParseMission([]byte(squareMission))
	if err != nil {
		t.Fatalf("ParseMission: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- m.Run(b, time.Second) }()

	fc.expect(protocol.MsgSetHome)
	fc.expect(protocol.MsgGoTo)
	fc.finish(protocol.MsgGoTo)
	fc.expect(protocol.MsgOrientToPoint)
	fc.finish(protocol.MsgOrientToPoint)
	fc.expect(protocol.MsgServoGoTo)
	fc.expect(protocol.MsgStepperStep)

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}
