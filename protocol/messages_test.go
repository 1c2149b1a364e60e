package protocol

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func TestGoToLayout(t *testing.T) {
	g := GoTo{
		X:                 100,
		Y:                 -25.5,
		IsBackward:        true,
		MaxSpeed:          150,
		NextPositionDelay: 100,
		ActionErrorAuth:   20,
		TrajPrecision:     50,
		CorrectionSpeed:   30,
		AccelStartSpeed:   40,
		AccelDistance:     10,
		DecelEndSpeed:     35,
		DecelDistance:     12.5,
	}

	b, err := g.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}
	if len(b) != GoToSize {
		t.Fatalf("len = %d, want %d", len(b), GoToSize)
	}

	// Spot-check offsets of the packed record.
	if math.Float32frombits(binary.LittleEndian.Uint32(b[4:])) != -25.5 {
		t.Error("y not at offset 4")
	}
	if b[8] != 1 || b[9] != 150 {
		t.Errorf("flags at 8..9 = %v", b[8:10])
	}
	if binary.LittleEndian.Uint16(b[14:]) != 50 {
		t.Error("traj_precision not at offset 14")
	}
	if b[16] != 30 || b[17] != 40 || b[22] != 35 {
		t.Errorf("speed bytes = %d %d %d", b[16], b[17], b[22])
	}
	if math.Float32frombits(binary.LittleEndian.Uint32(b[23:])) != 12.5 {
		t.Error("decel_distance not at offset 23")
	}

	var back GoTo
	if err := back.UnmarshalBinary(b); err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}
	if back != g {
		t.Errorf("decoded %+v, want %+v", back, g)
	}
}

func TestShortPayloads(t *testing.T) {
	tests := []struct {
		name string
		dec  interface{ UnmarshalBinary([]byte) error }
		size int
	}{
		{"go_to", &GoTo{}, GoToSize},
		{"set_pid", &SetPID{}, SetPIDSize},
		{"set_home", &Position{}, SetHomeSize},
		{"servo", &ServoGoTo{}, ServoGoToSize},
		{"stepper", &StepperStep{}, StepperStepSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.dec.UnmarshalBinary(make([]byte, tt.size-1)); !errors.Is(err, ErrShortPayload) {
				t.Errorf("err = %v, want ErrShortPayload", err)
			}
			if err := tt.dec.UnmarshalBinary(make([]byte, tt.size)); err != nil {
				t.Errorf("full payload rejected: %v", err)
			}
		})
	}
}

func TestStepperStepNegative(t *testing.T) {
	b, _ := StepperStep{Pin: 6, Steps: -200}.MarshalBinary()
	if len(b) != StepperStepSize {
		t.Fatalf("len = %d", len(b))
	}

	var s StepperStep
	if err := s.UnmarshalBinary(b); err != nil {
		t.Fatal(err)
	}
	if s.Pin != 6 || s.Steps != -200 {
		t.Errorf("decoded %+v", s)
	}
}

func TestPositionRecord(t *testing.T) {
	p := Position{X: 1.5, Y: -2, Theta: 3.14}
	b, _ := p.MarshalBinary()
	if len(b) != OdometrySize {
		t.Fatalf("len = %d, want %d", len(b), OdometrySize)
	}

	var pid SetPID
	if err := pid.UnmarshalBinary(b); err != nil {
		t.Fatal(err)
	}
	if pid.Kp != 1.5 || pid.Ki != -2 || pid.Kd != 3.14 {
		t.Errorf("shared layout decoded %+v", pid)
	}
}
