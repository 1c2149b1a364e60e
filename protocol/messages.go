package protocol

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrShortPayload is returned when a payload is shorter than its record
var ErrShortPayload = errors.New("payload too short")

// Record sizes in bytes (packed, little-endian)
const (
	GoToSize           = 27
	SetPIDSize         = 12
	SetHomeSize        = 12
	ServoGoToSize      = 2
	StepperStepSize    = 5
	OdometrySize       = 12
	ActionFinishedSize = 1
	UnknownTypeSize    = 1
)

// GoTo is the payload of go-to-point and orient-to-point
type GoTo struct {
	X, Y              float32
	IsBackward        bool
	MaxSpeed          uint8
	NextPositionDelay uint16
	ActionErrorAuth   uint16
	TrajPrecision     uint16
	CorrectionSpeed   uint8
	AccelStartSpeed   uint8
	AccelDistance     float32
	DecelEndSpeed     uint8
	DecelDistance     float32
}

// MarshalBinary implements encoding.BinaryMarshaler
func (g GoTo) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, GoToSize)
	b = appendF32(b, g.X)
	b = appendF32(b, g.Y)
	b = appendBool(b, g.IsBackward)
	b = append(b, g.MaxSpeed)
	b = binary.LittleEndian.AppendUint16(b, g.NextPositionDelay)
	b = binary.LittleEndian.AppendUint16(b, g.ActionErrorAuth)
	b = binary.LittleEndian.AppendUint16(b, g.TrajPrecision)
	b = append(b, g.CorrectionSpeed, g.AccelStartSpeed)
	b = appendF32(b, g.AccelDistance)
	b = append(b, g.DecelEndSpeed)
	b = appendF32(b, g.DecelDistance)
	return b, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler
func (g *GoTo) UnmarshalBinary(data []byte) error {
	r := reader{buf: data}
	g.X = r.f32()
	g.Y = r.f32()
	g.IsBackward = r.u8() != 0
	g.MaxSpeed = r.u8()
	g.NextPositionDelay = r.u16()
	g.ActionErrorAuth = r.u16()
	g.TrajPrecision = r.u16()
	g.CorrectionSpeed = r.u8()
	g.AccelStartSpeed = r.u8()
	g.AccelDistance = r.f32()
	g.DecelEndSpeed = r.u8()
	g.DecelDistance = r.f32()
	return r.err
}

// Vec3 is three packed floats; used by set-pid, set-home and odometry
type Vec3 struct {
	A, B, C float32
}

// MarshalBinary implements encoding.BinaryMarshaler
func (v Vec3) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, 12)
	b = appendF32(b, v.A)
	b = appendF32(b, v.B)
	b = appendF32(b, v.C)
	return b, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler
func (v *Vec3) UnmarshalBinary(data []byte) error {
	r := reader{buf: data}
	v.A = r.f32()
	v.B = r.f32()
	v.C = r.f32()
	return r.err
}

// SetPID carries the closed-loop gains
type SetPID struct {
	Kp, Ki, Kd float32
}

// MarshalBinary implements encoding.BinaryMarshaler
func (s SetPID) MarshalBinary() ([]byte, error) {
	return Vec3{s.Kp, s.Ki, s.Kd}.MarshalBinary()
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler
func (s *SetPID) UnmarshalBinary(data []byte) error {
	var v Vec3
	err := v.UnmarshalBinary(data)
	s.Kp, s.Ki, s.Kd = v.A, v.B, v.C
	return err
}

// Position is a pose record: set-home inbound, odometry outbound
type Position struct {
	X, Y, Theta float32
}

// MarshalBinary implements encoding.BinaryMarshaler
func (p Position) MarshalBinary() ([]byte, error) {
	return Vec3{p.X, p.Y, p.Theta}.MarshalBinary()
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler
func (p *Position) UnmarshalBinary(data []byte) error {
	var v Vec3
	err := v.UnmarshalBinary(data)
	p.X, p.Y, p.Theta = v.A, v.B, v.C
	return err
}

// ServoGoTo moves a servo on Pin to Angle degrees
type ServoGoTo struct {
	Pin   uint8
	Angle uint8
}

// MarshalBinary implements encoding.BinaryMarshaler
func (s ServoGoTo) MarshalBinary() ([]byte, error) {
	return []byte{s.Pin, s.Angle}, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler
func (s *ServoGoTo) UnmarshalBinary(data []byte) error {
	r := reader{buf: data}
	s.Pin = r.u8()
	s.Angle = r.u8()
	return r.err
}

// StepperStep moves the stepper registered under Pin by Steps
type StepperStep struct {
	Pin   uint8
	Steps int32
}

// MarshalBinary implements encoding.BinaryMarshaler
func (s StepperStep) MarshalBinary() ([]byte, error) {
	b := []byte{s.Pin}
	return binary.LittleEndian.AppendUint32(b, uint32(s.Steps)), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler
func (s *StepperStep) UnmarshalBinary(data []byte) error {
	r := reader{buf: data}
	s.Pin = r.u8()
	s.Steps = int32(r.u32())
	return r.err
}

// reader decodes packed little-endian fields, latching the first error
type reader struct {
	buf []byte
	err error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.buf) < n {
		r.err = ErrShortPayload
		return nil
	}
	b := r.buf[:n]
	r.buf = r.buf[n:]
	return b
}

func (r *reader) u8() uint8 {
	if b := r.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *reader) u16() uint16 {
	if b := r.take(2); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (r *reader) u32() uint32 {
	if b := r.take(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (r *reader) f32() float32 {
	return math.Float32frombits(r.u32())
}

func appendF32(b []byte, f float32) []byte {
	return binary.LittleEndian.AppendUint32(b, math.Float32bits(f))
}

func appendBool(b []byte, v bool) []byte {
	if v {
		return append(b, 1)
	}
	return append(b, 0)
}
