// Package protocol implements the serial link between the companion computer
// and the motion controller: framing, CRC-8 and the fixed-layout messages.
//
// A frame on the wire is
//
//	msg_type | payload | length | crc8 | BA DD 1C C5
//
// where length = 1 + len(payload) and the CRC covers type, payload and length.
package protocol

// Version represents the firmware protocol version
const Version = "0.1.0"

// Framing constants
const (
	FrameOverhead  = 1 + 1 + 1 + len(endMarker) // type, length, crc, end marker
	MaxPayload     = 250                        // length byte must fit 1+payload
	MessageMax     = 512                        // scratch output capacity
	FrameLengthMax = MaxPayload + FrameOverhead
)

var endMarker = [4]byte{0xBA, 0xDD, 0x1C, 0xC5}

// EndMarker returns the four-byte frame terminator
func EndMarker() []byte {
	return endMarker[:]
}

// Inbound message types (companion to controller), 0-127
const (
	MsgGoTo          uint8 = 0
	MsgCurveGoTo     uint8 = 1
	MsgKeepPosition  uint8 = 2
	MsgDisablePID    uint8 = 3
	MsgEnablePID     uint8 = 4
	MsgResetPosition uint8 = 5
	MsgSetPID        uint8 = 6
	MsgSetHome       uint8 = 7
	MsgOrientToPoint uint8 = 8
	MsgServoGoTo     uint8 = 16
	MsgStepperStep   uint8 = 17
	MsgStop          uint8 = 126
)

// MsgNack asks the peer to resend its last frame. Valid in both directions.
const MsgNack uint8 = 127

// Outbound message types (controller to companion), 128-255
const (
	MsgOdometry       uint8 = 128
	MsgActionFinished uint8 = 129
	MsgText           uint8 = 130
	MsgUnknownType    uint8 = 255
)

// MessageName returns a short name for a message type
func MessageName(t uint8) string {
	switch t {
	case MsgGoTo:
		return "go_to"
	case MsgCurveGoTo:
		return "curve_go_to"
	case MsgKeepPosition:
		return "keep_current_position"
	case MsgDisablePID:
		return "disable_pid"
	case MsgEnablePID:
		return "enable_pid"
	case MsgResetPosition:
		return "reset_position"
	case MsgSetPID:
		return "set_pid"
	case MsgSetHome:
		return "set_home"
	case MsgOrientToPoint:
		return "orient_to_point"
	case MsgServoGoTo:
		return "servo_go_to"
	case MsgStepperStep:
		return "stepper_step"
	case MsgStop:
		return "stop"
	case MsgNack:
		return "nack"
	case MsgOdometry:
		return "odometry"
	case MsgActionFinished:
		return "action_finished"
	case MsgText:
		return "text"
	case MsgUnknownType:
		return "unknown_msg_type"
	}
	return "unknown"
}
