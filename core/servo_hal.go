package core

// ServoDriver positions hobby servos on PWM-capable pins
type ServoDriver interface {
	// Attach prepares pin for servo pulses. Attaching twice is allowed.
	Attach(pin GPIOPin) error

	// SetAngle moves the servo on pin to angle degrees (0-180)
	SetAngle(pin GPIOPin, angle uint8) error
}

var servoDriver ServoDriver

// SetServoDriver registers the platform servo driver
func SetServoDriver(d ServoDriver) {
	servoDriver = d
}

// GetServoDriver returns the registered servo driver or nil
func GetServoDriver() ServoDriver {
	return servoDriver
}
