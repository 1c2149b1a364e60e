//go:build rp2040

package main

import (
	_ "embed"
	"machine"
	"time"

	"rollingbase/config"
	"rollingbase/core"
	"rollingbase/firmware"
	"rollingbase/motion"
	"rollingbase/protocol"
)

// robot.json describes the wiring of this board
//
//go:embed robot.json
var robotJSON []byte

// outboxDepth bounds the completions waiting for the main loop
const outboxDepth = 8

var (
	// Buffers for communication
	inputBuffer  *protocol.RxRing
	outputBuffer *protocol.ScratchOutput
	transport    *protocol.Transport

	ctrl *motion.Controller
	fw   *firmware.Firmware

	// Debug counters
	framesSent uint32
	msgerrors  uint32

	// USB connection state tracking
	usbWasDisconnected       bool
	consecutiveWriteFailures uint32
)

// ledBlink blinks the LED a number of times for diagnostics
func ledBlink(count int) {
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for i := 0; i < count; i++ {
		led.High()
		time.Sleep(150 * time.Millisecond)
		led.Low()
		time.Sleep(150 * time.Millisecond)
	}
	time.Sleep(500 * time.Millisecond)
}

// fail blinks count forever; the base cannot run without its drive
func fail(count int, err error) {
	core.DebugPrintln("[INIT] " + err.Error())
	for {
		ledBlink(count)
	}
}

func main() {
	// Disable the watchdog to clear state left by a previous reset
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0}); err != nil {
		return
	}

	InitUSB()
	InitDebugUART()
	UpdateSystemTime()
	core.TimerInit()

	cfg, err := config.Load(robotJSON)
	if err != nil {
		core.DebugPrintln("[INIT] robot.json: " + err.Error() + ", using defaults")
		cfg = config.Default()
	}

	gpioDriver := NewRPGPIODriver()
	core.SetGPIODriver(gpioDriver)
	pwmDriver := NewRP2040PWMDriver()
	core.SetPWMDriver(pwmDriver)
	core.SetServoDriver(NewRPServoDriver())

	drive, odom, err := initDrive(cfg, gpioDriver, pwmDriver)
	if err != nil {
		fail(2, err)
	}
	initServos(cfg)
	initSteppers(cfg)

	inputBuffer = protocol.NewRxRing(2 * protocol.FrameLengthMax)
	outputBuffer = protocol.NewScratchOutput()

	outbox := firmware.NewOutbox(outboxDepth)
	ctrl = motion.NewController(drive, odom, outbox, cfg.ControllerConfig())

	transport = protocol.NewTransport(outputBuffer, func(msgType uint8, payload []byte) {
		fw.HandleFrame(msgType, payload)
	})
	fw = firmware.New(ctrl, outbox, transport, firmware.Options{
		Precision: cfg.Precision(),
	})
	transport.SetRejectCallback(fw.FrameRejected)
	// Push NACKs and replies out as soon as they are framed
	transport.SetFlushCallback(writeUSB)

	go usbReaderLoop()

	UpdateSystemTime()
	ctrl.Start(core.GetTime())

	for {
		// Recover from panics so one bad iteration cannot stop the base
		func() {
			defer func() {
				if r := recover(); r != nil {
					msgerrors++
					core.DumpEventRing()
					inputBuffer.Reset()
					outputBuffer.Reset()
				}
			}()

			UpdateSystemTime()

			if inputBuffer.Buffered() > 0 {
				transport.Receive(inputBuffer)
			}

			// Completions and telemetry queued by the control tick
			fw.Flush()

			if len(outputBuffer.Result()) > 0 {
				writeUSB()
				framesSent++
			}

			core.ProcessTimers()
		}()

		time.Sleep(10 * time.Microsecond)
	}
}

// initDrive builds the wheels, binds the encoders and sets up odometry
func initDrive(cfg *config.Config, gpio core.GPIODriver, pwm core.PWMDriver) (*motion.Drive, *motion.Odometry, error) {
	rightCfg, err := cfg.RightWheel.Motion(cfg.PWMFrequency)
	if err != nil {
		return nil, nil, err
	}
	leftCfg, err := cfg.LeftWheel.Motion(cfg.PWMFrequency)
	if err != nil {
		return nil, nil, err
	}

	right := motion.NewWheel(rightCfg, gpio, pwm)
	left := motion.NewWheel(leftCfg, gpio, pwm)
	for _, w := range []*motion.Wheel{right, left} {
		if err := w.Init(); err != nil {
			return nil, nil, err
		}
		if err := w.BindEncoder(); err != nil {
			return nil, nil, err
		}
	}

	geom := cfg.DriveGeometry()
	drive := motion.NewDrive(right, left, geom, cfg.Gains())
	if cfg.DisableIdleHold {
		drive.SetHoldOnIdle(false)
	}
	return drive, motion.NewOdometry(geom, &right.Ticks, &left.Ticks), nil
}

// initServos attaches the configured servos up front so their first move
// does not wait for PWM setup
func initServos(cfg *config.Config) {
	drv := core.GetServoDriver()
	for _, sc := range cfg.Servos {
		pin, err := config.ParsePin(sc.Pin)
		if err == nil {
			err = drv.Attach(pin)
		}
		if err != nil {
			core.DebugPrintln("[SERVO] " + sc.Pin + ": " + err.Error())
		}
	}
}

// usbReaderLoop moves bytes from USB into the input FIFO
func usbReaderLoop() {
	defer func() {
		if r := recover(); r != nil {
			msgerrors++
			time.Sleep(100 * time.Millisecond)
			go usbReaderLoop()
		}
	}()

	for {
		if USBAvailable() > 0 {
			data, err := USBRead()
			if err != nil {
				msgerrors++
				time.Sleep(1 * time.Millisecond)
				continue
			}

			// A fresh connection starts without stale frames
			if usbWasDisconnected {
				usbWasDisconnected = false
				inputBuffer.Reset()
				outputBuffer.Reset()
				transport.Reset()
				consecutiveWriteFailures = 0
			}

			if inputBuffer.Write([]byte{data}) == 0 {
				msgerrors++
				time.Sleep(10 * time.Millisecond)
			}
		}
		time.Sleep(100 * time.Microsecond)
	}
}

// writeUSB drains the output buffer to USB. Repeated failures mark the
// host as gone and drop what is buffered.
func writeUSB() {
	result := outputBuffer.Result()
	written := 0
	for written < len(result) {
		n, err := USBWriteBytes(result[written:])
		if err != nil || n == 0 {
			consecutiveWriteFailures++
			if consecutiveWriteFailures > 10 {
				usbWasDisconnected = true
				consecutiveWriteFailures = 0
				outputBuffer.Reset()
				inputBuffer.Reset()
			}
			return
		}
		written += n
	}
	consecutiveWriteFailures = 0
	outputBuffer.Reset()
}
