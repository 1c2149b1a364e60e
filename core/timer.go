package core

// TimerFreq is the system clock rate. Time is kept in microseconds,
// matching the RP2040 hardware timer.
const TimerFreq = 1000000

var (
	systemTime uint32
	bootTime   uint32
)

// GetTime returns the current system time in microseconds
func GetTime() uint32 {
	return getSystemTime()
}

// SetTime sets the current system time (for testing/hardware integration)
func SetTime(us uint32) {
	setSystemTime(us)
}

// TimerFromMS converts milliseconds to timer ticks
func TimerFromMS(ms uint32) uint32 {
	return ms * (TimerFreq / 1000)
}

// TimerToMS converts timer ticks to milliseconds
func TimerToMS(ticks uint32) uint32 {
	return ticks / (TimerFreq / 1000)
}

// TimerInit records the boot time
func TimerInit() {
	bootTime = GetTime()
}

// Uptime returns microseconds elapsed since TimerInit
func Uptime() uint32 {
	return GetTime() - bootTime
}

// ProcessTimers runs every timer whose wake time has passed
func ProcessTimers() {
	TimerDispatch(GetTime())
}
