//go:build !tinygo

package core

// getSystemTime returns the current system time (regular Go implementation)
func getSystemTime() uint32 {
	return systemTime
}

// setSystemTime sets the system time (regular Go implementation)
func setSystemTime(us uint32) {
	systemTime = us
}
