//go:build tinygo

package core

import "sync/atomic"

var systemTimeValue uint32

// getSystemTime returns the current system time
func getSystemTime() uint32 {
	return atomic.LoadUint32(&systemTimeValue)
}

// setSystemTime sets the system time
func setSystemTime(us uint32) {
	atomic.StoreUint32(&systemTimeValue, us)
}
