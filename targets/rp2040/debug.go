//go:build rp2040

package main

import (
	"machine"

	"rollingbase/core"
)

// InitDebugUART routes core debug output to UART1 (TX=GPIO8, RX=GPIO9) at
// 115200 baud. USB carries only protocol frames.
func InitDebugUART() {
	uart := machine.UART1
	err := uart.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GPIO8,
		RX:       machine.GPIO9,
	})
	if err != nil {
		return
	}

	core.SetDebugWriter(func(s string) {
		uart.Write([]byte(s))
		uart.Write([]byte("\r\n"))
	})
	core.SetDebugEnabled(true)
	core.InitAsyncDebug()
	core.DebugPrintln("=== rollingbase debug UART ===")
}
