package serial

import (
	"testing"

	"go.bug.st/serial/enumerator"
)

func TestMatchPort(t *testing.T) {
	ports := []*enumerator.PortDetails{
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyACM0", IsUSB: true, VID: "2E8A", PID: "000A", SerialNumber: "E6614"},
		{Name: "/dev/ttyACM1", IsUSB: true, VID: "16C0", PID: "0483", SerialNumber: "12678590"},
		{Name: "/dev/ttyACM2", IsUSB: true, VID: "16c0", PID: "0483", SerialNumber: "999"},
	}

	tests := []struct {
		name   string
		vid    uint16
		pid    uint16
		serial string
		want   string
		ok     bool
	}{
		{"first board", DefaultVID, DefaultPID, "", "/dev/ttyACM1", true},
		{"by serial", DefaultVID, DefaultPID, "999", "/dev/ttyACM2", true},
		{"other vendor", 0x2E8A, 0x000A, "", "/dev/ttyACM0", true},
		{"unknown serial", DefaultVID, DefaultPID, "1", "", false},
		{"unknown vendor", 0x1234, 0x0001, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := matchPort(ports, tt.vid, tt.pid, tt.serial)
			if got != tt.want || ok != tt.ok {
				t.Errorf("matchPort = %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyACM0")
	if cfg.Device != "/dev/ttyACM0" || cfg.Baud != DefaultBaud || cfg.ReadTimeout != 100 {
		t.Errorf("DefaultConfig = %+v", cfg)
	}
}
