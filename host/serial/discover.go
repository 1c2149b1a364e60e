//go:build !wasm

package serial

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"go.bug.st/serial/enumerator"
)

// USB identifiers of the reference controller board
const (
	DefaultVID = 0x16C0
	DefaultPID = 0x0483
)

// ErrNotFound is returned by Find when no port matches
var ErrNotFound = errors.New("no matching serial device")

// Find returns the device path of the USB serial port with the given
// vendor and product IDs. An empty serialNumber matches any board.
func Find(vid, pid uint16, serialNumber string) (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", errors.Wrap(err, "failed to list serial ports")
	}
	name, ok := matchPort(ports, vid, pid, serialNumber)
	if !ok {
		return "", errors.Wrapf(ErrNotFound, "vid=%04x pid=%04x serial=%q", vid, pid, serialNumber)
	}
	return name, nil
}

func matchPort(ports []*enumerator.PortDetails, vid, pid uint16, serialNumber string) (string, bool) {
	wantVID := fmt.Sprintf("%04x", vid)
	wantPID := fmt.Sprintf("%04x", pid)

	for _, p := range ports {
		if p == nil || !p.IsUSB {
			continue
		}
		if !strings.EqualFold(p.VID, wantVID) || !strings.EqualFold(p.PID, wantPID) {
			continue
		}
		if serialNumber != "" && p.SerialNumber != serialNumber {
			continue
		}
		return p.Name, true
	}
	return "", false
}
