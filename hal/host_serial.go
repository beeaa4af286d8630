//go:build !tinygo

package hal

import (
	"fmt"
	"io"

	"go.bug.st/serial"
)

const defaultSerialBaud = 115200

// openSerialMirror opens a serial device for the log mirror, 8N1.
func openSerialMirror(name string, baud int) (io.WriteCloser, error) {
	if baud <= 0 {
		baud = defaultSerialBaud
	}
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", name, err)
	}
	return port, nil
}
