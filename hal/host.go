//go:build !tinygo

package hal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// HostConfig selects the optional pieces of the host HAL.
type HostConfig struct {
	// SerialPort, when set, mirrors every log line to that device.
	SerialPort string
	SerialBaud int

	// Mode is the initial state of the simulated field controller.
	Mode CompetitionMode
}

type hostHAL struct {
	logger *hostLogger
	fb     *memFramebuffer
	clock  *hostClock
	adi    *virtualADI
	smart  *virtualSmart
	pads   [2]*virtualController
	comp   *virtualCompetition
	kbd    *hostKeyboard
}

// New returns a host HAL implementation with default settings.
func New() HAL {
	return newHost(HostConfig{})
}

func newHost(cfg HostConfig) *hostHAL {
	fd := os.Stdout.Fd()
	logger := &hostLogger{
		w:     colorable.NewColorableStdout(),
		color: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
	}
	if cfg.SerialPort != "" {
		port, err := openSerialMirror(cfg.SerialPort, cfg.SerialBaud)
		if err != nil {
			logger.WriteLineString(fmt.Sprintf("hal: serial mirror disabled: %v", err))
		} else {
			logger.mirror = port
		}
	}
	h := &hostHAL{
		logger: logger,
		fb:     newMemFramebuffer(ScreenWidth, ScreenHeight),
		clock:  newHostClock(),
		adi:    newVirtualADI(),
		smart:  newVirtualSmart(time.Now),
		pads: [2]*virtualController{
			newVirtualController(ControllerTethered),
			newVirtualController(ControllerDisconnected),
		},
		comp: newVirtualCompetition(cfg.Mode),
	}
	h.kbd = newHostKeyboard(h.setMode, h.pads[ControllerMaster])
	return h
}

func (h *hostHAL) Logger() Logger           { return h.logger }
func (h *hostHAL) Display() Display         { return hostDisplay{fb: h.fb} }
func (h *hostHAL) Clock() Clock             { return h.clock }
func (h *hostHAL) ADI() ADI                 { return h.adi }
func (h *hostHAL) Smart() Smart             { return h.smart }
func (h *hostHAL) Competition() Competition { return h.comp }

func (h *hostHAL) Controller(id ControllerID) Controller {
	if int(id) >= len(h.pads) {
		return nil
	}
	return h.pads[id]
}

func (h *hostHAL) attach(port, index int, src func() int32) error {
	return h.adi.attach(port, index, src)
}

func (h *hostHAL) setMode(m CompetitionMode) {
	if h.comp.Status().Mode() != m {
		h.logger.WriteLineString(fmt.Sprintf("hal: competition mode=%s", m))
	}
	h.comp.set(m)
}

type hostDisplay struct {
	fb *memFramebuffer
}

func (d hostDisplay) Framebuffer() Framebuffer { return d.fb }

type hostLogger struct {
	mu     sync.Mutex
	w      io.Writer
	color  bool
	mirror io.WriteCloser
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c := lineColor(s); l.color && c != "" {
		fmt.Fprintf(l.w, "%s%s\x1b[0m\n", c, s)
	} else {
		fmt.Fprintln(l.w, s)
	}
	if l.mirror != nil {
		if _, err := io.WriteString(l.mirror, s+"\r\n"); err != nil {
			l.mirror.Close()
			l.mirror = nil
			fmt.Fprintf(l.w, "hal: serial mirror closed: %v\n", err)
		}
	}
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.WriteLineString(string(b))
}

// lineColor picks an ANSI colour for a log line from its content.
func lineColor(s string) string {
	switch {
	case strings.Contains(s, "panic") || strings.Contains(s, "abort") || strings.Contains(s, "fault"):
		return "\x1b[31m"
	case strings.Contains(s, "no runnable task") || strings.Contains(s, "dropped"):
		return "\x1b[33m"
	case strings.HasPrefix(s, "system:"):
		return "\x1b[36m"
	}
	return ""
}
