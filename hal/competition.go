package hal

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// CompetitionStatus is the raw status word reported by the field
// controller.
type CompetitionStatus uint32

const (
	StatusDisabled   CompetitionStatus = 1 << 0
	StatusAutonomous CompetitionStatus = 1 << 1
	StatusConnected  CompetitionStatus = 1 << 2
)

// CompetitionMode is the decoded state the user program runs under.
type CompetitionMode uint8

const (
	ModeDisconnected CompetitionMode = iota
	ModeDisabled
	ModeAutonomous
	ModeDriverControl
)

func (m CompetitionMode) String() string {
	switch m {
	case ModeDisconnected:
		return "disconnected"
	case ModeDisabled:
		return "disabled"
	case ModeAutonomous:
		return "autonomous"
	case ModeDriverControl:
		return "driver"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// ParseCompetitionMode accepts the names printed by String.
func ParseCompetitionMode(s string) (CompetitionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "disconnected", "":
		return ModeDisconnected, nil
	case "disabled":
		return ModeDisabled, nil
	case "autonomous", "auto":
		return ModeAutonomous, nil
	case "driver", "driver-control", "opcontrol":
		return ModeDriverControl, nil
	}
	return ModeDisconnected, fmt.Errorf("competition: unknown mode %q", s)
}

// Mode decodes the status word. Without a field connection the other bits
// are meaningless; a disabled robot reports disabled whatever the
// autonomous bit says.
func (s CompetitionStatus) Mode() CompetitionMode {
	switch {
	case s&StatusConnected == 0:
		return ModeDisconnected
	case s&StatusDisabled != 0:
		return ModeDisabled
	case s&StatusAutonomous != 0:
		return ModeAutonomous
	default:
		return ModeDriverControl
	}
}

// StatusFor is the status word a field controller reports for m.
func StatusFor(m CompetitionMode) CompetitionStatus {
	switch m {
	case ModeDisabled:
		return StatusConnected | StatusDisabled
	case ModeAutonomous:
		return StatusConnected | StatusAutonomous
	case ModeDriverControl:
		return StatusConnected
	default:
		return 0
	}
}

// virtualCompetition is a field controller switched by the host (flags,
// window keys).
type virtualCompetition struct {
	status atomic.Uint32
}

func newVirtualCompetition(m CompetitionMode) *virtualCompetition {
	c := &virtualCompetition{}
	c.set(m)
	return c
}

func (c *virtualCompetition) Status() CompetitionStatus {
	return CompetitionStatus(c.status.Load())
}

func (c *virtualCompetition) set(m CompetitionMode) {
	c.status.Store(uint32(StatusFor(m)))
}
