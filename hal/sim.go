package hal

import "time"

// simulator is implemented by HALs whose field controller and three-wire
// inputs are simulated.
type simulator interface {
	attach(port, index int, src func() int32) error
	setMode(m CompetitionMode)
}

// AttachSignal drives a simulated input line with a square wave that is
// high for the first high of every period.
func AttachSignal(h HAL, port, index int, period, high time.Duration) error {
	s, ok := h.(simulator)
	if !ok {
		return ErrNotImplemented
	}
	return s.attach(port, index, squareWave(period, high, time.Now))
}

// SetCompetitionMode switches a simulated field controller.
func SetCompetitionMode(h HAL, m CompetitionMode) error {
	s, ok := h.(simulator)
	if !ok {
		return ErrNotImplemented
	}
	s.setMode(m)
	return nil
}
