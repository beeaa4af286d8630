//go:build !tinygo && !cgo

package hal

type hostKeyboard struct{}

func newHostKeyboard(func(CompetitionMode), *virtualController) *hostKeyboard {
	return &hostKeyboard{}
}

func (k *hostKeyboard) poll() {
	// No keyboard support without the window backend.
}
