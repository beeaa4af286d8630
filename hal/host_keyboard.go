//go:build !tinygo && cgo

package hal

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// modeKeys switch the simulated field controller from the window.
var modeKeys = []struct {
	key  ebiten.Key
	mode CompetitionMode
}{
	{ebiten.KeyF1, ModeDisabled},
	{ebiten.KeyF2, ModeAutonomous},
	{ebiten.KeyF3, ModeDriverControl},
	{ebiten.KeyF4, ModeDisconnected},
}

// buttonKeys hold the master controller's buttons while pressed: shoulders
// on Q/Z and E/C, the d-pad on TFGH and the face buttons on IJKL.
var buttonKeys = []struct {
	key    ebiten.Key
	button Button
}{
	{ebiten.KeyQ, ButtonL1},
	{ebiten.KeyZ, ButtonL2},
	{ebiten.KeyE, ButtonR1},
	{ebiten.KeyC, ButtonR2},
	{ebiten.KeyT, ButtonUp},
	{ebiten.KeyG, ButtonDown},
	{ebiten.KeyF, ButtonLeft},
	{ebiten.KeyH, ButtonRight},
	{ebiten.KeyI, ButtonX},
	{ebiten.KeyL, ButtonB},
	{ebiten.KeyJ, ButtonY},
	{ebiten.KeyK, ButtonA},
}

// axisKeys push a stick to full deflection: WASD for the left stick, the
// arrows for the right one.
var axisKeys = []struct {
	neg, pos ebiten.Key
	axis     Axis
}{
	{ebiten.KeyA, ebiten.KeyD, AxisLeftX},
	{ebiten.KeyS, ebiten.KeyW, AxisLeftY},
	{ebiten.KeyArrowLeft, ebiten.KeyArrowRight, AxisRightX},
	{ebiten.KeyArrowDown, ebiten.KeyArrowUp, AxisRightY},
}

type hostKeyboard struct {
	setMode func(CompetitionMode)
	pad     *virtualController
}

func newHostKeyboard(setMode func(CompetitionMode), pad *virtualController) *hostKeyboard {
	return &hostKeyboard{setMode: setMode, pad: pad}
}

func (k *hostKeyboard) poll() {
	for _, mk := range modeKeys {
		if inpututil.IsKeyJustPressed(mk.key) {
			k.setMode(mk.mode)
		}
	}
	if k.pad != nil {
		k.pollPad(ebiten.IsKeyPressed)
	}
}

func (k *hostKeyboard) pollPad(held func(ebiten.Key) bool) {
	for _, bk := range buttonKeys {
		k.pad.setButton(bk.button, held(bk.key))
	}
	for _, ak := range axisKeys {
		var v int32
		if held(ak.pos) {
			v += AnalogMax
		}
		if held(ak.neg) {
			v -= AnalogMax
		}
		k.pad.setAxis(ak.axis, v)
	}
}
