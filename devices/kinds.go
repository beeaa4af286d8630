package devices

import (
	"fmt"
	"strings"

	"brainos/hal"
)

// Kind is what a smart port is bound to.
type Kind uint8

const (
	KindNone Kind = iota
	KindMotor
	KindRotation
	KindIMU
	KindDistance
	KindOptical
	KindVision
	KindGPS
	KindRadio
	KindSerial
	KindADIExpander
)

var kindNames = [...]string{
	KindNone:        "none",
	KindMotor:       "motor",
	KindRotation:    "rotation",
	KindIMU:         "imu",
	KindDistance:    "distance",
	KindOptical:     "optical",
	KindVision:      "vision",
	KindGPS:         "gps",
	KindRadio:       "radio",
	KindSerial:      "serial",
	KindADIExpander: "adi-expander",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind accepts the names printed by String.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	if s == "adi" || s == "expander" {
		return KindADIExpander, nil
	}
	return KindNone, fmt.Errorf("devices: unknown port kind %q", s)
}

// ADIKind is what a three-wire line is bound to. Apart from ADINone every
// kind corresponds to one hardware configuration code.
type ADIKind uint8

const (
	ADINone ADIKind = iota
	ADIAnalogIn
	ADIAnalogOut
	ADIDigitalIn
	ADIDigitalOut
	ADISmartButton
	ADISmartPot
	ADILegacyButton
	ADILegacyPot
	ADILineSensor
	ADILightSensor
	ADIGyro
	ADIAccelerometer
	ADIServo
	ADIPWM
	ADIQuadEncoder
	ADISonar
	ADIPWMSlew

	adiKindCount
)

// ConfigCode returns the hardware configuration for k.
func (k ADIKind) ConfigCode() hal.ADIConfig {
	if k == ADINone || k >= adiKindCount {
		return hal.ADIUndefined
	}
	return hal.ADIConfig(k - 1)
}

// ADIKindFromConfig maps a hardware configuration back to its kind.
func ADIKindFromConfig(c hal.ADIConfig) ADIKind {
	if c > hal.ADIPWMSlew {
		return ADINone
	}
	return ADIKind(c) + 1
}

func (k ADIKind) String() string {
	if k == ADINone {
		return "none"
	}
	return k.ConfigCode().String()
}

// ParseADIKind accepts the names printed by String.
func ParseADIKind(s string) (ADIKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k := ADINone; k < adiKindCount; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return ADINone, fmt.Errorf("devices: unknown adi kind %q", s)
}

// LineName returns the letter of a three-wire line index, A..H.
func LineName(index int) string {
	if index < 0 || index >= ADILines {
		return fmt.Sprintf("?%d", index)
	}
	return string(rune('A' + index))
}

// ParseLine accepts a line letter (A..H, any case) or index (0..7).
func ParseLine(s string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) == 1 {
		c := s[0]
		switch {
		case c >= 'A' && c < 'A'+ADILines:
			return int(c - 'A'), nil
		case c >= 'a' && c < 'a'+ADILines:
			return int(c - 'a'), nil
		case c >= '0' && c < '0'+ADILines:
			return int(c - '0'), nil
		}
	}
	return 0, fmt.Errorf("devices: invalid adi line %q", s)
}
