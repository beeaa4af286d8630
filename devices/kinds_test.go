package devices

import (
	"testing"

	"brainos/hal"
)

func TestParseKind(t *testing.T) {
	for k := KindNone; k <= KindADIExpander; k++ {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Fatalf("ParseKind(%q) = %v, %v", k.String(), got, err)
		}
	}
	if got, _ := ParseKind(" ADI "); got != KindADIExpander {
		t.Fatalf("ParseKind(adi) = %v", got)
	}
	if _, err := ParseKind("flux-capacitor"); err == nil {
		t.Fatal("unknown kind parsed")
	}
}

func TestADIKindConfigCodes(t *testing.T) {
	cases := []struct {
		kind ADIKind
		code hal.ADIConfig
	}{
		{ADINone, hal.ADIUndefined},
		{ADIAnalogIn, hal.ADIAnalogIn},
		{ADIDigitalIn, hal.ADIDigitalIn},
		{ADIDigitalOut, hal.ADIDigitalOut},
		{ADIQuadEncoder, hal.ADIQuadEncoder},
		{ADIPWMSlew, hal.ADIPWMSlew},
	}
	for _, tc := range cases {
		if got := tc.kind.ConfigCode(); got != tc.code {
			t.Fatalf("%v.ConfigCode() = %d, want %d", tc.kind, got, tc.code)
		}
		if got := ADIKindFromConfig(tc.code); got != tc.kind {
			t.Fatalf("ADIKindFromConfig(%d) = %v, want %v", tc.code, got, tc.kind)
		}
	}
	for k := ADINone; k < adiKindCount; k++ {
		got, err := ParseADIKind(k.String())
		if err != nil || got != k {
			t.Fatalf("ParseADIKind(%q) = %v, %v", k.String(), got, err)
		}
	}
}

func TestParseLine(t *testing.T) {
	cases := map[string]int{"A": 0, "h": 7, "3": 3, " C ": 2}
	for in, want := range cases {
		got, err := ParseLine(in)
		if err != nil || got != want {
			t.Fatalf("ParseLine(%q) = %d, %v", in, got, err)
		}
	}
	for _, in := range []string{"I", "8", "", "AB"} {
		if _, err := ParseLine(in); err == nil {
			t.Fatalf("ParseLine(%q) succeeded", in)
		}
	}
	if LineName(7) != "H" {
		t.Fatalf("LineName(7) = %q", LineName(7))
	}
}
