package hal

import (
	"testing"
	"time"
)

func TestSquareWave(t *testing.T) {
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }

	src := squareWave(10*time.Second, 2*time.Second, clock)
	if src() != 1 {
		t.Fatal("expected high at t=0")
	}

	now = now.Add(3 * time.Second)
	if src() != 0 {
		t.Fatal("expected low at t=3s")
	}

	now = now.Add(8 * time.Second) // t=11s => phase 1s, high again
	if src() != 1 {
		t.Fatal("expected high at t=11s")
	}
}

func TestVirtualLineConfigRules(t *testing.T) {
	l := newVirtualLine("22A")
	if l.Config() != ADIUndefined {
		t.Fatalf("fresh line config = %v", l.Config())
	}
	if _, err := l.Value(); err == nil {
		t.Fatal("Value on an unconfigured line succeeded")
	}
	if err := l.Configure(ADIConfig(40)); err == nil {
		t.Fatal("Configure accepted an invalid code")
	}

	if err := l.Configure(ADIDigitalIn); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if err := l.SetValue(1); err == nil {
		t.Fatal("SetValue on a digital input succeeded")
	}

	if err := l.Configure(ADIDigitalOut); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if err := l.SetValue(1); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if v, err := l.Value(); err != nil || v != 1 {
		t.Fatalf("Value() = %d, %v", v, err)
	}

	// Reconfiguring clears the stored value.
	if err := l.Configure(ADIAnalogIn); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if v, _ := l.Value(); v != 0 {
		t.Fatalf("value survived reconfiguration: %d", v)
	}
}

func TestVirtualADIAttachFeedsInputsOnly(t *testing.T) {
	a := newVirtualADI()
	if a.Line(0, 0) != nil || a.Line(1, 8) != nil || a.Line(1, -1) != nil {
		t.Fatal("out of range line returned")
	}
	if a.Line(22, 0) != a.Line(22, 0) {
		t.Fatal("line identity not stable")
	}

	if err := a.attach(22, 0, func() int32 { return 7 }); err != nil {
		t.Fatalf("attach: %v", err)
	}
	l := a.Line(22, 0)
	l.Configure(ADIAnalogIn)
	if v, _ := l.Value(); v != 7 {
		t.Fatalf("attached input reads %d, want 7", v)
	}
	l.Configure(ADIAnalogOut)
	l.SetValue(3)
	if v, _ := l.Value(); v != 3 {
		t.Fatalf("output reads %d, want its written value 3", v)
	}
	if err := a.attach(0, 0, nil); err == nil {
		t.Fatal("attach to a missing line succeeded")
	}
}

func TestADIConfigNames(t *testing.T) {
	cases := map[ADIConfig]string{
		ADIAnalogIn:    "analog-in",
		ADIQuadEncoder: "quad-encoder",
		ADIPWMSlew:     "pwm-slew",
		ADIUndefined:   "undefined",
		ADIConfig(99):  "adi(99)",
	}
	for c, want := range cases {
		if got := c.String(); got != want {
			t.Fatalf("%d.String() = %q, want %q", uint8(c), got, want)
		}
	}
	if ADIConfig(17).Valid() {
		t.Fatal("code 17 reported valid")
	}
}
