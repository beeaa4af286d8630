package devices

import "fmt"

// adiDevice is one reserved three-wire line. Each access locks the line and
// checks that the hardware still carries the configuration it was reserved
// with.
type adiDevice struct {
	reg   *Registry
	port  Port
	index int
	kind  ADIKind
}

func newADIDevice(reg *Registry, port Port, index int, kind ADIKind) (adiDevice, error) {
	if err := reg.ReserveSub(port, index, kind); err != nil {
		return adiDevice{}, err
	}
	return adiDevice{reg: reg, port: port, index: index, kind: kind}, nil
}

func (d adiDevice) with(fn func(l *Line) error) error {
	g, err := d.reg.Lock(d.port, d.index, d.kind)
	if err != nil {
		return err
	}
	defer g.Release()
	l := g.Value()
	if cfg := l.Config(); l.hw != nil && cfg != d.kind.ConfigCode() {
		// The fault may not return; leave the line usable for others.
		g.Release()
		return d.reg.fail(&Fault{Op: "access", Port: d.port, Index: d.index, Reason: "line reconfigured", Want: d.kind.String(), Have: ADIKindFromConfig(cfg).String()})
	}
	return fn(l)
}

func (d adiDevice) read() (int32, error) {
	var v int32
	err := d.with(func(l *Line) error {
		var err error
		v, err = l.Read()
		return err
	})
	return v, err
}

func (d adiDevice) write(v int32) error {
	return d.with(func(l *Line) error { return l.Write(v) })
}

func (d adiDevice) String() string {
	return fmt.Sprintf("%s@%d%s", d.kind, d.port, LineName(d.index))
}

// DigitalIn is a switch or limit sensor.
type DigitalIn struct {
	adiDevice
	last bool
}

func NewDigitalIn(reg *Registry, port Port, index int) (*DigitalIn, error) {
	d, err := newADIDevice(reg, port, index, ADIDigitalIn)
	if err != nil {
		return nil, err
	}
	return &DigitalIn{adiDevice: d}, nil
}

func (d *DigitalIn) Read() (bool, error) {
	v, err := d.read()
	return v != 0, err
}

// RisingEdge reports whether the input went high since the previous edge
// check.
func (d *DigitalIn) RisingEdge() (bool, error) {
	v, err := d.Read()
	if err != nil {
		return false, err
	}
	edge := v && !d.last
	d.last = v
	return edge, nil
}

// FallingEdge reports whether the input went low since the previous edge
// check.
func (d *DigitalIn) FallingEdge() (bool, error) {
	v, err := d.Read()
	if err != nil {
		return false, err
	}
	edge := !v && d.last
	d.last = v
	return edge, nil
}

// AwaitHigh yields until the input reads high.
func (d *DigitalIn) AwaitHigh() error { return d.await(true) }

// AwaitLow yields until the input reads low.
func (d *DigitalIn) AwaitLow() error { return d.await(false) }

func (d *DigitalIn) await(level bool) error {
	for {
		v, err := d.Read()
		if err != nil {
			return err
		}
		if v == level {
			return nil
		}
		d.reg.Yield()
	}
}

type DigitalOut struct {
	adiDevice
	level bool
}

func NewDigitalOut(reg *Registry, port Port, index int) (*DigitalOut, error) {
	d, err := newADIDevice(reg, port, index, ADIDigitalOut)
	if err != nil {
		return nil, err
	}
	return &DigitalOut{adiDevice: d}, nil
}

func (d *DigitalOut) Write(level bool) error {
	v := int32(0)
	if level {
		v = 1
	}
	if err := d.write(v); err != nil {
		return err
	}
	d.level = level
	return nil
}

// Toggle inverts the last written level.
func (d *DigitalOut) Toggle() error { return d.Write(!d.level) }

// Level returns the last written level.
func (d *DigitalOut) Level() bool { return d.level }

type AnalogIn struct {
	adiDevice
}

func NewAnalogIn(reg *Registry, port Port, index int) (*AnalogIn, error) {
	d, err := newADIDevice(reg, port, index, ADIAnalogIn)
	if err != nil {
		return nil, err
	}
	return &AnalogIn{adiDevice: d}, nil
}

func (a *AnalogIn) Read() (int32, error) { return a.read() }

type AnalogOut struct {
	adiDevice
}

func NewAnalogOut(reg *Registry, port Port, index int) (*AnalogOut, error) {
	d, err := newADIDevice(reg, port, index, ADIAnalogOut)
	if err != nil {
		return nil, err
	}
	return &AnalogOut{adiDevice: d}, nil
}

func (a *AnalogOut) Write(v int32) error { return a.write(v) }

// Encoder is a quadrature encoder on two lines. The first line carries the
// tick count, the second the rate.
type Encoder struct {
	ticks adiDevice
	rate  adiDevice
}

func NewEncoder(reg *Registry, port Port, top, bottom int) (*Encoder, error) {
	if top == bottom {
		return nil, reg.fail(&Fault{Op: "encoder", Port: port, Index: top, Reason: "encoder needs two distinct lines"})
	}
	t, err := newADIDevice(reg, port, top, ADIQuadEncoder)
	if err != nil {
		return nil, err
	}
	b, err := newADIDevice(reg, port, bottom, ADIQuadEncoder)
	if err != nil {
		return nil, err
	}
	return &Encoder{ticks: t, rate: b}, nil
}

func (e *Encoder) Ticks() (int32, error) { return e.ticks.read() }
func (e *Encoder) Rate() (int32, error)  { return e.rate.read() }

// Reset zeroes the count.
func (e *Encoder) Reset() error { return e.SetPosition(0) }

// SetPosition makes the current position read as pos. Both lines are
// held for the update.
func (e *Encoder) SetPosition(pos int32) error {
	return e.ticks.with(func(t *Line) error {
		return e.rate.with(func(r *Line) error {
			if err := t.Write(pos); err != nil {
				return err
			}
			return r.Write(pos)
		})
	})
}
