package devices

import (
	"fmt"

	"brainos/hal"
	"brainos/kernel"
)

const (
	// SmartPorts is the number of smart ports, numbered 1..SmartPorts.
	SmartPorts = 22
	// InternalADIPort is the brain's built-in three-wire expander.
	InternalADIPort Port = 22
	// ADILines is the number of lines on an expander, A..H.
	ADILines = 8
)

// Port is a 1-based smart port number.
type Port uint8

func (p Port) valid() bool { return p >= 1 && p <= SmartPorts }

// Runtime is what the registry needs from the scheduler.
type Runtime interface {
	kernel.Runtime
	Yield()
	Abort(err error)
}

// Line is the payload of a three-wire line lock: the physical line behind
// (Port, Index).
type Line struct {
	Port  Port
	Index int
	Kind  ADIKind
	hw    hal.ADILine
}

func (l *Line) Read() (int32, error) {
	if l.hw == nil {
		return 0, fmt.Errorf("devices: port %d line %s: %w", l.Port, LineName(l.Index), hal.ErrNotImplemented)
	}
	return l.hw.Value()
}

func (l *Line) Write(v int32) error {
	if l.hw == nil {
		return fmt.Errorf("devices: port %d line %s: %w", l.Port, LineName(l.Index), hal.ErrNotImplemented)
	}
	return l.hw.SetValue(v)
}

// Config returns the configuration the hardware reports, or undefined when
// there is no hardware behind the line.
func (l *Line) Config() hal.ADIConfig {
	if l.hw == nil {
		return hal.ADIUndefined
	}
	return l.hw.Config()
}

// SmartPort is the payload of a smart port lock.
type SmartPort struct {
	Port  Port
	Kind  Kind
	motor hal.Motor
}

// Motor returns the motor hardware behind a port bound as a motor.
func (p *SmartPort) Motor() (hal.Motor, error) {
	if p.Kind != KindMotor || p.motor == nil {
		return nil, fmt.Errorf("devices: port %d motor: %w", p.Port, hal.ErrNotImplemented)
	}
	return p.motor, nil
}

// Hardware is what a registry binds devices to. Any part may be nil.
type Hardware struct {
	ADI        hal.ADI
	Smart      hal.Smart
	Controller func(id hal.ControllerID) hal.Controller
}

// PortInfo describes one bound smart port.
type PortInfo struct {
	Port  Port
	Kind  Kind
	Lines [ADILines]ADIKind
}

type descriptor struct {
	kind  Kind
	lines [ADILines]ADIKind
}

// Registry tracks which device kind each port and three-wire line is bound
// to and serialises access to them.
//
// Bindings are permanent: once a port or line is bound to a kind it can only
// be requested as that kind again. Any violation is a Fault, which aborts the
// calling task.
type Registry struct {
	rt Runtime
	hw Hardware

	ports [SmartPorts]descriptor

	// Locks are created on first use and never move.
	lineLocks  [SmartPorts][ADILines]*kernel.Mutex[Line]
	smartLocks [SmartPorts]*kernel.Mutex[SmartPort]
	pads       [2]*Controller
}

// NewRegistry returns a registry with only the internal expander bound.
func NewRegistry(rt Runtime, hw Hardware) *Registry {
	r := &Registry{rt: rt, hw: hw}
	r.ports[InternalADIPort-1].kind = KindADIExpander
	return r
}

// Reserve binds port to kind. Reserving the same kind again is a no-op.
func (r *Registry) Reserve(port Port, kind Kind) error {
	if err := r.checkPort("reserve", port); err != nil {
		return err
	}
	if kind == KindNone || int(kind) >= len(kindNames) {
		return r.fail(&Fault{Op: "reserve", Port: port, Index: -1, Reason: "invalid kind", Want: kind.String()})
	}
	d := &r.ports[port-1]
	switch d.kind {
	case KindNone:
		d.kind = kind
		return nil
	case kind:
		return nil
	}
	return r.fail(&Fault{Op: "reserve", Port: port, Index: -1, Reason: "port already bound", Want: kind.String(), Have: d.kind.String()})
}

// ReserveSub binds line index of the expander on port to kind and configures
// the line. The port must already be an expander.
func (r *Registry) ReserveSub(port Port, index int, kind ADIKind) error {
	if err := r.checkLine("reserve-sub", port, index); err != nil {
		return err
	}
	if kind == ADINone || kind >= adiKindCount {
		return r.fail(&Fault{Op: "reserve-sub", Port: port, Index: index, Reason: "invalid adi kind", Want: kind.String()})
	}
	d := &r.ports[port-1]
	if d.kind != KindADIExpander {
		return r.fail(&Fault{Op: "reserve-sub", Port: port, Index: index, Reason: "port is not an expander", Want: KindADIExpander.String(), Have: d.kind.String()})
	}
	switch d.lines[index] {
	case kind:
		return nil
	case ADINone:
	default:
		return r.fail(&Fault{Op: "reserve-sub", Port: port, Index: index, Reason: "line already bound", Want: kind.String(), Have: d.lines[index].String()})
	}

	if hw := r.line(port, index); hw != nil {
		if err := hw.Configure(kind.ConfigCode()); err != nil {
			return r.fail(&Fault{Op: "reserve-sub", Port: port, Index: index, Reason: err.Error(), Want: kind.String()})
		}
	}
	d.lines[index] = kind
	return nil
}

// Lock blocks until the caller has exclusive use of line index on port,
// which must be bound to kind.
func (r *Registry) Lock(port Port, index int, kind ADIKind) (*kernel.Guard[Line], error) {
	if err := r.checkLine("lock", port, index); err != nil {
		return nil, err
	}
	if have := r.ports[port-1].lines[index]; have != kind || kind == ADINone {
		return nil, r.fail(&Fault{Op: "lock", Port: port, Index: index, Reason: "line kind mismatch", Want: kind.String(), Have: have.String()})
	}
	m := r.lineLocks[port-1][index]
	if m == nil {
		m = kernel.NewMutex(r.rt, Line{Port: port, Index: index, Kind: kind, hw: r.line(port, index)})
		r.lineLocks[port-1][index] = m
	}
	return m.Acquire(), nil
}

// LockSmart blocks until the caller has exclusive use of port, which must be
// bound to kind.
func (r *Registry) LockSmart(port Port, kind Kind) (*kernel.Guard[SmartPort], error) {
	if err := r.checkPort("lock", port); err != nil {
		return nil, err
	}
	if have := r.ports[port-1].kind; have != kind || kind == KindNone {
		return nil, r.fail(&Fault{Op: "lock", Port: port, Index: -1, Reason: "port kind mismatch", Want: kind.String(), Have: have.String()})
	}
	m := r.smartLocks[port-1]
	if m == nil {
		sp := SmartPort{Port: port, Kind: kind}
		if kind == KindMotor && r.hw.Smart != nil {
			sp.motor = r.hw.Smart.Motor(int(port))
		}
		m = kernel.NewMutex(r.rt, sp)
		r.smartLocks[port-1] = m
	}
	return m.Acquire(), nil
}

// Controller returns the handle of controller id. Every caller gets the same
// handle, so each button edge is reported once however many tasks poll it.
func (r *Registry) Controller(id hal.ControllerID) (*Controller, error) {
	if int(id) >= len(r.pads) {
		return nil, fmt.Errorf("devices: unknown controller %s", id)
	}
	if c := r.pads[id]; c != nil {
		return c, nil
	}
	var hw hal.Controller
	if r.hw.Controller != nil {
		hw = r.hw.Controller(id)
	}
	if hw == nil {
		return nil, fmt.Errorf("devices: controller %s: %w", id, hal.ErrNotImplemented)
	}
	c := newController(r.rt, id, hw)
	r.pads[id] = c
	return c, nil
}

// KindOf returns what port is bound to; KindNone when unbound or out of
// range.
func (r *Registry) KindOf(port Port) Kind {
	if !port.valid() {
		return KindNone
	}
	return r.ports[port-1].kind
}

// SubKindOf returns what line index on port is bound to.
func (r *Registry) SubKindOf(port Port, index int) ADIKind {
	if !port.valid() || index < 0 || index >= ADILines {
		return ADINone
	}
	return r.ports[port-1].lines[index]
}

// Ports lists the bound ports in port order.
func (r *Registry) Ports() []PortInfo {
	var out []PortInfo
	for i := range r.ports {
		d := &r.ports[i]
		if d.kind == KindNone {
			continue
		}
		out = append(out, PortInfo{Port: Port(i + 1), Kind: d.kind, Lines: d.lines})
	}
	return out
}

// Yield gives other tasks a turn; device helpers poll with it.
func (r *Registry) Yield() { r.rt.Yield() }

func (r *Registry) checkPort(op string, port Port) error {
	if !port.valid() {
		return r.fail(&Fault{Op: op, Port: port, Index: -1, Reason: fmt.Sprintf("port out of range 1..%d", SmartPorts)})
	}
	return nil
}

func (r *Registry) checkLine(op string, port Port, index int) error {
	if err := r.checkPort(op, port); err != nil {
		return err
	}
	if index < 0 || index >= ADILines {
		return r.fail(&Fault{Op: op, Port: port, Index: -1, Reason: fmt.Sprintf("line %d out of range 0..%d", index, ADILines-1)})
	}
	return nil
}

func (r *Registry) line(port Port, index int) hal.ADILine {
	if r.hw.ADI == nil {
		return nil
	}
	return r.hw.ADI.Line(int(port), index)
}

// fail aborts the calling task. It only returns when the caller is the
// supervisor, which is never aborted.
func (r *Registry) fail(f *Fault) error {
	r.rt.Abort(f)
	return f
}
