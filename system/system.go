// Package system is the supervisor: it owns slot 0 of the scheduler, boots
// the runtime from a configuration, restarts the user program whenever the
// field controller changes mode and keeps the brain screen up to date.
package system

import (
	"fmt"

	"brainos/config"
	"brainos/console"
	"brainos/devices"
	"brainos/hal"
	"brainos/internal/buildinfo"
	"brainos/kernel"
)

// System is the running runtime. Its methods other than Step are meant to be
// called from tasks.
type System struct {
	h     hal.HAL
	log   *teeLogger
	con   *console.Console
	sched *kernel.Scheduler
	reg   *devices.Registry

	wiring []config.Binding
	user   func(*System)
	task   kernel.TaskHandle

	mode     hal.CompetitionMode
	restarts int
	panics   int
}

// New boots the runtime on h. The caller becomes the supervisor task and must
// drive the system with Step from then on. cfg may be nil for the defaults.
func New(h hal.HAL, cfg *config.Config, user func(*System)) (*System, error) {
	if h == nil {
		return nil, fmt.Errorf("system: nil HAL")
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	stack, err := cfg.StackBytes()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	wiring, err := cfg.Wiring()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	s := &System{h: h, wiring: wiring, user: user}
	if d := h.Display(); d != nil {
		if fb := d.Framebuffer(); fb != nil {
			s.con = console.New(fb, cfg.Log.Lines)
		}
	}
	if s.con != nil {
		s.log = newTeeLogger(h.Logger(), s.con)
	} else {
		s.log = newTeeLogger(h.Logger())
	}

	s.sched = kernel.New(kernel.Config{
		MaxTasks:  cfg.Runtime.MaxTasks,
		StackSize: stack,
		Clock:     h.Clock(),
		Logger:    s.log,
	})
	installPanicHandler(s)

	if err := s.bindPorts(); err != nil {
		return nil, err
	}
	s.mode = s.competitionMode()

	s.logf("system: boot %s tasks=%d stack=%d ports=%d mode=%s",
		buildinfo.Short(), s.sched.MaxTasks(), stack, len(s.reg.Ports()), s.mode)
	s.startUser()
	return s, nil
}

// Step runs one supervisor tick: restart the user program on a competition
// mode change, redraw the screen and give every ready task a turn.
func (s *System) Step() error {
	if m := s.competitionMode(); m != s.mode {
		s.logf("system: competition %s -> %s, restarting user program", s.mode, m)
		s.mode = m
		if err := s.restart(); err != nil {
			return err
		}
	}
	if err := s.draw(); err != nil {
		return err
	}
	s.sched.Yield()
	return nil
}

// Run drives the system forever. It is the entry point of bare-metal builds.
func (s *System) Run() {
	for {
		if err := s.Step(); err != nil {
			s.logf("system: step: %v", err)
		}
	}
}

// restart kills every task but the supervisor and starts the user program
// again. Locks held by killed tasks are never released, so the registry is
// rebuilt from the wiring with fresh ones.
func (s *System) restart() error {
	for id := 1; id < s.sched.MaxTasks(); id++ {
		s.sched.Kill(kernel.TaskID(id))
	}
	if err := s.bindPorts(); err != nil {
		// Respawning on the old registry could block on a killed task's
		// lock; stay idle until the next mode change tries again.
		s.task = kernel.TaskHandle{}
		s.logf("system: restart failed, robot idle until the next mode change: %v", err)
		return err
	}
	s.restarts++
	s.startUser()
	return nil
}

func (s *System) bindPorts() error {
	reg := devices.NewRegistry(s.sched, devices.Hardware{
		ADI:        s.h.ADI(),
		Smart:      s.h.Smart(),
		Controller: s.h.Controller,
	})
	for _, b := range s.wiring {
		if err := reg.Reserve(b.Port, b.Kind); err != nil {
			return fmt.Errorf("system: wiring: %w", err)
		}
		for i, k := range b.Lines {
			if k == devices.ADINone {
				continue
			}
			if err := reg.ReserveSub(b.Port, i, k); err != nil {
				return fmt.Errorf("system: wiring: %w", err)
			}
		}
	}
	s.reg = reg
	return nil
}

func (s *System) startUser() {
	if s.user == nil {
		return
	}
	user := s.user
	s.task = s.sched.Spawn(func() { user(s) })
	if !s.task.Valid() {
		s.logf("system: user program not started")
	}
}

func (s *System) draw() error {
	if s.con == nil {
		return nil
	}
	return s.con.Draw(console.View{
		Build:    buildinfo.Short(),
		Mode:     s.mode,
		Millis:   s.sched.Clock().Millis(),
		Restarts: s.restarts,
		Tasks:    s.sched.Snapshot(),
		Ports:    s.reg.Ports(),
	})
}

func (s *System) competitionMode() hal.CompetitionMode {
	c := s.h.Competition()
	if c == nil {
		return hal.ModeDisconnected
	}
	return c.Status().Mode()
}

func (s *System) logf(format string, args ...any) {
	s.log.WriteLineString(fmt.Sprintf(format, args...))
}

// Scheduler is the task runtime.
func (s *System) Scheduler() *kernel.Scheduler { return s.sched }

// Registry is the port registry of the current run of the user program.
func (s *System) Registry() *devices.Registry { return s.reg }

// Mode is the competition mode the user program was started for.
func (s *System) Mode() hal.CompetitionMode { return s.mode }

// Logger writes to the HAL log and the brain screen.
func (s *System) Logger() hal.Logger { return s.log }

// Printf logs one formatted line.
func (s *System) Printf(format string, args ...any) { s.logf(format, args...) }

// UserTask is the handle of the current user program task.
func (s *System) UserTask() kernel.TaskHandle { return s.task }

func (s *System) Restarts() int { return s.restarts }
func (s *System) Panics() int   { return s.panics }

func (s *System) String() string {
	return fmt.Sprintf("system(mode=%s restarts=%d panics=%d)", s.mode, s.restarts, s.panics)
}
