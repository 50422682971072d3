// Package sweep runs a synchronized speed sweep across a set of wheel-mode
// servos: configure, ramp to the sweep floor, sample feedback across the
// command range, ramp back to zero, and shut down safely no matter how the
// run ends.
package sweep

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Servo tracks one actuator's last-known control state across a run. The
// state reflects acknowledged commands and feedback reads, not ground truth:
// a servo that nacked its configuration shows up here unconfigured.
type Servo struct {
	ID           uint8
	Mode         uint8
	Acceleration uint8
	TorqueOn     bool
	LastSpeed    int
}

// Harness owns one run over a shared bus session. It drives the bus from a
// single flow; the only concurrency it tolerates is context cancellation
// from an operator interrupt, which stops new commands at the next step
// boundary. The bus itself is shared, not owned: closing it is the caller's
// job.
type Harness struct {
	bus    Bus
	cfg    Config
	log    zerolog.Logger
	guard  Guard
	servos []*Servo
}

// New validates the configuration and builds a harness around an open bus.
func New(bus Bus, cfg Config, log zerolog.Logger) (*Harness, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	servos := make([]*Servo, 0, len(cfg.IDs))
	for _, id := range cfg.IDs {
		servos = append(servos, &Servo{ID: id})
	}
	return &Harness{bus: bus, cfg: cfg, log: log, servos: servos}, nil
}

// Servos returns the per-servo state records, in configured id order.
func (h *Harness) Servos() []*Servo {
	return h.servos
}

func (h *Harness) servo(id uint8) *Servo {
	for _, s := range h.servos {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Run executes the full sequence: configuration, ramp-down to the sweep
// floor, the sweep itself, and a ramp back to zero. The returned session
// holds every sample collected before the first error; on cancellation the
// error is ctx.Err(). Run never releases torque itself — callers finish
// with Shutdown on every path.
func (h *Harness) Run(ctx context.Context) (*Session, error) {
	session := newSession(h.cfg)

	h.log.Info().Int("servos", len(h.cfg.IDs)).Msg("configuring motors")
	results, err := h.configure(ctx)
	if err != nil {
		return session, err
	}
	degraded := 0
	for _, r := range results {
		if !r.OK() {
			degraded++
		}
	}
	if degraded > 0 {
		h.log.Warn().Int("failed_steps", degraded).Msg("configuration degraded, continuing")
	}

	h.log.Info().Int("target", h.cfg.MinCommand).Msg("ramping to sweep floor")
	if err := h.ramp(ctx, h.cfg.MinCommand); err != nil {
		return session, err
	}

	h.log.Info().Int("min", h.cfg.MinCommand).Int("max", h.cfg.MaxCommand).
		Int("step", h.cfg.SweepStep).Msg("sweep started")
	if err := h.runSweep(ctx, session); err != nil {
		return session, err
	}
	h.log.Info().Msg("sweep complete")

	h.log.Info().Msg("ramping back to zero")
	if err := h.ramp(ctx, 0); err != nil {
		return session, err
	}

	return session, nil
}

// sleep waits for d or until the run is cancelled, whichever comes first.
func (h *Harness) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
