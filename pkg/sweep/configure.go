package sweep

import (
	"context"

	"github.com/adityakamath/servosweep/pkg/scbus"
)

// ConfigStep names one servo-preparation register write.
type ConfigStep string

const (
	StepMode         ConfigStep = "operating_mode"
	StepAcceleration ConfigStep = "acceleration"
	StepTorque       ConfigStep = "torque_enable"
)

// StepResult records the acknowledgment of one configuration step. A failed
// step does not stop the run: partial-motor operation is acceptable for a
// diagnostic sweep, so failures are recorded and logged rather than fatal.
type StepResult struct {
	ID     uint8
	Step   ConfigStep
	Status scbus.Status
	Err    error
}

// OK reports whether the step was acknowledged with no fault flags.
func (r StepResult) OK() bool {
	return r.Err == nil && r.Status.OK()
}

// configure brings every servo into velocity mode with the configured
// acceleration profile and torque enabled, one register write at a time,
// then lets the drive electronics settle before any motion command.
func (h *Harness) configure(ctx context.Context) ([]StepResult, error) {
	results := make([]StepResult, 0, len(h.cfg.IDs)*3)
	for _, id := range h.cfg.IDs {
		steps := []struct {
			step  ConfigStep
			write func() (scbus.Status, error)
		}{
			{StepMode, func() (scbus.Status, error) {
				return h.bus.WriteRegister(id, scbus.RegOperatingMode, scbus.ModeVelocity)
			}},
			{StepAcceleration, func() (scbus.Status, error) {
				return h.bus.WriteRegister(id, scbus.RegAcceleration, h.cfg.Acceleration)
			}},
			{StepTorque, func() (scbus.Status, error) {
				return h.bus.EnableTorque(id, true)
			}},
		}
		for _, s := range steps {
			st, err := s.write()
			r := StepResult{ID: id, Step: s.step, Status: st, Err: err}
			results = append(results, r)
			if r.OK() {
				switch s.step {
				case StepMode:
					h.servo(id).Mode = scbus.ModeVelocity
				case StepAcceleration:
					h.servo(id).Acceleration = h.cfg.Acceleration
				case StepTorque:
					h.servo(id).TorqueOn = true
				}
				h.log.Debug().Uint8("servo", id).Str("step", string(s.step)).Msg("configured")
			} else {
				h.log.Warn().Uint8("servo", id).Str("step", string(s.step)).
					Uint8("status", uint8(st)).Err(err).Msg("configuration step failed, continuing")
			}
			if err := h.sleep(ctx, h.cfg.ConfigDelay); err != nil {
				return results, err
			}
		}
	}
	if err := h.sleep(ctx, h.cfg.ConfigSettle); err != nil {
		return results, err
	}
	return results, nil
}
