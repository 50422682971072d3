package sweep

import (
	"context"
	"fmt"
)

// Session accumulates the feedback samples of one sweep run. Samples are
// append-only, one entry per visited command per servo, in visit order. The
// session is consumed by Summarize and discarded after the run.
type Session struct {
	MinCommand int
	MaxCommand int
	Step       int
	Samples    map[uint8][]int
}

func newSession(cfg Config) *Session {
	return &Session{
		MinCommand: cfg.MinCommand,
		MaxCommand: cfg.MaxCommand,
		Step:       cfg.SweepStep,
		Samples:    make(map[uint8][]int, len(cfg.IDs)),
	}
}

// PlanSweep returns the ascending command sequence for one sweep: min, then
// every step increment, ending at the first value that reaches max. When
// step does not divide the span the final point overshoots max by at most
// step-1, so the top of the range is still exercised. Returns nil when
// min > max or step is not positive.
func PlanSweep(min, max, step int) []int {
	if step <= 0 || min > max {
		return nil
	}
	plan := make([]int, 0, (max-min)/step+2)
	for v := min; ; v += step {
		plan = append(plan, v)
		if v >= max {
			break
		}
	}
	return plan
}

// runSweep drives the command sequence and samples every servo at each
// point: command, settle, then one feedback refresh and speed read per servo
// in id order before the next point. Any bus error aborts the sweep; samples
// collected so far stay in the session.
func (h *Harness) runSweep(ctx context.Context, session *Session) error {
	for _, cmd := range PlanSweep(h.cfg.MinCommand, h.cfg.MaxCommand, h.cfg.SweepStep) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := UniformBatch(h.cfg.IDs, int16(cmd), h.cfg.Acceleration).send(h.bus); err != nil {
			return fmt.Errorf("sweep command %d: %w", cmd, err)
		}
		if err := h.sleep(ctx, h.cfg.SweepSettle); err != nil {
			return err
		}
		measured := make([]int, 0, len(h.cfg.IDs))
		for _, id := range h.cfg.IDs {
			if err := h.bus.RequestFeedback(id); err != nil {
				return fmt.Errorf("sweep command %d: %w", cmd, err)
			}
			speed, err := h.bus.ReadSpeed(id)
			if err != nil {
				return fmt.Errorf("sweep command %d: %w", cmd, err)
			}
			session.Samples[id] = append(session.Samples[id], speed)
			h.servo(id).LastSpeed = speed
			measured = append(measured, speed)
		}
		h.log.Info().Int("cmd", cmd).Ints("measured", measured).Msg("sweep point")
	}
	return nil
}
