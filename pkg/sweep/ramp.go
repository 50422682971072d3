package sweep

import (
	"context"
	"fmt"
)

// PlanRamp returns the finite sequence of speed commands that walks from
// current to target in increments of step, in whichever direction target
// lies. The sequence is monotonic toward target and its last element is
// always exactly target, so a step that does not divide the distance cannot
// leave the servos off the mark.
func PlanRamp(current, target, step int) []int {
	if step <= 0 {
		return []int{target}
	}
	plan := make([]int, 0, abs(target-current)/step+2)
	if target < current {
		for v := current; v >= target; v -= step {
			plan = append(plan, v)
		}
	} else {
		for v := current; v <= target; v += step {
			plan = append(plan, v)
		}
	}
	return append(plan, target)
}

// ramp issues the plan from a standing start over the bus, pausing RampDelay
// between intermediate commands and RampSettle after the final pin to
// target.
func (h *Harness) ramp(ctx context.Context, target int) error {
	plan := PlanRamp(0, target, h.cfg.RampStep)
	for i, v := range plan {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := UniformBatch(h.cfg.IDs, int16(v), h.cfg.Acceleration).send(h.bus); err != nil {
			return fmt.Errorf("ramp to %d: %w", target, err)
		}
		d := h.cfg.RampDelay
		if i == len(plan)-1 {
			d = h.cfg.RampSettle
		}
		if err := h.sleep(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
