package sweep

import (
	"sync/atomic"
	"time"
)

// Guard is a single-shot latch. The first TryFire wins; every later call,
// from any goroutine, sees false. It serializes the shutdown sequence across
// the normal-completion, interrupt, and fault paths.
type Guard struct {
	fired atomic.Bool
}

// TryFire atomically claims the latch.
func (g *Guard) TryFire() bool {
	return g.fired.CompareAndSwap(false, true)
}

// Fired reports whether the latch has been claimed.
func (g *Guard) Fired() bool {
	return g.fired.Load()
}

// Shutdown drives every servo to the safe idle state: one all-zero speed
// batch, a settle wait for the command to take mechanical effect, then
// torque released servo by servo. It runs at most once per harness; repeat
// calls are no-ops, so the interrupt, fault, and normal completion paths can
// all route through it without overlapping bus writes. Bus errors here are
// logged and swallowed: there is no safer state to fall back to.
func (h *Harness) Shutdown() {
	if !h.guard.TryFire() {
		return
	}
	if _, err := UniformBatch(h.cfg.IDs, 0, h.cfg.Acceleration).send(h.bus); err != nil {
		h.log.Error().Err(err).Msg("shutdown: zero-speed batch failed")
	}
	time.Sleep(h.cfg.ShutdownSettle)
	for _, id := range h.cfg.IDs {
		st, err := h.bus.EnableTorque(id, false)
		if err != nil || !st.OK() {
			h.log.Error().Uint8("servo", id).Uint8("status", uint8(st)).Err(err).
				Msg("shutdown: torque release failed")
		}
		h.servo(id).TorqueOn = false
	}
	h.log.Info().Msg("motors stopped and torque disabled")
}
