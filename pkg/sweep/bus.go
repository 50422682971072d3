package sweep

import (
	"errors"

	"github.com/adityakamath/servosweep/pkg/scbus"
)

// Bus is the device surface the harness drives. *scbus.Session implements
// it; tests substitute a recording fake. Calls are expected to return within
// the transport's bounded timeout.
type Bus interface {
	WriteRegister(id, reg, value uint8) (scbus.Status, error)
	EnableTorque(id uint8, on bool) (scbus.Status, error)
	SyncWriteSpeed(ids []uint8, speeds []int16, accs []uint8) ([]scbus.Status, error)
	RequestFeedback(id uint8) error
	ReadSpeed(id uint8) (int, error)
}

// ErrBatchShape is returned when a batch's parallel arrays disagree.
var ErrBatchShape = errors.New("sweep: batch arrays differ in length")

// CommandBatch is one synchronized multi-servo speed instruction. The three
// slices are parallel: index i holds servo i's id, target speed, and
// acceleration.
type CommandBatch struct {
	IDs    []uint8
	Speeds []int16
	Accs   []uint8
}

// UniformBatch builds a batch commanding the same speed and acceleration for
// every servo, the only shape the sweep harness uses.
func UniformBatch(ids []uint8, speed int16, acc uint8) CommandBatch {
	speeds := make([]int16, len(ids))
	accs := make([]uint8, len(ids))
	for i := range ids {
		speeds[i] = speed
		accs[i] = acc
	}
	return CommandBatch{IDs: ids, Speeds: speeds, Accs: accs}
}

// Validate checks the parallel-array invariant.
func (b CommandBatch) Validate() error {
	if len(b.IDs) == 0 || len(b.Speeds) != len(b.IDs) || len(b.Accs) != len(b.IDs) {
		return ErrBatchShape
	}
	return nil
}

func (b CommandBatch) send(bus Bus) ([]scbus.Status, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return bus.SyncWriteSpeed(b.IDs, b.Speeds, b.Accs)
}
