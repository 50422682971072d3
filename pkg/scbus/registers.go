package scbus

// SMS/STS memory table addresses used by this tool. The full map is much
// larger; only the registers the sweep harness touches are named here.
const (
	RegModel         uint8 = 3
	RegID            uint8 = 5
	RegOperatingMode uint8 = 33 // 0 position servo, 1 closed-loop wheel, 2 open-loop wheel
	RegTorqueEnable  uint8 = 40
	RegAcceleration  uint8 = 41
	RegGoalSpeed     uint8 = 46
	RegPresentPos    uint8 = 56
	RegPresentSpeed  uint8 = 58
)

// Operating modes for RegOperatingMode.
const (
	ModePosition uint8 = 0
	ModeVelocity uint8 = 1
)

// Wire protocol instruction codes.
const (
	instPing      = 0x01
	instRead      = 0x02
	instWrite     = 0x03
	instSyncWrite = 0x83
)

const (
	broadcastID = 0xFE

	// Speed values travel as magnitude plus direction bit, not two's
	// complement.
	speedSignBit = 15
)

// Status is the fault byte a servo returns in its acknowledgment packet.
// Zero means the command was accepted with no active fault flags.
type Status uint8

const (
	StatusVoltage     Status = 1 << 0
	StatusSensor      Status = 1 << 1
	StatusTemperature Status = 1 << 2
	StatusCurrent     Status = 1 << 3
	StatusAngle       Status = 1 << 4
	StatusOverload    Status = 1 << 5
)

// OK reports whether the servo accepted the command with no fault flags set.
func (s Status) OK() bool { return s == 0 }
