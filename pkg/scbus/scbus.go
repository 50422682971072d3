// Package scbus drives Feetech SMS/STS serial bus servos through the small
// register-level surface the sweep harness needs: single-register writes,
// synchronized multi-servo speed writes, and feedback reads. It speaks the
// SCS instruction framing directly over go.bug.st/serial.
package scbus

import (
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// Sentinel errors returned by session operations.
var (
	ErrClosed      = errors.New("scbus: session closed")
	ErrTimeout     = errors.New("scbus: response timeout")
	ErrChecksum    = errors.New("scbus: response checksum mismatch")
	ErrNoFeedback  = errors.New("scbus: no feedback cached for servo")
	ErrBatchLength = errors.New("scbus: batch arrays differ in length")
)

// DefaultTimeout bounds how long a single response read may block.
const DefaultTimeout = 100 * time.Millisecond

// feedbackLen spans present position through present current (regs 56-70).
const feedbackLen = 15

// wire is the slice of serial.Port the session uses; tests substitute a fake.
type wire interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

// Config describes the serial link.
type Config struct {
	Port     string
	BaudRate int
	Timeout  time.Duration
}

// Session owns one open serial link to the servo chain. It is not safe for
// concurrent use; commands are issued from a single logical flow.
type Session struct {
	port     wire
	portName string
	baud     int
	feedback map[uint8][]byte
}

// Open opens the serial link. Failure here is fatal to a run: no servo has
// been energized yet, so callers abort without a shutdown pass.
func Open(cfg Config) (*Session, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	port, err := serial.Open(cfg.Port, &serial.Mode{BaudRate: cfg.BaudRate})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Port, err)
	}
	if err := port.SetReadTimeout(cfg.Timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	return &Session{
		port:     port,
		portName: cfg.Port,
		baud:     cfg.BaudRate,
		feedback: make(map[uint8][]byte),
	}, nil
}

// Close releases the serial link. Further commands return ErrClosed.
func (s *Session) Close() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

// Port returns the port identifier the session was opened on.
func (s *Session) Port() string { return s.portName }

// BaudRate returns the configured baud rate.
func (s *Session) BaudRate() int { return s.baud }

// WriteRegister writes one byte to a servo's memory table and waits for the
// acknowledgment packet. The returned Status carries the servo's fault flags.
func (s *Session) WriteRegister(id, reg, value uint8) (Status, error) {
	if s.port == nil {
		return 0, ErrClosed
	}
	if err := s.send(buildFrame(id, instWrite, reg, []byte{value})); err != nil {
		return 0, err
	}
	return s.readAck(id)
}

// EnableTorque energizes or releases a servo's drive output.
func (s *Session) EnableTorque(id uint8, on bool) (Status, error) {
	var v uint8
	if on {
		v = 1
	}
	return s.WriteRegister(id, RegTorqueEnable, v)
}

// SyncWriteSpeed commands a wheel-mode speed for every listed servo. The
// acceleration register is written per servo first (each acknowledged
// individually), then all speeds go out in one broadcast sync-write, which
// servos execute simultaneously and do not acknowledge. The three slices
// must have the same length and matching order.
func (s *Session) SyncWriteSpeed(ids []uint8, speeds []int16, accs []uint8) ([]Status, error) {
	if s.port == nil {
		return nil, ErrClosed
	}
	if len(ids) == 0 || len(speeds) != len(ids) || len(accs) != len(ids) {
		return nil, ErrBatchLength
	}
	statuses := make([]Status, len(ids))
	for i, id := range ids {
		st, err := s.WriteRegister(id, RegAcceleration, accs[i])
		if err != nil {
			return statuses, fmt.Errorf("servo %d acceleration: %w", id, err)
		}
		statuses[i] = st
	}
	data := make([]byte, 0, len(ids)*2)
	for _, v := range speeds {
		lo, hi := encodeSpeed(v)
		data = append(data, lo, hi)
	}
	if err := s.send(buildSyncWrite(RegGoalSpeed, 2, ids, data)); err != nil {
		return statuses, err
	}
	return statuses, nil
}

// RequestFeedback reads a servo's live telemetry block (present position
// through present current) into the session cache for later ReadSpeed calls.
func (s *Session) RequestFeedback(id uint8) error {
	if s.port == nil {
		return ErrClosed
	}
	mem, _, err := s.read(id, RegPresentPos, feedbackLen)
	if err != nil {
		return fmt.Errorf("servo %d feedback: %w", id, err)
	}
	s.feedback[id] = mem
	return nil
}

// ReadSpeed returns the measured speed cached by the last RequestFeedback
// for this servo. Speeds are signed device ticks.
func (s *Session) ReadSpeed(id uint8) (int, error) {
	if s.port == nil {
		return 0, ErrClosed
	}
	mem, ok := s.feedback[id]
	if !ok {
		return 0, fmt.Errorf("servo %d: %w", id, ErrNoFeedback)
	}
	off := int(RegPresentSpeed - RegPresentPos)
	return decodeSpeed(mem[off], mem[off+1]), nil
}

// Ping checks whether a servo answers on the bus.
func (s *Session) Ping(id uint8) (bool, error) {
	if s.port == nil {
		return false, ErrClosed
	}
	if err := s.send(buildFrame(id, instPing, 0, nil)); err != nil {
		return false, err
	}
	_, err := s.readAck(id)
	if errors.Is(err, ErrTimeout) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Session) send(frame []byte) error {
	if err := s.port.ResetInputBuffer(); err != nil {
		return err
	}
	_, err := s.port.Write(frame)
	return err
}

// readAck consumes the 6-byte status packet a servo returns for a unicast
// instruction: header, id, length 2, fault byte, checksum.
func (s *Session) readAck(id uint8) (Status, error) {
	var buf [6]byte
	if err := s.readFull(buf[:]); err != nil {
		return 0, err
	}
	if buf[0] != 0xFF || buf[1] != 0xFF || buf[2] != id || buf[3] != 2 {
		return 0, fmt.Errorf("servo %d: malformed ack", id)
	}
	if ^(buf[2] + buf[3] + buf[4]) != buf[5] {
		return 0, ErrChecksum
	}
	return Status(buf[4]), nil
}

// read issues a READ instruction and returns the payload and fault byte.
func (s *Session) read(id, reg, n uint8) ([]byte, Status, error) {
	if err := s.send(buildFrame(id, instRead, reg, []byte{n})); err != nil {
		return nil, 0, err
	}
	buf := make([]byte, int(n)+6)
	if err := s.readFull(buf); err != nil {
		return nil, 0, err
	}
	if buf[0] != 0xFF || buf[1] != 0xFF || buf[2] != id {
		return nil, 0, fmt.Errorf("servo %d: malformed response", id)
	}
	var sum uint8
	for _, b := range buf[2 : len(buf)-1] {
		sum += b
	}
	if ^sum != buf[len(buf)-1] {
		return nil, 0, ErrChecksum
	}
	out := make([]byte, n)
	copy(out, buf[5:5+int(n)])
	return out, Status(buf[4]), nil
}

// readFull fills buf from the port. go.bug.st/serial signals an expired read
// timeout as a zero-length read, which surfaces here as ErrTimeout.
func (s *Session) readFull(buf []byte) error {
	off := 0
	for off < len(buf) {
		n, err := s.port.Read(buf[off:])
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrTimeout
		}
		off += n
	}
	return nil
}
