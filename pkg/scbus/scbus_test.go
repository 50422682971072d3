package scbus

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

// fakeWire queues canned responses and records everything written. An empty
// queue behaves like an expired read timeout (zero-length read), matching
// go.bug.st/serial semantics.
type fakeWire struct {
	wrote bytes.Buffer
	reads [][]byte
}

func (f *fakeWire) Read(p []byte) (int, error) {
	if len(f.reads) == 0 {
		return 0, nil
	}
	n := copy(p, f.reads[0])
	if n == len(f.reads[0]) {
		f.reads = f.reads[1:]
	} else {
		f.reads[0] = f.reads[0][n:]
	}
	return n, nil
}

func (f *fakeWire) Write(p []byte) (int, error) {
	f.wrote.Write(p)
	return len(p), nil
}

func (f *fakeWire) Close() error { return nil }

func (f *fakeWire) SetReadTimeout(time.Duration) error { return nil }

func (f *fakeWire) ResetInputBuffer() error { return nil }

func newTestSession(w wire) *Session {
	return &Session{port: w, portName: "fake", baud: 1_000_000, feedback: make(map[uint8][]byte)}
}

// ackFrame is the 6-byte status packet a servo returns for a unicast write.
func ackFrame(id uint8, status Status) []byte {
	return []byte{0xFF, 0xFF, id, 2, uint8(status), ^(id + 2 + uint8(status))}
}

// readResponse wraps data in a READ reply with a clean status byte.
func readResponse(id uint8, data []byte) []byte {
	buf := []byte{0xFF, 0xFF, id, uint8(len(data)) + 2, 0}
	buf = append(buf, data...)
	var sum uint8
	for _, b := range buf[2:] {
		sum += b
	}
	return append(buf, ^sum)
}

func TestWriteRegister(t *testing.T) {
	w := &fakeWire{reads: [][]byte{ackFrame(7, 0)}}
	s := newTestSession(w)

	st, err := s.WriteRegister(7, RegOperatingMode, ModeVelocity)
	if err != nil {
		t.Fatalf("WriteRegister returned error: %v", err)
	}
	if !st.OK() {
		t.Errorf("status = %#x, want OK", uint8(st))
	}

	want := buildFrame(7, instWrite, RegOperatingMode, []byte{ModeVelocity})
	if !bytes.Equal(w.wrote.Bytes(), want) {
		t.Errorf("wrote % X, want % X", w.wrote.Bytes(), want)
	}
}

func TestWriteRegisterFaultStatus(t *testing.T) {
	w := &fakeWire{reads: [][]byte{ackFrame(7, StatusOverload)}}
	s := newTestSession(w)

	st, err := s.WriteRegister(7, RegTorqueEnable, 1)
	if err != nil {
		t.Fatalf("WriteRegister returned error: %v", err)
	}
	if st.OK() || st&StatusOverload == 0 {
		t.Errorf("status = %#x, want overload flag", uint8(st))
	}
}

func TestWriteRegisterTimeout(t *testing.T) {
	s := newTestSession(&fakeWire{})

	_, err := s.WriteRegister(7, RegTorqueEnable, 1)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestWriteRegisterChecksumMismatch(t *testing.T) {
	bad := ackFrame(7, 0)
	bad[5]++
	s := newTestSession(&fakeWire{reads: [][]byte{bad}})

	_, err := s.WriteRegister(7, RegTorqueEnable, 1)
	if !errors.Is(err, ErrChecksum) {
		t.Fatalf("err = %v, want ErrChecksum", err)
	}
}

func TestSyncWriteSpeed(t *testing.T) {
	w := &fakeWire{reads: [][]byte{ackFrame(7, 0), ackFrame(8, 0)}}
	s := newTestSession(w)

	statuses, err := s.SyncWriteSpeed([]uint8{7, 8}, []int16{100, -100}, []uint8{254, 254})
	if err != nil {
		t.Fatalf("SyncWriteSpeed returned error: %v", err)
	}
	if len(statuses) != 2 || !statuses[0].OK() || !statuses[1].OK() {
		t.Errorf("statuses = %v, want two OK", statuses)
	}

	var want []byte
	want = append(want, buildFrame(7, instWrite, RegAcceleration, []byte{254})...)
	want = append(want, buildFrame(8, instWrite, RegAcceleration, []byte{254})...)
	want = append(want, buildSyncWrite(RegGoalSpeed, 2, []uint8{7, 8}, []byte{0x64, 0x00, 0x64, 0x80})...)
	if !bytes.Equal(w.wrote.Bytes(), want) {
		t.Errorf("wrote % X, want % X", w.wrote.Bytes(), want)
	}
}

func TestSyncWriteSpeedShapeMismatch(t *testing.T) {
	s := newTestSession(&fakeWire{})

	cases := []struct {
		ids    []uint8
		speeds []int16
		accs   []uint8
	}{
		{nil, nil, nil},
		{[]uint8{7, 8}, []int16{0}, []uint8{254, 254}},
		{[]uint8{7}, []int16{0}, []uint8{}},
	}
	for _, c := range cases {
		if _, err := s.SyncWriteSpeed(c.ids, c.speeds, c.accs); !errors.Is(err, ErrBatchLength) {
			t.Errorf("SyncWriteSpeed(%v, %v, %v) err = %v, want ErrBatchLength", c.ids, c.speeds, c.accs, err)
		}
	}
}

func TestFeedbackReadSpeed(t *testing.T) {
	// Telemetry block: position, then speed -2400 at offset 2.
	mem := make([]byte, feedbackLen)
	mem[2] = 0x60
	mem[3] = 0x89
	w := &fakeWire{reads: [][]byte{readResponse(9, mem)}}
	s := newTestSession(w)

	if err := s.RequestFeedback(9); err != nil {
		t.Fatalf("RequestFeedback returned error: %v", err)
	}
	speed, err := s.ReadSpeed(9)
	if err != nil {
		t.Fatalf("ReadSpeed returned error: %v", err)
	}
	if speed != -2400 {
		t.Errorf("ReadSpeed = %d, want -2400", speed)
	}
}

func TestReadSpeedWithoutFeedback(t *testing.T) {
	s := newTestSession(&fakeWire{})

	_, err := s.ReadSpeed(9)
	if !errors.Is(err, ErrNoFeedback) {
		t.Fatalf("err = %v, want ErrNoFeedback", err)
	}
}

func TestPing(t *testing.T) {
	w := &fakeWire{reads: [][]byte{ackFrame(7, 0)}}
	s := newTestSession(w)

	ok, err := s.Ping(7)
	if err != nil || !ok {
		t.Fatalf("Ping(7) = %v, %v, want true", ok, err)
	}

	// No response queued: the servo is absent, not broken.
	ok, err = s.Ping(8)
	if err != nil {
		t.Fatalf("Ping(8) returned error: %v", err)
	}
	if ok {
		t.Error("Ping(8) = true, want false")
	}
}

func TestClosedSession(t *testing.T) {
	s := newTestSession(&fakeWire{})
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	if _, err := s.WriteRegister(7, RegTorqueEnable, 0); !errors.Is(err, ErrClosed) {
		t.Errorf("WriteRegister err = %v, want ErrClosed", err)
	}
	if _, err := s.SyncWriteSpeed([]uint8{7}, []int16{0}, []uint8{0}); !errors.Is(err, ErrClosed) {
		t.Errorf("SyncWriteSpeed err = %v, want ErrClosed", err)
	}
	if err := s.RequestFeedback(7); !errors.Is(err, ErrClosed) {
		t.Errorf("RequestFeedback err = %v, want ErrClosed", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close returned error: %v", err)
	}
}

func TestOpenMissingPort(t *testing.T) {
	_, err := Open(Config{Port: "/definitely/not/a/port", BaudRate: 1_000_000})
	if err == nil {
		t.Fatal("Open on a missing port should fail")
	}
}
