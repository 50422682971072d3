// Package servosweep characterizes Feetech SMS/STS serial bus servos by
// sweeping their commanded wheel-mode speed and sampling closed-loop feedback.
//
// A run configures every servo for velocity control, ramps the commanded
// speed down to the sweep floor without step shocks, walks the command range
// while recording each servo's measured speed, ramps back to zero, and ends
// with a safety shutdown that zeroes all speeds and releases torque. The
// shutdown path also runs on operator interrupt and on runtime faults, and is
// guaranteed to execute at most once.
//
// # Installation
//
//	go install github.com/adityakamath/servosweep/cmd/servosweep@latest
//
// # Usage
//
// Find the bus and servos first:
//
//	servosweep scan
//
// Then run a sweep:
//
//	servosweep run --port /dev/ttySERVO
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/servosweep: CLI with run and scan commands
//   - pkg/scbus: serial bus session speaking the SCS register protocol
//   - pkg/sweep: configuration, ramp, sweep, shutdown, and summary report
package servosweep
