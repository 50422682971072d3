package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.bug.st/serial"

	"github.com/adityakamath/servosweep/pkg/scbus"
)

type ScanCommand struct {
	Port  string `long:"port" description:"Probe a single port instead of scanning all"`
	Baud  int    `long:"baud" default:"1000000" description:"Baud rate"`
	MinID int    `long:"min-id" default:"1" description:"Lowest servo id to probe"`
	MaxID int    `long:"max-id" default:"20" description:"Highest servo id to probe"`
}

func (c *ScanCommand) Execute(args []string) error {
	if c.Port != "" {
		return c.probePort()
	}
	return c.scanAll()
}

// scanAll walks every serial port and reports the servos found on each.
func (c *ScanCommand) scanAll() error {
	ports, err := serial.GetPortsList()
	if err != nil {
		return fmt.Errorf("list ports: %w", err)
	}

	found := 0
	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		bus, err := feetech.NewBus(feetech.BusConfig{
			Port:     port,
			BaudRate: c.Baud,
			Protocol: feetech.ProtocolSTS,
			Timeout:  100 * time.Millisecond,
		})
		if err != nil {
			cancel()
			continue
		}

		servos, err := bus.Scan(ctx, c.MinID, c.MaxID)
		cancel()
		bus.Close()
		if err != nil || len(servos) == 0 {
			continue
		}

		fmt.Printf("%s:\n", port)
		for _, s := range servos {
			fmt.Printf("  servo %d (model %v)\n", s.ID, s.Model)
			found++
		}
	}

	if found == 0 {
		fmt.Println("No servos found. Check wiring, power, and baud rate.")
		os.Exit(1)
	}
	return nil
}

// probePort pings each id on one port through the sweep tool's own bus
// session, useful when the port is known and feetech's scanner disagrees
// with the wiring.
func (c *ScanCommand) probePort() error {
	sess, err := scbus.Open(scbus.Config{Port: c.Port, BaudRate: c.Baud})
	if err != nil {
		return err
	}
	defer sess.Close()

	found := 0
	for id := c.MinID; id <= c.MaxID; id++ {
		ok, err := sess.Ping(uint8(id))
		if err != nil {
			return fmt.Errorf("ping servo %d: %w", id, err)
		}
		if ok {
			fmt.Printf("  servo %d responding on %s\n", id, c.Port)
			found++
		}
	}
	if found == 0 {
		fmt.Printf("No servos responding on %s.\n", c.Port)
		os.Exit(1)
	}
	return nil
}
