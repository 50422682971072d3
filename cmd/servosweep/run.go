package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/adityakamath/servosweep/pkg/scbus"
	"github.com/adityakamath/servosweep/pkg/sweep"
)

// Exit codes distinguish how a run ended.
const (
	exitFault     = 1
	exitInterrupt = 130 // 128 + SIGINT
)

type RunCommand struct {
	Config  string `long:"config" description:"TOML config file" value-name:"FILE"`
	Port    string `long:"port" description:"Serial port (overrides config)"`
	Baud    int    `long:"baud" description:"Baud rate (overrides config)"`
	Verbose bool   `short:"v" long:"verbose" description:"Log every configuration step"`
}

func (c *RunCommand) Execute(args []string) error {
	log := newLogger(c.Verbose)

	cfg := sweep.Default()
	if c.Config != "" {
		var err error
		cfg, err = sweep.LoadFile(c.Config)
		if err != nil {
			log.Error().Err(err).Msg("load config")
			os.Exit(exitFault)
		}
	}
	if c.Port != "" {
		cfg.Port = c.Port
	}
	if c.Baud != 0 {
		cfg.BaudRate = c.Baud
	}

	bus, err := scbus.Open(scbus.Config{Port: cfg.Port, BaudRate: cfg.BaudRate})
	if err != nil {
		// Fatal at start: no servo was energized, so there is nothing to
		// shut down.
		log.Error().Err(err).Str("port", cfg.Port).Msg("failed to initialize serial bus")
		os.Exit(exitFault)
	}
	defer bus.Close()

	h, err := sweep.New(bus, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(exitFault)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Runtime faults reach the top as a panic; the servos still get the
	// same single-shot shutdown before the process reports the fault.
	defer func() {
		if r := recover(); r != nil {
			h.Shutdown()
			log.Error().Interface("panic", r).Msg("runtime fault")
			os.Exit(exitFault)
		}
	}()

	session, err := h.Run(ctx)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		h.Shutdown()
		log.Info().Msg("terminated by user")
		os.Exit(exitInterrupt)
	default:
		h.Shutdown()
		log.Error().Err(err).Msg("run failed")
		os.Exit(exitFault)
	}

	fmt.Println()
	fmt.Print(sweep.Render(session, sweep.Summarize(session, cfg.IDs)))
	h.Shutdown()
	return nil
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
