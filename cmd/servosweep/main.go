package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Run  RunCommand  `command:"run" description:"Run a speed sweep and print the summary report"`
	Scan ScanCommand `command:"scan" description:"Scan serial ports for responding servos"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "servosweep - speed sweep and zero-bias characterization for Feetech SMS/STS bus servos"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}
