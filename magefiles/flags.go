//go:build mage

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
)

// targetArgs holds command-line arguments that follow the mage target name.
// Mage only supports positional parameters, so init strips everything after
// the target from os.Args before mage parses it.
//
// Example: "mage test:unit --run TestReorder --race" sets targetArgs to
// ["--run", "TestReorder", "--race"] and leaves os.Args as ["mage", "test:unit"].
var targetArgs []string

func init() {
	// Layout: [binary] [mage-flags...] [target] [target-args...]
	if len(os.Args) < 2 {
		return
	}

	targetIdx := -1
	for i := 1; i < len(os.Args); i++ {
		if os.Args[i] == "--" {
			break
		}
		if len(os.Args[i]) > 0 && os.Args[i][0] != '-' {
			targetIdx = i
			break
		}
	}

	if targetIdx < 0 || targetIdx+1 >= len(os.Args) {
		return
	}

	targetArgs = os.Args[targetIdx+1:]
	os.Args = os.Args[:targetIdx+1]
}

// testFlags are the go test options the test targets accept.
type testFlags struct {
	run     string
	race    bool
	verbose bool
	count   int
}

func parseTestFlags() testFlags {
	var tf testFlags
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.StringVar(&tf.run, "run", "", "only run tests matching this regexp")
	fs.BoolVar(&tf.race, "race", false, "enable the race detector")
	fs.BoolVar(&tf.verbose, "v", true, "verbose output")
	fs.IntVar(&tf.count, "count", 0, "run each test n times (1 disables the cache)")
	parseTargetFlags(fs)
	return tf
}

// args renders the flags as go test arguments.
func (tf testFlags) args() []string {
	args := []string{"test"}
	if tf.verbose {
		args = append(args, "-v")
	}
	if tf.race {
		args = append(args, "-race")
	}
	if tf.run != "" {
		args = append(args, "-run", tf.run)
	}
	if tf.count > 0 {
		args = append(args, fmt.Sprintf("-count=%d", tf.count))
	}
	return args
}

// parseTargetFlags parses targetArgs into fs. On --help it prints usage and
// exits cleanly. On other parse errors it prints the error and exits with 1.
func parseTargetFlags(fs *flag.FlagSet) {
	err := fs.Parse(targetArgs)
	if err == nil {
		return
	}
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
