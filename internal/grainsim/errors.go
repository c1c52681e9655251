package grainsim

import (
	"errors"
	"fmt"
	"os"
)

// ErrBadInput marks malformed configuration or lattice input.
var ErrBadInput = errors.New("grainsim: bad input")

// ErrInternalInvariant marks a violated core invariant: a zero-activity
// voxel drawn by the octree, a full neighbor table, or an octree walk
// that exits without locating a cell. These are programming/physical
// errors, not recoverable at the call site.
var ErrInternalInvariant = errors.New("grainsim: internal invariant violated")

// ErrIOFailure marks a checkpoint or log write failure. The driver loop
// logs these and continues.
var ErrIOFailure = errors.New("grainsim: I/O failure")

func badInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrBadInput}, args...)...)
}

func invariant(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInternalInvariant}, args...)...)
}

func ioFailure(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrIOFailure}, args...)...)
}

// Fatal prints a single descriptive line to stderr and terminates the
// process. Reserved for callers (cmd/grainsim) reacting to
// ErrInternalInvariant; the core itself never calls os.Exit.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
	os.Exit(1)
}
