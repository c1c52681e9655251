package grainsim

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

// Verbose gates the trace-level Logf output. Flipped from cmd/grainsim
// via the GRAINSIM_VERBOSE environment variable.
var Verbose = false

// Logf writes a trace line to stderr when Verbose is set.
func Logf(format string, args ...interface{}) {
	if !Verbose {
		return
	}
	fmt.Fprintf(os.Stderr, "[grainsim] "+format+"\n", args...)
}

// Infof writes an always-on milestone line to stderr, mirroring the
// unconditional progress lines the original simulator printed for
// lattice construction, init, and transition summaries.
func Infof(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[grainsim] "+format+"\n", args...)
}

// TransitionLog is an append-only, buffered transition log: one
// tab-separated record per boundary transition (a_spin, b_spin,
// timestep). It is flushed explicitly at checkpoints rather than on
// every write.
type TransitionLog struct {
	file     *os.File
	buf      *bufio.Writer
	timestep float64
}

// BeginTransitionLog opens "transitions.txt" under outputFolder for
// writing, truncating any previous contents.
func BeginTransitionLog(outputFolder string) (*TransitionLog, error) {
	Infof("starting to log transitions")
	path := filepath.Join(outputFolder, "transitions.txt")
	f, err := os.Create(path)
	if err != nil {
		return nil, ioFailure("opening transition log %q: %v", path, err)
	}
	return &TransitionLog{file: f, buf: bufio.NewWriter(f)}, nil
}

// SetTimestep records the simulation timestep to stamp subsequent
// Record calls with.
func (t *TransitionLog) SetTimestep(timestep float64) {
	t.timestep = timestep
}

// Record appends one tab-separated "a_spin\tb_spin\ttimestep" line.
func (t *TransitionLog) Record(a, b Spin) error {
	if _, err := fmt.Fprintf(t.buf, "%d\t%d\t%v\n", a, b, t.timestep); err != nil {
		return ioFailure("writing transition log record: %v", err)
	}
	return nil
}

// Flush pushes buffered records out to disk.
func (t *TransitionLog) Flush() error {
	if err := t.buf.Flush(); err != nil {
		return ioFailure("flushing transition log: %v", err)
	}
	return nil
}

// Stop flushes and closes the log file.
func (t *TransitionLog) Stop() error {
	if err := t.Flush(); err != nil {
		return err
	}
	if err := t.file.Close(); err != nil {
		return ioFailure("closing transition log: %v", err)
	}
	return nil
}
