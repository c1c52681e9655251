package grainsim

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
)

// Config holds every scalar and path the driver loop needs, parsed from
// the "KEY = VALUE" text configuration format (whitespace-separated
// tokens, '#'-prefixed comment lines, unrecognized keys warned rather
// than rejected). Defaults mirror the modeled system's own config
// defaults.
type Config struct {
	InitialStateFile string
	OutputFolder     string
	Identifier       string
	Checkpoints      string

	PeriodicCheckpointInterval float64
	MaxTimestep                float64

	DefaultMobility      Activ
	TransitionedMobility Activ

	TransitionInterval float64
	TransitionCount    int

	PropagationChance float64
	PropagationRatio  float64
	UsePotentialEnergy bool

	ScaleMultiplier float64

	LogBoundaryTransitions bool
	ConstGrainCount        int
	GenerateAnalysisFiles  bool
}

// DefaultConfig returns a Config populated with the modeled system's own
// defaults (config.h), before any file is parsed over it.
func DefaultConfig() Config {
	return Config{
		DefaultMobility:            0.002,
		TransitionedMobility:       0.04,
		ScaleMultiplier:            1,
		PropagationChance:          0.95,
		PropagationRatio:           0,
		PeriodicCheckpointInterval: -1,
		MaxTimestep:                -1,
	}
}

// LoadConfig reads and parses a key=value config file at path.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, badInput("opening config %q: %v", path, err)
	}
	defer f.Close()
	return ParseConfig(f)
}

// ParseConfig parses the key=value config format from r.
func ParseConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		key := fields[0]
		if len(fields) < 3 || fields[1] != "=" {
			continue
		}
		value := strings.Join(fields[2:], " ")

		var err error
		switch key {
		case "INITIAL_STATE_FILE":
			cfg.InitialStateFile = value
		case "OUTPUT_FOLDER":
			cfg.OutputFolder = value
		case "IDENTIFIER":
			cfg.Identifier = value
		case "CHECKPOINTS":
			cfg.Checkpoints = value
		case "PERIODIC_CHECKPOINT_INTERVAL":
			cfg.PeriodicCheckpointInterval, err = strconv.ParseFloat(value, 64)
		case "MAX_TIMESTEP":
			cfg.MaxTimestep, err = strconv.ParseFloat(value, 64)
		case "DEFAULT_MOBILITY":
			cfg.DefaultMobility, err = strconv.ParseFloat(value, 64)
		case "TRANSITIONED_MOBILITY":
			cfg.TransitionedMobility, err = strconv.ParseFloat(value, 64)
		case "TRANSITION_INTERVAL":
			cfg.TransitionInterval, err = strconv.ParseFloat(value, 64)
		case "TRANSITION_COUNT":
			var n int64
			n, err = strconv.ParseInt(value, 10, 64)
			cfg.TransitionCount = int(n)
		case "PROPAGATION_CHANCE":
			cfg.PropagationChance, err = strconv.ParseFloat(value, 64)
		case "USE_POTENTIAL_ENERGY":
			cfg.UsePotentialEnergy = value == "true"
		case "SCALE_MULTIPLIER":
			cfg.ScaleMultiplier, err = strconv.ParseFloat(value, 64)
		case "LOG_BOUNDARY_TRANSITIONS":
			cfg.LogBoundaryTransitions = value == "true"
		case "CONST_GRAIN_COUNT":
			var n int64
			n, err = strconv.ParseInt(value, 10, 64)
			cfg.ConstGrainCount = int(n)
		case "PROPAGATION_RATIO":
			cfg.PropagationRatio, err = strconv.ParseFloat(value, 64)
		case "GENERATE_ANALYSIS_FILES":
			cfg.GenerateAnalysisFiles = value == "true"
		default:
			Infof("warning: unknown config key %q", key)
		}
		if err != nil {
			return Config{}, badInput("parsing config key %q=%q: %v", key, value, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return Config{}, badInput("reading config: %v", err)
	}

	return cfg, nil
}

// CheckpointsToSlice parses the whitespace-separated checkpoint list
// into a list of timesteps, in the order they appear (no sorting).
func (c Config) CheckpointsToSlice() ([]float64, error) {
	fields := strings.Fields(c.Checkpoints)
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, badInput("parsing checkpoint %q: %v", f, err)
		}
		out = append(out, v)
	}
	return out, nil
}
