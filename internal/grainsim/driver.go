package grainsim

import (
	"fmt"
	"path/filepath"
	"time"
)

// defaultSeed reproduces every run deterministically unless overridden.
const defaultSeed = 1337

// Run loads the config at cfgPath, loads and initializes the lattice it
// names, and drives the n-fold-way loop to completion: step, advance
// time, periodically transition boundaries, and write checkpoints. This
// is the "driver loop" spec.md describes as an external collaborator of
// the core — kept here so cmd/grainsim stays a two-line shim.
func Run(cfgPath string) error {
	cfg, err := LoadConfig(cfgPath)
	if err != nil {
		return err
	}

	cube, err := loadScaledLattice(cfg)
	if err != nil {
		return err
	}

	cube.DefaultMobility = cfg.DefaultMobility
	cube.TransitionedMobility = cfg.TransitionedMobility
	cube.GrainCount = Spin(cfg.ConstGrainCount)
	if err := cube.Init(); err != nil {
		return err
	}

	checkpoints, err := cfg.CheckpointsToSlice()
	if err != nil {
		return err
	}
	currCheckpoint := 0

	var analyzer Analyzer

	if cfg.LogBoundaryTransitions {
		if err := cube.BeginLoggingTransitions(cfg.OutputFolder); err != nil {
			return err
		}
	}

	start := time.Now()

	var (
		timestep, logDuration, transitionDuration, nextCheckpoint float64
		vtkCount                                                  int
	)
	nextCheckpoint = cfg.PeriodicCheckpointInterval

	for {
		step, err := cube.Step()
		if err != nil {
			return err
		}

		timestep += step
		logDuration += step
		transitionDuration += step

		if logDuration >= 20000 {
			Infof("T=%v dT=%v A=%v flips=%d tFlips=%d elapsed=%s",
				timestep, step, cube.SystemActivity(), cube.TotalFlips, cube.TransformedFlips, time.Since(start))
			logDuration = 0
		}

		if transitionDuration >= cfg.TransitionInterval && cfg.TransitionCount > 0 {
			if cfg.LogBoundaryTransitions {
				cube.SetLogTimestep(timestep)
			}
			if err := cube.TransitionBoundaries(cfg.TransitionCount, cfg.PropagationChance, cfg.PropagationRatio, cfg.UsePotentialEnergy); err != nil {
				return err
			}
			cube.Boundary.RemoveMarked()
			transitionDuration = 0
		}

		wroteCheckpoint := false
		if len(checkpoints) > 0 && currCheckpoint < len(checkpoints) && timestep >= checkpoints[currCheckpoint] {
			if err := writeCheckpoint(cfg, cube, &analyzer, vtkCount, timestep); err != nil {
				Infof("checkpoint write failed: %v", err)
			}
			vtkCount++
			currCheckpoint++
			wroteCheckpoint = true

			if cfg.MaxTimestep <= 0 && currCheckpoint >= len(checkpoints) {
				break
			}
		} else if cfg.PeriodicCheckpointInterval > 0 && timestep >= nextCheckpoint {
			if err := writeCheckpoint(cfg, cube, &analyzer, vtkCount, timestep); err != nil {
				Infof("checkpoint write failed: %v", err)
			}
			vtkCount++
			nextCheckpoint += cfg.PeriodicCheckpointInterval
			wroteCheckpoint = true
		}
		if wroteCheckpoint && cfg.LogBoundaryTransitions {
			if err := cube.FlushLogFile(); err != nil {
				Infof("flushing transition log failed: %v", err)
			}
		}

		if cfg.MaxTimestep > 0 && timestep >= cfg.MaxTimestep {
			break
		}
	}

	if cfg.LogBoundaryTransitions {
		if err := cube.StopLoggingTransitions(); err != nil {
			return err
		}
	}

	return nil
}

func loadScaledLattice(cfg Config) (*Lattice, error) {
	if cfg.ScaleMultiplier != 1 {
		base, err := LoadLattice(cfg.InitialStateFile, defaultSeed, false)
		if err != nil {
			return nil, err
		}
		return ScaleLattice(base, cfg.ScaleMultiplier, defaultSeed)
	}
	return LoadLattice(cfg.InitialStateFile, defaultSeed, false)
}

func checkpointPath(cfg Config, vtkCount int, timestep float64, suffix string) string {
	name := fmt.Sprintf("%s_%04d_%d%s", cfg.Identifier, vtkCount+1, int64(timestep), suffix)
	return filepath.Join(cfg.OutputFolder, name)
}

func writeCheckpoint(cfg Config, cube *Lattice, analyzer *Analyzer, vtkCount int, timestep float64) error {
	if err := SaveVTK(checkpointPath(cfg, vtkCount, timestep, ".vtk"), cube); err != nil {
		return err
	}
	if cfg.GenerateAnalysisFiles {
		Infof("beginning analysis")
		analyzer.Load(cube)
		if err := analyzer.SaveToFile(checkpointPath(cfg, vtkCount, timestep, "_analysis.txt")); err != nil {
			return err
		}
	}
	return nil
}
