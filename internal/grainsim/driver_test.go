package grainsim

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestLattice(t *testing.T, path string) {
	t.Helper()
	l := NewLattice(2, defaultSeed)
	l.Voxels[l.IndexAt(0, 0, 0)].Spin = 1
	l.Voxels[l.IndexAt(1, 0, 0)].Spin = 1
	l.Voxels[l.IndexAt(0, 1, 0)].Spin = 1
	l.Voxels[l.IndexAt(1, 1, 0)].Spin = 1
	l.Voxels[l.IndexAt(0, 0, 1)].Spin = 2
	l.Voxels[l.IndexAt(1, 0, 1)].Spin = 2
	l.Voxels[l.IndexAt(0, 1, 1)].Spin = 2
	l.Voxels[l.IndexAt(1, 1, 1)].Spin = 2
	if err := SaveVTK(path, l); err != nil {
		t.Fatalf("SaveVTK: %v", err)
	}
}

func writeTestConfig(t *testing.T, cfgPath, latticePath, outputFolder string) {
	t.Helper()
	content := "INITIAL_STATE_FILE = " + latticePath + "\n" +
		"OUTPUT_FOLDER = " + outputFolder + "\n" +
		"IDENTIFIER = run\n" +
		"PERIODIC_CHECKPOINT_INTERVAL = 0.0005\n" +
		"MAX_TIMESTEP = 0.001\n" +
		"TRANSITION_COUNT = 0\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
}

func runOnce(t *testing.T, label string) string {
	t.Helper()
	root := t.TempDir()
	latticePath := filepath.Join(root, "lattice.vtk")
	outputFolder := filepath.Join(root, "out")
	if err := os.Mkdir(outputFolder, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeTestLattice(t, latticePath)

	cfgPath := filepath.Join(root, "grainsim_config.txt")
	writeTestConfig(t, cfgPath, latticePath, outputFolder)

	if err := Run(cfgPath); err != nil {
		t.Fatalf("Run (%s): %v", label, err)
	}
	return outputFolder
}

func TestRunProducesACheckpoint(t *testing.T) {
	outputFolder := runOnce(t, "single")
	entries, err := os.ReadDir(outputFolder)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) == 0 {
		t.Fatalf("Run produced no checkpoint files in %s", outputFolder)
	}
}

// TestS5DeterministicCheckpoints runs the driver loop twice against
// identical input and config and checks that every checkpoint file
// produced is byte-identical, since both runs share the same fixed RNG
// seed.
func TestS5DeterministicCheckpoints(t *testing.T) {
	out1 := runOnce(t, "first")
	out2 := runOnce(t, "second")

	names1, err := os.ReadDir(out1)
	if err != nil {
		t.Fatalf("ReadDir out1: %v", err)
	}
	names2, err := os.ReadDir(out2)
	if err != nil {
		t.Fatalf("ReadDir out2: %v", err)
	}
	if len(names1) != len(names2) {
		t.Fatalf("run 1 produced %d files, run 2 produced %d", len(names1), len(names2))
	}

	for i, e1 := range names1 {
		e2 := names2[i]
		if e1.Name() != e2.Name() {
			t.Fatalf("file name mismatch: %q vs %q", e1.Name(), e2.Name())
		}
		b1, err := os.ReadFile(filepath.Join(out1, e1.Name()))
		if err != nil {
			t.Fatalf("reading %s: %v", e1.Name(), err)
		}
		b2, err := os.ReadFile(filepath.Join(out2, e2.Name()))
		if err != nil {
			t.Fatalf("reading %s: %v", e2.Name(), err)
		}
		if string(b1) != string(b2) {
			t.Fatalf("checkpoint %q differs between identically-configured runs", e1.Name())
		}
	}
}
