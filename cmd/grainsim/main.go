package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/example/grainsim/internal/grainsim"
)

func main() {
	grainsim.Verbose = os.Getenv("GRAINSIM_VERBOSE") != ""

	cfg := "grainsim_config.txt"
	if len(os.Args) > 1 {
		cfg = os.Args[1]
	}

	if err := grainsim.Run(cfg); err != nil {
		if errors.Is(err, grainsim.ErrInternalInvariant) {
			grainsim.Fatal(err)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
