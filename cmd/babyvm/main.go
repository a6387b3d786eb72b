// babyvm - demo driver for the babyvm managed-memory runtime.
//
// Runs the classic allocation sequence (two scalars, a pair, a pop, a
// forced collection) against a fresh VM, optionally configured from a
// babyvm.toml manifest, recording collection stats and saving a heap
// image. It only ever calls the runtime's public operations.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	"github.com/gphat/babyvm/gclog"
	"github.com/gphat/babyvm/manifest"
	"github.com/gphat/babyvm/vm"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("babyvm")

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	configDir := flag.String("c", ".", "Directory to search upward for babyvm.toml")
	imageOut := flag.String("image", "", "Write a heap image to this path before exiting (overrides manifest)")
	statsDB := flag.String("stats-db", "", "Record collection stats to this SQLite database (overrides manifest)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: babyvm [options]\n\n")
		fmt.Fprintf(os.Stderr, "Runs the babyvm demo sequence against a fresh VM.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  babyvm -v                        # Run with per-step logging\n")
		fmt.Fprintf(os.Stderr, "  babyvm -image heap.bvmi          # Save the final heap image\n")
		fmt.Fprintf(os.Stderr, "  babyvm -stats-db collections.db  # Record GC stats to SQLite\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 1
	}
	commonlog.Configure(verbosity, nil)

	// Manifest is optional; flags win over it.
	m, err := manifest.FindAndLoad(*configDir)
	if err != nil {
		log.Errorf("loading manifest: %v", err)
		os.Exit(1)
	}

	rootCapacity := vm.DefaultRootCapacity
	threshold := vm.DefaultInitialThreshold
	imagePath := *imageOut
	statsPath := *statsDB
	if m != nil {
		rootCapacity = m.Heap.RootCapacity
		threshold = m.Heap.InitialThreshold
		if imagePath == "" {
			imagePath = m.Image.Output
		}
		if statsPath == "" {
			statsPath = m.Stats.DB
		}
		log.Infof("loaded manifest from %s", m.Dir)
	}

	var recorder *gclog.Recorder
	if statsPath != "" {
		recorder, err = gclog.Open(statsPath)
		if err != nil {
			log.Errorf("opening stats database: %v", err)
			os.Exit(1)
		}
		defer recorder.Close()
	}

	if err := run(rootCapacity, threshold, imagePath, recorder); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

// run drives the classic demo sequence: push two
// scalars, combine them into a pair, pop the pair, then force a
// collection that reclaims everything.
func run(rootCapacity, threshold int, imagePath string, recorder *gclog.Recorder) error {
	machine := vm.NewVM(rootCapacity)
	machine.SetThreshold(threshold)

	log.Infof("new VM: root capacity %d, threshold %d", machine.RootCapacity(), machine.Threshold())

	log.Info("adding integer 0 to the stack")
	if _, err := machine.MakeScalar(0); err != nil {
		return fmt.Errorf("make scalar 0: %w", err)
	}

	log.Info("adding integer 1 to the stack")
	if _, err := machine.MakeScalar(1); err != nil {
		return fmt.Errorf("make scalar 1: %w", err)
	}

	log.Info("adding a pair to the stack (consuming the two ints)")
	pair, err := machine.MakePair()
	if err != nil {
		return fmt.Errorf("make pair: %w", err)
	}
	log.Infof("pair %s; %d roots, %d objects allocated",
		pair, machine.StackDepth(), machine.LiveCount())

	if imagePath != "" {
		if err := machine.SaveImage(imagePath); err != nil {
			return err
		}
		log.Infof("saved heap image to %s", imagePath)
	}

	log.Info("popping pair from the stack")
	if _, err := machine.Pop(); err != nil {
		return fmt.Errorf("pop: %w", err)
	}

	log.Info("forcing a collection (should free everything)")
	stats := machine.Collect()
	log.Infof("swept %d objects, freed %d; %d live, threshold now %d (%s)",
		stats.Swept, stats.Freed, stats.Live, stats.Threshold, stats.Duration)

	if recorder != nil {
		if err := recorder.Record(stats); err != nil {
			return err
		}
	}

	return nil
}
