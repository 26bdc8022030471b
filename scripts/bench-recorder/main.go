// bench-recorder measures heap memory and recorder size while a random
// workload of inserts and deletes animates a tree for many ticks.
//
// Usage:
//
//	go run ./scripts/bench-recorder --ops 5000 --capacity 2048 \
//	  --profile-dir docs/profiles/recorder
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/bstviz/internal/command"
	"github.com/Sumatoshi-tech/bstviz/internal/recorder"
	"github.com/Sumatoshi-tech/bstviz/pkg/layout"
)

func main() {
	ops := flag.Int("ops", 5000, "Number of random commands to apply")
	ticksPerOp := flag.Int("ticks-per-op", 30, "Ticks advanced after every command")
	capacity := flag.Int("capacity", 2048, "Recorder ring capacity in frames")
	every := flag.Int("every", 1, "Record one frame out of this many ticks")
	seed := flag.Uint64("seed", 1, "Random seed of the workload")
	profileDir := flag.String("profile-dir", "", "Directory to write heap and CPU profiles")
	cpuProfile := flag.Bool("cpu-profile", false, "Write CPU profile to profile-dir/cpu.prof")

	flag.Parse()

	if *profileDir != "" {
		if err := os.MkdirAll(*profileDir, 0o755); err != nil {
			log.Fatalf("mkdir profile-dir: %v", err)
		}
	}

	if *cpuProfile {
		if *profileDir == "" {
			log.Fatal("--cpu-profile needs --profile-dir")
		}

		cpuPath := filepath.Join(*profileDir, "cpu.prof")

		cpuFile, cpuErr := os.Create(cpuPath)
		if cpuErr != nil {
			log.Fatalf("create cpu profile: %v", cpuErr)
		}
		defer cpuFile.Close()

		if startErr := pprof.StartCPUProfile(cpuFile); startErr != nil {
			log.Fatalf("start cpu profile: %v", startErr)
		}

		defer pprof.StopCPUProfile()

		log.Printf("CPU profiling enabled -> %s", cpuPath)
	}

	rec, err := recorder.New(*capacity, *every)
	if err != nil {
		log.Fatalf("recorder: %v", err)
	}

	takeSnapshot := func(label string) {
		runtime.GC()
		runtime.GC()

		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		log.Printf("  [heap] %-24s inuse=%6.1f MB  sys=%6.1f MB  recorder=%s in %d frames",
			label, float64(m.HeapInuse)/1e6, float64(m.HeapSys)/1e6,
			humanize.Bytes(uint64(rec.Bytes())), rec.Len()) //nolint:gosec // sizes are non-negative.
	}

	writeHeapProfile := func(name string) {
		if *profileDir == "" {
			return
		}

		runtime.GC()

		path := filepath.Join(*profileDir, name)

		f, ferr := os.Create(path)
		if ferr != nil {
			log.Printf("warning: create heap profile %s: %v", path, ferr)

			return
		}
		defer f.Close()

		if perr := pprof.WriteHeapProfile(f); perr != nil {
			log.Printf("warning: write heap profile %s: %v", path, perr)
		}
	}

	ctrl := layout.New(layout.DefaultParams())
	rng := rand.New(rand.NewPCG(*seed, *seed))
	dt := 1.0 / 60

	takeSnapshot("before_workload")
	writeHeapProfile("heap_before_workload.prof")

	checkpoint := max(*ops/4, 1)

	for i := range *ops {
		cmd := randomCommand(rng)
		cmd.Apply(ctrl)

		for range *ticksPerOp {
			ctrl.Tick(dt)
			rec.Record(ctrl.Snapshot())
		}

		if (i+1)%checkpoint == 0 {
			takeSnapshot(fmt.Sprintf("after_%d_ops", i+1))
		}
	}

	writeHeapProfile("heap_after_workload.prof")

	frames, err := rec.Frames()
	if err != nil {
		log.Fatalf("decode: %v", err)
	}

	takeSnapshot("after_decode")

	log.Printf("tree: %d nodes, depth %d, %d frames decoded, %d dropped",
		ctrl.Size(), ctrl.Depth(), len(frames), rec.Dropped())
}

// randomCommand mostly inserts so the tree grows, with deletes, searches and
// the occasional clear.
func randomCommand(rng *rand.Rand) command.Command {
	key := rng.IntN(command.MaxKey + 1)

	switch roll := rng.IntN(100); {
	case roll < 55:
		return command.Command{Op: command.OpInsert, Key: key}
	case roll < 85:
		return command.Command{Op: command.OpDelete, Key: key}
	case roll < 99:
		return command.Command{Op: command.OpSearch, Key: key}
	default:
		return command.Command{Op: command.OpClear}
	}
}
