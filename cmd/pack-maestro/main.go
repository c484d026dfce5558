// Command pack-maestro packs the MAESTRO training split into 44.1 kHz stereo
// HDF5 files.
//
// Usage:
//
//	pack-maestro [dataset_dir] [workspace]
//	pack-maestro ./datasets/maestro/dataset_root ./workspaces/instruments_separation
//	pack-maestro --workers 4 --skip-existing --report run.yaml
//
// Output goes to <workspace>/hdf5s/piano_solo/sr=44100_ch=2/train.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	packer "github.com/tphakala/go-audio-packer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(packer.Pack).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
