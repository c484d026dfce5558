// Command inspect-hdf5 prints a summary of packed HDF5 recordings.
//
// Usage:
//
//	inspect-hdf5 workspaces/instruments_separation/hdf5s/piano_solo/sr=44100_ch=2/train
//	inspect-hdf5 --source-type piano a.h5 b.h5
package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/tphakala/go-audio-packer/internal/archive"
	"github.com/tphakala/go-audio-packer/internal/simdops"
)

const (
	defaultSourceType = "piano"
	fullScale         = 32767.0
	silenceDB         = -120.0
	dbScale           = 20
)

// channelStats summarises one channel of a record.
type channelStats struct {
	Peak float64 // dBFS
	RMS  float64 // dBFS
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var sourceType string

	cmd := &cobra.Command{
		Use:          "inspect-hdf5 PATH...",
		Short:        "Summarise packed HDF5 recordings",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := expandPaths(args)
			if err != nil {
				return err
			}
			for _, path := range files {
				rec, err := archive.Read(path, sourceType)
				if err != nil {
					return err
				}
				printRecord(cmd.OutOrStdout(), path, rec)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d file(s)\n", len(files))
			return nil
		},
	}
	cmd.Flags().StringVar(&sourceType, "source-type", defaultSourceType, "name of the waveform dataset")

	return cmd
}

// expandPaths replaces directories with the .h5 files they contain.
func expandPaths(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(arg, "*.h5"))
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}
	return files, nil
}

func printRecord(w io.Writer, path string, rec *archive.Record) {
	fmt.Fprintf(w, "%s\n", path)
	fmt.Fprintf(w, "  audio_name:  %s\n", rec.AudioName)
	fmt.Fprintf(w, "  sample_rate: %d\n", rec.SampleRate)
	fmt.Fprintf(w, "  shape:       (%d, %d)\n", rec.Channels, rec.Frames)
	fmt.Fprintf(w, "  duration:    %.3fs\n", float64(rec.Frames)/float64(rec.SampleRate))
	for ch := range rec.Channels {
		s := measure(rec.Channel(ch))
		fmt.Fprintf(w, "  channel %d:   peak %.1f dBFS, rms %.1f dBFS\n", ch, s.Peak, s.RMS)
	}
}

func measure(samples []int16) channelStats {
	if len(samples) == 0 {
		return channelStats{Peak: silenceDB, RMS: silenceDB}
	}

	x := make([]float64, len(samples))
	var peak float64
	for i, v := range samples {
		x[i] = float64(v) / fullScale
		peak = math.Max(peak, math.Abs(x[i]))
	}
	energy := simdops.For[float64]().DotProductUnsafe(x, x)

	return channelStats{
		Peak: toDB(peak),
		RMS:  toDB(math.Sqrt(energy / float64(len(x)))),
	}
}

func toDB(amplitude float64) float64 {
	if amplitude <= 0 {
		return silenceDB
	}
	return math.Max(silenceDB, dbScale*math.Log10(amplitude))
}
