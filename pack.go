package packer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/tphakala/go-audio-packer/internal/archive"
	"github.com/tphakala/go-audio-packer/internal/maestro"
	"github.com/tphakala/go-audio-packer/internal/pcm"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrPackFailed is wrapped by the error Pack returns when any recording failed.
var ErrPackFailed = errors.New("packing failed")

// Pack writes one HDF5 file per recording of params.Split.
//
// Recordings are packed concurrently, at most opts.Workers at a time. A
// failed recording does not stop the others; the returned error wraps
// ErrPackFailed and joins every per-recording error. If ctx is cancelled no
// further recordings are started and ctx.Err() is returned once the running
// ones finish. The report is non-nil whenever the metadata could be read.
func Pack(ctx context.Context, params Params, opts Options) (*Report, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	report := &Report{
		RunID:      uuid.NewString(),
		Split:      params.Split,
		SourceType: params.SourceType,
		HDF5sDir:   params.HDF5sDir,
		SampleRate: params.SampleRate,
		Channels:   params.Channels,
		Started:    time.Now(),
	}
	log := opts.Logger.With(zap.String("run_id", report.RunID), zap.String("split", params.Split))

	if err := os.MkdirAll(params.HDF5sDir, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create hdf5s dir: %w", err)
	}

	md, err := loadMetadata(params.DatasetDir, opts.MetadataFile)
	if err != nil {
		return nil, err
	}
	report.Metadata = md.Path

	entries := md.Split(params.Split)
	report.Total = len(entries)
	log.Info("packing recordings",
		zap.String("metadata", md.Path),
		zap.String("hdf5s_dir", params.HDF5sDir),
		zap.Int("recordings", len(entries)),
		zap.Int("workers", opts.Workers),
		zap.Stringer("quality", opts.Quality))
	if len(entries) == 0 {
		log.Warn("split has no recordings")
	}

	outcomes := make([]Outcome, len(entries))

	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for i, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			outcomes[i] = packRecording(params, opts, entry, log)
			return nil
		})
	}
	_ = g.Wait()

	report.tally(outcomes)
	report.Elapsed = time.Since(report.Started)

	log.Info("packing finished",
		zap.Int("packed", report.Packed),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Duration("elapsed", report.Elapsed))

	if err := ctx.Err(); err != nil {
		return report, err
	}

	var errs []error
	for _, o := range outcomes {
		if o.err != nil {
			errs = append(errs, o.err)
		}
	}
	if len(errs) > 0 {
		return report, fmt.Errorf("%w: %d of %d recordings: %w", ErrPackFailed, len(errs), report.Total, errors.Join(errs...))
	}

	return report, nil
}

func loadMetadata(datasetDir, file string) (*maestro.Metadata, error) {
	if file != "" {
		return maestro.LoadFile(file)
	}
	return maestro.Load(datasetDir)
}

// packRecording converts one recording. Errors are reported in the outcome.
func packRecording(params Params, opts Options, entry maestro.Entry, log *zap.Logger) Outcome {
	start := time.Now()
	out := Outcome{
		Index:  entry.Index,
		Name:   entry.Stem(),
		Source: entry.AudioPath(params.DatasetDir),
	}
	out.Output = filepath.Join(params.HDF5sDir, out.Name+hdf5Ext)

	if opts.SkipExisting {
		if _, err := os.Stat(out.Output); err == nil {
			out.Status = StatusSkipped
			log.Debug("skipped existing", zap.String("file", out.Output))
			return out
		}
	}

	frames, err := writeRecording(params, opts.Quality, out)
	out.Elapsed = time.Since(start)
	if err != nil {
		out.Status = StatusFailed
		out.err = fmt.Errorf("%s: %w", entry.AudioFilename, err)
		out.Error = out.err.Error()
		log.Error("failed to pack recording", zap.String("file", out.Source), zap.Error(err))
		return out
	}

	out.Status = StatusPacked
	out.Frames = frames
	log.Debug("packed",
		zap.String("file", out.Output),
		zap.Int("samples", frames),
		zap.Duration("elapsed", out.Elapsed))
	return out
}

// writeRecording writes to a temporary name and renames it into place, so an
// interrupted run never leaves a partial file that SkipExisting would accept.
func writeRecording(params Params, quality Quality, out Outcome) (int, error) {
	w, err := pcm.Load(out.Source, pcm.LoadOptions{
		SampleRate: params.SampleRate,
		Channels:   params.Channels,
		Quality:    quality,
	})
	if err != nil {
		return 0, err
	}

	rec := &archive.Record{
		AudioName:  out.Name,
		SampleRate: params.SampleRate,
		SourceType: params.SourceType,
		Channels:   len(w.Channels),
		Frames:     w.Frames(),
		Data:       w.Int16Planar(),
	}

	tmp := out.Output + tempSuffix
	if err := archive.Write(tmp, rec); err != nil {
		_ = os.Remove(tmp)
		return 0, err
	}
	if err := os.Rename(tmp, out.Output); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("failed to move %s into place: %w", out.Output, err)
	}

	return rec.Frames, nil
}
