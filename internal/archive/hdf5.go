// Package archive stores packed recordings as HDF5 files.
//
// Each file holds one recording:
//
//	/                      attrs: audio_name (string), sample_rate (int32)
//	/<source_type>         int16 dataset, shape (channels, frames)
package archive

import (
	"errors"
	"fmt"
	"sync"

	"gonum.org/v1/hdf5"
)

// Attribute names on the root group.
const (
	AttrAudioName  = "audio_name"
	AttrSampleRate = "sample_rate"
)

// libMu serialises calls into libhdf5, which is only safe for concurrent
// use when built with --enable-threadsafe.
var libMu sync.Mutex

// ErrInvalidRecord is returned when a Record's shape and data disagree.
var ErrInvalidRecord = errors.New("invalid record")

// Record is one packed recording.
type Record struct {
	AudioName  string
	SampleRate int

	// SourceType names the waveform dataset, e.g. "piano".
	SourceType string

	Channels int
	Frames   int

	// Data is channel-major: Data[ch*Frames+i].
	Data []int16
}

// Validate checks that the record can be written.
func (r *Record) Validate() error {
	switch {
	case r.SourceType == "":
		return fmt.Errorf("%w: empty source type", ErrInvalidRecord)
	case r.Channels < 1 || r.Frames < 1:
		return fmt.Errorf("%w: shape (%d, %d)", ErrInvalidRecord, r.Channels, r.Frames)
	case len(r.Data) != r.Channels*r.Frames:
		return fmt.Errorf("%w: %d samples for shape (%d, %d)", ErrInvalidRecord, len(r.Data), r.Channels, r.Frames)
	case r.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate %d", ErrInvalidRecord, r.SampleRate)
	}
	return nil
}

// Channel returns the samples of one channel without copying.
func (r *Record) Channel(ch int) []int16 {
	return r.Data[ch*r.Frames : (ch+1)*r.Frames]
}

// Write creates (or truncates) path and stores rec.
func Write(path string, rec *Record) (err error) {
	if err := rec.Validate(); err != nil {
		return err
	}

	libMu.Lock()
	defer libMu.Unlock()

	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("failed to close %s: %w", path, closeErr)
		}
	}()

	root, err := f.OpenGroup("/")
	if err != nil {
		return fmt.Errorf("failed to open root group: %w", err)
	}
	defer func() { _ = root.Close() }()

	name := rec.AudioName
	if err := writeAttribute(root, AttrAudioName, hdf5.T_GO_STRING, &name); err != nil {
		return err
	}
	rate := int32(rec.SampleRate)
	if err := writeAttribute(root, AttrSampleRate, hdf5.T_NATIVE_INT32, &rate); err != nil {
		return err
	}

	space, err := hdf5.CreateSimpleDataspace([]uint{uint(rec.Channels), uint(rec.Frames)}, nil)
	if err != nil {
		return fmt.Errorf("failed to create dataspace: %w", err)
	}
	defer func() { _ = space.Close() }()

	dset, err := f.CreateDataset(rec.SourceType, hdf5.T_NATIVE_INT16, space)
	if err != nil {
		return fmt.Errorf("failed to create dataset %q: %w", rec.SourceType, err)
	}
	defer func() { _ = dset.Close() }()

	if err := dset.Write(&rec.Data); err != nil {
		return fmt.Errorf("failed to write dataset %q: %w", rec.SourceType, err)
	}

	return nil
}

func writeAttribute(g *hdf5.Group, name string, dtype *hdf5.Datatype, value any) error {
	space, err := hdf5.CreateDataspace(hdf5.S_SCALAR)
	if err != nil {
		return fmt.Errorf("failed to create scalar dataspace: %w", err)
	}
	defer func() { _ = space.Close() }()

	attr, err := g.CreateAttribute(name, dtype, space)
	if err != nil {
		return fmt.Errorf("failed to create attribute %q: %w", name, err)
	}
	defer func() { _ = attr.Close() }()

	if err := attr.Write(value, dtype); err != nil {
		return fmt.Errorf("failed to write attribute %q: %w", name, err)
	}
	return nil
}

// Read loads the recording stored under sourceType in path.
func Read(path, sourceType string) (*Record, error) {
	libMu.Lock()
	defer libMu.Unlock()

	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	root, err := f.OpenGroup("/")
	if err != nil {
		return nil, fmt.Errorf("failed to open root group: %w", err)
	}
	defer func() { _ = root.Close() }()

	rec := &Record{SourceType: sourceType}
	if err := readAttribute(root, AttrAudioName, hdf5.T_GO_STRING, &rec.AudioName); err != nil {
		return nil, err
	}
	var rate int32
	if err := readAttribute(root, AttrSampleRate, hdf5.T_NATIVE_INT32, &rate); err != nil {
		return nil, err
	}
	rec.SampleRate = int(rate)

	dset, err := f.OpenDataset(sourceType)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %q: %w", sourceType, err)
	}
	defer func() { _ = dset.Close() }()

	space := dset.Space()
	defer func() { _ = space.Close() }()

	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, fmt.Errorf("failed to read shape of %q: %w", sourceType, err)
	}
	if len(dims) != 2 {
		return nil, fmt.Errorf("%w: dataset %q has rank %d, want 2", ErrInvalidRecord, sourceType, len(dims))
	}
	rec.Channels, rec.Frames = int(dims[0]), int(dims[1])

	rec.Data = make([]int16, rec.Channels*rec.Frames)
	if err := dset.Read(&rec.Data); err != nil {
		return nil, fmt.Errorf("failed to read dataset %q: %w", sourceType, err)
	}

	return rec, nil
}

func readAttribute(g *hdf5.Group, name string, dtype *hdf5.Datatype, dst any) error {
	attr, err := g.OpenAttribute(name)
	if err != nil {
		return fmt.Errorf("failed to open attribute %q: %w", name, err)
	}
	defer func() { _ = attr.Close() }()

	if err := attr.Read(dst, dtype); err != nil {
		return fmt.Errorf("failed to read attribute %q: %w", name, err)
	}
	return nil
}
