// Package maestro reads the metadata table shipped with the MAESTRO piano
// dataset and maps its rows to audio paths.
package maestro

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// MetadataPattern matches the versioned metadata file in a dataset root,
// e.g. maestro-v2.0.0.csv or maestro-v3.0.0.csv.
const MetadataPattern = "maestro-v*.csv"

// Column names of the metadata CSV.
const (
	colComposer      = "canonical_composer"
	colTitle         = "canonical_title"
	colSplit         = "split"
	colYear          = "year"
	colMIDIFilename  = "midi_filename"
	colAudioFilename = "audio_filename"
	colDuration      = "duration"
)

var requiredColumns = []string{
	colComposer, colTitle, colSplit, colYear, colMIDIFilename, colAudioFilename, colDuration,
}

// Split names used by MAESTRO.
const (
	SplitTrain      = "train"
	SplitValidation = "validation"
	SplitTest       = "test"
)

var (
	// ErrMetadataNotFound is returned when no metadata CSV exists in the dataset root.
	ErrMetadataNotFound = errors.New("maestro metadata not found")

	// ErrMalformedMetadata is returned for missing columns or unparsable values.
	ErrMalformedMetadata = errors.New("malformed maestro metadata")
)

// Entry is one recording.
type Entry struct {
	// Index is the zero-based data row the entry came from.
	Index int

	CanonicalComposer string
	CanonicalTitle    string
	Split             string
	Year              int
	MIDIFilename      string
	AudioFilename     string

	// Duration in seconds, as listed in the table.
	Duration float64
}

// AudioPath joins the entry's audio filename onto the dataset root.
func (e Entry) AudioPath(root string) string {
	return filepath.Join(root, filepath.FromSlash(e.AudioFilename))
}

// Stem returns the audio file name without directory or extension.
func (e Entry) Stem() string {
	base := filepath.Base(filepath.FromSlash(e.AudioFilename))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Metadata is the parsed table, in file order.
type Metadata struct {
	// Path is the file the table was read from.
	Path    string
	Entries []Entry
}

// Split returns the entries whose split column equals name, in file order.
func (m *Metadata) Split(name string) []Entry {
	var out []Entry
	for _, e := range m.Entries {
		if e.Split == name {
			out = append(out, e)
		}
	}
	return out
}

// FindMetadata locates the metadata CSV in root. When several versions are
// present the lexicographically greatest name wins.
func FindMetadata(root string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(root, MetadataPattern))
	if err != nil {
		return "", fmt.Errorf("failed to search %s: %w", root, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: no %s in %s", ErrMetadataNotFound, MetadataPattern, root)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// Load finds and parses the metadata CSV in root.
func Load(root string) (*Metadata, error) {
	path, err := FindMetadata(root)
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile parses the metadata CSV at path.
func LoadFile(path string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMetadataNotFound, path)
		}
		return nil, fmt.Errorf("failed to open metadata: %w", err)
	}
	defer func() { _ = f.Close() }()

	entries, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Metadata{Path: path, Entries: entries}, nil
}

// Parse reads a metadata table. Columns are located by header name, so
// extra or reordered columns are accepted.
func Parse(r io.Reader) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrMalformedMetadata)
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformedMetadata, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformedMetadata, name)
		}
	}

	var entries []Entry
	for row := 0; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedMetadata, err)
		}

		entry, err := parseRecord(record, cols, row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func parseRecord(record []string, cols map[string]int, row int) (Entry, error) {
	field := func(name string) string {
		return strings.TrimSpace(record[cols[name]])
	}

	year, err := strconv.Atoi(field(colYear))
	if err != nil {
		return Entry{}, fmt.Errorf("%w: row %d: year %q", ErrMalformedMetadata, row, field(colYear))
	}
	duration, err := strconv.ParseFloat(field(colDuration), 64)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: row %d: duration %q", ErrMalformedMetadata, row, field(colDuration))
	}
	audio := field(colAudioFilename)
	if audio == "" {
		return Entry{}, fmt.Errorf("%w: row %d: empty %s", ErrMalformedMetadata, row, colAudioFilename)
	}

	return Entry{
		Index:             row,
		CanonicalComposer: field(colComposer),
		CanonicalTitle:    field(colTitle),
		Split:             field(colSplit),
		Year:              year,
		MIDIFilename:      field(colMIDIFilename),
		AudioFilename:     audio,
		Duration:          duration,
	}, nil
}
