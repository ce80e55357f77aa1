// Package manifest records the outcome of every download attempt of a
// harvest run in a CSV file next to the downloaded data. The manifest is
// append-only in memory and rewritten as a whole on each persist, so a
// crashed run leaves the last persisted state on disk.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/agrefed/harvester/common"
	"github.com/gocarina/gocsv"
)

// Entry is one manifest row: a single artifact attempt and its outcome
type Entry struct {
	Source      common.SourceID `csv:"source"`
	Layer       string          `csv:"layer"`
	Path        string          `csv:"path"`
	Aggregation string          `csv:"aggregation"`
	Status      common.Status   `csv:"status"`
	// Message carries the error text of failed rows
	Message   string    `csv:"message"`
	Timestamp time.Time `csv:"timestamp"`
}

// Manifest collects the rows of one run
type Manifest struct {
	path    string
	entries []Entry
}

// New creates an empty manifest persisted at path
func New(path string) *Manifest {
	return &Manifest{path: path}
}

// Path returns the manifest file location
func (m *Manifest) Path() string {
	return m.path
}

// Entries returns the recorded rows in append order
func (m *Manifest) Entries() []Entry {
	return m.entries
}

// Append records one row, stamping it with the current time if unset
func (m *Manifest) Append(e Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	m.entries = append(m.entries, e)
}

// AppendArtifacts records one downloaded row per artifact of the set
func (m *Manifest) AppendArtifacts(set common.ArtifactSet) {
	for _, a := range set.Artifacts {
		m.Append(Entry{
			Source:      set.Source,
			Layer:       a.Layer,
			Path:        a.Path,
			Aggregation: a.Aggregation,
			Status:      common.StatusDownloaded,
		})
	}
}

// AppendFailure records one failed row for the source
func (m *Manifest) AppendFailure(source common.SourceID, err error) {
	m.Append(Entry{
		Source:  source,
		Status:  common.StatusFailed,
		Message: err.Error(),
	})
}

// Persist writes the manifest to its path, replacing any previous content
func (m *Manifest) Persist() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("Persist.%w", err)
	}
	f, err := os.Create(m.path)
	if err != nil {
		return fmt.Errorf("Persist.%w", err)
	}
	defer f.Close()
	if err := gocsv.MarshalFile(&m.entries, f); err != nil {
		return fmt.Errorf("Persist.%w", err)
	}
	return nil
}

// Load reads a previously persisted manifest
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("Load.%w", err)
	}
	defer f.Close()
	m := New(path)
	if err := gocsv.UnmarshalFile(f, &m.entries); err != nil {
		return nil, fmt.Errorf("Load.%w", err)
	}
	return m, nil
}
