package preprocessing

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pair-analysis/src/helpers"
	"pair-analysis/src/logger"
	"pair-analysis/src/table"
	"pair-analysis/src/utils"
)

// -----------------------------------------------------------------------------

// Persister writes tables to {dir}/{stamp}_data_preprocessing.csv.
type Persister struct {
	Dir    string
	Logger *logger.Logger
	now    func() time.Time
}

func NewPersister(dir string, log *logger.Logger) *Persister {
	return &Persister{Dir: dir, Logger: log, now: time.Now}
}

// -----------------------------------------------------------------------------

// Persist writes t to a new file and returns its path. An existing file is
// never overwritten; a failed write leaves no file behind.
func (p *Persister) Persist(t *table.Table) (string, error) {
	if err := os.MkdirAll(p.Dir, 0755); err != nil {
		return "", helpers.NewIOError(fmt.Sprintf("failed to create %s", p.Dir), err)
	}

	f, path, err := p.create()
	if err != nil {
		return "", err
	}

	if err := t.WriteCSV(f); err != nil {
		f.Close()
		os.Remove(path)
		return "", helpers.NewIOError(fmt.Sprintf("failed to write %s", path), err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", helpers.NewIOError(fmt.Sprintf("failed to close %s", path), err)
	}

	p.Logger.Info("save csv file path: %s", path)
	return path, nil
}

// -----------------------------------------------------------------------------

// create opens a fresh artifact file, bumping the stamp on collision.
func (p *Persister) create() (*os.File, string, error) {
	stamp := p.now().UTC().UnixNano()
	for attempt := 0; attempt < 100; attempt++ {
		path := filepath.Join(p.Dir, fmt.Sprintf("%d%s", stamp, utils.TableFileSuffix))
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", helpers.NewIOError(fmt.Sprintf("failed to create %s", path), err)
		}
		stamp++
	}
	return nil, "", helpers.NewIOError("failed to pick a free file name in "+p.Dir, os.ErrExist)
}

// -----------------------------------------------------------------------------

// ArtifactStamp returns the generation stamp prefix of an artifact path.
func ArtifactStamp(path string) string {
	name := filepath.Base(path)
	for i, r := range name {
		if r < '0' || r > '9' {
			return name[:i]
		}
	}
	return name
}
