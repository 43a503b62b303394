// Package statefile persists the canonical state as one JSON document with
// atomic replacement and timestamped backups.
package statefile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/restopos/internal/domain/models"
)

const (
	backupPrefix = "state-"
	backupLayout = "20060102T150405.000000000Z"
)

// Repository loads and saves the state file.
type Repository struct {
	path      string
	backupDir string
	logger    *zap.Logger
	now       func() time.Time
}

// NewRepository builds a file backed repository.
func NewRepository(path, backupDir string, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{
		path:      path,
		backupDir: backupDir,
		logger:    logger,
		now:       time.Now,
	}
}

// Path returns the backing file location.
func (r *Repository) Path() string { return r.path }

// Load returns the stored state migrated to the current schema version. A
// missing file yields a default state that is persisted immediately.
func (r *Repository) Load() (*models.State, error) {
	raw, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		r.logger.Info("state file missing, initializing", zap.String("path", r.path))
		state := models.NewState()
		if err := r.Save(state); err != nil {
			return nil, err
		}
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file %s: %w", r.path, err)
	}

	state, applied, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode state file %s: %w", r.path, err)
	}
	if len(applied) > 0 {
		r.logger.Info("state migrated", zap.Strings("migrations", applied), zap.Int("version", state.Version))
	}
	return state, nil
}

// Decode migrates a raw state document and decodes it into a State.
func Decode(raw []byte) (*models.State, []string, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, err
	}
	if doc == nil {
		doc = map[string]any{}
	}

	applied, err := Migrate(doc)
	if err != nil {
		return nil, nil, err
	}

	migrated, err := json.Marshal(doc)
	if err != nil {
		return nil, nil, err
	}

	state := new(models.State)
	if err := json.Unmarshal(migrated, state); err != nil {
		return nil, nil, err
	}
	state.Normalize()
	return state, applied, nil
}

// Save writes state to a temporary file in the target directory and renames it
// over the target. The previous file is copied to the backup directory first;
// backup failures are logged and ignored.
func (r *Repository) Save(state *models.State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	if err := r.backup(); err != nil {
		r.logger.Warn("state backup failed", zap.Error(err))
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		cleanup()
		return fmt.Errorf("replace state file: %w", err)
	}

	syncDir(dir)
	r.logger.Debug("state saved", zap.String("path", r.path), zap.Int("bytes", len(data)))
	return nil
}

func (r *Repository) backup() error {
	src, err := os.Open(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer src.Close()

	if err := os.MkdirAll(r.backupDir, 0o755); err != nil {
		return err
	}

	name := backupPrefix + r.now().UTC().Format(backupLayout) + ".json"
	dst, err := os.OpenFile(filepath.Join(r.backupDir, name), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

// Backups lists backup files oldest first.
func (r *Repository) Backups() ([]string, error) {
	entries, err := os.ReadDir(r.backupDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), backupPrefix) || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, filepath.Join(r.backupDir, e.Name()))
	}
	sort.Strings(names)
	return names, nil
}

// PruneBackups removes all but the newest keep backups and returns how many were removed.
func (r *Repository) PruneBackups(keep int) (int, error) {
	names, err := r.Backups()
	if err != nil {
		return 0, err
	}
	if keep < 0 {
		keep = 0
	}
	removed := 0
	for len(names)-removed > keep {
		if err := os.Remove(names[removed]); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
