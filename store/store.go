package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"mulist/model"
)

// DefaultMaxBackups is how many timestamped backups SaveWithBackup keeps.
const DefaultMaxBackups = 10

var (
	ErrStateNotFound  = errors.New("state file not found")
	ErrReadState      = errors.New("read state file")
	ErrWriteState     = errors.New("write state file")
	ErrMalformedState = errors.New("malformed state file")
	ErrStateLocked    = errors.New("state file is locked by another process")

	errNoValidBackup = errors.New("no valid backup found")
)

// Load reads lists from a JSON file. Unlike LoadWithRecovery a missing file
// is an error (ErrStateNotFound, which also matches fs.ErrNotExist).
func Load(path string) ([]model.List, error) {
	data, err := readState(path)
	if err != nil {
		return nil, err
	}
	return decodeLists(data)
}

// LoadWithRecovery is the startup load. A missing file yields no lists. A
// corrupted file is moved aside and the newest valid backup is restored;
// the returned message says what happened and is empty when nothing did.
func LoadWithRecovery(path string, maxBackups int) ([]model.List, string, error) {
	lists, err := Load(path)
	if err == nil {
		return lists, "", nil
	}
	if errors.Is(err, ErrStateNotFound) {
		return []model.List{}, "", nil
	}
	if !errors.Is(err, ErrMalformedState) {
		return nil, "", err
	}

	corruptPath, moveErr := moveCorruptFile(path)
	if moveErr != nil {
		return nil, "", fmt.Errorf("move corrupt state file: %w", moveErr)
	}

	recovered, backupPath, backupErr := loadLatestValidBackup(path)
	if backupErr == nil {
		if err := SaveWithBackup(path, recovered, maxBackups); err != nil {
			return nil, "", fmt.Errorf("restore backup: %w", err)
		}
		msg := fmt.Sprintf("Corrupted lists recovered from %s", filepath.Base(backupPath))
		if corruptPath != "" {
			msg += fmt.Sprintf(" (bad file moved to %s)", filepath.Base(corruptPath))
		}
		return recovered, msg, nil
	}
	if !errors.Is(backupErr, errNoValidBackup) {
		return nil, "", fmt.Errorf("inspect backups: %w", backupErr)
	}

	msg := "Corrupted lists and no valid backup; starting empty"
	if corruptPath != "" {
		msg += fmt.Sprintf(" (bad file moved to %s)", filepath.Base(corruptPath))
	}
	return []model.List{}, msg, nil
}

// Save atomically replaces path with the pretty-printed lists. Either the
// new content lands or the previous file is left as it was.
func Save(path string, lists []model.List) error {
	return withWriteLock(path, func() error {
		return writeAtomic(path, lists)
	})
}

// SaveWithBackup copies the current file to path.bak and to a rotating
// timestamped backup before the atomic replace. maxBackups <= 0 keeps
// only path.bak.
func SaveWithBackup(path string, lists []model.List, maxBackups int) error {
	return withWriteLock(path, func() error {
		if err := backup(path, maxBackups); err != nil {
			return fmt.Errorf("%w: backup: %w", ErrWriteState, err)
		}
		return writeAtomic(path, lists)
	})
}

func readState(path string) ([]byte, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrStateNotFound, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrReadState, err)
	}

	lock := flock.New(lockPath(path))
	locked, err := lock.TryRLock()
	if err == nil && !locked {
		return nil, ErrStateLocked
	}
	if locked {
		defer func() {
			_ = lock.Unlock()
		}()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadState, err)
	}
	return data, nil
}

func decodeLists(data []byte) ([]model.List, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedState, err)
	}
	if err := validateDocument(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedState, err)
	}

	var lists []model.List
	if err := json.Unmarshal(data, &lists); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedState, err)
	}

	if lists == nil {
		lists = []model.List{}
	}
	for i := range lists {
		if lists[i].Tasks == nil {
			lists[i].Tasks = []model.Task{}
		}
		lists[i].Draft = ""
		lists[i].Display = model.DefaultDisplay()
	}
	return lists, nil
}

func encodeLists(lists []model.List) ([]byte, error) {
	if lists == nil {
		lists = []model.List{}
	}
	data, err := json.MarshalIndent(lists, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func withWriteLock(path string, fn func() error) error {
	if err := ensureDir(path); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteState, err)
	}
	lock := flock.New(lockPath(path))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("%w: lock: %w", ErrWriteState, err)
	}
	if !locked {
		return ErrStateLocked
	}
	defer func() {
		_ = lock.Unlock()
	}()
	return fn()
}

func writeAtomic(path string, lists []model.List) error {
	data, err := encodeLists(lists)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrWriteState, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteState, err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %w", ErrWriteState, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %w", ErrWriteState, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteState, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteState, err)
	}
	return nil
}

func lockPath(path string) string {
	return path + ".lock"
}

func ensureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

func backup(path string, maxBackups int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	if err := os.WriteFile(path+".bak", data, 0o644); err != nil {
		return err
	}
	if maxBackups <= 0 {
		return nil
	}

	timestamp := time.Now().UTC().Format("20060102-150405.000000000")
	rotatingPath := fmt.Sprintf("%s.bak.%s", path, timestamp)
	if err := os.WriteFile(rotatingPath, data, 0o644); err != nil {
		return err
	}

	return pruneRotatingBackups(path, maxBackups)
}

func pruneRotatingBackups(path string, maxBackups int) error {
	files, err := filepath.Glob(path + ".bak.*")
	if err != nil {
		return err
	}
	if len(files) <= maxBackups {
		return nil
	}

	sort.Strings(files)
	for _, old := range files[:len(files)-maxBackups] {
		if err := os.Remove(old); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func loadLatestValidBackup(path string) ([]model.List, string, error) {
	candidates := make([]string, 0, DefaultMaxBackups+1)
	latest := path + ".bak"
	if _, err := os.Stat(latest); err == nil {
		candidates = append(candidates, latest)
	}
	rotating, err := filepath.Glob(path + ".bak.*")
	if err != nil {
		return nil, "", err
	}
	candidates = append(candidates, rotating...)
	if len(candidates) == 0 {
		return nil, "", errNoValidBackup
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		iInfo, iErr := os.Stat(candidates[i])
		jInfo, jErr := os.Stat(candidates[j])
		if iErr != nil || jErr != nil {
			return candidates[i] > candidates[j]
		}
		return iInfo.ModTime().After(jInfo.ModTime())
	})

	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if err != nil {
			continue
		}
		lists, err := decodeLists(data)
		if err != nil {
			continue
		}
		return lists, candidate, nil
	}

	return nil, "", errNoValidBackup
}

func moveCorruptFile(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	timestamp := time.Now().UTC().Format("20060102-150405")
	corruptPath := filepath.Join(filepath.Dir(path), fmt.Sprintf("%s.corrupt-%s%s", name, timestamp, ext))
	if err := os.Rename(path, corruptPath); err != nil {
		return "", err
	}
	return corruptPath, nil
}
