package scheduler

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"reddit-reads-pipeline/types"
)

const manifestName = "manifest.json"

// packDateLayout names pack directories by calendar day
const packDateLayout = "20060102"

// LoadManifest reads a pack's manifest, returning a fresh one when the file
// does not exist yet.
func LoadManifest(packDir string) (*types.DailyManifest, error) {
	path := filepath.Join(packDir, manifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &types.DailyManifest{Date: filepath.Base(packDir)}, nil
		}
		return nil, err
	}
	var m types.DailyManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if m.Date == "" {
		m.Date = filepath.Base(packDir)
	}
	return &m, nil
}

// SaveManifest rewrites the manifest atomically (temp file + rename) so a
// crash mid-write never corrupts the existing file.
func SaveManifest(packDir string, m *types.DailyManifest) error {
	if err := os.MkdirAll(packDir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(packDir, manifestName+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, filepath.Join(packDir, manifestName))
}

// PruneOldPacks deletes pack directories older than retentionDays (today
// counts as day one). Directories not named like a pack date are left alone.
func PruneOldPacks(packsDir string, retentionDays int, now time.Time) error {
	entries, err := os.ReadDir(packsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	cutoff := now.AddDate(0, 0, -(retentionDays - 1)).Format(packDateLayout)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := time.Parse(packDateLayout, e.Name()); err != nil {
			continue
		}
		if e.Name() >= cutoff {
			continue
		}
		path := filepath.Join(packsDir, e.Name())
		log.Printf("[scheduler] 🧹 Removing old pack: %s", path)
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("remove %s: %w", path, err)
		}
	}
	return nil
}
