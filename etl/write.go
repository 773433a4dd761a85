package etl

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"propertyetl/model"

	"github.com/jszwec/csvutil"
	"go.uber.org/zap"
)

const backupFileExt = ".bak"

type BackupOptions struct {
	Enabled    bool
	MaxBackups int
	// Now stamps backup names; time.Now when nil.
	Now func() time.Time
}

// WriteTables writes each table to <dir>/<table>.csv, overwriting what was
// there, and returns the paths in table order.
func WriteTables(dir string, schema *model.StarSchema, backup BackupOptions, logger *zap.SugaredLogger) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("etl: create output dir: %w", err)
	}
	var paths []string
	for _, table := range schema.Tables() {
		path := filepath.Join(dir, table.Name+".csv")
		if backup.Enabled {
			if err := backupExisting(path, backup, logger); err != nil {
				return paths, err
			}
		}
		if err := WriteCSV(path, table.Rows); err != nil {
			return paths, fmt.Errorf("etl: write %s: %w", table.Name, err)
		}
		logger.Infow("table written", "table", table.Name, "rows", table.Len, "path", path)
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteCSV encodes rows, a slice of csv-tagged structs, with a header line.
func WriteCSV(path string, rows any) error {
	data, err := csvutil.Marshal(rows)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644) //nolint:gosec // outputs are meant to be shared
}

func backupExisting(path string, opts BackupOptions, logger *zap.SugaredLogger) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("etl: stat %s: %w", path, err)
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	backupPath := fmt.Sprintf("%s.%s%s", path, now().Format("20060102-150405"), backupFileExt)
	if err := copyFile(path, backupPath); err != nil {
		return fmt.Errorf("etl: back up %s: %w", path, err)
	}
	logger.Infow("existing output backed up", "path", path, "backup", backupPath, "bytes", info.Size())
	pruneOldBackups(path, opts.MaxBackups, logger)
	return nil
}

func copyFile(src, dst string) error {
	sourceFileStat, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !sourceFileStat.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", src)
	}

	source, err := os.Open(src) //nolint:gosec
	if err != nil {
		return err
	}
	defer func() { _ = source.Close() }()

	destination, err := os.Create(dst) //nolint:gosec
	if err != nil {
		return err
	}
	if _, err := destination.ReadFrom(source); err != nil {
		_ = destination.Close()
		return err
	}
	return destination.Close()
}

// pruneOldBackups keeps the newest max backups of path. Backup names sort by
// timestamp, so lexical order is age order.
func pruneOldBackups(path string, max int, logger *zap.SugaredLogger) {
	dir := filepath.Dir(path)
	prefix := filepath.Base(path) + "."
	files, err := os.ReadDir(dir)
	if err != nil {
		logger.Warnw("failed to read backup directory", "dir", dir, "error", err)
		return
	}

	var backups []string
	for _, f := range files {
		if strings.HasPrefix(f.Name(), prefix) && strings.HasSuffix(f.Name(), backupFileExt) {
			backups = append(backups, filepath.Join(dir, f.Name()))
		}
	}

	if len(backups) <= max {
		return
	}

	sort.Strings(backups)
	for _, file := range backups[:len(backups)-max] {
		if err := os.Remove(file); err != nil {
			logger.Warnw("failed to remove old backup", "path", file, "error", err)
		} else {
			logger.Infow("removed old backup", "path", file)
		}
	}
}
