package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/riskdesk/internal/database"
)

const (
	archivePrefix    = "riskdesk-backup-"
	archiveSuffix    = ".tar.gz"
	archiveTimestamp = "2006-01-02-150405"
	metadataFile     = "backup-metadata.json"
	minBackupsToKeep = 3
)

// BackupMetadata is written into every archive
type BackupMetadata struct {
	Timestamp time.Time          `json:"timestamp"`
	Databases []DatabaseMetadata `json:"databases"`
}

// DatabaseMetadata describes one database file in an archive
type DatabaseMetadata struct {
	Name      string `json:"name"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

// BackupInfo describes an archive in the object store
type BackupInfo struct {
	Timestamp time.Time `json:"timestamp"`
	Key       string    `json:"key"`
	SizeBytes int64     `json:"size_bytes"`
}

// BackupService snapshots databases with VACUUM INTO, archives them with a
// checksum manifest and uploads the archive.
type BackupService struct {
	databases     []*database.DB
	store         ObjectStore
	prefix        string
	retentionDays int
	stagingDir    string
	now           func() time.Time
	log           zerolog.Logger
}

// NewBackupService creates a backup service. stagingDir holds temporary
// files and is cleaned after each run.
func NewBackupService(databases []*database.DB, store ObjectStore, prefix string, retentionDays int, stagingDir string, log zerolog.Logger) *BackupService {
	return &BackupService{
		databases:     databases,
		store:         store,
		prefix:        prefix,
		retentionDays: retentionDays,
		stagingDir:    stagingDir,
		now:           time.Now,
		log:           log.With().Str("service", "backup").Logger(),
	}
}

// Backup creates and uploads an archive, then rotates old archives.
// Returns the object key of the new archive.
func (s *BackupService) Backup(ctx context.Context) (string, error) {
	s.log.Info().Int("databases", len(s.databases)).Msg("Starting backup")
	startTime := time.Now()

	if s.stagingDir != "" {
		if err := os.MkdirAll(s.stagingDir, 0755); err != nil {
			return "", fmt.Errorf("failed to create staging directory: %w", err)
		}
	}

	staging, err := os.MkdirTemp(s.stagingDir, "backup-staging-")
	if err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	now := s.now().UTC()
	metadata := BackupMetadata{
		Timestamp: now,
		Databases: make([]DatabaseMetadata, 0, len(s.databases)),
	}
	files := make([]string, 0, len(s.databases)+1)

	for _, db := range s.databases {
		filename := db.Name() + ".db"
		path := filepath.Join(staging, filename)

		if err := db.VacuumInto(ctx, path); err != nil {
			return "", fmt.Errorf("failed to snapshot %s: %w", db.Name(), err)
		}

		info, err := os.Stat(path)
		if err != nil {
			return "", fmt.Errorf("failed to stat %s snapshot: %w", db.Name(), err)
		}
		checksum, err := fileChecksum(path)
		if err != nil {
			return "", fmt.Errorf("failed to checksum %s: %w", db.Name(), err)
		}

		metadata.Databases = append(metadata.Databases, DatabaseMetadata{
			Name:      db.Name(),
			Filename:  filename,
			SizeBytes: info.Size(),
			Checksum:  checksum,
		})
		files = append(files, filename)
	}

	if err := writeMetadata(filepath.Join(staging, metadataFile), metadata); err != nil {
		return "", fmt.Errorf("failed to write metadata: %w", err)
	}
	files = append(files, metadataFile)

	archiveName := archivePrefix + now.Format(archiveTimestamp) + archiveSuffix
	archivePath := filepath.Join(staging, archiveName)
	if err := createArchive(archivePath, staging, files); err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}

	archive, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}
	defer archive.Close()

	key := s.prefix + archiveName
	if err := s.store.Upload(ctx, key, archive); err != nil {
		return "", err
	}

	s.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Str("key", key).
		Msg("Backup uploaded")

	if err := s.Rotate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Backup rotation failed")
	}
	return key, nil
}

// List returns archives in the store, newest first
func (s *BackupService) List(ctx context.Context) ([]BackupInfo, error) {
	objects, err := s.store.List(ctx, s.prefix+archivePrefix)
	if err != nil {
		return nil, err
	}

	backups := make([]BackupInfo, 0, len(objects))
	for _, obj := range objects {
		name := strings.TrimPrefix(obj.Key, s.prefix)
		if !strings.HasPrefix(name, archivePrefix) || !strings.HasSuffix(name, archiveSuffix) {
			continue
		}

		stamp := strings.TrimSuffix(strings.TrimPrefix(name, archivePrefix), archiveSuffix)
		ts, err := time.Parse(archiveTimestamp, stamp)
		if err != nil {
			s.log.Warn().Str("key", obj.Key).Msg("Failed to parse timestamp from backup key")
			continue
		}
		backups = append(backups, BackupInfo{Key: obj.Key, Timestamp: ts, SizeBytes: obj.Size})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// Rotate deletes archives older than the retention period, always keeping
// the newest three. Retention 0 keeps everything.
func (s *BackupService) Rotate(ctx context.Context) error {
	if s.retentionDays <= 0 {
		return nil
	}

	backups, err := s.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) <= minBackupsToKeep {
		return nil
	}

	cutoff := s.now().UTC().AddDate(0, 0, -s.retentionDays)
	deleted := 0
	for _, b := range backups[minBackupsToKeep:] {
		if !b.Timestamp.Before(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, b.Key); err != nil {
			s.log.Error().Err(err).Str("key", b.Key).Msg("Failed to delete old backup")
			continue
		}
		deleted++
	}

	s.log.Info().
		Int("deleted", deleted).
		Int("remaining", len(backups)-deleted).
		Msg("Backup rotation completed")
	return nil
}

func fileChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}

func writeMetadata(path string, metadata BackupMetadata) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(metadata)
}

func createArchive(archivePath, sourceDir string, files []string) (err error) {
	out, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	for _, name := range files {
		if err := addFileToArchive(tw, filepath.Join(sourceDir, name), name); err != nil {
			return fmt.Errorf("failed to add %s: %w", name, err)
		}
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}

func addFileToArchive(tw *tar.Writer, path, nameInArchive string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header := &tar.Header{
		Name:    nameInArchive,
		Size:    info.Size(),
		Mode:    int64(info.Mode()),
		ModTime: info.ModTime(),
	}
	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	_, err = io.Copy(tw, file)
	return err
}
