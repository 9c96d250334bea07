package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog/log"
)

// Archive naming constants
const (
	ArchivePrefix    = "youtube_"
	ArchiveExtension = ".zip"
	TempPattern      = ".youtube_*.zip.part"
)

// ErrIO marks failures reading the output directory or writing the archive
var ErrIO = errors.New("archive I/O error")

// Builder packs a job's output directory into a single zip file
type Builder struct{}

// NewBuilder creates a new archive builder
func NewBuilder() Archiver {
	return &Builder{}
}

// PathFor returns where the archive for jobID is written, next to outputDir
func PathFor(outputDir, jobID string) string {
	return filepath.Join(filepath.Dir(filepath.Clean(outputDir)), ArchivePrefix+jobID+ArchiveExtension)
}

// Build writes every regular file directly inside outputDir into a flat,
// deflate-compressed archive. The archive only appears at its final path once
// it is completely written.
func (b *Builder) Build(outputDir, jobID string) (string, error) {
	files, err := ListRegularFiles(outputDir)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ErrIO, outputDir, err)
	}

	archivePath := PathFor(outputDir, jobID)
	tmp, err := os.CreateTemp(filepath.Dir(archivePath), TempPattern)
	if err != nil {
		return "", fmt.Errorf("%w: create temp archive: %v", ErrIO, err)
	}
	tmpPath := tmp.Name()

	if err := writeArchive(tmp, outputDir, files); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: close archive: %v", ErrIO, err)
	}
	if err := os.Rename(tmpPath, archivePath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: publish archive: %v", ErrIO, err)
	}

	log.Debug().
		Str("job_id", jobID).
		Str("archive", archivePath).
		Int("files", len(files)).
		Msg("archive built")
	return archivePath, nil
}

// ListRegularFiles returns the names of regular files directly inside dir,
// sorted. Subdirectories, symlinks and special files are skipped.
func ListRegularFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func writeArchive(w io.Writer, dir string, names []string) error {
	zw := zip.NewWriter(w)
	for _, name := range names {
		if err := addFile(zw, filepath.Join(dir, name), name); err != nil {
			zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize zip: %w", err)
	}
	return nil
}

func addFile(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", name, err)
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("header %s: %w", name, err)
	}
	header.Name = name
	header.Method = zip.Deflate

	dst, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	if _, err := io.Copy(dst, f); err != nil {
		return fmt.Errorf("copy %s: %w", name, err)
	}
	return nil
}
