// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package binaries

import (
	"archive/tar"
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Extractor unpacks a downloaded release archive into a directory.
// The production implementation dispatches on file extension; tests
// substitute fakes so resolution logic can be exercised without real
// archives.
type Extractor interface {
	Extract(archivePath, destDir string) error
}

// NewExtractor returns the production archive extractor.
func NewExtractor() Extractor {
	return archiveExtractor{}
}

type archiveExtractor struct{}

// Extract unpacks archivePath into destDir based on its extension.
func (archiveExtractor) Extract(archivePath, destDir string) error {
	lower := strings.ToLower(archivePath)
	switch {
	case strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz"):
		return extractTarGz(archivePath, destDir)
	case strings.HasSuffix(lower, ".zip"):
		return extractZip(archivePath, destDir)
	default:
		return fmt.Errorf("unsupported archive format: %s", filepath.Base(archivePath))
	}
}

// containedPath joins an archive entry name onto destDir and rejects
// entries that would escape it (the classic Zip Slip attack).
func containedPath(destDir, name string) (string, error) {
	target := filepath.Join(destDir, name)
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry escapes extraction directory: %s", name)
	}
	return target, nil
}

func extractTarGz(archivePath, destDir string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer file.Close()

	decompressor, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("reading gzip stream from %s: %w", filepath.Base(archivePath), err)
	}
	defer decompressor.Close()

	reader := tar.NewReader(decompressor)
	for {
		header, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading tar stream from %s: %w", filepath.Base(archivePath), err)
		}

		target, err := containedPath(destDir, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("creating directory %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("creating directory for %s: %w", target, err)
			}
			out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, os.FileMode(header.Mode).Perm())
			if err != nil {
				return fmt.Errorf("creating %s: %w", target, err)
			}
			if _, err := io.Copy(out, reader); err != nil {
				out.Close()
				return fmt.Errorf("extracting %s: %w", header.Name, err)
			}
			if err := out.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", target, err)
			}
		default:
			// Symlinks and special files in release archives are
			// ignored rather than materialized.
		}
	}
	return nil
}

func extractZip(archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", filepath.Base(archivePath), err)
	}
	defer reader.Close()

	for _, entry := range reader.File {
		target, err := containedPath(destDir, entry.Name)
		if err != nil {
			return err
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("creating directory %s: %w", target, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", target, err)
		}
		out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, entry.Mode().Perm())
		if err != nil {
			return fmt.Errorf("creating %s: %w", target, err)
		}
		in, err := entry.Open()
		if err != nil {
			out.Close()
			return fmt.Errorf("opening archive entry %s: %w", entry.Name, err)
		}
		_, err = io.Copy(out, in)
		in.Close()
		if closeErr := out.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return fmt.Errorf("extracting %s: %w", entry.Name, err)
		}
	}
	return nil
}

// findExecutable walks root looking for a regular file named name and
// returns the first match in lexical walk order. Release archives
// sometimes nest the binary under a directory, so a fixed relative
// path cannot be assumed.
func findExecutable(root, name string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if found != "" {
			return fs.SkipAll
		}
		if !entry.IsDir() && entry.Name() == name {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("searching %s: %w", root, err)
	}
	if found == "" {
		return "", fmt.Errorf("no %s executable found under %s", name, root)
	}
	return found, nil
}
