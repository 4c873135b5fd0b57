// Package archive implements the core.ArchiveCodec contract: filtered
// compression of a file tree into a single archive and conflict-aware
// extraction back out of it.
package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"github.com/tgross03/backpy/internal/core"
)

// Codec is the production archive codec.
type Codec struct{}

var _ core.ArchiveCodec = (*Codec)(nil)

// NewCodec creates a Codec.
func NewCodec() *Codec { return &Codec{} }

// Compress archives the filtered contents of root into
// destDir/name+ext and returns the archive path. An existing archive of the
// same name is overwritten. An empty filtered file set produces a valid
// empty archive.
func (c *Codec) Compress(root, name, destDir string, format core.Format, level int, include, exclude []string) (string, error) {
	files, err := c.Filter(root, include, exclude)
	if err != nil {
		return "", err
	}

	archivePath := filepath.Join(destDir, name+format.Extension())
	os.Remove(archivePath)

	if format == core.FormatZip {
		if err := writeZip(archivePath, root, files, level); err != nil {
			os.Remove(archivePath)
			return "", err
		}
		return archivePath, nil
	}

	if err := writeTar(archivePath, root, files, format, level); err != nil {
		os.Remove(archivePath)
		return "", err
	}
	return archivePath, nil
}

// Filter returns the slash-separated relative paths of the regular files
// under root selected by the include/exclude patterns. Patterns are matched
// against both the full relative path and the basename, so "*.log" excludes
// log files at any depth. An empty include list selects everything.
func (c *Codec) Filter(root string, include, exclude []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if len(include) > 0 && !matchesAny(include, rel) {
			return nil
		}
		if matchesAny(exclude, rel) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// matchesAny reports whether rel matches any pattern, either by full
// relative path or by basename.
func matchesAny(patterns []string, rel string) bool {
	base := rel
	if i := strings.LastIndex(rel, "/"); i >= 0 {
		base = rel[i+1:]
	}
	for _, pat := range patterns {
		if ok, err := filepath.Match(pat, rel); err == nil && ok {
			return true
		}
		if ok, err := filepath.Match(pat, base); err == nil && ok {
			return true
		}
	}
	return false
}

func writeZip(archivePath, root string, files []string, level int) error {
	out, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, clampLevel(level, flate.BestSpeed, flate.BestCompression, flate.DefaultCompression))
	})

	for _, rel := range files {
		src := filepath.Join(root, filepath.FromSlash(rel))
		info, err := os.Stat(src)
		if err != nil {
			return fmt.Errorf("stat %s: %w", src, err)
		}
		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return fmt.Errorf("building zip header for %s: %w", rel, err)
		}
		hdr.Name = rel
		hdr.Method = zip.Deflate

		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("adding %s to archive: %w", rel, err)
		}
		if err := copyFileInto(w, src); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return nil
}

func writeTar(archivePath, root string, files []string, format core.Format, level int) error {
	out, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	defer out.Close()

	comp, err := newCompressor(format, level, out)
	if err != nil {
		return err
	}

	tw := tar.NewWriter(comp)
	for _, rel := range files {
		src := filepath.Join(root, filepath.FromSlash(rel))
		info, err := os.Stat(src)
		if err != nil {
			comp.Close()
			return fmt.Errorf("stat %s: %w", src, err)
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			comp.Close()
			return fmt.Errorf("building tar header for %s: %w", rel, err)
		}
		hdr.Name = rel

		if err := tw.WriteHeader(hdr); err != nil {
			comp.Close()
			return fmt.Errorf("adding %s to archive: %w", rel, err)
		}
		if err := copyFileInto(tw, src); err != nil {
			comp.Close()
			return err
		}
	}

	if err := tw.Close(); err != nil {
		comp.Close()
		return fmt.Errorf("finalizing archive: %w", err)
	}
	if err := comp.Close(); err != nil {
		return fmt.Errorf("finalizing compression: %w", err)
	}
	return nil
}

func copyFileInto(w io.Writer, src string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("compressing %s: %w", src, err)
	}
	return nil
}

// Extract unpacks the archive into targetDir, creating it if needed. The
// policy decides how entries colliding with existing target paths are
// handled.
func (c *Codec) Extract(archivePath, targetDir string, policy core.ExtractPolicy) error {
	format, err := formatForArchive(archivePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return fmt.Errorf("creating target directory: %w", err)
	}

	if format == core.FormatZip {
		return extractZip(archivePath, targetDir, policy)
	}
	return extractTar(archivePath, targetDir, format, policy)
}

func extractZip(archivePath, targetDir string, policy core.ExtractPolicy) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer zr.Close()

	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		target, err := entryTarget(targetDir, entry.Name)
		if err != nil {
			return err
		}
		skip, err := prepareTarget(target, policy)
		if err != nil {
			return err
		}
		if skip {
			continue
		}

		r, err := entry.Open()
		if err != nil {
			return fmt.Errorf("reading %s from archive: %w", entry.Name, err)
		}
		err = writeEntry(target, r, entry.Mode())
		r.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func extractTar(archivePath, targetDir string, format core.Format, policy core.ExtractPolicy) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	dec, err := newDecompressor(format, f)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer dec.Close()

	tr := tar.NewReader(dec)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading archive: %w", err)
		}
		if hdr.Typeflag == tar.TypeDir {
			continue
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		target, err := entryTarget(targetDir, hdr.Name)
		if err != nil {
			return err
		}
		skip, err := prepareTarget(target, policy)
		if err != nil {
			return err
		}
		if skip {
			continue
		}
		if err := writeEntry(target, tr, fs.FileMode(hdr.Mode)); err != nil {
			return err
		}
	}
}

// entryTarget resolves an archive entry name inside targetDir, rejecting
// absolute names and path traversal.
func entryTarget(targetDir, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("archive entry %q escapes the target directory", name)
	}
	return filepath.Join(targetDir, cleaned), nil
}

// prepareTarget applies the extract policy to an existing target path.
// Returns true when the entry should be skipped.
func prepareTarget(target string, policy core.ExtractPolicy) (bool, error) {
	_, err := os.Lstat(target)
	exists := err == nil

	switch policy {
	case core.ExtractSkipExisting:
		if exists {
			return true, nil
		}
	case core.ExtractReplace:
		if exists {
			if err := os.RemoveAll(target); err != nil {
				return false, fmt.Errorf("replacing %s: %w", target, err)
			}
		}
	}
	return false, nil
}

func writeEntry(target string, r io.Reader, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("creating parent directory for %s: %w", target, err)
	}

	perm := mode.Perm()
	if perm == 0 {
		perm = 0644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("writing %s: %w", target, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", target, err)
	}
	return nil
}
