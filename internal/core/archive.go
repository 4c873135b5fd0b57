package core

// Format identifies a supported archive/compression format. The set is
// closed: persisted space configs reference formats by name and extension
// mapping must stay stable.
type Format string

const (
	FormatZip    Format = "zip"
	FormatTarGz  Format = "gztar"
	FormatTarBz2 Format = "bztar"
	FormatTarXz  Format = "xztar"
	FormatTarZst Format = "zsttar"
)

// Formats lists all supported formats in display order.
func Formats() []Format {
	return []Format{FormatZip, FormatTarGz, FormatTarBz2, FormatTarXz, FormatTarZst}
}

// ParseFormat resolves a format name from persisted config or CLI input.
func ParseFormat(name string) (Format, error) {
	for _, f := range Formats() {
		if string(f) == name {
			return f, nil
		}
	}
	return "", &UnsupportedFormatError{Name: name}
}

// Extension returns the archive file extension including the leading dot.
func (f Format) Extension() string {
	switch f {
	case FormatZip:
		return ".zip"
	case FormatTarGz:
		return ".tar.gz"
	case FormatTarBz2:
		return ".tar.bz2"
	case FormatTarXz:
		return ".tar.xz"
	case FormatTarZst:
		return ".tar.zst"
	}
	return ""
}

// Leveled reports whether the format accepts a compression level.
func (f Format) Leveled() bool {
	switch f {
	case FormatZip, FormatTarGz, FormatTarBz2, FormatTarZst:
		return true
	}
	return false
}

// ExtractPolicy controls how extraction treats entries that already exist in
// the target directory.
type ExtractPolicy int

const (
	// ExtractOverwrite writes every entry, overwriting existing files in place.
	ExtractOverwrite ExtractPolicy = iota
	// ExtractSkipExisting leaves existing target files untouched.
	ExtractSkipExisting
	// ExtractReplace removes the target path (whatever it is) before writing
	// each entry, so file/directory type conflicts resolve in the archive's
	// favor.
	ExtractReplace
)

// ArchiveCodec produces and unpacks archives. Implementations must apply the
// include/exclude filter semantics of Filter to Compress.
type ArchiveCodec interface {
	// Compress archives the filtered contents of root into
	// destDir/name+format.Extension() and returns the archive path.
	// An empty filtered file set is allowed and produces an empty archive.
	Compress(root, name, destDir string, format Format, level int, include, exclude []string) (string, error)

	// Extract unpacks the archive into targetDir, creating it if needed.
	Extract(archivePath, targetDir string, policy ExtractPolicy) error

	// Filter returns the slash-separated paths, relative to root, of the
	// regular files selected by the include/exclude patterns. An empty
	// include list selects everything under root.
	Filter(root string, include, exclude []string) ([]string, error)
}
