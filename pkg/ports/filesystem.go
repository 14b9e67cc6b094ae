package ports

// FileSystem abstracts file system operations used by the disk tier,
// the debug sink and the summary writer.
type FileSystem interface {
	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// WriteFile writes data to a file, creating it if necessary.
	WriteFile(path string, data []byte) error

	// WriteFileAtomic writes data to a temporary file in the same directory
	// and renames it over path, so readers never observe a partial file.
	WriteFileAtomic(path string, data []byte) error

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string) error

	// Exists checks if a file or directory exists.
	Exists(path string) (bool, error)

	// Remove deletes a file or empty directory.
	Remove(path string) error

	// ReadDir returns the names of the regular files in dir.
	// A missing directory yields no names and no error.
	ReadDir(dir string) ([]string, error)
}
