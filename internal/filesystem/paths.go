package filesystem

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ResolvePath expands the placeholders used in cache location settings:
// %Temp%, %localappdata% and a leading ~. Unknown text is left alone.
func ResolvePath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	localAppData := filepath.Join(home, "AppData", "Local")
	temp := filepath.Join(localAppData, "Temp")
	if runtime.GOOS != "windows" {
		temp = os.TempDir()
	}

	resolved := strings.ReplaceAll(path, "%Temp%", temp)
	resolved = strings.ReplaceAll(resolved, "%localappdata%", localAppData)

	if resolved == "~" {
		return home
	}
	if strings.HasPrefix(resolved, "~/") || strings.HasPrefix(resolved, `~\`) {
		resolved = filepath.Join(home, resolved[2:])
	}

	return filepath.FromSlash(resolved)
}

// ValidateFile returns an error unless path names an existing regular file.
func ValidateFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}
	return nil
}

// ValidateDir returns an error unless path names an existing directory.
func ValidateDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

// FirstExisting returns the first candidate that passes validate after
// placeholder expansion.
func FirstExisting(candidates []string, validate func(string) error) (string, bool) {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		p := ResolvePath(c)
		if validate(p) == nil {
			return p, true
		}
	}
	return "", false
}

// ErrUnsafePath is returned when asked to recursively remove an empty path,
// the working directory, or a filesystem root.
var ErrUnsafePath = errors.New("refusing to remove unsafe path")

// IsRootPath reports whether path is empty, ".", "/" or a volume root such as
// "C:\".
func IsRootPath(path string) bool {
	if path == "" {
		return true
	}
	clean := filepath.Clean(path)
	if clean == "." || clean == string(filepath.Separator) {
		return true
	}
	vol := filepath.VolumeName(clean)
	return vol != "" && (clean == vol || clean == vol+string(filepath.Separator))
}

// RemoveAllSafe removes path and everything under it, refusing root-like
// paths.
func RemoveAllSafe(path string) error {
	if IsRootPath(path) {
		return fmt.Errorf("%w: %q", ErrUnsafePath, path)
	}
	return os.RemoveAll(path)
}

// RemoveContents deletes every entry inside dir but keeps dir itself. It
// returns the number of entries removed and the joined errors of the entries
// that could not be.
func RemoveContents(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	removed := 0
	var errs []error
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// EnsureDir creates dir and any parents.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// WriteFileAtomic writes data to a temporary file next to path and renames it
// into place, so path never holds partial content.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		return errors.Join(err, tmp.Close(), os.Remove(tmpName))
	}
	if err := tmp.Close(); err != nil {
		return errors.Join(err, os.Remove(tmpName))
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return errors.Join(err, os.Remove(tmpName))
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Join(err, os.Remove(tmpName))
	}
	return nil
}

func readPrefix(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:read], nil
}
