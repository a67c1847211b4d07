package pipeline

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// Filer writes generated files into output areas. Each output area is a
// directory of the underlying filesystem.
type Filer struct {
	fs    afero.Fs
	areas map[Area]afero.Fs
	dirs  map[Area]string
}

// NewFiler maps every output area in dirs onto fs. Areas that are not
// output locations are ignored.
func NewFiler(fs afero.Fs, dirs map[Area]string) *Filer {
	f := &Filer{
		fs:    fs,
		areas: make(map[Area]afero.Fs),
		dirs:  make(map[Area]string),
	}
	for area, dir := range dirs {
		if !area.IsOutput() || dir == "" {
			continue
		}
		f.areas[area] = afero.NewBasePathFs(fs, dir)
		f.dirs[area] = dir
	}
	return f
}

// Dir returns the directory backing an output area
func (f *Filer) Dir(area Area) (string, bool) {
	dir, ok := f.dirs[area]
	return dir, ok
}

// Write stores data at name relative to the area, creating parent
// directories as needed
func (f *Filer) Write(area Area, name string, data []byte) error {
	if !area.IsOutput() {
		return fmt.Errorf("%w: %s", ErrNotOutputArea, area)
	}
	fs, ok := f.areas[area]
	if !ok {
		return fmt.Errorf("%w: no directory configured for %s", ErrNotOutputArea, area)
	}

	clean, err := CleanPath(name)
	if err != nil {
		return err
	}

	if dir := path.Dir(clean); dir != "." {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(fs, clean, data, os.FileMode(0644)); err != nil {
		return fmt.Errorf("failed to write %s: %w", clean, err)
	}
	return nil
}

// CleanPath normalizes a slash separated output path and rejects paths that
// are empty, absolute or escape their area
func CleanPath(name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: empty path", ErrPathEscapes)
	}
	if path.IsAbs(name) {
		return "", fmt.Errorf("%w: %s is absolute", ErrPathEscapes, name)
	}
	clean := path.Clean(name)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, name)
	}
	return clean, nil
}
