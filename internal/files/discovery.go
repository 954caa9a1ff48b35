package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileInfo represents information about a discovered file.
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery provides file discovery operations rooted at a base path.
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance.
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

// findByExtensions lists regular files in dir whose lower-cased name has
// one of the given suffixes, sorted by name.
func (d *Discovery) findByExtensions(dir string, extensions ...string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)
	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		// Skip Office lock files left behind by open workbooks.
		if strings.HasPrefix(name, "~$") {
			continue
		}
		lower := strings.ToLower(name)
		matched := false
		for _, ext := range extensions {
			if strings.HasSuffix(lower, ext) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// FindCSVFiles finds all CSV files in the specified directory.
func (d *Discovery) FindCSVFiles(dir string) ([]FileInfo, error) {
	return d.findByExtensions(dir, ".csv")
}

// FindExcelFiles finds all Excel files in the specified directory.
func (d *Discovery) FindExcelFiles(dir string) ([]FileInfo, error) {
	return d.findByExtensions(dir, ".xlsx", ".xls")
}

// FindDataFiles finds all files the preprocessing stage can load: CSV
// and Excel, in one name-sorted list.
func (d *Discovery) FindDataFiles(dir string) ([]FileInfo, error) {
	return d.findByExtensions(dir, ".csv", ".xlsx", ".xls")
}

// FindFilesByPattern finds files matching a glob pattern, sorted by name.
func (d *Discovery) FindFilesByPattern(dir, pattern string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)
	matches, err := filepath.Glob(filepath.Join(fullPath, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	sort.Strings(matches)

	var files []FileInfo
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, FileInfo{
			Path:    match,
			Name:    filepath.Base(match),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return files, nil
}
