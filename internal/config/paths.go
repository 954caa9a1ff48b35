package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains all the application paths. This is the single source of
// truth for file locations used by both pipeline stages.
//
// Directory structure:
//
//	<executable dir>/
//	  ├── configs/
//	  │   ├── preprocessing.yaml
//	  │   └── processing.yaml
//	  ├── data/
//	  │   ├── raw/        (activity exports, CSV or Excel)
//	  │   ├── mappings/   (app/site lookup tables, exclusions)
//	  │   ├── staging/    (intermediate dataset)
//	  │   └── reports/    (final dataset and summaries)
//	  └── logs/
type Paths struct {
	ExecutableDir string
	ConfigsDir    string
	DataDir       string
	RawDir        string
	MappingsDir   string
	StagingDir    string
	ReportsDir    string
	LogsDir       string

	// Well-known pipeline files.
	IntermediateCSV string
	WorkdaysCSV     string
	SummaryCSV      string
}

// GetPaths returns the application paths relative to the executable
// location, so runs behave identically regardless of working directory.
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}
	return PathsUnder(filepath.Dir(exe)), nil
}

// PathsUnder builds the path layout rooted at the given base directory.
func PathsUnder(base string) *Paths {
	dataDir := filepath.Join(base, "data")
	stagingDir := filepath.Join(dataDir, "staging")
	reportsDir := filepath.Join(dataDir, "reports")

	return &Paths{
		ExecutableDir: base,
		ConfigsDir:    filepath.Join(base, "configs"),
		DataDir:       dataDir,
		RawDir:        filepath.Join(dataDir, "raw"),
		MappingsDir:   filepath.Join(dataDir, "mappings"),
		StagingDir:    stagingDir,
		ReportsDir:    reportsDir,
		LogsDir:       filepath.Join(base, "logs"),

		IntermediateCSV: filepath.Join(stagingDir, "activity_combined.csv"),
		WorkdaysCSV:     filepath.Join(reportsDir, "workdays.csv"),
		SummaryCSV:      filepath.Join(reportsDir, "workday_summary.csv"),
	}
}

// EnsureDirectories creates all required directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.RawDir,
		p.MappingsDir,
		p.StagingDir,
		p.ReportsDir,
		p.LogsDir,
	}
	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetConfigPath returns the path of a stage configuration file.
func (p *Paths) GetConfigPath(filename string) string {
	return filepath.Join(p.ConfigsDir, filename)
}

// GetRawPath returns a path inside the raw data directory.
func (p *Paths) GetRawPath(filename string) string {
	return filepath.Join(p.RawDir, filename)
}

// GetStagingPath returns a path inside the staging directory.
func (p *Paths) GetStagingPath(filename string) string {
	return filepath.Join(p.StagingDir, filename)
}

// GetReportPath returns a path inside the reports directory.
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetMappingPath returns a path inside the mappings directory.
func (p *Paths) GetMappingPath(filename string) string {
	return filepath.Join(p.MappingsDir, filename)
}

// GetLogPath returns a path inside the logs directory.
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// Resolve returns the path unchanged when absolute, otherwise joined to
// the executable directory. Stage configs name their inputs and outputs
// relative to the install layout.
func (p *Paths) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.ExecutableDir, path)
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
