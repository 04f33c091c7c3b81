// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the shared data and configuration types for pdftocbz.
package types

// ConvertConfig holds settings for the conversion pipeline.
type ConvertConfig struct {
	// DPI is the rasterization resolution in dots per inch (default 150).
	DPI int `json:"dpi" yaml:"dpi"`

	// Format selects the page image format: png, jpeg, or tiff.
	Format ImageFormat `json:"format" yaml:"format"`

	// Overwrite replaces existing archives instead of skipping them.
	Overwrite bool `json:"overwrite" yaml:"overwrite"`

	// DryRun reports what would be converted without touching the filesystem.
	DryRun bool `json:"dry_run" yaml:"dry_run"`

	// Verbose echoes the external command lines to stderr.
	Verbose bool `json:"verbose" yaml:"verbose"`

	// Rasterizer optionally pins the rasterizer binary (pdftoppm or mutool).
	// Empty means auto-detect.
	Rasterizer string `json:"rasterizer,omitempty" yaml:"rasterizer,omitempty"`

	// Archiver optionally pins the archiver binary (zip or 7z).
	// Empty means auto-detect.
	Archiver string `json:"archiver,omitempty" yaml:"archiver,omitempty"`

	// ReportPath, when set, is where the YAML batch report is written.
	ReportPath string `json:"report_path,omitempty" yaml:"report_path,omitempty"`
}

// LedgerConfig holds settings for the conversion-history store.
type LedgerConfig struct {
	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path"`

	// MaxResults is the default maximum number of history rows returned
	// (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}
