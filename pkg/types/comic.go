// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// ImageFormat identifies the raster image format for rasterized pages.
type ImageFormat string

const (
	FormatPNG  ImageFormat = "png"
	FormatJPEG ImageFormat = "jpeg"
	FormatTIFF ImageFormat = "tiff"
)

// ParseImageFormat validates and normalizes a format string. Accepts the
// common aliases "jpg" and "tif".
func ParseImageFormat(s string) (ImageFormat, error) {
	switch s {
	case "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "tiff", "tif":
		return FormatTIFF, nil
	}
	return "", fmt.Errorf("unknown image format %q (expected png, jpeg, or tiff)", s)
}

// Ext returns the filename extension the rasterizer produces for this format,
// including the leading dot.
func (f ImageFormat) Ext() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatTIFF:
		return ".tif"
	default:
		return ".png"
	}
}

// ConversionStatus indicates the outcome of a single PDF-to-CBZ conversion.
type ConversionStatus string

const (
	// ConversionNone means the conversion was skipped (archive already exists).
	ConversionNone ConversionStatus = "none"
	ConversionDone ConversionStatus = "converted"
	// ConversionPartial means the archive was produced but holds fewer images
	// than the PDF has pages.
	ConversionPartial ConversionStatus = "partial"
	ConversionFailed  ConversionStatus = "failed"
)

// Job describes one conversion: a source PDF and its destination archive.
type Job struct {
	// PDFPath is the local filesystem path to the source PDF.
	PDFPath string `json:"pdf_path" yaml:"pdf_path"`

	// ArchivePath is the destination .cbz path, alongside the source.
	ArchivePath string `json:"archive_path" yaml:"archive_path"`

	// Pages is the page count of the source PDF, or 0 when unknown.
	Pages int `json:"pages,omitempty" yaml:"pages,omitempty"`
}

// ConversionRecord is one row of conversion history.
type ConversionRecord struct {
	Source     string           `json:"source" yaml:"source"`
	Archive    string           `json:"archive" yaml:"archive"`
	Status     ConversionStatus `json:"status" yaml:"status"`
	Pages      int              `json:"pages" yaml:"pages"`
	Images     int              `json:"images" yaml:"images"`
	DPI        int              `json:"dpi" yaml:"dpi"`
	Format     ImageFormat      `json:"format" yaml:"format"`
	Rasterizer string           `json:"rasterizer" yaml:"rasterizer"`
	Archiver   string           `json:"archiver" yaml:"archiver"`
	Duration   time.Duration    `json:"duration" yaml:"duration"`
	CreatedAt  time.Time        `json:"created_at" yaml:"created_at"`
}
