// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert implements the PDF-to-CBZ conversion pipeline: enumerate
// PDFs in a directory, rasterize each one to page images in a temporary
// directory, pack the images into a zip archive, and move the archive next to
// the source file.
package convert

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mellery/pdftocbz/internal/tool"
	"github.com/mellery/pdftocbz/pkg/types"
)

const (
	// archiveExt is the extension of the produced comic archives.
	archiveExt = ".cbz"
	// pagePrefix is the filename prefix for rasterized page images.
	pagePrefix = "page"
)

// Recorder receives one record per attempted conversion. The history ledger
// implements it; a nil Recorder disables recording.
type Recorder interface {
	Record(rec types.ConversionRecord) error
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int `json:"converted" yaml:"converted"`
	Skipped   int `json:"skipped" yaml:"skipped"`
	Failed    int `json:"failed" yaml:"failed"`
}

// Total returns the total number of files processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any file failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// BatchError is returned when one or more files in a batch failed.
type BatchError struct {
	Failed int
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%d file(s) failed conversion", e.Failed)
}

// FileReport describes the outcome of one file's conversion.
type FileReport struct {
	Source   string                 `json:"source" yaml:"source"`
	Archive  string                 `json:"archive" yaml:"archive"`
	Status   types.ConversionStatus `json:"status" yaml:"status"`
	Pages    int                    `json:"pages,omitempty" yaml:"pages,omitempty"`
	Images   int                    `json:"images" yaml:"images"`
	Duration time.Duration          `json:"duration" yaml:"duration"`
	Error    string                 `json:"error,omitempty" yaml:"error,omitempty"`
}

// BatchReport is the full record of a batch run, written as YAML when a
// report path is configured.
type BatchReport struct {
	Directory string            `json:"directory" yaml:"directory"`
	DPI       int               `json:"dpi" yaml:"dpi"`
	Format    types.ImageFormat `json:"format" yaml:"format"`
	DryRun    bool              `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	StartedAt time.Time         `json:"started_at" yaml:"started_at"`
	Files     []FileReport      `json:"files" yaml:"files"`
	Summary   BatchResult       `json:"summary" yaml:"summary"`
}

// ListPDFs returns the PDF files directly inside dir (non-recursive, extension
// matched case-insensitively), sorted by name.
func ListPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var pdfs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			pdfs = append(pdfs, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(pdfs)
	return pdfs, nil
}

// ArchivePath returns the destination archive path for a source PDF: same
// directory, same base name, .cbz extension.
func ArchivePath(pdfPath string) string {
	base := strings.TrimSuffix(pdfPath, filepath.Ext(pdfPath))
	return base + archiveExt
}

// ConvertFile converts a single PDF into a CBZ archive, writing a status line
// to w. The returned report carries the status and counts for the batch
// summary, the YAML report, and the history ledger.
func ConvertFile(r tool.Rasterizer, a tool.Archiver, job types.Job, cfg types.ConvertConfig, w io.Writer) FileReport {
	start := time.Now()
	base := filepath.Base(job.PDFPath)
	report := FileReport{
		Source:  job.PDFPath,
		Archive: job.ArchivePath,
		Pages:   job.Pages,
	}

	fail := func(err error) FileReport {
		fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
		report.Status = types.ConversionFailed
		report.Error = err.Error()
		report.Duration = time.Since(start)
		return report
	}

	if !cfg.Overwrite {
		if _, err := os.Stat(job.ArchivePath); err == nil {
			fmt.Fprintf(w, "skipped: %s (archive already exists)\n", base)
			report.Status = types.ConversionNone
			report.Duration = time.Since(start)
			return report
		}
	}

	if cfg.DryRun {
		fmt.Fprintf(w, "would convert: %s -> %s\n", base, filepath.Base(job.ArchivePath))
		report.Status = types.ConversionDone
		report.Duration = time.Since(start)
		return report
	}

	tmpDir, err := os.MkdirTemp("", "pdftocbz-*")
	if err != nil {
		return fail(fmt.Errorf("creating temp directory: %w", err))
	}
	defer os.RemoveAll(tmpDir)

	if err := r.Rasterize(job.PDFPath, tmpDir, pagePrefix, cfg.DPI, cfg.Format); err != nil {
		return fail(err)
	}

	images, err := pageImages(tmpDir, cfg.Format)
	if err != nil {
		return fail(err)
	}
	if len(images) == 0 {
		return fail(fmt.Errorf("%s produced no page images for %s", r.Name(), base))
	}
	report.Images = len(images)

	tmpArchive := filepath.Join(tmpDir, filepath.Base(job.ArchivePath))
	if err := a.Archive(tmpDir, tmpArchive, images); err != nil {
		return fail(err)
	}

	if err := moveFile(tmpArchive, job.ArchivePath); err != nil {
		return fail(fmt.Errorf("moving archive into place: %w", err))
	}

	report.Duration = time.Since(start)
	if job.Pages > 0 && len(images) < job.Pages {
		fmt.Fprintf(w, "partial: %s (%d of %d pages)\n", base, len(images), job.Pages)
		report.Status = types.ConversionPartial
		return report
	}

	fmt.Fprintf(w, "converted: %s (%d pages)\n", base, len(images))
	report.Status = types.ConversionDone
	return report
}

// ConvertBatch converts jobs sequentially, printing per-file status to w and
// a trailing summary. A file's failure never aborts the rest of the batch.
func ConvertBatch(r tool.Rasterizer, a tool.Archiver, dir string, jobs []types.Job, cfg types.ConvertConfig, rec Recorder, w io.Writer) BatchReport {
	report := BatchReport{
		Directory: dir,
		DPI:       cfg.DPI,
		Format:    cfg.Format,
		DryRun:    cfg.DryRun,
		StartedAt: time.Now().UTC(),
	}

	for _, job := range jobs {
		fr := ConvertFile(r, a, job, cfg, w)
		report.Files = append(report.Files, fr)

		switch fr.Status {
		case types.ConversionNone:
			report.Summary.Skipped++
		case types.ConversionFailed:
			report.Summary.Failed++
		default:
			report.Summary.Converted++
		}

		if rec != nil {
			record := types.ConversionRecord{
				Source:     fr.Source,
				Archive:    fr.Archive,
				Status:     fr.Status,
				Pages:      fr.Pages,
				Images:     fr.Images,
				DPI:        cfg.DPI,
				Format:     cfg.Format,
				Rasterizer: r.Name(),
				Archiver:   a.Name(),
				Duration:   fr.Duration,
				CreatedAt:  time.Now().UTC(),
			}
			if err := rec.Record(record); err != nil {
				fmt.Fprintf(os.Stderr, "warning: recording history for %s: %v\n", filepath.Base(fr.Source), err)
			}
		}
	}

	s := report.Summary
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		s.Converted, s.Skipped, s.Failed, s.Total())
	return report
}

// pageImages lists the rasterized page files in dir for the given format,
// sorted by name so page order is preserved in the archive.
func pageImages(dir string, format types.ImageFormat) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading temp directory: %w", err)
	}

	var images []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, pagePrefix) && strings.EqualFold(filepath.Ext(name), format.Ext()) {
			images = append(images, name)
		}
	}
	sort.Strings(images)
	return images, nil
}

// moveFile renames src to dst, falling back to copy-and-remove when the two
// paths are on different filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return os.Remove(src)
}
