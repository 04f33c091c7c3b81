// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.yaml.in/yaml/v3"

	"github.com/mellery/pdftocbz/pkg/types"
)

// fakeRasterizer implements tool.Rasterizer for testing. It writes a fixed
// number of page images into the output directory, or fails.
type fakeRasterizer struct {
	pages int
	err   error
}

func (f *fakeRasterizer) Name() string    { return "fake-raster" }
func (f *fakeRasterizer) Available() bool { return true }

func (f *fakeRasterizer) Rasterize(pdfPath, outDir, prefix string, dpi int, format types.ImageFormat) error {
	if f.err != nil {
		return f.err
	}
	for i := 1; i <= f.pages; i++ {
		name := fmt.Sprintf("%s-%02d%s", prefix, i, format.Ext())
		if err := os.WriteFile(filepath.Join(outDir, name), []byte("image"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// fakeArchiver implements tool.Archiver. It concatenates the file names into
// the archive so tests can check which pages were packed.
type fakeArchiver struct {
	err error
}

func (f *fakeArchiver) Name() string    { return "fake-zip" }
func (f *fakeArchiver) Available() bool { return true }

func (f *fakeArchiver) Archive(dir, archivePath string, files []string) error {
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(archivePath, []byte(strings.Join(files, "\n")), 0o644)
}

// setupPDF creates a temporary PDF file and returns its job and the temp dir.
func setupPDF(t *testing.T) (types.Job, string) {
	t.Helper()
	tmpDir := t.TempDir()
	pdfPath := filepath.Join(tmpDir, "issue-001.pdf")
	if err := os.WriteFile(pdfPath, []byte("fake pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	return types.Job{PDFPath: pdfPath, ArchivePath: ArchivePath(pdfPath)}, tmpDir
}

func baseConfig() types.ConvertConfig {
	return types.ConvertConfig{DPI: 150, Format: types.FormatPNG}
}

func TestConvertFile(t *testing.T) {
	tests := []struct {
		name       string
		rasterizer *fakeRasterizer
		archiver   *fakeArchiver
		cfg        func(types.ConvertConfig) types.ConvertConfig
		preCreate  bool // create the archive before running
		wantStatus types.ConversionStatus
		wantLog    string
		wantFile   bool
	}{
		{
			name:       "successful conversion",
			rasterizer: &fakeRasterizer{pages: 3},
			archiver:   &fakeArchiver{},
			wantStatus: types.ConversionDone,
			wantLog:    "converted:",
			wantFile:   true,
		},
		{
			name:       "skip existing archive",
			rasterizer: &fakeRasterizer{pages: 3},
			archiver:   &fakeArchiver{},
			preCreate:  true,
			wantStatus: types.ConversionNone,
			wantLog:    "skipped:",
			wantFile:   true,
		},
		{
			name:       "rasterization failure",
			rasterizer: &fakeRasterizer{err: errors.New("corrupt xref")},
			archiver:   &fakeArchiver{},
			wantStatus: types.ConversionFailed,
			wantLog:    "failed:",
		},
		{
			name:       "zero page images",
			rasterizer: &fakeRasterizer{pages: 0},
			archiver:   &fakeArchiver{},
			wantStatus: types.ConversionFailed,
			wantLog:    "no page images",
		},
		{
			name:       "archiving failure",
			rasterizer: &fakeRasterizer{pages: 2},
			archiver:   &fakeArchiver{err: errors.New("disk full")},
			wantStatus: types.ConversionFailed,
			wantLog:    "failed:",
		},
		{
			name:       "dry run reports without writing",
			rasterizer: &fakeRasterizer{pages: 3},
			archiver:   &fakeArchiver{},
			cfg: func(c types.ConvertConfig) types.ConvertConfig {
				c.DryRun = true
				return c
			},
			wantStatus: types.ConversionDone,
			wantLog:    "would convert:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, _ := setupPDF(t)
			cfg := baseConfig()
			if tt.cfg != nil {
				cfg = tt.cfg(cfg)
			}

			if tt.preCreate {
				if err := os.WriteFile(job.ArchivePath, []byte("existing"), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			var log bytes.Buffer
			report := ConvertFile(tt.rasterizer, tt.archiver, job, cfg, &log)

			if report.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", report.Status, tt.wantStatus)
			}
			if !strings.Contains(log.String(), tt.wantLog) {
				t.Errorf("log output %q does not contain %q", log.String(), tt.wantLog)
			}
			if _, err := os.Stat(job.ArchivePath); (err == nil) != tt.wantFile {
				t.Errorf("archive exists = %v, want %v", err == nil, tt.wantFile)
			}
		})
	}
}

func TestConvertFile_PagesInOrder(t *testing.T) {
	job, _ := setupPDF(t)
	var log bytes.Buffer

	report := ConvertFile(&fakeRasterizer{pages: 3}, &fakeArchiver{}, job, baseConfig(), &log)
	if report.Status != types.ConversionDone {
		t.Fatalf("expected ConversionDone, got %q", report.Status)
	}
	if report.Images != 3 {
		t.Errorf("images = %d, want 3", report.Images)
	}

	data, err := os.ReadFile(job.ArchivePath)
	if err != nil {
		t.Fatalf("reading archive: %v", err)
	}
	want := "page-01.png\npage-02.png\npage-03.png"
	if string(data) != want {
		t.Errorf("archived files = %q, want %q", string(data), want)
	}
}

func TestConvertFile_SkipPreservesArchive(t *testing.T) {
	job, _ := setupPDF(t)
	if err := os.WriteFile(job.ArchivePath, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	var log bytes.Buffer
	ConvertFile(&fakeRasterizer{pages: 2}, &fakeArchiver{}, job, baseConfig(), &log)

	data, err := os.ReadFile(job.ArchivePath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "original" {
		t.Error("skip must leave the existing archive untouched")
	}
}

func TestConvertFile_OverwriteReplacesArchive(t *testing.T) {
	job, _ := setupPDF(t)
	if err := os.WriteFile(job.ArchivePath, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := baseConfig()
	cfg.Overwrite = true
	var log bytes.Buffer
	report := ConvertFile(&fakeRasterizer{pages: 1}, &fakeArchiver{}, job, cfg, &log)
	if report.Status != types.ConversionDone {
		t.Fatalf("expected ConversionDone, got %q", report.Status)
	}

	data, err := os.ReadFile(job.ArchivePath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) == "original" {
		t.Error("overwrite must replace the existing archive")
	}
}

func TestConvertFile_DryRunHasNoSideEffects(t *testing.T) {
	job, dir := setupPDF(t)
	before, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	cfg := baseConfig()
	cfg.DryRun = true
	var log bytes.Buffer
	report := ConvertFile(&fakeRasterizer{pages: 3}, &fakeArchiver{}, job, cfg, &log)

	after, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != len(before) {
		t.Errorf("dry run changed directory contents: %d entries before, %d after", len(before), len(after))
	}
	if report.Duration <= 0 {
		t.Error("dry run should still record its duration")
	}
}

func TestConvertFile_PartialOutput(t *testing.T) {
	job, _ := setupPDF(t)
	job.Pages = 5

	var log bytes.Buffer
	report := ConvertFile(&fakeRasterizer{pages: 3}, &fakeArchiver{}, job, baseConfig(), &log)

	if report.Status != types.ConversionPartial {
		t.Errorf("status = %q, want %q", report.Status, types.ConversionPartial)
	}
	if !strings.Contains(log.String(), "partial:") {
		t.Errorf("log output %q should report partial output", log.String())
	}
	if _, err := os.Stat(job.ArchivePath); err != nil {
		t.Error("partial conversion should still produce the archive")
	}
}

// selectiveRasterizer fails for configured source paths and otherwise behaves
// like fakeRasterizer.
type selectiveRasterizer struct {
	pages  int
	errors map[string]error
}

func (s *selectiveRasterizer) Name() string    { return "fake-raster" }
func (s *selectiveRasterizer) Available() bool { return true }

func (s *selectiveRasterizer) Rasterize(pdfPath, outDir, prefix string, dpi int, format types.ImageFormat) error {
	if err, ok := s.errors[pdfPath]; ok {
		return err
	}
	f := &fakeRasterizer{pages: s.pages}
	return f.Rasterize(pdfPath, outDir, prefix, dpi, format)
}

// recordingLedger captures records handed to the batch.
type recordingLedger struct {
	records []types.ConversionRecord
}

func (l *recordingLedger) Record(rec types.ConversionRecord) error {
	l.records = append(l.records, rec)
	return nil
}

func TestConvertBatch(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("pdf"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	// Pre-create the archive for "b" to trigger a skip.
	if err := os.WriteFile(filepath.Join(dir, "b.cbz"), []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	pdfs, err := ListPDFs(dir)
	if err != nil {
		t.Fatal(err)
	}
	jobs := make([]types.Job, len(pdfs))
	for i, pdf := range pdfs {
		jobs[i] = types.Job{PDFPath: pdf, ArchivePath: ArchivePath(pdf)}
	}

	// Rasterizer that fails for "c.pdf".
	raster := &selectiveRasterizer{
		pages: 2,
		errors: map[string]error{
			filepath.Join(dir, "c.pdf"): errors.New("bad pdf"),
		},
	}

	rec := &recordingLedger{}
	var log bytes.Buffer
	report := ConvertBatch(raster, &fakeArchiver{}, dir, jobs, baseConfig(), rec, &log)

	s := report.Summary
	if s.Converted != 1 {
		t.Errorf("converted = %d, want 1", s.Converted)
	}
	if s.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", s.Skipped)
	}
	if s.Failed != 1 {
		t.Errorf("failed = %d, want 1", s.Failed)
	}
	if !s.HasFailures() {
		t.Error("HasFailures should be true")
	}
	if s.Total() != 3 {
		t.Errorf("total = %d, want 3", s.Total())
	}
	if len(report.Files) != 3 {
		t.Errorf("file reports = %d, want 3", len(report.Files))
	}
	if len(rec.records) != 3 {
		t.Errorf("ledger records = %d, want 3", len(rec.records))
	}
	if !strings.Contains(log.String(), "Batch summary:") {
		t.Error("batch output should contain summary line")
	}
}

func TestConvertBatch_NilRecorder(t *testing.T) {
	job, dir := setupPDF(t)
	var log bytes.Buffer
	report := ConvertBatch(&fakeRasterizer{pages: 1}, &fakeArchiver{}, dir, []types.Job{job}, baseConfig(), nil, &log)
	if report.Summary.Converted != 1 {
		t.Errorf("converted = %d, want 1", report.Summary.Converted)
	}
}

func TestListPDFs(t *testing.T) {
	dir := t.TempDir()
	files := []string{"b.pdf", "a.PDF", "notes.txt", "c.cbz"}
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(dir, "sub.pdf"), 0o755); err != nil {
		t.Fatal(err)
	}

	pdfs, err := ListPDFs(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(pdfs) != 2 {
		t.Fatalf("found %d PDFs, want 2: %v", len(pdfs), pdfs)
	}
	if filepath.Base(pdfs[0]) != "a.PDF" || filepath.Base(pdfs[1]) != "b.pdf" {
		t.Errorf("unexpected order: %v", pdfs)
	}
}

func TestListPDFs_Empty(t *testing.T) {
	pdfs, err := ListPDFs(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pdfs) != 0 {
		t.Errorf("expected no PDFs, got %v", pdfs)
	}
}

func TestArchivePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/comics/issue-001.pdf", "/comics/issue-001.cbz"},
		{"/comics/Some Comic.PDF", "/comics/Some Comic.cbz"},
		{"plain.pdf", "plain.cbz"},
	}
	for _, tt := range tests {
		if got := ArchivePath(tt.in); got != filepath.FromSlash(tt.want) {
			t.Errorf("ArchivePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reports", "run.yaml")

	report := BatchReport{
		Directory: "/comics",
		DPI:       150,
		Format:    types.FormatPNG,
		Files: []FileReport{
			{Source: "/comics/a.pdf", Archive: "/comics/a.cbz", Status: types.ConversionDone, Images: 3},
		},
		Summary: BatchResult{Converted: 1},
	}
	if err := WriteReport(path, report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}

	var got BatchReport
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("report is not valid YAML: %v", err)
	}
	if got.Summary.Converted != 1 {
		t.Errorf("summary converted = %d, want 1", got.Summary.Converted)
	}
	if len(got.Files) != 1 || got.Files[0].Status != types.ConversionDone {
		t.Errorf("unexpected file entries: %+v", got.Files)
	}
}
