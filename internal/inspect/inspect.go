// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package inspect reports PDF page counts without converting anything. The
// counts feed the preflight listing and the pipeline's shortfall check.
package inspect

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/mellery/pdftocbz/internal/convert"
)

// countPages is swapped out in tests.
var countPages = api.PageCountFile

// Entry describes one PDF found during a preflight scan.
type Entry struct {
	PDFPath     string
	ArchivePath string
	// Pages is 0 when the page count could not be determined.
	Pages int
	Err   error
}

// Directory scans dir for PDFs and returns one entry per file with its page
// count and the archive path a conversion would produce. A file whose page
// count cannot be read still gets an entry, with Err set.
func Directory(dir string) ([]Entry, error) {
	pdfs, err := convert.ListPDFs(dir)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(pdfs))
	for _, pdf := range pdfs {
		e := Entry{
			PDFPath:     pdf,
			ArchivePath: convert.ArchivePath(pdf),
		}
		pages, err := countPages(pdf)
		if err != nil {
			e.Err = fmt.Errorf("reading page count: %w", err)
		} else {
			e.Pages = pages
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// PageCount returns the page count of a PDF, or 0 when it cannot be read.
// Conversion proceeds either way; the count only enables the partial-output
// check.
func PageCount(pdfPath string) int {
	pages, err := countPages(pdfPath)
	if err != nil {
		return 0
	}
	return pages
}
