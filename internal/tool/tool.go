// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tool implements detection and invocation of the external programs
// the pipeline delegates to: a PDF rasterizer (pdftoppm or mutool) and a zip
// archiver (zip or 7z).
package tool

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/mellery/pdftocbz/pkg/types"
)

// ErrToolNotFound indicates that no suitable external binary is installed.
var ErrToolNotFound = errors.New("external tool not found")

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	// RunAt executes name with args in dir (cwd when dir is empty) and
	// returns an error carrying the command's stderr on failure.
	RunAt(dir, name string, args ...string) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunAt(dir, name string, args ...string) error {
	trace(name, args)
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

var defaultExec executor = &osExecutor{}

var (
	traceMu sync.Mutex
	traceW  io.Writer
)

// SetTrace makes the executor echo each external command line to w before
// running it. Pass nil to disable.
func SetTrace(w io.Writer) {
	traceMu.Lock()
	traceW = w
	traceMu.Unlock()
}

func trace(name string, args []string) {
	traceMu.Lock()
	w := traceW
	traceMu.Unlock()
	if w != nil {
		fmt.Fprintf(w, "+ %s %s\n", name, strings.Join(args, " "))
	}
}

const (
	binPdftoppm = "pdftoppm"
	binMutool   = "mutool"
)

// Rasterizer renders each page of a PDF to an image file.
type Rasterizer interface {
	// Name returns the rasterizer binary name ("pdftoppm" or "mutool").
	Name() string

	// Available reports whether the binary exists on PATH.
	Available() bool

	// Rasterize renders pdfPath into outDir, producing one image per page
	// named with the given prefix at the requested resolution and format.
	Rasterize(pdfPath, outDir, prefix string, dpi int, format types.ImageFormat) error
}

// rasterizer implements Rasterizer for a specific binary. pdftoppm and
// mutool share the logic; they differ only in how the command line is built.
type rasterizer struct {
	bin  string
	args func(pdfPath, outDir, prefix string, dpi int, format types.ImageFormat) []string
	exec executor
}

func (r *rasterizer) Name() string { return r.bin }

func (r *rasterizer) Available() bool {
	_, err := r.exec.LookPath(r.bin)
	return err == nil
}

func (r *rasterizer) Rasterize(pdfPath, outDir, prefix string, dpi int, format types.ImageFormat) error {
	args := r.args(pdfPath, outDir, prefix, dpi, format)
	if err := r.exec.RunAt("", r.bin, args...); err != nil {
		return fmt.Errorf("rasterizing %s with %s: %w", pdfPath, r.bin, err)
	}
	return nil
}

// pdftoppmFlag maps an image format to the pdftoppm format flag.
func pdftoppmFlag(f types.ImageFormat) string {
	switch f {
	case types.FormatJPEG:
		return "-jpeg"
	case types.FormatTIFF:
		return "-tiff"
	default:
		return "-png"
	}
}

func newPdftoppmRasterizer(exec executor) *rasterizer {
	return &rasterizer{
		bin: binPdftoppm,
		args: func(pdfPath, outDir, prefix string, dpi int, format types.ImageFormat) []string {
			return []string{
				pdftoppmFlag(format),
				"-r", strconv.Itoa(dpi),
				pdfPath,
				filepath.Join(outDir, prefix),
			}
		},
		exec: exec,
	}
}

func newMutoolRasterizer(exec executor) *rasterizer {
	return &rasterizer{
		bin: binMutool,
		args: func(pdfPath, outDir, prefix string, dpi int, format types.ImageFormat) []string {
			return []string{
				"draw",
				"-r", strconv.Itoa(dpi),
				"-o", filepath.Join(outDir, prefix+"-%04d"+format.Ext()),
				pdfPath,
			}
		},
		exec: exec,
	}
}

// DetectRasterizer tries pdftoppm first, falls back to mutool. Returns an
// error wrapping ErrToolNotFound if neither binary is installed.
func DetectRasterizer() (Rasterizer, error) {
	return detectRasterizer(defaultExec, "")
}

// SelectRasterizer behaves like DetectRasterizer when name is empty; otherwise
// it returns the named rasterizer, verifying it is installed.
func SelectRasterizer(name string) (Rasterizer, error) {
	return detectRasterizer(defaultExec, name)
}

func detectRasterizer(exec executor, name string) (Rasterizer, error) {
	pdftoppm := newPdftoppmRasterizer(exec)
	mutool := newMutoolRasterizer(exec)

	switch name {
	case binPdftoppm:
		return requireRasterizer(pdftoppm)
	case binMutool:
		return requireRasterizer(mutool)
	case "":
	default:
		return nil, fmt.Errorf("unknown rasterizer %q (expected %s or %s)", name, binPdftoppm, binMutool)
	}

	if pdftoppm.Available() {
		return pdftoppm, nil
	}
	if mutool.Available() {
		return mutool, nil
	}
	return nil, fmt.Errorf(
		"%w: no rasterizer available: install poppler (%s) or mupdf (%s)",
		ErrToolNotFound, binPdftoppm, binMutool,
	)
}

func requireRasterizer(r *rasterizer) (Rasterizer, error) {
	if !r.Available() {
		return nil, fmt.Errorf("%w: rasterizer %q is not installed", ErrToolNotFound, r.bin)
	}
	return r, nil
}

const (
	binZip = "zip"
	bin7z  = "7z"
)

// Archiver packs a set of files into a zip-compatible archive.
type Archiver interface {
	// Name returns the archiver binary name ("zip" or "7z").
	Name() string

	// Available reports whether the binary exists on PATH.
	Available() bool

	// Archive packs files (paths relative to dir) into archivePath.
	Archive(dir, archivePath string, files []string) error
}

type archiver struct {
	bin  string
	args func(archivePath string, files []string) []string
	exec executor
}

func (a *archiver) Name() string { return a.bin }

func (a *archiver) Available() bool {
	_, err := a.exec.LookPath(a.bin)
	return err == nil
}

func (a *archiver) Archive(dir, archivePath string, files []string) error {
	if err := a.exec.RunAt(dir, a.bin, a.args(archivePath, files)...); err != nil {
		return fmt.Errorf("archiving into %s with %s: %w", archivePath, a.bin, err)
	}
	return nil
}

func newZipArchiver(exec executor) *archiver {
	return &archiver{
		bin: binZip,
		args: func(archivePath string, files []string) []string {
			// -X drops platform extra fields so archives are reproducible.
			args := []string{"-q", "-X", archivePath}
			return append(args, files...)
		},
		exec: exec,
	}
}

func new7zArchiver(exec executor) *archiver {
	return &archiver{
		bin: bin7z,
		args: func(archivePath string, files []string) []string {
			args := []string{"a", "-tzip", "-bso0", "-bsp0", archivePath}
			return append(args, files...)
		},
		exec: exec,
	}
}

// DetectArchiver tries zip first, falls back to 7z. Returns an error wrapping
// ErrToolNotFound if neither binary is installed.
func DetectArchiver() (Archiver, error) {
	return detectArchiver(defaultExec, "")
}

// SelectArchiver behaves like DetectArchiver when name is empty; otherwise it
// returns the named archiver, verifying it is installed.
func SelectArchiver(name string) (Archiver, error) {
	return detectArchiver(defaultExec, name)
}

func detectArchiver(exec executor, name string) (Archiver, error) {
	zip := newZipArchiver(exec)
	sevenZ := new7zArchiver(exec)

	switch name {
	case binZip:
		return requireArchiver(zip)
	case bin7z:
		return requireArchiver(sevenZ)
	case "":
	default:
		return nil, fmt.Errorf("unknown archiver %q (expected %s or %s)", name, binZip, bin7z)
	}

	if zip.Available() {
		return zip, nil
	}
	if sevenZ.Available() {
		return sevenZ, nil
	}
	return nil, fmt.Errorf(
		"%w: no archiver available: install Info-ZIP (%s) or p7zip (%s)",
		ErrToolNotFound, binZip, bin7z,
	)
}

func requireArchiver(a *archiver) (Archiver, error) {
	if !a.Available() {
		return nil, fmt.Errorf("%w: archiver %q is not installed", ErrToolNotFound, a.bin)
	}
	return a, nil
}
