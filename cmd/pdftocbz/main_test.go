// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/mellery/pdftocbz/internal/convert"
	"github.com/mellery/pdftocbz/internal/tool"
	"github.com/mellery/pdftocbz/pkg/types"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "usage error",
			err:  usageErrorf("expected at most one directory argument, got 2"),
			want: exitUsage,
		},
		{
			name: "wrapped usage error",
			err:  fmt.Errorf("convert: %w", &usageError{msg: "bad flag"}),
			want: exitUsage,
		},
		{
			name: "missing tool",
			err:  fmt.Errorf("detecting rasterizer: %w", tool.ErrToolNotFound),
			want: exitMissingTool,
		},
		{
			name: "batch failure",
			err:  &convert.BatchError{Failed: 2},
			want: exitFailure,
		},
		{
			name: "generic error",
			err:  errors.New("boom"),
			want: exitFailure,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// TestExecute_UsageErrors drives the real command tree and checks that every
// kind of bad invocation maps to the usage exit code. None of these reach
// tool detection, so the tests do not depend on installed binaries.
func TestExecute_UsageErrors(t *testing.T) {
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)

	dir := t.TempDir()
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"convert", "--no-such-flag", dir}},
		{"unknown command", []string{"no-such-command"}},
		{"bad flag value", []string{"convert", "--dpi", "abc", dir}},
		{"bad image format", []string{"convert", "--format", "bmp", dir}},
		{"explicit zero dpi", []string{"convert", "--dpi", "0", dir}},
		{"missing directory", []string{"convert", filepath.Join(dir, "absent")}},
		{"too many arguments", []string{"convert", dir, dir}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rootCmd.SetArgs(tt.args)
			err := rootCmd.Execute()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if got := exitCode(err); got != exitUsage {
				t.Errorf("exitCode(%v) = %d, want %d", err, got, exitUsage)
			}
		})
	}
}

func TestMaybeWriteReport(t *testing.T) {
	report := convert.BatchReport{
		Directory: "/comics",
		DPI:       150,
		Format:    types.FormatPNG,
		Summary:   convert.BatchResult{Converted: 1},
	}

	t.Run("no report path", func(t *testing.T) {
		if err := maybeWriteReport(types.ConvertConfig{}, report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("dry run writes nothing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "run.yaml")
		cfg := types.ConvertConfig{ReportPath: path, DryRun: true}
		if err := maybeWriteReport(cfg, report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := os.Stat(path); err == nil {
			t.Error("dry run must not write the report file")
		}
	})

	t.Run("normal run writes the report", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "run.yaml")
		cfg := types.ConvertConfig{ReportPath: path}
		if err := maybeWriteReport(cfg, report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Error("expected the report file to be written")
		}
	})
}
