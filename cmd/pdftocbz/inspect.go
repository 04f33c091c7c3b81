// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mellery/pdftocbz/internal/inspect"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [directory]",
	Short: "List the PDFs a conversion run would process",
	Long: `Inspect scans a directory for PDF files and prints each file's page
count and the archive it would produce, without converting anything.`,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	dir, err := targetDir(args)
	if err != nil {
		return err
	}

	entries, err := inspect.Directory(dir)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Printf("no PDF files found in %s\n", dir)
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-40s  %6s  %-40s  %s\n", "File", "Pages", "Archive", "State")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	for _, e := range entries {
		pages := "?"
		if e.Pages > 0 {
			pages = fmt.Sprintf("%d", e.Pages)
		}
		state := "pending"
		if _, err := os.Stat(e.ArchivePath); err == nil {
			state = "exists"
		}
		fmt.Fprintf(os.Stdout, "%-40s  %6s  %-40s  %s\n",
			truncate(filepath.Base(e.PDFPath), 40),
			pages,
			truncate(filepath.Base(e.ArchivePath), 40),
			state)
		if e.Err != nil {
			fmt.Fprintf(os.Stderr, "warning: %s: %v\n", filepath.Base(e.PDFPath), e.Err)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
