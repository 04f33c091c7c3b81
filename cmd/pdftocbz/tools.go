// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mellery/pdftocbz/internal/tool"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Report which external rasterizer and archiver binaries are installed",
	RunE:  runTools,
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, args []string) error {
	rasterizer, rErr := tool.DetectRasterizer()
	if rErr != nil {
		fmt.Println("rasterizer: none (install poppler for pdftoppm, or mupdf for mutool)")
	} else {
		fmt.Printf("rasterizer: %s\n", rasterizer.Name())
	}

	archiver, aErr := tool.DetectArchiver()
	if aErr != nil {
		fmt.Println("archiver:   none (install Info-ZIP for zip, or p7zip for 7z)")
	} else {
		fmt.Printf("archiver:   %s\n", archiver.Name())
	}

	if rErr != nil {
		return rErr
	}
	return aErr
}
