// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mellery/pdftocbz/internal/ledger"
	"github.com/mellery/pdftocbz/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history [directory]",
	Short: "Show recorded conversion runs for a directory",
	Long: `History prints the conversion records stored in the directory's
ledger database, newest first.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 0, "maximum number of records to show (default 20)")
	historyCmd.Flags().Bool("json", false, "output records as JSON")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	dir, err := targetDir(args)
	if err != nil {
		return err
	}

	dbPath := ledger.DefaultPath(dir)
	if _, err := os.Stat(dbPath); err != nil {
		fmt.Printf("no conversion history in %s\n", dir)
		return nil
	}

	limit := intSetting(cmd, "limit", "history.limit", 0)

	store, err := ledger.Open(types.LedgerConfig{Path: dbPath})
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Recent(context.Background(), limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatHistoryOutput(records, jsonOutput)
}

func formatHistoryOutput(records []types.ConversionRecord, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Println("No conversion records found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-20s  %-30s  %-9s  %6s  %6s  %5s  %s\n",
		"When", "File", "Status", "Pages", "Images", "DPI", "Tools")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 96))

	for _, r := range records {
		fmt.Fprintf(os.Stdout, "%-20s  %-30s  %-9s  %6d  %6d  %5d  %s+%s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			truncate(filepath.Base(r.Source), 30),
			r.Status,
			r.Pages,
			r.Images,
			r.DPI,
			r.Rasterizer,
			r.Archiver)
	}
	return nil
}
