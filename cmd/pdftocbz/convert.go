package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mellery/pdftocbz/internal/convert"
	"github.com/mellery/pdftocbz/internal/inspect"
	"github.com/mellery/pdftocbz/internal/ledger"
	"github.com/mellery/pdftocbz/internal/tool"
	"github.com/mellery/pdftocbz/pkg/types"
)

const (
	defaultDPI    = 150
	defaultFormat = "png"
)

var convertCmd = &cobra.Command{
	Use:   "convert [directory]",
	Short: "Convert every PDF in a directory into a CBZ archive",
	Long: `Convert rasterizes each PDF's pages to images and packs them into a
.cbz archive next to the source file. Existing archives are skipped unless
--overwrite is given. A single file's failure never aborts the rest of the
batch; the command exits non-zero when any file failed.`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().Int("dpi", 0, "rasterization resolution in DPI (default 150)")
	convertCmd.Flags().String("format", "", "page image format: png, jpeg, or tiff (default png)")
	convertCmd.Flags().Bool("overwrite", false, "replace existing archives instead of skipping them")
	convertCmd.Flags().Bool("dry-run", false, "report what would be converted without writing anything")
	convertCmd.Flags().BoolP("verbose", "v", false, "echo external command lines to stderr")
	convertCmd.Flags().String("rasterizer", "", "pin the rasterizer binary: pdftoppm or mutool (default auto-detect)")
	convertCmd.Flags().String("archiver", "", "pin the archiver binary: zip or 7z (default auto-detect)")
	convertCmd.Flags().String("report", "", "write a YAML batch report to this path")
	convertCmd.Flags().Bool("no-ledger", false, "do not record the run in the history ledger")

	rootCmd.AddCommand(convertCmd)
}

// targetDir resolves and validates the positional directory argument shared
// by convert, inspect, and history.
func targetDir(args []string) (string, error) {
	if len(args) > 1 {
		return "", usageErrorf("expected at most one directory argument, got %d", len(args))
	}
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	info, err := os.Stat(dir)
	if err != nil {
		return "", usageErrorf("cannot access %s: %v", dir, err)
	}
	if !info.IsDir() {
		return "", usageErrorf("%s is not a directory", dir)
	}
	return dir, nil
}

// intSetting resolves an integer option: an explicitly set flag, then the
// config file, then the built-in default.
func intSetting(cmd *cobra.Command, flag, key string, def int) int {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetInt(flag)
		return v
	}
	if v := viper.GetInt(key); v != 0 {
		return v
	}
	return def
}

// stringSetting resolves a string option: an explicitly set flag, then the
// config file, then the built-in default.
func stringSetting(cmd *cobra.Command, flag, key, def string) string {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetString(flag)
		return v
	}
	if v := viper.GetString(key); v != "" {
		return v
	}
	return def
}

func runConvert(cmd *cobra.Command, args []string) error {
	dir, err := targetDir(args)
	if err != nil {
		return err
	}

	dpi := intSetting(cmd, "dpi", "convert.dpi", defaultDPI)
	if dpi <= 0 {
		return usageErrorf("dpi must be positive, got %d", dpi)
	}

	format, err := types.ParseImageFormat(stringSetting(cmd, "format", "convert.format", defaultFormat))
	if err != nil {
		return usageErrorf("%v", err)
	}

	overwrite, _ := cmd.Flags().GetBool("overwrite")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	verbose, _ := cmd.Flags().GetBool("verbose")
	noLedger, _ := cmd.Flags().GetBool("no-ledger")
	reportPath, _ := cmd.Flags().GetString("report")

	cfg := types.ConvertConfig{
		DPI:        dpi,
		Format:     format,
		Overwrite:  overwrite,
		DryRun:     dryRun,
		Verbose:    verbose,
		Rasterizer: stringSetting(cmd, "rasterizer", "convert.rasterizer", ""),
		Archiver:   stringSetting(cmd, "archiver", "convert.archiver", ""),
		ReportPath: reportPath,
	}

	if cfg.Verbose {
		tool.SetTrace(os.Stderr)
	}

	rasterizer, err := tool.SelectRasterizer(cfg.Rasterizer)
	if err != nil {
		return err
	}
	archiver, err := tool.SelectArchiver(cfg.Archiver)
	if err != nil {
		return err
	}

	pdfs, err := convert.ListPDFs(dir)
	if err != nil {
		return err
	}
	if len(pdfs) == 0 {
		fmt.Printf("no PDF files found in %s\n", dir)
		return nil
	}

	jobs := make([]types.Job, len(pdfs))
	for i, pdf := range pdfs {
		jobs[i] = types.Job{
			PDFPath:     pdf,
			ArchivePath: convert.ArchivePath(pdf),
			Pages:       inspect.PageCount(pdf),
		}
	}

	var recorder convert.Recorder
	if !cfg.DryRun && !noLedger {
		store, err := ledger.Open(types.LedgerConfig{Path: ledger.DefaultPath(dir)})
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: history ledger unavailable: %v\n", err)
		} else {
			defer store.Close()
			recorder = store
		}
	}

	report := convert.ConvertBatch(rasterizer, archiver, dir, jobs, cfg, recorder, os.Stdout)

	if err := maybeWriteReport(cfg, report); err != nil {
		return err
	}

	if report.Summary.HasFailures() {
		return &convert.BatchError{Failed: report.Summary.Failed}
	}
	return nil
}

// maybeWriteReport writes the YAML batch report when a path is configured.
// A dry run writes nothing, keeping it free of filesystem side effects.
func maybeWriteReport(cfg types.ConvertConfig, report convert.BatchReport) error {
	if cfg.ReportPath == "" {
		return nil
	}
	if cfg.DryRun {
		fmt.Fprintf(os.Stderr, "dry run: not writing report to %s\n", cfg.ReportPath)
		return nil
	}
	return convert.WriteReport(cfg.ReportPath, report)
}
