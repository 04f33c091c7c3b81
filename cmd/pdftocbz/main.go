// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pdftocbz CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mellery/pdftocbz/internal/tool"
)

// version is set at build time via ldflags.
var version = "dev"

// Exit codes. Conversion failures and other runtime errors exit 1; bad
// arguments exit 2; a missing external binary exits 3.
const (
	exitFailure     = 1
	exitUsage       = 2
	exitMissingTool = 3
)

// usageError marks an error caused by bad command-line arguments.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usageErrorf(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// rootCmd is the base command for the pdftocbz CLI.
var rootCmd = &cobra.Command{
	Use:   "pdftocbz",
	Short: "Batch-convert PDF documents into CBZ comic archives",
	Long: `pdftocbz converts every PDF in a directory into a CBZ comic archive by
rasterizing its pages to images with an external rasterizer (pdftoppm or
mutool) and packing them into a zip archive with an external archiver
(zip or 7z).

Use "convert" to run the pipeline, "inspect" for a preflight listing,
"history" to browse past runs, and "tools" to check which external
binaries are installed.`,
	SilenceUsage: true,
	// An unknown subcommand is a usage error and must exit with the usage code.
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return usageErrorf("unknown command %q for %q", args[0], cmd.CommandPath())
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pdftocbz.yaml or ~/.config/pdftocbz/config.yaml)")

	// Flag-parse failures are usage errors and must exit with the usage code.
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{msg: err.Error()}
	})
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pdftocbz")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pdftocbz"))
		}
	}

	viper.SetEnvPrefix("PDFTOCBZ")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// exitCode maps an error to the process exit code.
func exitCode(err error) int {
	if errors.Is(err, tool.ErrToolNotFound) {
		return exitMissingTool
	}
	var uerr *usageError
	if errors.As(err, &uerr) {
		return exitUsage
	}
	return exitFailure
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}
