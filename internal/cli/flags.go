package cli

import (
	"github.com/spf13/cobra"
)

// GlobalFlags holds global flag values
type GlobalFlags struct {
	ConfigFile string
	LogFile    string
	Verbose    bool
	Quiet      bool
	NoColor    bool
}

var globalFlags GlobalFlags

// AddGlobalFlags adds global flags to the root command
func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(
		&globalFlags.ConfigFile,
		"config",
		"",
		"config file (default is $HOME/.config/dirmerge/config.yaml)",
	)
	cmd.PersistentFlags().StringVar(
		&globalFlags.LogFile,
		"log-file",
		"",
		"write a rotating log to this file",
	)
	cmd.PersistentFlags().BoolVarP(
		&globalFlags.Verbose,
		"verbose",
		"v",
		false,
		"verbose output and debug logging",
	)
	cmd.PersistentFlags().BoolVarP(
		&globalFlags.Quiet,
		"quiet",
		"q",
		false,
		"suppress non-error output",
	)
	cmd.PersistentFlags().BoolVar(
		&globalFlags.NoColor,
		"no-color",
		false,
		"disable colored output",
	)
}

// GetGlobalFlags returns the global flags
func GetGlobalFlags() *GlobalFlags {
	return &globalFlags
}

// ScanFlags holds the flags shared by every command that indexes directories
type ScanFlags struct {
	Algorithm     string
	Exclude       []string
	IncludeHidden bool
	Workers       int
	Output        string
}

// MergeFlags holds merge command flag values
type MergeFlags struct {
	ScanFlags
	Dest         string
	Strategy     string
	CopyUnique   bool
	SkipUnique   bool
	NoRenamed    bool
	Overwrite    bool
	Bandwidth    string
	Report       string
	ReportFormat string
	NoForms      bool
}

var mergeFlags MergeFlags

// addScanFlags registers the indexing flags on cmd
func addScanFlags(cmd *cobra.Command, f *ScanFlags) {
	cmd.Flags().StringVar(&f.Algorithm, "algorithm", "", "digest algorithm: sha256, md5 (default from config)")
	cmd.Flags().StringSliceVar(&f.Exclude, "exclude", nil, "directory names or glob patterns to exclude (replaces the configured list)")
	cmd.Flags().BoolVar(&f.IncludeHidden, "include-hidden", false, "scan hidden directories too")
	cmd.Flags().IntVarP(&f.Workers, "workers", "w", 0, "files hashed concurrently per directory")
	cmd.Flags().StringVarP(&f.Output, "output", "o", "", "output format: human, json")
}
