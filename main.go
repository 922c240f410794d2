package main

import (
	"fmt"
	"os"

	"disksim/pkg/config"
	"disksim/pkg/log"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	v       = config.New()
	cfg     config.Config

	debugMode bool
	logFile   *os.File
)

var rootCmd = &cobra.Command{
	Use:   "disksim",
	Short: "Disk management simulator",
	Long: `disksim simulates a Windows-style disk manager.

It lets you create, delete, shrink, extend and format partitions on a
simulated disk, attach a removable disk, and check training missions,
without touching real hardware. State is kept in a local SQLite file.`,
	Version:            appversion,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  func(cmd *cobra.Command, args []string) error { return initConfig() },
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error { return closeLogFile() },
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error { return runTUI(cmd.Context(), a) })
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/disksim/config.yaml)")
	flags.String("state-db", "", "state database path, \":memory:\" for a throwaway session")
	flags.String("catalog", "", "course catalog YAML (default is the built-in catalog)")
	flags.Int64("min-segment-mb", 1, "smallest segment the engine leaves behind")
	flags.Bool("strict-drive-letters", true, "reject drive letters used by another volume")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-file", "", "write logs to this file instead of stderr")
	flags.BoolVar(&debugMode, "debug", false, "shorthand for --log-level debug")

	_ = v.BindPFlag(config.KeyStateDB, flags.Lookup("state-db"))
	_ = v.BindPFlag(config.KeyCatalog, flags.Lookup("catalog"))
	_ = v.BindPFlag(config.KeyMinSegmentMB, flags.Lookup("min-segment-mb"))
	_ = v.BindPFlag(config.KeyStrictDriveLetters, flags.Lookup("strict-drive-letters"))
	_ = v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	_ = v.BindPFlag(config.KeyLogFile, flags.Lookup("log-file"))

	rootCmd.AddCommand(
		newTUICmd(),
		newShellCmd(),
		newShowCmd(),
		newCreateCmd(),
		newDeleteCmd(),
		newShrinkCmd(),
		newExtendCmd(),
		newFormatCmd(),
		newLetterCmd(),
		newUSBCmd(),
		newResetCmd(),
		newExportCmd(),
		newImportCmd(),
		newReplayCmd(),
		newTopicCmd(),
		newSidebarCmd(),
		newMissionsCmd(),
		newServeCmd(),
	)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	if err := log.SetLevel(cfg.LogLevel); err != nil {
		return err
	}
	if debugMode {
		log.SetDebugMode()
	}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logFile = f
		log.SetOutput(f)
	}
	log.Debug().Str("config", v.ConfigFileUsed()).Str("state_db", cfg.StateDB).Msg("Configuration loaded")
	return nil
}

// closeLogFile points logging back at stderr and closes the --log-file
// handle, if one was opened.
func closeLogFile() error {
	if logFile == nil {
		return nil
	}
	log.SetOutput(os.Stderr)
	f := logFile
	logFile = nil
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}

func main() {
	err := rootCmd.Execute()
	if closeErr := closeLogFile(); err == nil {
		err = closeErr
	}
	exitOnError(err)
}
