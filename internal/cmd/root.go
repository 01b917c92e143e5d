package cmd

import (
	"github.com/spf13/cobra"

	"github.com/stateful/mdedit/internal/log"
)

var (
	fConfigDir  string
	fLogEnabled bool
	fLogVerbose bool
	fLogPath    string
)

func Root() *cobra.Command {
	cmd := cobra.Command{
		Use:           "mdedit",
		Short:         "Parse, format and convert Markdown documents",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if fLogEnabled || fLogVerbose || fLogPath != "" {
				return log.Set(fLogVerbose, fLogPath)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Flush()
		},
	}

	pflags := cmd.PersistentFlags()

	pflags.StringVar(&fConfigDir, "config-dir", ".", "Directory with the root mdedit.yaml configuration file.")
	pflags.BoolVar(&fLogEnabled, "log", false, "Enable logging. Overrides the log section of the configuration.")
	pflags.BoolVar(&fLogVerbose, "log-verbose", false, "Enable verbose logging.")
	pflags.StringVar(&fLogPath, "log-path", "", "Write logs to a file instead of stderr.")

	cmd.AddCommand(clipCmd())
	cmd.AddCommand(fmtCmd())
	cmd.AddCommand(html2mdCmd())
	cmd.AddCommand(treeCmd())

	return &cmd
}
