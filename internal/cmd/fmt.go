package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stateful/mdedit/internal/config/autoconfig"
)

func fmtCmd() *cobra.Command {
	var write bool

	cmd := cobra.Command{
		Use:   "fmt <file|->",
		Short: "Format a Markdown file into canonical format.",
		Long: `Format a Markdown file into canonical format.

The document is parsed into blocks and serialized back. Inline
content is kept as is. The source can be a file, "-" for stdin
or an https URL.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			data, err := readInput(cmd, name)
			if err != nil {
				return err
			}

			builder, err := newBuilder(name)
			if err != nil {
				return err
			}

			return builder.Invoke(func(newSession autoconfig.SessionFactory, logger *zap.Logger) error {
				session := newSession()
				defer func() { _ = session.Close() }()

				if err := session.ImportMarkdown(string(data)); err != nil {
					return errors.Wrap(err, "failed to parse source")
				}
				result := session.ExportMarkdown()
				logger.Debug("formatted document", zap.String("name", name), zap.Int("size", len(result)))

				return writeOutput(cmd, name, write, []byte(result))
			})
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the result back to the source file.")

	return &cmd
}
