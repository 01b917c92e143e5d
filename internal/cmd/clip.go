package cmd

import (
	sysclipboard "github.com/atotto/clipboard"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stateful/mdedit/internal/config/autoconfig"
	"github.com/stateful/mdedit/pkg/document/editor"
)

// Replaced in tests.
var (
	readClipboard  = sysclipboard.ReadAll
	writeClipboard = sysclipboard.WriteAll
)

func clipCmd() *cobra.Command {
	var (
		plain bool
		write bool
	)

	cmd := cobra.Command{
		Use:   "clip",
		Short: "Paste the system clipboard into an empty document.",
		Long: `Paste the system clipboard into an empty document and print it.

The clipboard text is classified like any paste: a single block
level HTML element is kept as an HTML block, anything else is
read as Markdown. With --plain the text is pasted verbatim.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readClipboard()
			if err != nil {
				return errors.Wrap(err, "failed to read clipboard")
			}

			builder, err := newBuilder("")
			if err != nil {
				return err
			}

			return builder.Invoke(func(newSession autoconfig.SessionFactory, logger *zap.Logger) error {
				session := newSession()
				defer func() { _ = session.Close() }()

				mode := editor.PasteNormal
				if plain {
					mode = editor.PastePlainText
				}
				if err := session.PasteHandler(editor.Payload{Text: text}, mode); err != nil {
					return errors.Wrap(err, "failed to paste clipboard")
				}
				result := session.ExportMarkdown()

				if write {
					logger.Debug("writing clipboard", zap.Int("size", len(result)))
					return errors.Wrap(writeClipboard(result), "failed to write clipboard")
				}
				_, err := cmd.OutOrStdout().Write([]byte(result))
				return errors.Wrap(err, "failed to write result")
			})
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Paste as plain text.")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the result back to the clipboard.")

	return &cmd
}
