package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stateful/mdedit/internal/config/autoconfig"
	"github.com/stateful/mdedit/pkg/document/clipboard"
)

func html2mdCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "html2md <file|->",
		Short: "Convert HTML to canonical Markdown.",
		Long: `Convert HTML to canonical Markdown.

The HTML is sanitized and normalized the same way as pasted
content, converted to Markdown and formatted.`,
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

			return builder.Invoke(func(normalizer *clipboard.Normalizer, newSession autoconfig.SessionFactory) error {
				html, err := normalizer.Standardize(string(data))
				if err != nil {
					return errors.Wrap(err, "failed to normalize html")
				}
				markdown, err := normalizer.ToMarkdown(html)
				if err != nil {
					return errors.Wrap(err, "failed to convert html")
				}

				session := newSession()
				defer func() { _ = session.Close() }()

				if err := session.ImportMarkdown(markdown); err != nil {
					return errors.Wrap(err, "failed to parse converted markdown")
				}
				return writeOutput(cmd, name, false, []byte(session.ExportMarkdown()))
			})
		},
	}

	return &cmd
}
