package cmd

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stateful/mdedit/internal/config/autoconfig"
)

func treeCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "tree <file|->",
		Short: "Print the block tree of a Markdown document as JSON.",
		Args:  cobra.ExactArgs(1),
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

			return builder.Invoke(func(newSession autoconfig.SessionFactory) error {
				session := newSession()
				defer func() { _ = session.Close() }()

				if err := session.ImportMarkdown(string(data)); err != nil {
					return errors.Wrap(err, "failed to parse source")
				}

				t := session.Tree()
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return errors.Wrap(enc.Encode(t.Outlines(t.Children(t.Root()))), "failed to encode tree")
			})
		},
	}

	return &cmd
}
