package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/surfcat/gasdb/internal/version"
)

func newVersionCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := &formatter{format: root.Format, w: cmd.OutOrStdout()}
			info := map[string]string{
				"version": version.Version,
				"commit":  version.Commit,
				"date":    version.Date,
			}
			return out.success(info, func(w io.Writer) { fmt.Fprintln(w, version.String()) })
		},
	}
}
