package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/born-ml/archbuild/internal/arch"
)

func newBuildCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "build FILE",
		Short: "Build a description and print the module tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := a.buildFile(args[0])
			if err != nil {
				return err
			}

			summary := arch.Summarize(model)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTree(summary))
			fmt.Fprintln(out, totalStyle.Render(fmt.Sprintf("Total parameters: %d", summary.Params)))
			return nil
		},
	}
}
