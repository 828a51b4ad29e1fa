package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/born-ml/archbuild/internal/arch"
	"github.com/born-ml/archbuild/internal/backend/cpu"
)

func newLayersCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "layers",
		Short: "List the layer types a description can use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, containerStyle.Render(arch.SequentialType))
			fmt.Fprintln(out, containerStyle.Render(arch.ResBlockType))
			for _, name := range arch.NewDefaultRegistry[*cpu.CPUBackend]().Names() {
				fmt.Fprintln(out, layerStyle.Render(name))
			}
			return nil
		},
	}
}
