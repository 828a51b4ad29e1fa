package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/born-ml/archbuild/internal/serialization"
)

func newSaveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save FILE OUT",
		Short: "Build a description and write its initial weights as SafeTensors",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := a.buildFile(args[0])
			if err != nil {
				return err
			}

			stateDict := model.StateDict()
			metadata := map[string]string{
				"format":      "pt",
				"description": filepath.Base(args[0]),
			}
			if err := serialization.WriteSafeTensors(args[1], stateDict, metadata); err != nil {
				return fmt.Errorf("failed to save weights: %w", err)
			}

			a.logger.Info("weights saved", "path", args[1], "tensors", len(stateDict))
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d tensors to %s\n", len(stateDict), args[1])
			return nil
		},
	}
}
