package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewDevicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "devices",
		Short:   "List the battery device paths the configured backend finds",
		GroupID: gAdvanced,
		RunE: func(cmd *cobra.Command, _ []string) error {
			backend, err := localBackend()
			if err != nil {
				return err
			}

			paths, err := backend.Enumerate()
			if err != nil {
				return fmt.Errorf("failed to enumerate batteries: %w", err)
			}

			cmd.Printf("Backend: %s\n", bold("%s", backend.Name))
			if len(paths) == 0 {
				cmd.Println("No batteries found.")
				return nil
			}
			for i, p := range paths {
				cmd.Printf("  #%d %s\n", i, p)
			}
			return nil
		},
	}
}
