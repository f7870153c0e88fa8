package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/shellm/internal/appconfig"
)

func newConfigCmd() *cobra.Command {
	var path string
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Write the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			written, err := appconfig.WriteDefault(path, overwrite)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), written)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "target path for the config file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "overwrite an existing config file")
	return cmd
}
