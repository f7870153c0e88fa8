package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/shellm/internal/appconfig"
	"pkt.systems/shellm/internal/safety"
)

func newSafetyCmd() *cobra.Command {
	var cfgPath string
	var addApprove []string
	var addConfirm []string
	var removeApprove []string
	var removeConfirm []string
	var show bool
	cmd := &cobra.Command{
		Use:   "safety",
		Short: "Manage the auto-execution safety lists",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			store := safety.NewStore(cfg.Safety.ConfigPath, logger)
			current := store.Load()
			changed := false
			if len(addApprove) > 0 {
				if current, err = store.AddApprove(addApprove); err != nil {
					return err
				}
				changed = true
			}
			if len(addConfirm) > 0 {
				if current, err = store.AddConfirm(addConfirm); err != nil {
					return err
				}
				changed = true
			}
			if len(removeApprove) > 0 {
				if current, err = store.RemoveApprove(removeApprove); err != nil {
					return err
				}
				changed = true
			}
			if len(removeConfirm) > 0 {
				if current, err = store.RemoveConfirm(removeConfirm); err != nil {
					return err
				}
				changed = true
			}
			if show || !changed {
				fmt.Fprint(cmd.OutOrStdout(), safety.Describe(current))
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&cfgPath, "config", "", "path to config file")
	flags.StringSliceVar(&addApprove, "add-approve", nil, "add commands to the always-approve list")
	flags.StringSliceVar(&addConfirm, "add-confirm", nil, "add patterns to the always-confirm list")
	flags.StringSliceVar(&removeApprove, "remove-approve", nil, "remove commands from the always-approve list")
	flags.StringSliceVar(&removeConfirm, "remove-confirm", nil, "remove patterns from the always-confirm list")
	flags.BoolVar(&show, "show", false, "print the safety lists")
	return cmd
}
