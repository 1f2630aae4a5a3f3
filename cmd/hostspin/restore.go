package main

import (
	"github.com/apex/log"
	"github.com/spf13/cobra"

	"example.com/hostspin/internal/hostsfile"
	"example.com/hostspin/internal/runner"
)

func restoreCommand() *cobra.Command {
	var hosts string
	cmd := &cobra.Command{
		Use:   "restore <backup>",
		Short: "Copy a backup over the hosts file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if hosts == "" {
				hosts = hostsfile.DefaultHostsPath()
			}
			if err := hostsfile.RestoreBackup(args[0], hosts); err != nil {
				if hostsfile.IsPermission(err) {
					log.Warn(runner.ElevationHint)
				}
				return err
			}
			log.Infof("restored %s from %s", hosts, args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&hosts, "hosts", "", "Hosts file to overwrite")
	return cmd
}
