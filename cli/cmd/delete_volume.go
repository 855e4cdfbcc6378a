// Copyright 2025 NetApp, Inc. All Rights Reserved.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(deleteCmd)
	deleteCmd.AddCommand(deleteVolumeCmd)
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a resource from the storage array",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initCmdLogging()
	},
}

var deleteVolumeCmd = &cobra.Command{
	Use:     "volume <name> [<name>...]",
	Short:   "Delete one or more volumes from the storage array",
	Aliases: []string{"v"},
	RunE: func(cmd *cobra.Command, args []string) error {

		if len(args) == 0 {
			return fmt.Errorf("volume delete requires at least one volume name")
		}

		d, err := getDriver()
		if err != nil {
			return err
		}

		for _, name := range args {
			if err := d.Destroy(name); err != nil {
				return err
			}
		}
		return nil
	},
}
