// Copyright 2025 NetApp, Inc. All Rights Reserved.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netapp/eseries-mapper/mapper"
)

var (
	detachIQN       string
	detachHostName  string
	detachRemaining int
)

func init() {
	RootCmd.AddCommand(detachCmd)

	detachCmd.Flags().StringVar(&detachIQN, "iqn", "", "Initiator IQN of the detaching host")
	detachCmd.Flags().StringVar(&detachHostName, "host-name", "", "Name of the detaching host")
	detachCmd.Flags().IntVar(&detachRemaining, "remaining", 0,
		"Number of attachments the host still holds on this volume")

	detachCmd.MarkFlagRequired("iqn")
	detachCmd.MarkFlagRequired("host-name")
}

var detachCmd = &cobra.Command{
	Use:   "detach <volume>",
	Short: "Unmap a volume from a host",
	PreRun: func(cmd *cobra.Command, args []string) {
		initCmdLogging()
	},
	RunE: func(cmd *cobra.Command, args []string) error {

		if len(args) != 1 {
			return fmt.Errorf("detach requires a single volume name")
		}

		d, err := getDriver()
		if err != nil {
			return err
		}

		connector := mapper.Connector{
			InitiatorPort: detachIQN,
			PortType:      "iscsi",
			HostName:      detachHostName,
		}

		return d.Unpublish(args[0], connector, detachRemaining)
	},
}
