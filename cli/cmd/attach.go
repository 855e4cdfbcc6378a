// Copyright 2025 NetApp, Inc. All Rights Reserved.

package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/netapp/eseries-mapper/mapper"
)

var (
	attachIQN      string
	attachHostName string
)

func init() {
	RootCmd.AddCommand(attachCmd)

	attachCmd.Flags().StringVar(&attachIQN, "iqn", "", "Initiator IQN of the attaching host")
	attachCmd.Flags().StringVar(&attachHostName, "host-name", "", "Name of the attaching host")

	attachCmd.MarkFlagRequired("iqn")
	attachCmd.MarkFlagRequired("host-name")
}

var attachCmd = &cobra.Command{
	Use:   "attach <volume>",
	Short: "Map a volume to a host so its initiator can reach it",
	PreRun: func(cmd *cobra.Command, args []string) {
		initCmdLogging()
	},
	RunE: func(cmd *cobra.Command, args []string) error {

		if len(args) != 1 {
			return fmt.Errorf("attach requires a single volume name")
		}

		d, err := getDriver()
		if err != nil {
			return err
		}

		connector := mapper.Connector{
			InitiatorPort: attachIQN,
			PortType:      "iscsi",
			HostName:      attachHostName,
		}

		publishInfo, err := d.Publish(args[0], connector)
		if err != nil {
			return err
		}

		switch OutputFormat {
		case FormatJSON:
			WriteJSON(publishInfo)
		case FormatYAML:
			WriteYAML(publishInfo)
		default:
			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Portal", "IQN", "LUN", "Group"})
			table.Append([]string{
				strings.Join(publishInfo.IscsiPortals, ","),
				publishInfo.IscsiTargetIQN,
				strconv.Itoa(int(publishInfo.IscsiLunNumber)),
				publishInfo.HostGroup,
			})
			table.Render()
		}
		return nil
	},
}
