// Copyright 2025 NetApp, Inc. All Rights Reserved.

package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	mapperconfig "github.com/netapp/eseries-mapper/config"
)

func init() {
	RootCmd.AddCommand(versionCmd)
}

type clientVersion struct {
	Version string `json:"version"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of emapctl",
	RunE: func(cmd *cobra.Command, args []string) error {

		version := clientVersion{Version: mapperconfig.OrchestratorVersion}

		switch OutputFormat {
		case FormatJSON:
			WriteJSON(version)
		case FormatYAML:
			WriteYAML(version)
		case FormatWide, FormatName:
			fmt.Println(version.Version)
		default:
			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Version"})
			table.Append([]string{version.Version})
			table.Render()
		}
		return nil
	},
}
