// Copyright 2025 NetApp, Inc. All Rights Reserved.

package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/netapp/eseries-mapper/storage_drivers/eseries/api"
)

func init() {
	getCmd.AddCommand(getPoolCmd)
}

var getPoolCmd = &cobra.Command{
	Use:     "pool",
	Short:   "Get the storage pools from the storage array",
	Aliases: []string{"p", "pools"},
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := getDriver()
		if err != nil {
			return err
		}

		pools, err := d.Pools.GetPools()
		if err != nil {
			return err
		}

		switch OutputFormat {
		case FormatJSON:
			WriteJSON(pools)
		case FormatYAML:
			WriteYAML(pools)
		case FormatName:
			for _, pool := range pools {
				fmt.Println(pool.Label)
			}
		default:
			writePoolTable(pools)
		}
		return nil
	},
}

func writePoolTable(pools []api.VolumeGroupEx) {

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Media", "Free"})

	for _, pool := range pools {
		freeBytes, _ := strconv.ParseUint(pool.FreeSpace, 10, 64)
		table.Append([]string{pool.Label, pool.DriveMediaType, humanize.IBytes(freeBytes)})
	}

	table.Render()
}
