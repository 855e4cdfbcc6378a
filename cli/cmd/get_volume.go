// Copyright 2025 NetApp, Inc. All Rights Reserved.

package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/netapp/eseries-mapper/storage_drivers/eseries/api"
)

func init() {
	getCmd.AddCommand(getVolumeCmd)
}

var getVolumeCmd = &cobra.Command{
	Use:     "volume",
	Short:   "Get one or more volumes from the storage array",
	Aliases: []string{"v", "volumes"},
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := getDriver()
		if err != nil {
			return err
		}
		return volumeList(d.API, d.Config.StoragePrefix, args)
	},
}

func volumeList(client *api.Client, storagePrefix *string, volumeNames []string) error {

	volumes, err := client.GetVolumes()
	if err != nil {
		return err
	}

	prefix := ""
	if storagePrefix != nil {
		prefix = *storagePrefix
	}

	matching := make([]api.VolumeEx, 0)
	for _, volume := range volumes {

		if !strings.HasPrefix(volume.Label, prefix) {
			continue
		}
		name := strings.TrimPrefix(volume.Label, prefix)

		if len(volumeNames) > 0 && !stringInList(name, volumeNames) {
			continue
		}
		matching = append(matching, volume)
	}

	writeVolumes(matching, prefix)
	return nil
}

func writeVolumes(volumes []api.VolumeEx, prefix string) {

	switch OutputFormat {
	case FormatJSON:
		WriteJSON(volumes)
	case FormatYAML:
		WriteYAML(volumes)
	case FormatName:
		for _, volume := range volumes {
			fmt.Println(strings.TrimPrefix(volume.Label, prefix))
		}
	default:
		writeVolumeTable(volumes, prefix)
	}
}

func writeVolumeTable(volumes []api.VolumeEx, prefix string) {

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Size", "Mapped"})

	for _, volume := range volumes {

		sizeBytes, _ := strconv.ParseUint(volume.VolumeSize, 10, 64)

		table.Append([]string{
			strings.TrimPrefix(volume.Label, prefix),
			humanize.IBytes(sizeBytes),
			strconv.FormatBool(volume.IsMapped),
		})
	}

	table.Render()
}

func stringInList(s string, list []string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
