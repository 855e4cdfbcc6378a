// Copyright 2025 NetApp, Inc. All Rights Reserved.

package cmd

import (
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/netapp/eseries-mapper/mapper"
	"github.com/netapp/eseries-mapper/storage_drivers/eseries"
)

func init() {
	getCmd.AddCommand(getMappingCmd)
}

var getMappingCmd = &cobra.Command{
	Use:     "mapping",
	Short:   "Get the LUN mappings from the storage array",
	Aliases: []string{"m", "mappings"},
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := getDriver()
		if err != nil {
			return err
		}

		mappings, err := d.API.GetVolumeMappings()
		if err != nil {
			return err
		}

		switch OutputFormat {
		case FormatJSON:
			WriteJSON(mappings)
		case FormatYAML:
			WriteYAML(mappings)
		default:
			return writeMappingTable(d, mappings)
		}
		return nil
	},
}

// writeMappingTable resolves the refs in each mapping to labels so the table reads
// the way an admin thinks about the array, not the way the REST API does.
func writeMappingTable(d *eseries.SANStorageDriver, mappings []mapper.VolumeMapping) error {

	volumes, err := d.API.GetVolumes()
	if err != nil {
		return err
	}
	volumeLabels := make(map[string]string, len(volumes))
	for _, volume := range volumes {
		volumeLabels[volume.VolumeRef] = volume.Label
	}

	hosts, err := d.API.ListHosts()
	if err != nil {
		return err
	}
	targetLabels := make(map[string]string, len(hosts))
	for _, host := range hosts {
		targetLabels[host.HostRef] = host.Label
	}

	prefix := ""
	if d.Config.StoragePrefix != nil {
		prefix = *d.Config.StoragePrefix
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Volume", "LUN", "Type", "Target"})

	for _, mapping := range mappings {

		volumeLabel, ok := volumeLabels[mapping.VolumeRef]
		if !ok {
			volumeLabel = mapping.VolumeRef
		}

		targetLabel, ok := targetLabels[mapping.TargetRef]
		if !ok {
			targetLabel = mapping.TargetRef
		}

		table.Append([]string{
			strings.TrimPrefix(volumeLabel, prefix),
			strconv.Itoa(mapping.LunNumber),
			string(mapping.Type),
			targetLabel,
		})
	}

	table.Render()
	return nil
}
