// Copyright 2025 NetApp, Inc. All Rights Reserved.

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/netapp/eseries-mapper/mapper"
)

func init() {
	getCmd.AddCommand(getHostCmd)
}

var getHostCmd = &cobra.Command{
	Use:     "host",
	Short:   "Get one or more hosts from the storage array",
	Aliases: []string{"h", "hosts"},
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := getDriver()
		if err != nil {
			return err
		}

		hosts, err := d.API.ListHosts()
		if err != nil {
			return err
		}

		if len(args) > 0 {
			matching := make([]mapper.Host, 0)
			for _, host := range hosts {
				if stringInList(host.Label, args) {
					matching = append(matching, host)
				}
			}
			hosts = matching
		}

		writeHosts(hosts)
		return nil
	},
}

func writeHosts(hosts []mapper.Host) {

	switch OutputFormat {
	case FormatJSON:
		WriteJSON(hosts)
	case FormatYAML:
		WriteYAML(hosts)
	case FormatName:
		for _, host := range hosts {
			fmt.Println(host.Label)
		}
	default:
		writeHostTable(hosts)
	}
}

func writeHostTable(hosts []mapper.Host) {

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Grouped", "Ports"})

	for _, host := range hosts {

		ports := make([]string, 0, len(host.Ports))
		for _, port := range host.Ports {
			ports = append(ports, port.Port)
		}

		grouped := "no"
		if host.InGroup() {
			grouped = "yes"
		}

		table.Append([]string{host.Label, grouped, strings.Join(ports, ",")})
	}

	table.Render()
}
