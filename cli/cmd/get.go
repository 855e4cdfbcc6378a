// Copyright 2025 NetApp, Inc. All Rights Reserved.

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/ghodss/yaml"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(getCmd)
}

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Get one or more resources from the storage array",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initCmdLogging()
	},
}

func WriteJSON(out interface{}) {
	jsonBytes, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Println(err)
	} else {
		fmt.Println(string(jsonBytes))
	}
}

func WriteYAML(out interface{}) {
	jsonBytes, err := json.Marshal(out)
	if err != nil {
		fmt.Println(err)
		return
	}
	yamlBytes, err := yaml.JSONToYAML(jsonBytes)
	if err != nil {
		fmt.Println(err)
	} else {
		fmt.Print(string(yamlBytes))
	}
}
