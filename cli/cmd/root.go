// Copyright 2025 NetApp, Inc. All Rights Reserved.

package cmd

import (
	"errors"
	"io/ioutil"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/netapp/eseries-mapper/storage_drivers/eseries"
)

const (
	FormatJSON = "json"
	FormatName = "name"
	FormatWide = "wide"
	FormatYAML = "yaml"

	ExitCodeSuccess = 0
	ExitCodeFailure = 1
)

var (
	Debug        bool
	ConfigPath   string
	OutputFormat string
	ExitCode     int

	driver *eseries.SANStorageDriver
)

var RootCmd = &cobra.Command{
	SilenceUsage: true,
	Use:          "emapctl",
	Short:        "A CLI tool for E-Series LUN mapping",
	Long:         `A CLI tool for provisioning and mapping volumes on NetApp E-Series storage arrays`,
}

func init() {
	RootCmd.PersistentFlags().BoolVarP(&Debug, "debug", "d", false, "Debug output")
	RootCmd.PersistentFlags().StringVarP(&ConfigPath, "config", "c", "", "Path to the backend config file")
	RootCmd.PersistentFlags().StringVarP(&OutputFormat, "output", "o", "", "Output format. One of json|yaml|name|wide|ps (default)")
}

func initCmdLogging() {
	if Debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

// getDriver initializes the backend driver from the config file given with --config. The driver
// is cached so that command trees sharing a pre-run hook only pay for one proxy connection.
func getDriver() (*eseries.SANStorageDriver, error) {

	if driver != nil {
		return driver, nil
	}

	if ConfigPath == "" {
		return nil, errors.New("no backend config file specified; use --config")
	}

	configJSON, err := ioutil.ReadFile(ConfigPath)
	if err != nil {
		return nil, err
	}

	d := &eseries.SANStorageDriver{}
	if err := d.Initialize(string(configJSON)); err != nil {
		return nil, err
	}

	driver = d
	return driver, nil
}

func SetExitCodeFromError(err error) {
	if err != nil {
		ExitCode = ExitCodeFailure
	}
}
