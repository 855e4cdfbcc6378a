// Copyright 2025 NetApp, Inc. All Rights Reserved.

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/netapp/eseries-mapper/utils"
)

var (
	createVolumeSize      string
	createVolumeMediaType string
	createVolumePool      string
	createVolumeFstype    string
)

func init() {
	RootCmd.AddCommand(createCmd)
	createCmd.AddCommand(createVolumeCmd)

	createVolumeCmd.Flags().StringVar(&createVolumeSize, "size", "", "Volume size, e.g. 10GB or 1073741824")
	createVolumeCmd.Flags().StringVar(&createVolumeMediaType, "media", "", "Drive media type (hdd or ssd)")
	createVolumeCmd.Flags().StringVar(&createVolumePool, "pool", "", "Storage pool to provision from")
	createVolumeCmd.Flags().StringVar(&createVolumeFstype, "fstype", "", "Filesystem type tag (xfs, ext3 or ext4)")
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a resource on the storage array",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initCmdLogging()
	},
}

var createVolumeCmd = &cobra.Command{
	Use:     "volume <name>",
	Short:   "Create a volume on the storage array",
	Aliases: []string{"v"},
	RunE: func(cmd *cobra.Command, args []string) error {

		if len(args) != 1 {
			return fmt.Errorf("volume create requires a single volume name")
		}
		if createVolumeSize == "" {
			return fmt.Errorf("volume create requires --size")
		}

		d, err := getDriver()
		if err != nil {
			return err
		}

		sizeStr, err := utils.ConvertSizeToBytes(createVolumeSize)
		if err != nil {
			return fmt.Errorf("invalid size %s: %v", createVolumeSize, err)
		}
		sizeBytes, _ := strconv.ParseUint(sizeStr, 10, 64)

		opts := make(map[string]string)
		if createVolumeMediaType != "" {
			opts["mediaType"] = createVolumeMediaType
		}
		if createVolumePool != "" {
			opts["pool"] = createVolumePool
		}
		if createVolumeFstype != "" {
			opts["fileSystemType"] = createVolumeFstype
		}

		return d.Create(args[0], sizeBytes, opts)
	},
}
