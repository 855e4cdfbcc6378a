// Copyright 2025 NetApp, Inc. All Rights Reserved.

package storagedrivers

import (
	"encoding/json"
	"fmt"

	"github.com/netapp/eseries-mapper/config"
)

// ConfigVersion is the expected version specified in the config file
const ConfigVersion = 1

// Default volume size if not specified in the config file
const DefaultVolumeSize = "1G"

// CommonStorageDriverConfig holds settings in common across all storage drivers
type CommonStorageDriverConfig struct {
	Version           int             `json:"version"`
	StorageDriverName string          `json:"storageDriverName"`
	BackendName       string          `json:"backendName"`
	DebugTraceFlags   map[string]bool `json:"debugTraceFlags"` // Example: {"api":false, "method":true}
	StoragePrefix     *string         `json:"storagePrefix"`
	SerialNumbers     []string        `json:"serialNumbers,omitempty"`
}

type CommonStorageDriverConfigDefaults struct {
	Size string `json:"size"`
}

// ESeriesStorageDriverConfig holds settings for the E-Series SAN driver
type ESeriesStorageDriverConfig struct {
	*CommonStorageDriverConfig

	// Web Proxy Services Info
	WebProxyHostname     string `json:"webProxyHostname"`
	WebProxyAltHostname  string `json:"webProxyAltHostname"` // optional failover endpoint
	WebProxyPort         string `json:"webProxyPort"`        // optional
	WebProxyUseHTTP      bool   `json:"webProxyUseHTTP"`     // optional
	WebProxyVerifyTLS    bool   `json:"webProxyVerifyTLS"`   // optional
	Username             string `json:"username"`
	Password             string `json:"password"`

	// Array Info
	ControllerA   string `json:"controllerA"`
	ControllerB   string `json:"controllerB"`
	PasswordArray string `json:"passwordArray"` // optional

	// Options
	PoolNameSearchPattern string `json:"poolNameSearchPattern"` // optional
	PoolRefreshSeconds    int    `json:"poolRefreshSeconds"`    // optional background pool refresh

	// Host Networking
	HostDataIP          string `json:"hostDataIP"`          // for iSCSI can be either port if multipathing is setup
	AccessGroup         string `json:"accessGroupName"`     // name for the multi-attach host group
	HostType            string `json:"hostType"`            // host type, default is 'linux_dm_mp'
	MultiAttach         bool   `json:"multiAttach"`         // allow shared host-group mappings
	AutoDeregisterHosts bool   `json:"autoDeregisterHosts"` // delete idle auto-created hosts on detach

	ESeriesStorageDriverConfigDefaults `json:"defaults"`
}

type ESeriesStorageDriverConfigDefaults struct {
	CommonStorageDriverConfigDefaults
}

// VolumePublishInfo is the connection descriptor returned to callers after a successful publish;
// it carries everything an initiator needs to discover the LUN.
type VolumePublishInfo struct {
	IscsiTargetPortal string   `json:"iscsiTargetPortal"`
	IscsiPortals      []string `json:"iscsiPortals"`
	IscsiTargetIQN    string   `json:"iscsiTargetIqn"`
	IscsiLunNumber    int32    `json:"iscsiLunNumber"`
	HostName          string   `json:"hostName"`
	HostGroup         string   `json:"hostGroup,omitempty"`
}

// ValidateCommonSettings checks the model-independent parts of a backend config file.
func ValidateCommonSettings(configJSON string) (*CommonStorageDriverConfig, error) {

	config := &CommonStorageDriverConfig{}

	if err := json.Unmarshal([]byte(configJSON), config); err != nil {
		return nil, fmt.Errorf("could not decode JSON configuration: %v", err)
	}

	if config.Version != ConfigVersion {
		return nil, fmt.Errorf("unexpected config file version; found %d, expected %d",
			config.Version, ConfigVersion)
	}

	if config.StoragePrefix == nil {
		prefix := defaultStoragePrefix()
		config.StoragePrefix = &prefix
	}

	return config, nil
}

func defaultStoragePrefix() string {
	return config.DefaultStoragePrefix
}
