// Copyright 2025 NetApp, Inc. All Rights Reserved.

package eseries

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netapp/eseries-mapper/mapper"
	drivers "github.com/netapp/eseries-mapper/storage_drivers"
	"github.com/netapp/eseries-mapper/storage_drivers/eseries/api"
)

const (
	Username      = "tester"
	Password      = "password"
	PasswordArray = "Passwords"
)

func newTestEseriesSANDriver(showSensitive *bool) *SANStorageDriver {
	config := &drivers.ESeriesStorageDriverConfig{}
	sp := func(s string) *string { return &s }

	config.CommonStorageDriverConfig = &drivers.CommonStorageDriverConfig{}
	config.CommonStorageDriverConfig.DebugTraceFlags = make(map[string]bool)
	config.CommonStorageDriverConfig.DebugTraceFlags["method"] = true

	if showSensitive != nil {
		config.CommonStorageDriverConfig.DebugTraceFlags["sensitive"] = *showSensitive
	}

	config.Username = Username
	config.Password = Password
	config.PasswordArray = PasswordArray
	config.WebProxyHostname = "10.0.0.1"
	config.WebProxyPort = "2222"
	config.WebProxyUseHTTP = false
	config.WebProxyVerifyTLS = false
	config.ControllerA = "10.0.0.2"
	config.ControllerB = "10.0.0.3"
	config.HostDataIP = "10.0.0.4"
	config.StorageDriverName = "eseries-san"
	config.StoragePrefix = sp("test_")

	telemetry := make(map[string]string)
	telemetry["version"] = "1.1.0"
	telemetry["plugin"] = "eseries-san"
	telemetry["storagePrefix"] = *config.StoragePrefix

	API := api.NewAPIClient(api.ClientConfig{
		WebProxyHostname:      config.WebProxyHostname,
		WebProxyPort:          config.WebProxyPort,
		WebProxyUseHTTP:       config.WebProxyUseHTTP,
		WebProxyVerifyTLS:     config.WebProxyVerifyTLS,
		Username:              config.Username,
		Password:              config.Password,
		ControllerA:           config.ControllerA,
		ControllerB:           config.ControllerB,
		PasswordArray:         config.PasswordArray,
		PoolNameSearchPattern: config.PoolNameSearchPattern,
		Protocol:              "iscsi",
		DriverName:            config.StorageDriverName,
		Telemetry:             telemetry,
	})

	sanDriver := &SANStorageDriver{}
	sanDriver.Config = *config
	sanDriver.API = API
	sanDriver.Mapper = mapper.NewMappingCoordinator(API, mapper.CoordinatorConfig{
		HostType:             "linux_dm_mp",
		MultiAttachGroupName: "eseries_mapper_group",
	})

	return sanDriver
}

func TestEseriesSANStorageDriverConfigString(t *testing.T) {

	var EseriesSANDrivers = []SANStorageDriver{
		*newTestEseriesSANDriver(&[]bool{true}[0]),
		*newTestEseriesSANDriver(&[]bool{false}[0]),
		*newTestEseriesSANDriver(nil),
	}

	for _, EseriesSANDriver := range EseriesSANDrivers {
		sensitive, ok := EseriesSANDriver.Config.DebugTraceFlags["sensitive"]

		switch {

		case !ok || (ok && !sensitive):
			assert.Contains(t, EseriesSANDriver.String(), "<REDACTED>",
				"Eseries driver does not contain <REDACTED>")
			assert.Contains(t, EseriesSANDriver.String(), "API:<REDACTED>",
				"Eseries driver does not redact API information")
			assert.NotContains(t, EseriesSANDriver.String(), Username,
				"Eseries driver contains username")
			assert.NotContains(t, EseriesSANDriver.String(), Password,
				"Eseries driver contains password")
			assert.NotContains(t, EseriesSANDriver.String(), PasswordArray,
				"Eseries driver contains password array")
		case ok && sensitive:
			assert.Contains(t, EseriesSANDriver.String(), Username,
				"Eseries driver does not contain username")
			assert.Contains(t, EseriesSANDriver.String(), Password,
				"Eseries driver does not contain password")
			assert.Contains(t, EseriesSANDriver.String(), PasswordArray,
				"Eseries driver does not contain password array")
		}
	}
}

func TestPopulateConfigurationDefaults(t *testing.T) {

	driver := &SANStorageDriver{}

	config := &drivers.ESeriesStorageDriverConfig{}
	config.CommonStorageDriverConfig = &drivers.CommonStorageDriverConfig{}

	err := driver.populateConfigurationDefaults(config)
	require.NoError(t, err)

	assert.Equal(t, "emap_", *config.StoragePrefix)
	assert.Equal(t, "eseries_mapper_group", config.AccessGroup)
	assert.Equal(t, "linux_dm_mp", config.HostType)
	assert.Equal(t, ".+", config.PoolNameSearchPattern)
	assert.Equal(t, drivers.DefaultVolumeSize, config.Size)
}

func TestPopulateConfigurationDefaultsInvalidSize(t *testing.T) {

	driver := &SANStorageDriver{}

	config := &drivers.ESeriesStorageDriverConfig{}
	config.CommonStorageDriverConfig = &drivers.CommonStorageDriverConfig{}
	config.Size = "banana"

	err := driver.populateConfigurationDefaults(config)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {

	driver := newTestEseriesSANDriver(nil)
	assert.NoError(t, driver.validate())

	missingProxy := newTestEseriesSANDriver(nil)
	missingProxy.Config.WebProxyHostname = ""
	assert.Error(t, missingProxy.validate())

	missingController := newTestEseriesSANDriver(nil)
	missingController.Config.ControllerB = ""
	assert.Error(t, missingController.validate())

	missingDataIP := newTestEseriesSANDriver(nil)
	missingDataIP.Config.HostDataIP = ""
	assert.Error(t, missingDataIP.validate())
}

func TestGetInternalVolumeName(t *testing.T) {

	driver := newTestEseriesSANDriver(nil)

	internalName := driver.GetInternalVolumeName("pvc-426ae806-bbd0-4071-a815-c059c1cf51f3")

	// Base64-encoded UUIDs are 22 characters, comfortably under the array's 30-char limit
	assert.Len(t, internalName, 22)

	// The encoding must be reversible
	uuidString, err := driver.base64ToUUID(internalName)
	require.NoError(t, err)
	assert.Len(t, uuidString, 36)

	// Names are unique per call
	assert.NotEqual(t, internalName, driver.GetInternalVolumeName("pvc-426ae806-bbd0-4071-a815-c059c1cf51f3"))
}

func TestDriverName(t *testing.T) {

	driver := newTestEseriesSANDriver(nil)

	assert.Equal(t, "eseries-san", driver.Name())
	assert.Equal(t, "iscsi", driver.Protocol())
}
