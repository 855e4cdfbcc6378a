// Copyright 2025 NetApp, Inc. All Rights Reserved.

package config

import (
	"fmt"
	"runtime"
)

type Protocol string

type Telemetry struct {
	Version         string `json:"version"`
	Platform        string `json:"platform"`
	PlatformVersion string `json:"platformVersion"`
	Plugin          string `json:"plugin"`
}

const (
	/* Misc. orchestrator constants */
	OrchestratorName    = "eseries-mapper"
	orchestratorVersion = "1.1.0"

	/* Protocol constants */
	Block       Protocol = "block"
	ProtocolAny Protocol = ""

	/* Driver-related constants */
	EseriesIscsiStorageDriverName = "eseries-san"
	DefaultAccessGroup            = "eseries_mapper_group"
	DefaultHostType               = "linux_dm_mp"
	DefaultStoragePrefix          = "emap_"

	/* REST API constants */
	StorageAPITimeoutSeconds = 90
)

var (
	OrchestratorVersion = orchestratorVersion

	OrchestratorTelemetry = Telemetry{
		Version:         OrchestratorVersion,
		Platform:        runtime.GOOS,
		PlatformVersion: runtime.GOARCH,
	}
)

func Version() string {
	return fmt.Sprintf("%s %s (%s/%s)", OrchestratorName, OrchestratorVersion, runtime.GOOS, runtime.GOARCH)
}
