// Copyright 2025 NetApp, Inc. All Rights Reserved.

package eseries

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	mapperconfig "github.com/netapp/eseries-mapper/config"
	"github.com/netapp/eseries-mapper/mapper"
	drivers "github.com/netapp/eseries-mapper/storage_drivers"
	"github.com/netapp/eseries-mapper/storage_drivers/eseries/api"
	"github.com/netapp/eseries-mapper/utils"
)

const MinimumVolumeSizeBytes = 1048576 // 1 MiB

// SANStorageDriver is for storage provisioning and LUN mapping via the Web Services Proxy RESTful
// interface that communicates with E-Series controllers via the SYMbol API.
type SANStorageDriver struct {
	initialized bool
	Config      drivers.ESeriesStorageDriverConfig
	API         *api.Client
	Mapper      *mapper.MappingCoordinator
	Pools       *api.PoolCatalog
}

type SANStorageDriverConfigExternal struct {
	*drivers.CommonStorageDriverConfig
	Username    string
	ControllerA string
	ControllerB string
	HostDataIP  string
}

func (d *SANStorageDriver) Name() string {
	return mapperconfig.EseriesIscsiStorageDriverName
}

func (d *SANStorageDriver) Protocol() string {
	return "iscsi"
}

// Initialize from the provided config
func (d *SANStorageDriver) Initialize(configJSON string) error {

	// Trace logging hasn't been set up yet, so always do it here
	fields := log.Fields{
		"Method": "Initialize",
		"Type":   "SANStorageDriver",
	}
	log.WithFields(fields).Debug(">>>> Initialize")
	defer log.WithFields(fields).Debug("<<<< Initialize")

	commonConfig, err := drivers.ValidateCommonSettings(configJSON)
	if err != nil {
		return fmt.Errorf("could not load backend configuration: %v", err)
	}

	config := &drivers.ESeriesStorageDriverConfig{}
	config.CommonStorageDriverConfig = commonConfig

	// Decode configJSON into ESeriesStorageDriverConfig object
	if err := json.Unmarshal([]byte(configJSON), &config); err != nil {
		return fmt.Errorf("could not decode JSON configuration: %v", err)
	}

	// Apply config defaults
	if err := d.populateConfigurationDefaults(config); err != nil {
		return fmt.Errorf("could not populate configuration defaults: %v", err)
	}

	log.WithFields(log.Fields{
		"Version":           config.Version,
		"StorageDriverName": config.StorageDriverName,
		"DebugTraceFlags":   config.DebugTraceFlags,
		"StoragePrefix":     *config.StoragePrefix,
	}).Debug("Reparsed into ESeriesStorageDriverConfig")

	d.Config = *config

	// Ensure the config is valid
	if err := d.validate(); err != nil {
		return fmt.Errorf("could not validate SANStorageDriver config: %v", err)
	}

	telemetry := make(map[string]string)
	telemetry["version"] = mapperconfig.OrchestratorVersion
	telemetry["plugin"] = d.Name()
	telemetry["storagePrefix"] = *d.Config.StoragePrefix

	d.API = api.NewAPIClient(api.ClientConfig{
		WebProxyHostname:      config.WebProxyHostname,
		WebProxyAltHostname:   config.WebProxyAltHostname,
		WebProxyPort:          config.WebProxyPort,
		WebProxyUseHTTP:       config.WebProxyUseHTTP,
		WebProxyVerifyTLS:     config.WebProxyVerifyTLS,
		Username:              config.Username,
		Password:              config.Password,
		ControllerA:           config.ControllerA,
		ControllerB:           config.ControllerB,
		PasswordArray:         config.PasswordArray,
		PoolNameSearchPattern: config.PoolNameSearchPattern,
		Protocol:              d.Protocol(),
		DriverName:            config.CommonStorageDriverConfig.StorageDriverName,
		Telemetry:             telemetry,
		ConfigVersion:         config.CommonStorageDriverConfig.Version,
		DebugTraceFlags:       config.CommonStorageDriverConfig.DebugTraceFlags,
	})

	// Connect to web services proxy
	if _, err := d.API.Connect(); err != nil {
		return fmt.Errorf("could not connect to Web Services Proxy: %v", err)
	}

	// Log controller serial numbers
	d.Config.SerialNumbers, err = d.API.ListNodeSerialNumbers()
	if err != nil {
		log.Warnf("Could not determine controller serial numbers. %v", err)
	} else {
		log.WithFields(log.Fields{
			"serialNumbers": strings.Join(d.Config.SerialNumbers, ","),
		}).Info("Controller serial numbers.")
	}

	d.Mapper = mapper.NewMappingCoordinator(d.API, mapper.CoordinatorConfig{
		HostType:             config.HostType,
		MultiAttachGroupName: config.AccessGroup,
		AutoDeregisterHosts:  config.AutoDeregisterHosts,
		DebugTraceFlags:      config.DebugTraceFlags,
	})

	d.Pools = api.NewPoolCatalog(d.API)
	if err := d.Pools.Refresh(); err != nil {
		log.Warnf("Could not prime the storage pool catalog. %v", err)
	}
	if config.PoolRefreshSeconds > 0 {
		d.Pools.StartBackgroundRefresh(time.Duration(config.PoolRefreshSeconds) * time.Second)
	}

	d.initialized = true
	return nil
}

func (d *SANStorageDriver) Initialized() bool {
	return d.initialized
}

func (d *SANStorageDriver) Terminate() {

	if d.Config.DebugTraceFlags["method"] {
		fields := log.Fields{"Method": "Terminate", "Type": "SANStorageDriver"}
		log.WithFields(fields).Debug(">>>> Terminate")
		defer log.WithFields(fields).Debug("<<<< Terminate")
	}

	if d.Pools != nil {
		d.Pools.Stop()
	}

	d.initialized = false
}

// populateConfigurationDefaults fills in default values for configuration settings if not supplied in the config file
func (d *SANStorageDriver) populateConfigurationDefaults(config *drivers.ESeriesStorageDriverConfig) error {

	if config.DebugTraceFlags["method"] {
		fields := log.Fields{"Method": "populateConfigurationDefaults", "Type": "SANStorageDriver"}
		log.WithFields(fields).Debug(">>>> populateConfigurationDefaults")
		defer log.WithFields(fields).Debug("<<<< populateConfigurationDefaults")
	}

	if config.StoragePrefix == nil {
		prefix := mapperconfig.DefaultStoragePrefix
		config.StoragePrefix = &prefix
	}
	if config.AccessGroup == "" {
		config.AccessGroup = mapperconfig.DefaultAccessGroup
	}
	if config.HostType == "" {
		config.HostType = mapperconfig.DefaultHostType
	}
	if config.PoolNameSearchPattern == "" {
		config.PoolNameSearchPattern = ".+"
	}

	// Ensure the default volume size is valid, using a "default default" of 1G if not set
	if config.Size == "" {
		config.Size = drivers.DefaultVolumeSize
	} else {
		_, err := utils.ConvertSizeToBytes(config.Size)
		if err != nil {
			return fmt.Errorf("invalid config value for default volume size: %v", err)
		}
	}

	log.WithFields(log.Fields{
		"StoragePrefix":         *config.StoragePrefix,
		"AccessGroup":           config.AccessGroup,
		"HostType":              config.HostType,
		"PoolNameSearchPattern": config.PoolNameSearchPattern,
		"Size":                  config.Size,
	}).Debugf("Configuration defaults")

	return nil
}

// Validate the driver configuration
func (d *SANStorageDriver) validate() error {

	if d.Config.DebugTraceFlags["method"] {
		fields := log.Fields{"Method": "validate", "Type": "SANStorageDriver"}
		log.WithFields(fields).Debug(">>>> validate")
		defer log.WithFields(fields).Debug("<<<< validate")
	}

	// Make sure the essential information was specified in the config
	if d.Config.WebProxyHostname == "" {
		return errors.New("WebProxyHostname is empty! You must specify the host/IP for the Web Services Proxy")
	}
	if d.Config.ControllerA == "" || d.Config.ControllerB == "" {
		return errors.New("ControllerA or ControllerB are empty! You must specify the host/IP for the " +
			"E-Series storage array. If it is a simplex array just specify the same host/IP twice")
	}
	if d.Config.HostDataIP == "" {
		return errors.New("HostDataIP is empty! You need to specify at least one of the iSCSI interface " +
			"IP addresses that is connected to the E-Series array")
	}

	return nil
}

// Create provisions a volume on the array. Besides the volume name, a few optional parameters such
// as size and disk media type may be provided in the opts map. If more than one pool on the storage
// controller can satisfy the request, the one with the most free space is selected.
func (d *SANStorageDriver) Create(name string, sizeBytes uint64, opts map[string]string) error {

	if d.Config.DebugTraceFlags["method"] {
		fields := log.Fields{
			"Method": "Create",
			"Type":   "SANStorageDriver",
			"name":   name,
			"opts":   opts,
		}
		log.WithFields(fields).Debug(">>>> Create")
		defer log.WithFields(fields).Debug("<<<< Create")
	}

	if sizeBytes == 0 {
		defaultSize, _ := utils.ConvertSizeToBytes(d.Config.Size)
		sizeBytes, _ = strconv.ParseUint(defaultSize, 10, 64)
	}
	if sizeBytes < MinimumVolumeSizeBytes {
		return fmt.Errorf("requested volume size (%d bytes) is too small; the minimum volume size is %d bytes",
			sizeBytes, MinimumVolumeSizeBytes)
	}

	// Get media type, or all media types if not specified
	mediaType := utils.GetV(opts, "mediaType", "")

	// Check for a supported file system type
	fstype := strings.ToLower(utils.GetV(opts, "fstype|fileSystemType", "ext4"))
	switch fstype {
	case "xfs", "ext3", "ext4":
		log.WithFields(log.Fields{"fileSystemType": fstype, "name": name}).Debug("Filesystem format.")
	default:
		return fmt.Errorf("unsupported fileSystemType option: %s", fstype)
	}

	// Get pool name, or default to all pools if not specified
	poolName := utils.GetV(opts, "pool", "")

	// Select from the cached pool snapshot so each create does not pay for a proxy round trip
	pools, err := d.Pools.GetMatchingPools(mediaType, sizeBytes, poolName)
	if err != nil {
		return fmt.Errorf("create failed: %v", err)
	} else if len(pools) == 0 {
		return errors.New("create failed: no storage pools matched specified parameters")
	}

	log.Debugf("Got pools for create: %v", pools)

	// The snapshot is ordered largest free space first
	pool := pools[0]

	// Create the volume
	vol, err := d.API.CreateVolume(name, pool.VolumeGroupRef, sizeBytes, mediaType, fstype)
	if err != nil {
		return fmt.Errorf("could not create volume %s: %v", name, err)
	}

	log.WithFields(log.Fields{
		"Name":      name,
		"Size":      sizeBytes,
		"MediaType": mediaType,
		"VolumeRef": vol.VolumeRef,
		"Pool":      pool.Label,
	}).Debug("Create succeeded.")

	return nil
}

// Destroy deletes a volume from the array. The volume must be unmapped first.
func (d *SANStorageDriver) Destroy(name string) error {

	if d.Config.DebugTraceFlags["method"] {
		fields := log.Fields{
			"Method": "Destroy",
			"Type":   "SANStorageDriver",
			"name":   name,
		}
		log.WithFields(fields).Debug(">>>> Destroy")
		defer log.WithFields(fields).Debug("<<<< Destroy")
	}

	vol, err := d.API.GetVolume(name)
	if err != nil {
		return fmt.Errorf("could not find volume %s: %v", name, err)
	}

	if mapper.IsRefValid(vol.VolumeRef) {

		// Destroy volume on storage array
		if err := d.API.DeleteVolume(vol); err != nil {
			return fmt.Errorf("could not destroy volume %s: %v", name, err)
		}

	} else {

		// If volume was deleted on this storage for any reason, don't fail it here.
		log.WithField("Name", name).Warn("Could not find volume on array. Allowing deletion to proceed.")
	}

	return nil
}

// Publish maps a volume to the host described by the connector and returns the iSCSI access info
// the initiator needs to reach the LUN. The heavy lifting happens in the mapping coordinator; this
// method resolves the volume and assembles the publish info afterward.
func (d *SANStorageDriver) Publish(name string, connector mapper.Connector) (*drivers.VolumePublishInfo, error) {

	if d.Config.DebugTraceFlags["method"] {
		fields := log.Fields{
			"Method":    "Publish",
			"Type":      "SANStorageDriver",
			"name":      name,
			"initiator": connector.InitiatorPort,
		}
		log.WithFields(fields).Debug(">>>> Publish")
		defer log.WithFields(fields).Debug("<<<< Publish")
	}

	// Get the volume
	vol, err := d.API.GetVolume(name)
	if err != nil {
		return nil, fmt.Errorf("could not find volume %s: %v", name, err)
	}
	if !mapper.IsRefValid(vol.VolumeRef) {
		return nil, fmt.Errorf("could not find volume %s", name)
	}

	volume := mapper.Volume{VolumeRef: vol.VolumeRef, Label: vol.Label}

	mapping, err := d.Mapper.MapVolumeToHost(volume, connector, d.Config.MultiAttach)
	if err != nil {
		return nil, err
	}

	// Get target info
	targetSettings, err := d.API.GetTargetSettings()
	if err != nil {
		return nil, fmt.Errorf("could not get iSCSI target info: %v", err)
	}

	portals := make([]string, 0, len(targetSettings.Portals))
	for _, portal := range targetSettings.Portals {
		if portal.IPAddress.AddressType == "ipv4" {
			portals = append(portals, fmt.Sprintf("%s:%d", portal.IPAddress.Ipv4Address, portal.TCPListenPort))
		}
	}
	if len(portals) == 0 {
		return nil, errors.New("target has no active IPv4 iSCSI interfaces")
	}

	publishInfo := &drivers.VolumePublishInfo{
		IscsiTargetPortal: d.Config.HostDataIP,
		IscsiPortals:      portals,
		IscsiTargetIQN:    targetSettings.NodeName.IscsiNodeName,
		IscsiLunNumber:    int32(mapping.LunNumber),
		HostName:          connector.HostName,
	}
	if mapping.Type == mapper.MappingTypeGroup {
		publishInfo.HostGroup = d.Config.AccessGroup
	}

	log.WithFields(log.Fields{
		"volume":    name,
		"targetIQN": publishInfo.IscsiTargetIQN,
		"lunNumber": publishInfo.IscsiLunNumber,
	}).Debug("Published volume.")

	return publishInfo, nil
}

// Unpublish removes a volume's mapping for the host described by the connector. For shared
// host-group mappings, remainingAttachments tells the driver how many other attachments still
// rely on the mapping; the mapping is only removed when that count reaches zero.
func (d *SANStorageDriver) Unpublish(name string, connector mapper.Connector, remainingAttachments int) error {

	if d.Config.DebugTraceFlags["method"] {
		fields := log.Fields{
			"Method":    "Unpublish",
			"Type":      "SANStorageDriver",
			"name":      name,
			"initiator": connector.InitiatorPort,
		}
		log.WithFields(fields).Debug(">>>> Unpublish")
		defer log.WithFields(fields).Debug("<<<< Unpublish")
	}

	vol, err := d.API.GetVolume(name)
	if err != nil {
		return fmt.Errorf("could not find volume %s: %v", name, err)
	}
	if !mapper.IsRefValid(vol.VolumeRef) {
		return fmt.Errorf("could not find volume %s", name)
	}

	volume := mapper.Volume{VolumeRef: vol.VolumeRef, Label: vol.Label}

	return d.Mapper.UnmapVolumeFromHost(volume, connector, remainingAttachments)
}

// List returns the list of volumes associated with this backend.
func (d *SANStorageDriver) List() ([]string, error) {
	prefix := *d.Config.StoragePrefix

	if d.Config.DebugTraceFlags["method"] {
		fields := log.Fields{
			"Method": "List",
			"Type":   "SANStorageDriver",
			"prefix": prefix,
		}
		log.WithFields(fields).Debug(">>>> List")
		defer log.WithFields(fields).Debug("<<<< List")
	}

	volumeNames, err := d.API.ListVolumes()
	if err != nil {
		return nil, fmt.Errorf("could not get the list of volumes: %v", err)
	}

	// Filter out internal volumes
	filteredVolumeNames := make([]string, 0, len(volumeNames))
	reposRegex, _ := regexp.Compile(`^repos_\d{4}$`)
	for _, name := range volumeNames {
		if !reposRegex.MatchString(name) {
			filteredVolumeNames = append(filteredVolumeNames, name)
		}
	}

	if len(prefix) == 0 {

		// No prefix, so just return the whole list
		log.WithField("Count", len(filteredVolumeNames)).Debug("Returning list of all volume names.")
		return filteredVolumeNames, nil
	}

	// Return only the volume names with the specified prefix
	prefixedVolumeNames := make([]string, 0, len(filteredVolumeNames))
	for _, name := range filteredVolumeNames {

		if !strings.HasPrefix(name, prefix) {
			continue
		}

		// The prefix shouldn't be visible to the user
		prefixedVolumeNames = append(prefixedVolumeNames, strings.TrimPrefix(name, prefix))
	}

	log.WithFields(log.Fields{
		"Count":  len(prefixedVolumeNames),
		"Prefix": prefix,
	}).Debug("Returning list of prefixed volume names.")
	return prefixedVolumeNames, nil
}

// Get tests for the existence of a volume
func (d *SANStorageDriver) Get(name string) error {

	if d.Config.DebugTraceFlags["method"] {
		fields := log.Fields{
			"Method": "Get",
			"Type":   "SANStorageDriver",
			"name":   name,
		}
		log.WithFields(fields).Debug(">>>> Get")
		defer log.WithFields(fields).Debug("<<<< Get")
	}

	vol, err := d.API.GetVolume(name)
	if err != nil {
		return fmt.Errorf("could not find volume %s: %v", name, err)
	} else if !mapper.IsRefValid(vol.VolumeRef) {
		return fmt.Errorf("could not find volume %s", name)
	}
	log.WithField("volume", vol.Label).Debug("Found volume.")

	return nil
}

// GetInternalVolumeName returns the name the volume carries on the array. E-series has a
// 30-character limitation on volume names, so no combination of the usual caller-side name
// components is likely to fit; instead a Base64-encoded form of a new random (version 4) UUID
// is used, as the prefix plus original name rarely fits.
func (d *SANStorageDriver) GetInternalVolumeName(name string) string {

	uuid4string := uuid.New().String()
	b64string, err := d.uuidToBase64(uuid4string)
	if err != nil {
		// This is unlikely, but if the UUID encoding fails, just return the original string (capped to 30 chars)
		if len(name) > 30 {
			return name[0:30]
		}
		return name
	}

	log.WithFields(log.Fields{
		"Name":   name,
		"UUID":   uuid4string,
		"Base64": b64string,
	}).Debug("Created Base64 UUID for E-series volume name.")

	return b64string
}

func (d *SANStorageDriver) uuidToBase64(UUID string) (string, error) {

	// Strip out hyphens
	UUID = strings.Replace(UUID, "-", "", -1)

	// Convert hex chars to binary
	var bytes [16]byte
	_, err := hex.Decode(bytes[:], []byte(UUID))
	if err != nil {
		return "", err
	}

	// Convert binary to Base64
	encoded := base64.RawURLEncoding.EncodeToString(bytes[:])

	return encoded, nil
}

func (d *SANStorageDriver) base64ToUUID(b64 string) (string, error) {

	// Convert Base64 to binary
	decoded, err := base64.RawURLEncoding.DecodeString(b64)
	if err != nil {
		return "", fmt.Errorf("error decoding Base64 string %s", b64)
	}

	// Convert binary to hex chars
	UUID := hex.EncodeToString(decoded[:])

	// Add hyphens
	UUID = strings.Join([]string{UUID[:8], UUID[8:12], UUID[12:16], UUID[16:20], UUID[20:]}, "-")

	return UUID, nil
}

// GetExternalConfig returns a redacted view of the backend config suitable for reporting to callers.
func (d *SANStorageDriver) GetExternalConfig() interface{} {

	return &SANStorageDriverConfigExternal{
		CommonStorageDriverConfig: d.Config.CommonStorageDriverConfig,
		Username:                  d.Config.Username,
		ControllerA:               d.Config.ControllerA,
		ControllerB:               d.Config.ControllerB,
		HostDataIP:                d.Config.HostDataIP,
	}
}

// String implements stringer interface for the SANStorageDriver driver
func (d SANStorageDriver) String() string {

	// Cannot use GetExternalConfig as it contains log statements
	elements := []string{"API", "Mapper", "Pools"}

	if d.Config.DebugTraceFlags["sensitive"] {
		return utils.ToStringRedacted(&d, elements, d.Config)
	}

	return utils.ToStringRedacted(&d, append(elements, "Config"), nil)
}

// GoString implements GoStringer interface for the SANStorageDriver driver
func (d SANStorageDriver) GoString() string {
	return d.String()
}
