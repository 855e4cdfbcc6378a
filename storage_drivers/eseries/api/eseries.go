// Copyright 2025 NetApp, Inc. All Rights Reserved.

// This package provides a high-level interface to the E-series Web Services Proxy REST API.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"

	mapperconfig "github.com/netapp/eseries-mapper/config"
)

const maxNameLength = 30
const defaultPoolSearchPattern = ".+"
const connectPath = "/devmgr/v2/storage-systems"

// ClientConfig holds configuration data for the API driver object.
type ClientConfig struct {
	// Web Proxy Services Info
	WebProxyHostname    string
	WebProxyAltHostname string
	WebProxyPort        string
	WebProxyUseHTTP     bool
	WebProxyVerifyTLS   bool
	Username            string
	Password            string

	// Array Info
	ControllerA   string
	ControllerB   string
	PasswordArray string

	// Options
	PoolNameSearchPattern string
	DebugTraceFlags       map[string]bool
	Timeout               int // seconds; zero means the orchestrator default

	// Internal Config Variables
	ArrayID                       string // Unique ID for array once added to web proxy services
	CompiledPoolNameSearchPattern *regexp.Regexp

	// Storage protocol of the driver (iSCSI, FC, etc)
	Protocol string

	DriverName    string
	Telemetry     map[string]string
	ConfigVersion int
}

// Client is the object to use for interacting with the E-series API.
type Client struct {
	config    *ClientConfig
	transport *webProxyTransport
}

// NewAPIClient is a factory method for creating a new instance.
func NewAPIClient(config ClientConfig) *Client {
	c := &Client{
		config: &config,
	}

	// Initialize internal config variables
	c.config.ArrayID = ""

	compiledRegex, err := regexp.Compile(c.config.PoolNameSearchPattern)
	if err != nil {
		log.WithFields(log.Fields{
			"PoolNameSearchPattern": c.config.PoolNameSearchPattern,
			"DefaultSearchPattern":  defaultPoolSearchPattern,
			"Error":                 err,
		}).Warn("Could not compile PoolNameSearchPattern regular expression, using default pattern.")
		compiledRegex, _ = regexp.Compile(defaultPoolSearchPattern)
	}
	c.config.CompiledPoolNameSearchPattern = compiledRegex

	c.transport = newWebProxyTransport(c.config)

	return c
}

// HTTPClient exposes the underlying HTTP client so callers may customize transport behavior.
func (d *Client) HTTPClient() *http.Client {
	return d.transport.httpClient
}

func (d *Client) makeVolumeTags() []VolumeTag {

	return []VolumeTag{
		{"IF", d.config.Protocol},
		{"version", d.config.Telemetry["version"]},
		{"platform", mapperconfig.OrchestratorTelemetry.Platform},
		{"platformVersion", mapperconfig.OrchestratorTelemetry.PlatformVersion},
		{"plugin", d.config.Telemetry["plugin"]},
		{"storagePrefix", d.config.Telemetry["storagePrefix"]},
	}
}

// InvokeAPI makes a REST call against the storage system managed by this client. The body must be
// a marshaled JSON byte array (or nil). The method is the HTTP verb (i.e. GET, POST, ...). The
// resource path is appended to the array's base URL; it should start with '/'.
func (d *Client) InvokeAPI(requestBody []byte, method string, resourcePath string) (*http.Response, []byte, error) {
	return d.transport.Invoke(requestBody, method, connectPath+"/"+d.config.ArrayID+resourcePath)
}

// Connect registers the storage array with the Web Services Proxy and records the resulting array ID.
func (d *Client) Connect() (string, error) {

	if d.config.DebugTraceFlags["method"] {
		fields := log.Fields{
			"Method": "Connect",
			"Type":   "Client",
		}
		log.WithFields(fields).Debug(">>>> Connect")
		defer log.WithFields(fields).Debug("<<<< Connect")
	}

	// Send a login/connect request for array to web services proxy
	request := MsgConnect{[]string{d.config.ControllerA, d.config.ControllerB}, d.config.PasswordArray}

	jsonRequest, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("could not marshal JSON request: %v; %v", request, err)
	}

	// Send the message
	response, responseBody, err := d.transport.Invoke(jsonRequest, "POST", connectPath)
	if err != nil {
		return "", fmt.Errorf("could not log into the Web Services Proxy: %v", err)
	}

	if response.StatusCode != http.StatusCreated && response.StatusCode != http.StatusOK {
		return "", Error{
			Code:    response.StatusCode,
			Message: "could not add storage array to Web Services Proxy",
		}
	}

	// Parse JSON data
	responseData := MsgConnectResponse{}
	if err := json.Unmarshal(responseBody, &responseData); err != nil {
		return "", fmt.Errorf("could not parse connect response: %s; %v", string(responseBody), err)
	}

	if responseData.ArrayID == "" {
		return "", errors.New("invalid ArrayID received from Web Services Proxy")
	}

	d.config.ArrayID = responseData.ArrayID
	alreadyRegistered := responseData.AlreadyExists

	log.WithFields(log.Fields{
		"ArrayID":           d.config.ArrayID,
		"AlreadyRegistered": alreadyRegistered,
	}).Debug("Connected to Web Services Proxy.")

	return d.config.ArrayID, nil
}

// GetControllers returns an array containing all the controllers in the storage system.
func (d *Client) GetControllers() ([]Controller, error) {

	if d.config.DebugTraceFlags["method"] {
		fields := log.Fields{
			"Method": "GetControllers",
			"Type":   "Client",
		}
		log.WithFields(fields).Debug(">>>> GetControllers")
		defer log.WithFields(fields).Debug("<<<< GetControllers")
	}

	response, responseBody, err := d.InvokeAPI(nil, "GET", "/controllers")
	if err != nil {
		return nil, errors.New("could not read controllers")
	}

	if response.StatusCode != http.StatusOK {
		return nil, Error{
			Code:    response.StatusCode,
			Message: "could not read controllers",
		}
	}

	controllers := make([]Controller, 0)
	err = json.Unmarshal(responseBody, &controllers)
	if err != nil {
		return nil, fmt.Errorf("could not parse controller data: %s. %v", string(responseBody), err)
	}

	log.WithField("Count", len(controllers)).Debug("Read controllers.")

	return controllers, nil
}

// ListNodeSerialNumbers returns an array containing the controller serial numbers for this storage system.
func (d *Client) ListNodeSerialNumbers() ([]string, error) {

	if d.config.DebugTraceFlags["method"] {
		fields := log.Fields{
			"Method": "ListNodeSerialNumbers",
			"Type":   "Client",
		}
		log.WithFields(fields).Debug(">>>> ListNodeSerialNumbers")
		defer log.WithFields(fields).Debug("<<<< ListNodeSerialNumbers")
	}

	serialNumbers := make([]string, 0)

	controllers, err := d.GetControllers()
	if err != nil {
		return serialNumbers, err
	}

	// Get the serial numbers
	for _, controller := range controllers {
		serialNumber := strings.TrimSpace(controller.SerialNumber)
		if serialNumber != "" {
			serialNumbers = append(serialNumbers, serialNumber)
		}
	}

	log.WithFields(log.Fields{
		"Count":         len(serialNumbers),
		"SerialNumbers": strings.Join(serialNumbers, ","),
	}).Debug("Read serial numbers.")

	return serialNumbers, nil
}

// GetVolumes returns an array containing all the volumes on the array.
func (d *Client) GetVolumes() ([]VolumeEx, error) {

	if d.config.DebugTraceFlags["method"] {
		fields := log.Fields{
			"Method": "GetVolumes",
			"Type":   "Client",
		}
		log.WithFields(fields).Debug(">>>> GetVolumes")
		defer log.WithFields(fields).Debug("<<<< GetVolumes")
	}

	response, responseBody, err := d.InvokeAPI(nil, "GET", "/volumes")
	if err != nil {
		return nil, errors.New("failed to read volumes")
	}

	if response.StatusCode != http.StatusOK {
		return nil, Error{
			Code:    response.StatusCode,
			Message: "failed to read volumes",
		}
	}

	volumes := make([]VolumeEx, 0)
	err = json.Unmarshal(responseBody, &volumes)
	if err != nil {
		return nil, fmt.Errorf("could not parse volume data: %s. %v", string(responseBody), err)
	}

	log.WithField("Count", len(volumes)).Debug("Read volumes.")

	return volumes, nil
}

// ListVolumes returns an array containing all the volume names on the array.
func (d *Client) ListVolumes() ([]string, error) {

	if d.config.DebugTraceFlags["method"] {
		fields := log.Fields{
			"Method": "ListVolumes",
			"Type":   "Client",
		}
		log.WithFields(fields).Debug(">>>> ListVolumes")
		defer log.WithFields(fields).Debug("<<<< ListVolumes")
	}

	volumes, err := d.GetVolumes()
	if err != nil {
		return nil, err
	}

	volumeNames := make([]string, 0, len(volumes))

	for _, vol := range volumes {
		volumeNames = append(volumeNames, vol.Label)
	}

	log.WithField("Count", len(volumeNames)).Debug("Read volume names.")

	return volumeNames, nil
}

// GetVolume returns a volume structure from the array whose label matches the specified name. Use this method
// sparingly, at most once per workflow, because the Web Services Proxy does not support server-side filtering so the
// only choice is to read all volumes to find the one of interest. Most methods in this package operate on the returned
// VolumeEx structure, not the volume name, to minimize the need for calling this method.
func (d *Client) GetVolume(name string) (VolumeEx, error) {

	if d.config.DebugTraceFlags["method"] {
		fields := log.Fields{
			"Method": "GetVolume",
			"Type":   "Client",
			"name":   name,
		}
		log.WithFields(fields).Debug(">>>> GetVolume")
		defer log.WithFields(fields).Debug("<<<< GetVolume")
	}

	volumes, err := d.GetVolumes()
	if err != nil {
		return VolumeEx{}, err
	}

	for _, vol := range volumes {
		if vol.Label == name {
			return vol, nil
		}
	}

	return VolumeEx{}, nil
}

// GetVolumeByRef gets a single volume from the array.
func (d *Client) GetVolumeByRef(volumeRef string) (VolumeEx, error) {

	if d.config.DebugTraceFlags["method"] {
		fields := log.Fields{
			"Method":    "GetVolumeByRef",
			"Type":      "Client",
			"volumeRef": volumeRef,
		}
		log.WithFields(fields).Debug(">>>> GetVolumeByRef")
		defer log.WithFields(fields).Debug("<<<< GetVolumeByRef")
	}

	response, responseBody, err := d.InvokeAPI(nil, "GET", "/volumes/"+volumeRef)
	if err != nil {
		return VolumeEx{}, fmt.Errorf("API invocation failed. %v", err)
	}

	if response.StatusCode != http.StatusOK {
		return VolumeEx{}, Error{
			Code:    response.StatusCode,
			Message: "failed to read volume",
		}
	}

	var volume VolumeEx
	err = json.Unmarshal(responseBody, &volume)
	if err != nil {
		return VolumeEx{}, fmt.Errorf("could not parse volume data: %s. %v", string(responseBody), err)
	}

	return volume, nil
}

// CreateVolume creates a volume (i.e. a LUN) on the array, and it returns the resulting VolumeEx structure.
func (d *Client) CreateVolume(
	name string, volumeGroupRef string, size uint64, mediaType, fstype string,
) (VolumeEx, error) {

	if d.config.DebugTraceFlags["method"] {
		fields := log.Fields{
			"Method":         "CreateVolume",
			"Type":           "Client",
			"name":           name,
			"volumeGroupRef": volumeGroupRef,
			"size":           size,
			"mediaType":      mediaType,
		}
		log.WithFields(fields).Debug(">>>> CreateVolume")
		defer log.WithFields(fields).Debug("<<<< CreateVolume")
	}

	// Ensure that we do not exceed the maximum allowed volume length
	if len(name) > maxNameLength {
		return VolumeEx{}, fmt.Errorf("the volume name %v exceeds the maximum length of %d characters", name,
			maxNameLength)
	}

	// Copy static volume metadata and add fstype
	tags := d.makeVolumeTags()
	tags = append(tags, VolumeTag{"fstype", fstype})

	// Set up the volume create request
	request := VolumeCreateRequest{
		VolumeGroupRef: volumeGroupRef,
		Name:           name,
		SizeUnit:       "kb",
		Size:           int(size / 1024), // The API requires Size to be an int (not int64) so pass as an int but in KB.
		SegmentSize:    128,
		VolumeTags:     tags,
	}

	jsonRequest, err := json.Marshal(request)
	if err != nil {
		return VolumeEx{}, fmt.Errorf("could not marshal JSON request: %v; %v", request, err)
	}

	// Create the volume
	response, responseBody, err := d.InvokeAPI(jsonRequest, "POST", "/volumes")
	if err != nil {
		return VolumeEx{}, fmt.Errorf("API invocation failed. %v", err)
	}

	// Work around Web Services Proxy bug by re-reading the volume we (hopefully) just created
	if response.StatusCode == http.StatusUnprocessableEntity {

		log.Debug("Volume create failed with 422 response, attempting to re-read volume.")

		retryVolume, retryError := d.GetVolume(name)
		if retryError != nil {
			return VolumeEx{}, retryError
		}

		// Make sure the volume is legit by verifying it has the tag(s) we requested
		if !d.volumeHasTags(retryVolume, tags) {
			log.WithField("Name", retryVolume.Label).Debug("Re-read volume tags mismatch.")
			apiError := d.getErrorFromHTTPResponse(response, responseBody)
			apiError.Message = fmt.Sprintf("could not create volume %s; %s", name, apiError.Message)
			return VolumeEx{}, apiError
		}

		log.WithFields(log.Fields{
			"Name":           retryVolume.Label,
			"VolumeRef":      retryVolume.VolumeRef,
			"VolumeGroupRef": retryVolume.VolumeGroupRef,
		}).Debug("Created volume (re-read after HTTP 422).")

		return retryVolume, nil
	}

	if response.StatusCode != http.StatusOK {

		apiError := d.getErrorFromHTTPResponse(response, responseBody)
		apiError.Message = fmt.Sprintf("could not create volume %s; %s", name, apiError.Message)
		return VolumeEx{}, apiError

	} else {

		// Parse JSON volume data
		vol := VolumeEx{}
		if err := json.Unmarshal(responseBody, &vol); err != nil {
			return VolumeEx{}, fmt.Errorf("could not parse API response: %s; %v", string(responseBody), err)
		}

		log.WithFields(log.Fields{
			"Name":           vol.Label,
			"VolumeRef":      vol.VolumeRef,
			"VolumeGroupRef": vol.VolumeGroupRef,
		}).Debug("Created volume.")

		return vol, nil
	}
}

func (d *Client) volumeHasTags(volume VolumeEx, tags []VolumeTag) bool {

	for _, tag := range tags {

		tagFound := false

		for _, volumeTag := range volume.VolumeTags {
			if volumeTag.Equals(tag) {
				tagFound = true
				break
			}
		}

		if !tagFound {
			return false
		}
	}

	return true
}

// DeleteVolume deletes a volume from the array.
func (d *Client) DeleteVolume(volume VolumeEx) error {

	if d.config.DebugTraceFlags["method"] {
		fields := log.Fields{
			"Method": "DeleteVolume",
			"Type":   "Client",
			"name":   volume.Label,
		}
		log.WithFields(fields).Debug(">>>> DeleteVolume")
		defer log.WithFields(fields).Debug("<<<< DeleteVolume")
	}

	// Remove this volume from storage array
	response, responseBody, err := d.InvokeAPI(nil, "DELETE", "/volumes/"+volume.VolumeRef)
	if err != nil {
		return fmt.Errorf("API invocation failed. %v", err)
	}

	switch response.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent:
	case http.StatusUnprocessableEntity:
	case http.StatusNotFound:
	case http.StatusGone:
		break
	default:
		apiError := d.getErrorFromHTTPResponse(response, responseBody)
		apiError.Message = fmt.Sprintf("could not destroy volume %s; %s", volume.Label, apiError.Message)
		return apiError
	}

	log.WithFields(log.Fields{
		"Name":           volume.Label,
		"VolumeRef":      volume.VolumeRef,
		"VolumeGroupRef": volume.VolumeGroupRef,
	}).Debug("Deleted volume.")

	return nil
}

// GetTargetIQN returns the iSCSI target node name for the array.
func (d *Client) GetTargetIQN() (string, error) {

	settings, err := d.GetTargetSettings()
	if err != nil {
		return "", err
	}

	return settings.NodeName.IscsiNodeName, nil
}

// GetTargetSettings returns the iSCSI target settings for the array.
func (d *Client) GetTargetSettings() (*IscsiTargetSettings, error) {

	if d.config.DebugTraceFlags["method"] {
		fields := log.Fields{
			"Method": "GetTargetSettings",
			"Type":   "Client",
		}
		log.WithFields(fields).Debug(">>>> GetTargetSettings")
		defer log.WithFields(fields).Debug("<<<< GetTargetSettings")
	}

	// Query iSCSI target settings
	response, responseBody, err := d.InvokeAPI(nil, "GET", "/iscsi/target-settings")
	if err != nil {
		return nil, fmt.Errorf("API invocation failed. %v", err)
	}

	if response.StatusCode != http.StatusOK {
		return nil, Error{
			Code:    response.StatusCode,
			Message: "could not read iSCSI settings",
		}
	}

	var settings IscsiTargetSettings
	err = json.Unmarshal(responseBody, &settings)
	if err != nil {
		return nil, fmt.Errorf("could not parse iSCSI settings data: %s; %v", string(responseBody), err)
	}

	log.WithFields(log.Fields{
		"TargetIQN": settings.NodeName.IscsiNodeName,
	}).Debug("Got target iSCSI settings.")

	return &settings, nil
}

// getErrorFromHTTPResponse converts error information from some E-series API responses into GoLang error objects that
// embed the additional error text.
func (d *Client) getErrorFromHTTPResponse(response *http.Response, responseBody []byte) Error {

	if response.StatusCode == http.StatusNotFound || response.StatusCode == http.StatusUnprocessableEntity {

		// Parse JSON error data
		responseData := CallResponseError{}
		if err := json.Unmarshal(responseBody, &responseData); err != nil {
			return Error{
				Code:    response.StatusCode,
				Message: fmt.Sprintf("could not parse API error response: %s; %v", string(responseBody), err),
			}
		}

		return Error{
			Code: response.StatusCode,
			Message: fmt.Sprintf("API failed; Error: %s; Localized: %s",
				responseData.ErrorMsg, responseData.LocalizedMsg),
		}
	}

	// Other error
	return Error{
		Code:    response.StatusCode,
		Message: "API failed",
	}
}
