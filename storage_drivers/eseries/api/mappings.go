// Copyright 2025 NetApp, Inc. All Rights Reserved.

package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/netapp/eseries-mapper/mapper"
	"github.com/netapp/eseries-mapper/utils/errors"
)

func toMapperMapping(mapping LUNMapping) mapper.VolumeMapping {
	return mapper.VolumeMapping{
		MappingRef: mapping.LunMappingRef,
		VolumeRef:  mapping.VolumeRef,
		TargetRef:  mapping.MapRef,
		LunNumber:  mapping.LunNumber,
		Type:       mapper.MappingType(mapping.Type),
	}
}

// GetVolumeMappings returns every LUN mapping defined on the array.
func (d *Client) GetVolumeMappings() ([]mapper.VolumeMapping, error) {

	if d.config.DebugTraceFlags["method"] {
		fields := log.Fields{
			"Method": "GetVolumeMappings",
			"Type":   "Client",
		}
		log.WithFields(fields).Debug(">>>> GetVolumeMappings")
		defer log.WithFields(fields).Debug("<<<< GetVolumeMappings")
	}

	response, responseBody, err := d.InvokeAPI(nil, "GET", "/volume-mappings")
	if err != nil {
		return nil, fmt.Errorf("API invocation failed. %v", err)
	}

	if response.StatusCode != http.StatusOK {
		return nil, Error{
			Code:    response.StatusCode,
			Message: "could not get volume mappings from array",
		}
	}

	mappings := make([]LUNMapping, 0)
	if err := json.Unmarshal(responseBody, &mappings); err != nil {
		return nil, fmt.Errorf("could not parse volume mapping data: %s; %v", string(responseBody), err)
	}

	result := make([]mapper.VolumeMapping, 0, len(mappings))
	for _, mapping := range mappings {
		result = append(result, toMapperMapping(mapping))
	}

	log.WithField("Count", len(result)).Debug("Read volume mappings.")

	return result, nil
}

// GetVolumeMappingsForVolume returns the mappings that reference the specified volume. The Web
// Services Proxy has no server-side filtering, so the full table is read and filtered here.
func (d *Client) GetVolumeMappingsForVolume(volumeRef string) ([]mapper.VolumeMapping, error) {

	mappings, err := d.GetVolumeMappings()
	if err != nil {
		return nil, err
	}

	filtered := make([]mapper.VolumeMapping, 0)
	for _, mapping := range mappings {
		if mapping.VolumeRef == volumeRef {
			filtered = append(filtered, mapping)
		}
	}

	return filtered, nil
}

// GetVolumeMappingsForHost returns the mappings whose target is the specified host.
func (d *Client) GetVolumeMappingsForHost(hostRef string) ([]mapper.VolumeMapping, error) {

	mappings, err := d.GetVolumeMappings()
	if err != nil {
		return nil, err
	}

	filtered := make([]mapper.VolumeMapping, 0)
	for _, mapping := range mappings {
		if mapping.Type == mapper.MappingTypeHost && mapping.TargetRef == hostRef {
			filtered = append(filtered, mapping)
		}
	}

	return filtered, nil
}

// GetVolumeMappingsForHostGroup returns the mappings whose target is the specified host group.
func (d *Client) GetVolumeMappingsForHostGroup(groupRef string) ([]mapper.VolumeMapping, error) {

	mappings, err := d.GetVolumeMappings()
	if err != nil {
		return nil, err
	}

	filtered := make([]mapper.VolumeMapping, 0)
	for _, mapping := range mappings {
		if mapping.Type == mapper.MappingTypeGroup && mapping.TargetRef == groupRef {
			filtered = append(filtered, mapping)
		}
	}

	return filtered, nil
}

// CreateVolumeMapping maps a volume to a host or host group at an explicit LUN number. The Web
// Services Proxy answers HTTP 422 when a conflicting mapping appeared between the caller's read
// and this write; that case surfaces as a RaceConditionError so the caller can re-read and retry.
func (d *Client) CreateVolumeMapping(volumeRef, targetRef string, lun int) (mapper.VolumeMapping, error) {

	if d.config.DebugTraceFlags["method"] {
		fields := log.Fields{
			"Method":    "CreateVolumeMapping",
			"Type":      "Client",
			"volumeRef": volumeRef,
			"targetRef": targetRef,
			"lun":       lun,
		}
		log.WithFields(fields).Debug(">>>> CreateVolumeMapping")
		defer log.WithFields(fields).Debug("<<<< CreateVolumeMapping")
	}

	request := VolumeMappingCreateRequest{
		MappableObjectID: volumeRef,
		TargetID:         targetRef,
		LunNumber:        lun,
	}

	jsonRequest, err := json.Marshal(request)
	if err != nil {
		return mapper.VolumeMapping{}, fmt.Errorf("could not marshal JSON request: %v; %v", request, err)
	}

	// Create the mapping
	response, responseBody, err := d.InvokeAPI(jsonRequest, "POST", "/volume-mappings")
	if err != nil {
		return mapper.VolumeMapping{}, fmt.Errorf("API invocation failed. %v", err)
	}

	if response.StatusCode == http.StatusUnprocessableEntity {
		apiError := d.getErrorFromHTTPResponse(response, responseBody)
		return mapper.VolumeMapping{}, errors.WrapWithRaceConditionError(apiError,
			"could not map volume %s to %s at LUN %d", volumeRef, targetRef, lun)
	}

	if response.StatusCode != http.StatusOK && response.StatusCode != http.StatusCreated {
		return mapper.VolumeMapping{}, Error{
			Code:    response.StatusCode,
			Message: fmt.Sprintf("could not map volume %s", volumeRef),
		}
	}

	// Parse JSON data
	mapping := LUNMapping{}
	if err := json.Unmarshal(responseBody, &mapping); err != nil {
		return mapper.VolumeMapping{}, fmt.Errorf("could not parse volume mapping data: %s; %v",
			string(responseBody), err)
	}

	log.WithFields(log.Fields{
		"VolumeRef": mapping.VolumeRef,
		"MapRef":    mapping.MapRef,
		"Type":      mapping.Type,
		"LunNumber": mapping.LunNumber,
	}).Debug("Volume mapped.")

	return toMapperMapping(mapping), nil
}

// DeleteVolumeMapping removes a LUN mapping from the array. Removing an absent mapping is not an error.
func (d *Client) DeleteVolumeMapping(mappingRef string) error {

	if d.config.DebugTraceFlags["method"] {
		fields := log.Fields{
			"Method":     "DeleteVolumeMapping",
			"Type":       "Client",
			"mappingRef": mappingRef,
		}
		log.WithFields(fields).Debug(">>>> DeleteVolumeMapping")
		defer log.WithFields(fields).Debug("<<<< DeleteVolumeMapping")
	}

	response, responseBody, err := d.InvokeAPI(nil, "DELETE", "/volume-mappings/"+mappingRef)
	if err != nil {
		return fmt.Errorf("API invocation failed. %v", err)
	}

	switch response.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent:
	case http.StatusNotFound:
	case http.StatusGone:
		break
	default:
		apiError := d.getErrorFromHTTPResponse(response, responseBody)
		apiError.Message = fmt.Sprintf("could not unmap volume mapping %s; %s", mappingRef, apiError.Message)
		return apiError
	}

	log.WithField("MappingRef", mappingRef).Debug("Volume unmapped.")

	return nil
}
