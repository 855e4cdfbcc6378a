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

// The client is the REST-backed array access layer for the mapping engine.
var _ mapper.ArrayClient = (*Client)(nil)

func toMapperHost(host HostEx) mapper.Host {

	ports := make([]mapper.HostPort, 0, len(host.Initiators))
	for _, initiator := range host.Initiators {
		switch initiator.NodeName.IoInterfaceType {
		case "iscsi":
			ports = append(ports, mapper.HostPort{
				Type:  "iscsi",
				Port:  initiator.NodeName.IscsiNodeName,
				Label: initiator.Label,
			})
		case "fc":
			ports = append(ports, mapper.HostPort{
				Type:  "fc",
				Port:  initiator.NodeName.RemoteNodeWWN,
				Label: initiator.Label,
			})
		}
	}

	return mapper.Host{
		HostRef:       host.HostRef,
		Label:         host.Label,
		HostTypeIndex: host.HostTypeIndex,
		GroupRef:      host.ClusterRef,
		Ports:         ports,
	}
}

// getHosts reads the raw host objects from the array.
func (d *Client) getHosts() ([]HostEx, error) {

	response, responseBody, err := d.InvokeAPI(nil, "GET", "/hosts")
	if err != nil {
		return nil, fmt.Errorf("API invocation failed. %v", err)
	}

	if response.StatusCode != http.StatusOK {
		return nil, Error{
			Code:    response.StatusCode,
			Message: "could not get hosts from array",
		}
	}

	hosts := make([]HostEx, 0)
	if err := json.Unmarshal(responseBody, &hosts); err != nil {
		return nil, fmt.Errorf("could not parse host data: %s; %v", string(responseBody), err)
	}

	return hosts, nil
}

// ListHosts returns all hosts defined on the array.
func (d *Client) ListHosts() ([]mapper.Host, error) {

	if d.config.DebugTraceFlags["method"] {
		fields := log.Fields{
			"Method": "ListHosts",
			"Type":   "Client",
		}
		log.WithFields(fields).Debug(">>>> ListHosts")
		defer log.WithFields(fields).Debug("<<<< ListHosts")
	}

	hosts, err := d.getHosts()
	if err != nil {
		return nil, err
	}

	result := make([]mapper.Host, 0, len(hosts))
	for _, host := range hosts {
		result = append(result, toMapperHost(host))
	}

	log.WithField("Count", len(result)).Debug("Read hosts.")

	return result, nil
}

// CreateHost creates a Host on the array. If a group ref is specified, the Host is placed in that group.
func (d *Client) CreateHost(
	label string, hostTypeIndex int, ports []mapper.HostPort, groupRef string,
) (mapper.Host, error) {

	if d.config.DebugTraceFlags["method"] {
		fields := log.Fields{
			"Method":        "CreateHost",
			"Type":          "Client",
			"label":         label,
			"hostTypeIndex": hostTypeIndex,
			"groupRef":      groupRef,
		}
		log.WithFields(fields).Debug(">>>> CreateHost")
		defer log.WithFields(fields).Debug("<<<< CreateHost")
	}

	// Set up the host create request
	var request HostCreateRequest
	request.Name = label
	request.HostType.Index = hostTypeIndex
	if mapper.IsRefValid(groupRef) {
		request.GroupID = groupRef
	}
	request.Ports = make([]HostPort, 0, len(ports))
	for _, port := range ports {
		request.Ports = append(request.Ports, HostPort{
			Type:  port.Type,
			Port:  port.Port,
			Label: port.Label,
		})
	}

	jsonRequest, err := json.Marshal(request)
	if err != nil {
		return mapper.Host{}, fmt.Errorf("could not marshal JSON request: %v; %v", request, err)
	}

	// Create the host
	response, responseBody, err := d.InvokeAPI(jsonRequest, "POST", "/hosts")
	if err != nil {
		return mapper.Host{}, fmt.Errorf("API invocation failed. %v", err)
	}

	if response.StatusCode != http.StatusCreated && response.StatusCode != http.StatusOK {
		return mapper.Host{}, Error{
			Code:    response.StatusCode,
			Message: fmt.Sprintf("could not create host %s", label),
		}
	}

	// Parse JSON data
	host := HostEx{}
	if err := json.Unmarshal(responseBody, &host); err != nil {
		return mapper.Host{}, fmt.Errorf("could not parse host data: %s; %v", string(responseBody), err)
	}

	log.WithFields(log.Fields{
		"Name":          host.Label,
		"HostRef":       host.HostRef,
		"ClusterRef":    host.ClusterRef,
		"HostTypeIndex": host.HostTypeIndex,
	}).Debug("Created host.")

	return toMapperHost(host), nil
}

// updateHost posts a partial host update and returns the resulting host.
func (d *Client) updateHost(hostRef string, request HostUpdateRequest) (mapper.Host, error) {

	jsonRequest, err := json.Marshal(request)
	if err != nil {
		return mapper.Host{}, fmt.Errorf("could not marshal JSON request: %v; %v", request, err)
	}

	response, responseBody, err := d.InvokeAPI(jsonRequest, "POST", "/hosts/"+hostRef)
	if err != nil {
		return mapper.Host{}, fmt.Errorf("API invocation failed. %v", err)
	}

	if response.StatusCode != http.StatusOK {
		return mapper.Host{}, Error{
			Code:    response.StatusCode,
			Message: fmt.Sprintf("could not update host %s", hostRef),
		}
	}

	host := HostEx{}
	if err := json.Unmarshal(responseBody, &host); err != nil {
		return mapper.Host{}, fmt.Errorf("could not parse host data: %s; %v", string(responseBody), err)
	}

	return toMapperHost(host), nil
}

// UpdateHostType changes the host personality of an existing host.
func (d *Client) UpdateHostType(hostRef string, hostTypeIndex int) (mapper.Host, error) {

	if d.config.DebugTraceFlags["method"] {
		fields := log.Fields{
			"Method":        "UpdateHostType",
			"Type":          "Client",
			"hostRef":       hostRef,
			"hostTypeIndex": hostTypeIndex,
		}
		log.WithFields(fields).Debug(">>>> UpdateHostType")
		defer log.WithFields(fields).Debug("<<<< UpdateHostType")
	}

	request := HostUpdateRequest{
		HostType: &HostType{Index: hostTypeIndex},
	}

	host, err := d.updateHost(hostRef, request)
	if err != nil {
		return mapper.Host{}, err
	}

	log.WithFields(log.Fields{
		"Name":          host.Label,
		"HostRef":       host.HostRef,
		"HostTypeIndex": host.HostTypeIndex,
	}).Debug("Updated host type.")

	return host, nil
}

// RemoveHostPort deregisters a single initiator port from a host. The port is identified by its
// initiator name (IQN or WWPN) since that is what callers know; the array wants the initiator ref.
func (d *Client) RemoveHostPort(hostRef string, port string) (mapper.Host, error) {

	if d.config.DebugTraceFlags["method"] {
		fields := log.Fields{
			"Method":  "RemoveHostPort",
			"Type":    "Client",
			"hostRef": hostRef,
			"port":    port,
		}
		log.WithFields(fields).Debug(">>>> RemoveHostPort")
		defer log.WithFields(fields).Debug("<<<< RemoveHostPort")
	}

	hosts, err := d.getHosts()
	if err != nil {
		return mapper.Host{}, err
	}

	initiatorRef := ""
	for _, host := range hosts {
		if host.HostRef != hostRef {
			continue
		}
		for _, initiator := range host.Initiators {
			if initiator.NodeName.IscsiNodeName == port || initiator.NodeName.RemoteNodeWWN == port {
				initiatorRef = initiator.InitiatorRef
				break
			}
		}
	}

	if initiatorRef == "" {
		return mapper.Host{}, errors.NotFoundError("port %s is not registered to host %s", port, hostRef)
	}

	request := HostUpdateRequest{
		PortsToRemove: []string{initiatorRef},
	}

	host, err := d.updateHost(hostRef, request)
	if err != nil {
		return mapper.Host{}, err
	}

	log.WithFields(log.Fields{
		"Name":    host.Label,
		"HostRef": host.HostRef,
		"Port":    port,
	}).Debug("Removed host port.")

	return host, nil
}

// DeleteHost removes a host definition from the array. Deleting an absent host is not an error.
func (d *Client) DeleteHost(hostRef string) error {

	if d.config.DebugTraceFlags["method"] {
		fields := log.Fields{
			"Method":  "DeleteHost",
			"Type":    "Client",
			"hostRef": hostRef,
		}
		log.WithFields(fields).Debug(">>>> DeleteHost")
		defer log.WithFields(fields).Debug("<<<< DeleteHost")
	}

	response, responseBody, err := d.InvokeAPI(nil, "DELETE", "/hosts/"+hostRef)
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
		apiError.Message = fmt.Sprintf("could not delete host %s; %s", hostRef, apiError.Message)
		return apiError
	}

	log.WithField("HostRef", hostRef).Debug("Deleted host.")

	return nil
}

// HostTypeIndex resolves a host type name to the index by which the array knows it. The value may
// be a friendly name such as "linux_dm_mp" or a raw E-series host type code. Unresolvable values
// fall back to the standard Linux DM-MPIO multipath driver, then to index 0, the factory default.
func (d *Client) HostTypeIndex(hostType string) (int, error) {

	if d.config.DebugTraceFlags["method"] {
		fields := log.Fields{
			"Method":   "HostTypeIndex",
			"Type":     "Client",
			"hostType": hostType,
		}
		log.WithFields(fields).Debug(">>>> HostTypeIndex")
		defer log.WithFields(fields).Debug("<<<< HostTypeIndex")
	}

	hostTypeIndex := -1
	var err error

	// Try the mapped values first
	if code, ok := HostTypes[hostType]; ok {
		hostTypeIndex, err = d.getIndexForHostType(code)
		if err != nil {
			return -1, err
		}
	}

	// If not found, try matching the E-series host type codes directly
	if hostTypeIndex == -1 {
		hostTypeIndex, err = d.getIndexForHostType(hostType)
		if err != nil {
			return -1, err
		}
	}

	// If still not found, fall back to standard Linux DM-MPIO multipath driver
	if hostTypeIndex == -1 {
		hostTypeIndex, err = d.getIndexForHostType("LnxALUA")
		if err != nil {
			return -1, err
		}
	}

	// Failing that, use index 0, which should be the factory default
	if hostTypeIndex == -1 {
		hostTypeIndex = 0
	}

	return hostTypeIndex, nil
}

// getIndexForHostType queries the array for a host type matching the specified code. If found, it returns the
// index by which the type is known on the array. If not found, it returns -1.
func (d *Client) getIndexForHostType(hostTypeCode string) (int, error) {

	// Get host types
	response, responseBody, err := d.InvokeAPI(nil, "GET", "/host-types")
	if err != nil {
		return -1, fmt.Errorf("API invocation failed. %v", err)
	}

	if response.StatusCode != http.StatusOK {
		return -1, Error{
			Code:    response.StatusCode,
			Message: "could not get host types from array",
		}
	}

	// Parse JSON data
	hostTypes := make([]HostType, 0)
	if err := json.Unmarshal(responseBody, &hostTypes); err != nil {
		return -1, fmt.Errorf("could not parse host type data: %s; %v", string(responseBody), err)
	}

	// Find host type with matching code
	for _, hostType := range hostTypes {
		if hostType.Code == hostTypeCode {

			log.WithFields(log.Fields{
				"Name":  hostType.Name,
				"Index": hostType.Index,
				"Code":  hostType.Code,
			}).Debug("Host type found.")

			return hostType.Index, nil
		}
	}

	log.WithField("Code", hostTypeCode).Debug("Host type not found.")
	return -1, nil
}

// GetHostGroupByName returns the host group with the specified label, or a NotFoundError if no
// group carries that label.
func (d *Client) GetHostGroupByName(label string) (mapper.HostGroup, error) {

	if d.config.DebugTraceFlags["method"] {
		fields := log.Fields{
			"Method": "GetHostGroupByName",
			"Type":   "Client",
			"label":  label,
		}
		log.WithFields(fields).Debug(">>>> GetHostGroupByName")
		defer log.WithFields(fields).Debug("<<<< GetHostGroupByName")
	}

	// Get host groups
	response, responseBody, err := d.InvokeAPI(nil, "GET", "/host-groups")
	if err != nil {
		return mapper.HostGroup{}, fmt.Errorf("API invocation failed. %v", err)
	}

	if response.StatusCode != http.StatusOK {
		return mapper.HostGroup{}, Error{
			Code:    response.StatusCode,
			Message: "could not get host groups from array",
		}
	}

	// Parse JSON data
	hostGroups := make([]HostGroup, 0)
	if err := json.Unmarshal(responseBody, &hostGroups); err != nil {
		return mapper.HostGroup{}, fmt.Errorf("could not parse host group data: %s; %v", string(responseBody), err)
	}

	for _, hostGroup := range hostGroups {
		if hostGroup.Label == label {
			return mapper.HostGroup{
				ClusterRef: hostGroup.ClusterRef,
				Label:      hostGroup.Label,
			}, nil
		}
	}

	return mapper.HostGroup{}, errors.NotFoundError("host group %s was not found", label)
}

// CreateHostGroup creates a host group with the specified label. If the array reports the label is
// already taken, an AlreadyExistsError is returned so the caller may re-read the winner.
func (d *Client) CreateHostGroup(label string) (mapper.HostGroup, error) {

	if d.config.DebugTraceFlags["method"] {
		fields := log.Fields{
			"Method": "CreateHostGroup",
			"Type":   "Client",
			"label":  label,
		}
		log.WithFields(fields).Debug(">>>> CreateHostGroup")
		defer log.WithFields(fields).Debug("<<<< CreateHostGroup")
	}

	// Set up the host group create request
	request := HostGroupCreateRequest{
		Name:  label,
		Hosts: make([]string, 0),
	}

	jsonRequest, err := json.Marshal(request)
	if err != nil {
		return mapper.HostGroup{}, fmt.Errorf("could not marshal JSON request: %v; %v", request, err)
	}

	// Create the host group
	response, responseBody, err := d.InvokeAPI(jsonRequest, "POST", "/host-groups")
	if err != nil {
		return mapper.HostGroup{}, fmt.Errorf("API invocation failed. %v", err)
	}

	// A duplicate label surfaces as a conflict or a 422 with error detail
	if response.StatusCode == http.StatusConflict || response.StatusCode == http.StatusUnprocessableEntity {
		apiError := d.getErrorFromHTTPResponse(response, responseBody)
		return mapper.HostGroup{}, errors.WrapWithAlreadyExistsError(apiError,
			"host group %s already exists", label)
	}

	if response.StatusCode != http.StatusCreated && response.StatusCode != http.StatusOK {
		return mapper.HostGroup{}, Error{
			Code:    response.StatusCode,
			Message: fmt.Sprintf("could not create host group %s", label),
		}
	}

	// Parse JSON data
	hostGroup := HostGroup{}
	if err := json.Unmarshal(responseBody, &hostGroup); err != nil {
		return mapper.HostGroup{}, fmt.Errorf("could not parse host group data: %s; %v", string(responseBody), err)
	}

	log.WithFields(log.Fields{
		"Name":       hostGroup.Label,
		"ClusterRef": hostGroup.ClusterRef,
	}).Debug("Created host group.")

	return mapper.HostGroup{
		ClusterRef: hostGroup.ClusterRef,
		Label:      hostGroup.Label,
	}, nil
}

// SetHostGroupForHost moves a host into the specified host group.
func (d *Client) SetHostGroupForHost(hostRef, groupRef string) error {

	if d.config.DebugTraceFlags["method"] {
		fields := log.Fields{
			"Method":   "SetHostGroupForHost",
			"Type":     "Client",
			"hostRef":  hostRef,
			"groupRef": groupRef,
		}
		log.WithFields(fields).Debug(">>>> SetHostGroupForHost")
		defer log.WithFields(fields).Debug("<<<< SetHostGroupForHost")
	}

	request := HostUpdateRequest{
		GroupID: groupRef,
	}

	host, err := d.updateHost(hostRef, request)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"Name":       host.Label,
		"HostRef":    host.HostRef,
		"ClusterRef": host.GroupRef,
	}).Debug("Host added to host group.")

	return nil
}
