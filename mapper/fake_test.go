// Copyright 2025 NetApp, Inc. All Rights Reserved.

package mapper

import (
	"fmt"

	"github.com/netapp/eseries-mapper/utils/errors"
)

// fakeArrayClient is an in-memory ArrayClient that records mutations, so tests can assert both on
// outcomes and on which array calls were (or were not) issued.
type fakeArrayClient struct {
	hosts     []Host
	groups    []HostGroup
	mappings  []VolumeMapping
	hostTypes map[string]int

	refCounter int

	// error injection
	listHostsErr      error
	updateHostTypeErr error
	removeHostPortErr error
	deleteHostErr     error

	// hooks run before the real behavior, letting tests simulate concurrent writers
	createGroupHook   func() error
	createMappingHook func() error

	// call counters
	listHostsCalls     int
	createHostCalls    int
	createGroupCalls   int
	createMappingCalls int
	deleteMappingCalls int
	removePortCalls    int
	deleteHostCalls    int
}

func newFakeArrayClient() *fakeArrayClient {
	return &fakeArrayClient{
		hostTypes: map[string]int{"linux_dm_mp": 28, "vmware": 10},
	}
}

func (f *fakeArrayClient) newRef() string {
	f.refCounter++
	return fmt.Sprintf("%040d", f.refCounter)
}

func (f *fakeArrayClient) addHost(label, port string, hostTypeIndex int, groupRef string) Host {
	if groupRef == "" {
		groupRef = NullRef
	}
	host := Host{
		HostRef:       f.newRef(),
		Label:         label,
		HostTypeIndex: hostTypeIndex,
		GroupRef:      groupRef,
		Ports:         []HostPort{{Type: "iscsi", Port: port, Label: label + "_port"}},
	}
	f.hosts = append(f.hosts, host)
	return host
}

func (f *fakeArrayClient) addGroup(label string) HostGroup {
	group := HostGroup{ClusterRef: f.newRef(), Label: label}
	f.groups = append(f.groups, group)
	return group
}

func (f *fakeArrayClient) addMapping(volumeRef, targetRef string, lun int, mappingType MappingType) VolumeMapping {
	mapping := VolumeMapping{
		MappingRef: f.newRef(),
		VolumeRef:  volumeRef,
		TargetRef:  targetRef,
		LunNumber:  lun,
		Type:       mappingType,
	}
	f.mappings = append(f.mappings, mapping)
	return mapping
}

func (f *fakeArrayClient) ListHosts() ([]Host, error) {
	f.listHostsCalls++
	if f.listHostsErr != nil {
		return nil, f.listHostsErr
	}
	hosts := make([]Host, len(f.hosts))
	copy(hosts, f.hosts)
	return hosts, nil
}

func (f *fakeArrayClient) CreateHost(label string, hostTypeIndex int, ports []HostPort, groupRef string) (Host, error) {
	f.createHostCalls++
	if groupRef == "" {
		groupRef = NullRef
	}
	host := Host{
		HostRef:       f.newRef(),
		Label:         label,
		HostTypeIndex: hostTypeIndex,
		GroupRef:      groupRef,
		Ports:         ports,
	}
	f.hosts = append(f.hosts, host)
	return host, nil
}

func (f *fakeArrayClient) UpdateHostType(hostRef string, hostTypeIndex int) (Host, error) {
	if f.updateHostTypeErr != nil {
		return Host{}, f.updateHostTypeErr
	}
	for i := range f.hosts {
		if f.hosts[i].HostRef == hostRef {
			f.hosts[i].HostTypeIndex = hostTypeIndex
			return f.hosts[i], nil
		}
	}
	return Host{}, errors.NotFoundError("host %s not found", hostRef)
}

func (f *fakeArrayClient) RemoveHostPort(hostRef string, port string) (Host, error) {
	f.removePortCalls++
	if f.removeHostPortErr != nil {
		return Host{}, f.removeHostPortErr
	}
	for i := range f.hosts {
		if f.hosts[i].HostRef == hostRef {
			ports := make([]HostPort, 0, len(f.hosts[i].Ports))
			for _, p := range f.hosts[i].Ports {
				if p.Port != port {
					ports = append(ports, p)
				}
			}
			f.hosts[i].Ports = ports
			return f.hosts[i], nil
		}
	}
	return Host{}, errors.NotFoundError("host %s not found", hostRef)
}

func (f *fakeArrayClient) DeleteHost(hostRef string) error {
	f.deleteHostCalls++
	if f.deleteHostErr != nil {
		return f.deleteHostErr
	}
	for i := range f.hosts {
		if f.hosts[i].HostRef == hostRef {
			f.hosts = append(f.hosts[:i], f.hosts[i+1:]...)
			return nil
		}
	}
	return errors.NotFoundError("host %s not found", hostRef)
}

func (f *fakeArrayClient) HostTypeIndex(hostType string) (int, error) {
	if index, ok := f.hostTypes[hostType]; ok {
		return index, nil
	}
	return 0, nil
}

func (f *fakeArrayClient) GetHostGroupByName(label string) (HostGroup, error) {
	for _, group := range f.groups {
		if group.Label == label {
			return group, nil
		}
	}
	return HostGroup{}, errors.NotFoundError("host group %s not found", label)
}

func (f *fakeArrayClient) CreateHostGroup(label string) (HostGroup, error) {
	f.createGroupCalls++
	if f.createGroupHook != nil {
		if err := f.createGroupHook(); err != nil {
			return HostGroup{}, err
		}
	}
	for _, group := range f.groups {
		if group.Label == label {
			return HostGroup{}, errors.AlreadyExistsError("host group %s already exists", label)
		}
	}
	return f.addGroup(label), nil
}

func (f *fakeArrayClient) SetHostGroupForHost(hostRef, groupRef string) error {
	for i := range f.hosts {
		if f.hosts[i].HostRef == hostRef {
			f.hosts[i].GroupRef = groupRef
			return nil
		}
	}
	return errors.NotFoundError("host %s not found", hostRef)
}

func (f *fakeArrayClient) GetVolumeMappings() ([]VolumeMapping, error) {
	mappings := make([]VolumeMapping, len(f.mappings))
	copy(mappings, f.mappings)
	return mappings, nil
}

func (f *fakeArrayClient) GetVolumeMappingsForVolume(volumeRef string) ([]VolumeMapping, error) {
	var result []VolumeMapping
	for _, mapping := range f.mappings {
		if mapping.VolumeRef == volumeRef {
			result = append(result, mapping)
		}
	}
	return result, nil
}

func (f *fakeArrayClient) GetVolumeMappingsForHost(hostRef string) ([]VolumeMapping, error) {
	var result []VolumeMapping
	for _, mapping := range f.mappings {
		if mapping.TargetRef == hostRef {
			result = append(result, mapping)
		}
	}
	return result, nil
}

func (f *fakeArrayClient) GetVolumeMappingsForHostGroup(groupRef string) ([]VolumeMapping, error) {
	var result []VolumeMapping
	for _, mapping := range f.mappings {
		if mapping.TargetRef == groupRef {
			result = append(result, mapping)
		}
	}
	return result, nil
}

func (f *fakeArrayClient) CreateVolumeMapping(volumeRef, targetRef string, lun int) (VolumeMapping, error) {
	f.createMappingCalls++
	if f.createMappingHook != nil {
		if err := f.createMappingHook(); err != nil {
			return VolumeMapping{}, err
		}
	}

	mappingType := MappingTypeHost
	for _, group := range f.groups {
		if group.ClusterRef == targetRef {
			mappingType = MappingTypeGroup
			break
		}
	}

	return f.addMapping(volumeRef, targetRef, lun, mappingType), nil
}

func (f *fakeArrayClient) DeleteVolumeMapping(mappingRef string) error {
	f.deleteMappingCalls++
	for i := range f.mappings {
		if f.mappings[i].MappingRef == mappingRef {
			f.mappings = append(f.mappings[:i], f.mappings[i+1:]...)
			return nil
		}
	}
	return errors.NotFoundError("mapping %s not found", mappingRef)
}

var _ ArrayClient = (*fakeArrayClient)(nil)
