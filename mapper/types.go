// Copyright 2025 NetApp, Inc. All Rights Reserved.

// Package mapper implements the LUN-mapping engine for E-Series storage arrays. It decides which
// array-side Host or Host Group a volume should be presented to, allocates LUN numbers, and keeps
// its view of the mapping table reconciled against live array state. All array access goes through
// the ArrayClient collaborator, so the engine itself is independent of any one management protocol.
package mapper

// NullRef is the zero object reference used by the array to mean "no object".
const NullRef = "0000000000000000000000000000000000000000"

// MaxLunsPerTarget is the size of the LUN address space of a host or host group.
const MaxLunsPerTarget = 256

type MappingType string

const (
	MappingTypeHost  MappingType = "host"
	MappingTypeGroup MappingType = "cluster"
)

// HostPort is one initiator identifier (iSCSI IQN or FC WWPN) registered to a host.
type HostPort struct {
	Type  string // "iscsi" or "fc"
	Port  string
	Label string
}

// Host is the array-side object representing an initiator-bearing endpoint.
type Host struct {
	HostRef       string
	Label         string
	HostTypeIndex int
	GroupRef      string // NullRef when the host is not in a group
	Ports         []HostPort
}

// InGroup reports whether the host belongs to a host group.
func (h Host) InGroup() bool {
	return IsRefValid(h.GroupRef)
}

// HasPort reports whether the host has the specified initiator port registered.
func (h Host) HasPort(port string) bool {
	for _, p := range h.Ports {
		if p.Port == port {
			return true
		}
	}
	return false
}

// HostGroup is the array-side object grouping hosts that share volume mappings.
type HostGroup struct {
	ClusterRef string
	Label      string
}

// Volume identifies an array volume for mapping purposes.
type Volume struct {
	VolumeRef string
	Label     string
}

// VolumeMapping is the array-side record binding a volume to a host or host group at a LUN number.
type VolumeMapping struct {
	MappingRef string
	VolumeRef  string
	TargetRef  string // a Host's HostRef or a HostGroup's ClusterRef
	LunNumber  int
	Type       MappingType
}

// Connector describes the initiator requesting or releasing access to a volume.
type Connector struct {
	InitiatorPort string // IQN or WWPN
	PortType      string // "iscsi" or "fc"
	HostName      string // name of the calling host, used for deterministic host naming
}

// IsRefValid checks whether the supplied string is a valid array object reference.
// Ref values are opaque strings that aren't empty and aren't the null ref.
func IsRefValid(ref string) bool {
	switch ref {
	case "", NullRef:
		return false
	default:
		return true
	}
}

// ArrayClient is the array management interface the mapping engine drives. Implementations wrap a
// vendor protocol (REST for the E-Series Web Services Proxy); the engine treats the array as the
// single source of truth and re-reads state through this interface rather than caching it.
//
// Error contract: GetHostGroupByName returns a NotFoundError when no group has the given label;
// CreateHostGroup returns an AlreadyExistsError when the label is taken; CreateVolumeMapping
// returns a RaceConditionError when the array reports that a conflicting mapping appeared
// concurrently. All other failures are generic errors and propagate unchanged.
type ArrayClient interface {
	ListHosts() ([]Host, error)
	CreateHost(label string, hostTypeIndex int, ports []HostPort, groupRef string) (Host, error)
	UpdateHostType(hostRef string, hostTypeIndex int) (Host, error)
	RemoveHostPort(hostRef string, port string) (Host, error)
	DeleteHost(hostRef string) error
	HostTypeIndex(hostType string) (int, error)

	GetHostGroupByName(label string) (HostGroup, error)
	CreateHostGroup(label string) (HostGroup, error)
	SetHostGroupForHost(hostRef, groupRef string) error

	GetVolumeMappings() ([]VolumeMapping, error)
	GetVolumeMappingsForVolume(volumeRef string) ([]VolumeMapping, error)
	GetVolumeMappingsForHost(hostRef string) ([]VolumeMapping, error)
	GetVolumeMappingsForHostGroup(groupRef string) ([]VolumeMapping, error)
	CreateVolumeMapping(volumeRef, targetRef string, lun int) (VolumeMapping, error)
	DeleteVolumeMapping(mappingRef string) error
}
