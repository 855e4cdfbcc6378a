// Copyright 2025 NetApp, Inc. All Rights Reserved.

package mapper

import (
	log "github.com/sirupsen/logrus"

	"github.com/netapp/eseries-mapper/utils/errors"
)

// CoordinatorConfig holds the policy knobs for a MappingCoordinator.
type CoordinatorConfig struct {
	// HostType is the host personality requested for auto-created hosts (e.g. "linux_dm_mp").
	HostType string

	// MultiAttachGroupName is the well-known label of the shared host group used when a caller
	// requests multi-attach mapping.
	MultiAttachGroupName string

	// AutoDeregisterHosts enables best-effort cleanup of idle auto-created hosts after unmap:
	// the connector's port registration is removed, and a host left with no ports and no
	// mappings is deleted.
	AutoDeregisterHosts bool

	DebugTraceFlags map[string]bool
}

// MappingCoordinator orchestrates volume map/unmap against the array. It holds no mapping state of
// its own: every operation re-reads the array, because other nodes and administrators mutate the
// same mapping table concurrently and the array is the only valid source of mutual exclusion.
type MappingCoordinator struct {
	api    ArrayClient
	config CoordinatorConfig
}

func NewMappingCoordinator(api ArrayClient, config CoordinatorConfig) *MappingCoordinator {
	return &MappingCoordinator{api: api, config: config}
}

// MapVolumeToHost makes the volume visible to the connector's host and returns the resulting
// mapping. If the volume is already mapped to that host (or, with multiAttachAllowed, to the
// shared multi-attach group) the existing mapping is returned and no array state is changed, so
// reconnects are idempotent. If the volume is mapped to any other target, an AlreadyMappedError
// is returned; the volume is never silently stolen from another host.
func (c *MappingCoordinator) MapVolumeToHost(
	volume Volume, connector Connector, multiAttachAllowed bool,
) (VolumeMapping, error) {

	if c.config.DebugTraceFlags["method"] {
		fields := log.Fields{
			"Method":      "MapVolumeToHost",
			"Type":        "MappingCoordinator",
			"volume":      volume.Label,
			"initiator":   connector.InitiatorPort,
			"multiAttach": multiAttachAllowed,
		}
		log.WithFields(fields).Debug(">>>> MapVolumeToHost")
		defer log.WithFields(fields).Debug("<<<< MapVolumeToHost")
	}

	// Resolve or create the host for this initiator
	hosts := NewHostCatalog(c.api)
	host, err := hosts.ResolveOrCreateHost(connector, c.config.HostType)
	if err != nil {
		return VolumeMapping{}, err
	}

	// In multi-attach mode the mapping target is the shared group, so make sure the group
	// exists and the host is a member before looking at existing mappings.
	var group HostGroup
	targetRef := host.HostRef
	targetType := MappingTypeHost

	if multiAttachAllowed {
		groups := NewHostGroupCatalog(c.api, c.config.MultiAttachGroupName)
		group, err = groups.EnsureGroup()
		if err != nil {
			return VolumeMapping{}, err
		}
		if err = groups.AddHostToGroup(host, group); err != nil {
			return VolumeMapping{}, err
		}
		targetRef = group.ClusterRef
		targetType = MappingTypeGroup
	}

	// Check existing mappings against live array state
	mappings, err := c.api.GetVolumeMappingsForVolume(volume.VolumeRef)
	if err != nil {
		return VolumeMapping{}, err
	}

	if mapping, ok := c.findMappingForTarget(mappings, host, group, multiAttachAllowed); ok {

		log.WithFields(log.Fields{
			"Volume":    volume.Label,
			"Host":      host.Label,
			"LunNumber": mapping.LunNumber,
		}).Debug("Volume already mapped to host, returning existing mapping.")

		return mapping, nil
	}

	if len(mappings) > 0 {
		return VolumeMapping{}, errors.AlreadyMappedError(
			"volume %s is already mapped to a different host or host group (host %s requested)",
			volume.Label, host.Label)
	}

	// Allocate the lowest free LUN in the target's address space
	scoped, err := c.mappingsForTarget(targetRef, targetType)
	if err != nil {
		return VolumeMapping{}, err
	}

	lun, err := AllocateLunForMappings(scoped)
	if err != nil {
		return VolumeMapping{}, errors.NoCapacityError(
			"no free LUN for volume %s on target %s", volume.Label, targetRef)
	}

	// Create the mapping
	mapping, err := c.api.CreateVolumeMapping(volume.VolumeRef, targetRef, lun)
	if err != nil {
		if errors.IsRaceConditionError(err) {
			// A concurrent writer beat us to it; re-read and reconcile.
			return c.recheckAfterRace(volume, host, group, multiAttachAllowed, err)
		}
		return VolumeMapping{}, err
	}

	log.WithFields(log.Fields{
		"Volume":    volume.Label,
		"Host":      host.Label,
		"TargetRef": targetRef,
		"LunNumber": mapping.LunNumber,
		"Type":      mapping.Type,
	}).Debug("Volume mapped.")

	return mapping, nil
}

// recheckAfterRace handles the second-writer-loses outcome of a mapping create. If the volume is
// now mapped to the intended target the race is benign and the surviving mapping is returned; a
// mapping to any other target is a genuine conflict.
func (c *MappingCoordinator) recheckAfterRace(
	volume Volume, host Host, group HostGroup, multiAttachAllowed bool, raceErr error,
) (VolumeMapping, error) {

	log.WithFields(log.Fields{
		"Volume": volume.Label,
		"Host":   host.Label,
	}).Debug("Mapping create raced with a concurrent writer, re-reading mappings.")

	mappings, err := c.api.GetVolumeMappingsForVolume(volume.VolumeRef)
	if err != nil {
		return VolumeMapping{}, err
	}

	if mapping, ok := c.findMappingForTarget(mappings, host, group, multiAttachAllowed); ok {
		return mapping, nil
	}

	if len(mappings) > 0 {
		return VolumeMapping{}, errors.WrapWithAlreadyMappedError(raceErr,
			"volume %s was concurrently mapped to a different host or host group", volume.Label)
	}

	// Nothing re-appeared, so the original failure stands
	return VolumeMapping{}, raceErr
}

// UnmapVolumeFromHost removes the mapping that presents the volume to the connector's host. A
// mapping to the shared multi-attach group is only removed once remainingAttachments reaches zero;
// the attachment count is owned by the caller, which tracks which hosts still use the volume.
// A NotMappedError is returned when the resolved host has no mapping to the volume.
func (c *MappingCoordinator) UnmapVolumeFromHost(
	volume Volume, connector Connector, remainingAttachments int,
) error {

	if c.config.DebugTraceFlags["method"] {
		fields := log.Fields{
			"Method":    "UnmapVolumeFromHost",
			"Type":      "MappingCoordinator",
			"volume":    volume.Label,
			"initiator": connector.InitiatorPort,
		}
		log.WithFields(fields).Debug(">>>> UnmapVolumeFromHost")
		defer log.WithFields(fields).Debug("<<<< UnmapVolumeFromHost")
	}

	hosts := NewHostCatalog(c.api)
	host, err := hosts.ResolveOrCreateHost(connector, c.config.HostType)
	if err != nil {
		return err
	}

	mappings, err := c.api.GetVolumeMappingsForVolume(volume.VolumeRef)
	if err != nil {
		return err
	}

	mapping, found := c.findMappingForHostOrItsGroup(mappings, host)
	if !found {
		return errors.NotMappedError(
			"volume %s is not mapped to host %s", volume.Label, host.Label)
	}

	if mapping.Type == MappingTypeGroup && remainingAttachments > 0 {

		log.WithFields(log.Fields{
			"Volume":               volume.Label,
			"Host":                 host.Label,
			"RemainingAttachments": remainingAttachments,
		}).Debug("Other hosts still use the shared group mapping, leaving it in place.")

		return nil
	}

	if err = c.api.DeleteVolumeMapping(mapping.MappingRef); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"Volume":    volume.Label,
		"Host":      host.Label,
		"LunNumber": mapping.LunNumber,
	}).Debug("Volume unmapped.")

	if c.config.AutoDeregisterHosts {
		c.deregisterIdleHost(host, connector)
	}

	return nil
}

// deregisterIdleHost removes the connector's port from the host and deletes the host once it has
// neither ports nor mappings left. A host that still has mappings keeps its ports; pulling the
// registration would cut access to the remaining volumes. The cleanup is best effort; a failure
// here never fails the unmap that triggered it.
func (c *MappingCoordinator) deregisterIdleHost(host Host, connector Connector) {

	var cleanupErrors []error

	remaining, err := c.api.GetVolumeMappingsForHost(host.HostRef)
	if err != nil || len(remaining) > 0 {
		if err != nil {
			cleanupErrors = append(cleanupErrors, err)
		}
		if combined := errors.Combine(cleanupErrors...); combined != nil {
			log.WithFields(log.Fields{
				"Name":  host.Label,
				"Error": combined,
			}).Warn("Could not fully deregister idle host.")
		}
		return
	}

	updated, err := c.api.RemoveHostPort(host.HostRef, connector.InitiatorPort)
	if err != nil {
		cleanupErrors = append(cleanupErrors, err)
		updated = host
	}

	if len(updated.Ports) == 0 && err == nil {
		if err = c.api.DeleteHost(host.HostRef); err != nil {
			cleanupErrors = append(cleanupErrors, err)
		} else {
			log.WithField("Name", host.Label).Debug("Deleted idle host.")
		}
	}

	if combined := errors.Combine(cleanupErrors...); combined != nil {
		log.WithFields(log.Fields{
			"Name":  host.Label,
			"Error": combined,
		}).Warn("Could not fully deregister idle host.")
	}
}

// findMappingForTarget looks for a mapping of the volume to the resolved host, or to the shared
// group when multi-attach is in play. A direct host mapping also satisfies a multi-attach request,
// since the host can already see the volume.
func (c *MappingCoordinator) findMappingForTarget(
	mappings []VolumeMapping, host Host, group HostGroup, multiAttachAllowed bool,
) (VolumeMapping, bool) {

	for _, mapping := range mappings {

		switch mapping.Type {

		case MappingTypeHost:
			if mapping.TargetRef == host.HostRef {
				return mapping, true
			}

		case MappingTypeGroup:
			if multiAttachAllowed && mapping.TargetRef == group.ClusterRef {
				return mapping, true
			}
			if mapping.TargetRef == host.GroupRef && host.InGroup() {
				return mapping, true
			}
		}
	}

	return VolumeMapping{}, false
}

// findMappingForHostOrItsGroup locates the mapping that presents the volume to this host, whether
// directly or through the host's enclosing group.
func (c *MappingCoordinator) findMappingForHostOrItsGroup(
	mappings []VolumeMapping, host Host,
) (VolumeMapping, bool) {

	for _, mapping := range mappings {

		switch mapping.Type {

		case MappingTypeHost:
			if mapping.TargetRef == host.HostRef {
				return mapping, true
			}

		case MappingTypeGroup:
			if host.InGroup() && mapping.TargetRef == host.GroupRef {
				return mapping, true
			}
		}
	}

	return VolumeMapping{}, false
}

// mappingsForTarget returns the mappings whose LUN numbers bound the allocator's search, scoped to
// the group for a group target and to the host otherwise.
func (c *MappingCoordinator) mappingsForTarget(
	targetRef string, targetType MappingType,
) ([]VolumeMapping, error) {

	if targetType == MappingTypeGroup {
		return c.api.GetVolumeMappingsForHostGroup(targetRef)
	}
	return c.api.GetVolumeMappingsForHost(targetRef)
}
