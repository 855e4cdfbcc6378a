// Copyright 2025 NetApp, Inc. All Rights Reserved.

package mapper

import (
	log "github.com/sirupsen/logrus"

	"github.com/netapp/eseries-mapper/utils/errors"
)

// HostGroupCatalog manages the well-known host group used for multi-attach volumes. The group is
// created lazily on first use; at most one group with the configured label exists per array.
type HostGroupCatalog struct {
	api   ArrayClient
	label string
}

func NewHostGroupCatalog(api ArrayClient, label string) *HostGroupCatalog {
	group := label
	if len(group) > maxNameLength {
		group = group[:maxNameLength]
	}
	return &HostGroupCatalog{api: api, label: group}
}

// EnsureGroup returns the multi-attach host group, creating it if absent. Concurrent callers may
// race to create the group; a duplicate-label failure means another writer won, so the group is
// re-fetched and returned as success.
func (c *HostGroupCatalog) EnsureGroup() (HostGroup, error) {

	group, err := c.api.GetHostGroupByName(c.label)
	if err == nil {
		log.WithField("Name", group.Label).Debug("Host group found.")
		return group, nil
	}
	if !errors.IsNotFoundError(err) {
		return HostGroup{}, err
	}

	group, err = c.api.CreateHostGroup(c.label)
	if err != nil {
		if errors.IsAlreadyExistsError(err) {
			// Second writer lost the create race; the group is there now.
			log.WithField("Name", c.label).Debug("Host group was created concurrently, re-reading.")
			return c.api.GetHostGroupByName(c.label)
		}
		return HostGroup{}, err
	}

	log.WithFields(log.Fields{
		"Name":       group.Label,
		"ClusterRef": group.ClusterRef,
	}).Debug("Host group created.")

	return group, nil
}

// AddHostToGroup moves the host into the group. No-op if the host is already a member.
func (c *HostGroupCatalog) AddHostToGroup(host Host, group HostGroup) error {

	if host.GroupRef == group.ClusterRef {
		return nil
	}

	log.WithFields(log.Fields{
		"Host":  host.Label,
		"Group": group.Label,
	}).Debug("Adding host to host group.")

	return c.api.SetHostGroupForHost(host.HostRef, group.ClusterRef)
}
