// Copyright 2025 NetApp, Inc. All Rights Reserved.

package mapper

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/netapp/eseries-mapper/utils"
	"github.com/netapp/eseries-mapper/utils/errors"
)

const maxNameLength = 30

// HostCatalog resolves initiator ports to array Host objects, creating hosts on demand. The host
// list is fetched from the array at most once per catalog, so a catalog must not outlive a single
// top-level map/unmap operation; the coordinator builds a fresh one for each request.
type HostCatalog struct {
	api     ArrayClient
	hosts   []Host
	fetched bool
}

func NewHostCatalog(api ArrayClient) *HostCatalog {
	return &HostCatalog{api: api}
}

func (c *HostCatalog) listHosts() ([]Host, error) {

	if !c.fetched {
		hosts, err := c.api.ListHosts()
		if err != nil {
			return nil, err
		}
		c.hosts = hosts
		c.fetched = true
	}

	return c.hosts, nil
}

// FindHostForPort returns the host owning the specified initiator port, if any. Each port maps to
// at most one host on the array, so the first match wins.
func (c *HostCatalog) FindHostForPort(port string) (Host, bool, error) {

	hosts, err := c.listHosts()
	if err != nil {
		return Host{}, false, errors.WrapWithNotFoundError(err, "could not read hosts from array")
	}

	for _, host := range hosts {
		if host.HasPort(port) {

			log.WithFields(log.Fields{
				"Name": host.Label,
				"Port": port,
			}).Debug("Found host for initiator port.")

			return host, true, nil
		}
	}

	log.WithField("Port", port).Debug("No host found for initiator port.")
	return Host{}, false, nil
}

// ResolveOrCreateHost returns the host owning the connector's initiator port, creating one with
// the requested host type if the port is unknown to the array. If an existing host carries a
// different host type than requested, the catalog attempts to update it; a rejected update (for
// example because the host has active mappings of an incompatible type) is logged and the existing
// host is used unmodified.
func (c *HostCatalog) ResolveOrCreateHost(connector Connector, hostType string) (Host, error) {

	host, found, err := c.FindHostForPort(connector.InitiatorPort)
	if err != nil {
		return Host{}, err
	}

	hostTypeIndex, err := c.api.HostTypeIndex(hostType)
	if err != nil {
		return Host{}, err
	}

	if found {
		return c.reconcileHostType(host, hostType, hostTypeIndex), nil
	}

	label := createNameForHost(connector)
	ports := []HostPort{{
		Type:  connector.PortType,
		Port:  connector.InitiatorPort,
		Label: createNameForPort(label),
	}}

	log.WithFields(log.Fields{
		"Name":     label,
		"Port":     connector.InitiatorPort,
		"HostType": hostType,
	}).Debug("Creating host.")

	newHost, err := c.api.CreateHost(label, hostTypeIndex, ports, "")
	if err != nil {
		return Host{}, err
	}

	// The cached host list is now stale; drop it so a later lookup within this
	// operation sees the new host.
	c.fetched = false
	c.hosts = nil

	return newHost, nil
}

// reconcileHostType updates the host's type on the array if it differs from the requested one.
// Failure to update is soft: the array may legitimately refuse while incompatible mappings are
// active, and the existing personality still works for most I/O paths.
func (c *HostCatalog) reconcileHostType(host Host, hostType string, hostTypeIndex int) Host {

	if host.HostTypeIndex == hostTypeIndex {
		return host
	}

	updated, err := c.api.UpdateHostType(host.HostRef, hostTypeIndex)
	if err != nil {
		log.WithFields(log.Fields{
			"Name":           host.Label,
			"HostTypeIndex":  host.HostTypeIndex,
			"RequestedType":  hostType,
			"RequestedIndex": hostTypeIndex,
			"Error":          err,
		}).Warn("Could not update host type, continuing with existing host type.")
		return host
	}

	log.WithFields(log.Fields{
		"Name":          updated.Label,
		"HostTypeIndex": updated.HostTypeIndex,
	}).Debug("Updated host type.")

	return updated
}

// createNameForHost builds a host label from the calling host's name and a unique suffix taken
// from the initiator, capped at the array's 30-character label limit.
func createNameForHost(connector Connector) string {

	// Get unique hostname suffix up to 10 chars, either the last part of the IQN or a random sequence
	var uniqueSuffix = utils.RandomString(10)
	index := strings.LastIndex(connector.InitiatorPort, ":")
	if (index >= 0) && (len(connector.InitiatorPort) > index+2) {
		uniqueSuffix = connector.InitiatorPort[index+1:]
	}
	if len(uniqueSuffix) > 10 {
		uniqueSuffix = uniqueSuffix[:10]
	}

	// Incorporate the calling host's name if available, else this host's, else random
	hostname := connector.HostName
	if hostname == "" {
		var err error
		hostname, err = os.Hostname()
		if err != nil {
			hostname = utils.RandomString(maxNameLength)
		}
	}

	// Use as much of the hostname as will fit
	maxLength := maxNameLength - (len(uniqueSuffix) + 1)
	if len(hostname) > maxLength {
		hostname = hostname[0:maxLength]
	}

	return hostname + "_" + uniqueSuffix
}

func createNameForPort(host string) string {

	suffix := "_port"
	hostname := host

	maxLength := maxNameLength - len(suffix)
	if len(hostname) > maxLength {
		hostname = hostname[0:maxLength]
	}

	return hostname + suffix
}
