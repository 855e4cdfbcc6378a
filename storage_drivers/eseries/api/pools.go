// Copyright 2025 NetApp, Inc. All Rights Reserved.

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// getStoragePools reads all pools on the array, including volume groups and dynamic disk pools.
func (d *Client) getStoragePools() ([]VolumeGroupEx, error) {

	if d.config.DebugTraceFlags["method"] {
		fields := log.Fields{
			"Method": "getStoragePools",
			"Type":   "Client",
		}
		log.WithFields(fields).Debug(">>>> getStoragePools")
		defer log.WithFields(fields).Debug("<<<< getStoragePools")
	}

	response, responseBody, err := d.InvokeAPI(nil, "GET", "/storage-pools")
	if err != nil {
		return nil, fmt.Errorf("could not get storage pools: %v", err)
	}

	if response.StatusCode != http.StatusOK {
		return nil, Error{
			Code:    response.StatusCode,
			Message: "could not get storage pools",
		}
	}

	// Parse JSON data
	allPools := make([]VolumeGroupEx, 0)
	if err := json.Unmarshal(responseBody, &allPools); err != nil {
		return nil, fmt.Errorf("could not parse storage pool data: %s; %v", string(responseBody), err)
	}

	return allPools, nil
}

// GetVolumePoolByRef returns the pool with the specified volumeGroupRef.
func (d *Client) GetVolumePoolByRef(volumeGroupRef string) (VolumeGroupEx, error) {

	if d.config.DebugTraceFlags["method"] {
		fields := log.Fields{
			"Method":         "GetVolumePoolByRef",
			"Type":           "Client",
			"volumeGroupRef": volumeGroupRef,
		}
		log.WithFields(fields).Debug(">>>> GetVolumePoolByRef")
		defer log.WithFields(fields).Debug("<<<< GetVolumePoolByRef")
	}

	// Get the storage pool (may be either volume RAID group or dynamic disk pool)
	resourcePath := "/storage-pools/" + volumeGroupRef
	response, responseBody, err := d.InvokeAPI(nil, "GET", resourcePath)
	if err != nil {
		return VolumeGroupEx{}, fmt.Errorf("could not get storage pool: %v", err)
	}

	if response.StatusCode != http.StatusOK {
		return VolumeGroupEx{}, Error{
			Code:    response.StatusCode,
			Message: "could not get storage pool",
		}
	}

	// Parse JSON data
	pool := VolumeGroupEx{}
	if err := json.Unmarshal(responseBody, &pool); err != nil {
		return VolumeGroupEx{}, fmt.Errorf("could not parse storage pool data: %s; %v", string(responseBody), err)
	}

	return pool, nil
}

// GetVolumePools reads the pools from the array and filters them based on several selection
// parameters, returning the ones that match.
func (d *Client) GetVolumePools(mediaType string, minFreeSpaceBytes uint64, poolName string) ([]VolumeGroupEx, error) {

	if d.config.DebugTraceFlags["method"] {
		fields := log.Fields{
			"Method":            "GetVolumePools",
			"Type":              "Client",
			"mediaType":         mediaType,
			"minFreeSpaceBytes": minFreeSpaceBytes,
			"poolName":          poolName,
		}
		log.WithFields(fields).Debug(">>>> GetVolumePools")
		defer log.WithFields(fields).Debug("<<<< GetVolumePools")
	}

	allPools, err := d.getStoragePools()
	if err != nil {
		return nil, err
	}

	return d.filterPools(allPools, mediaType, minFreeSpaceBytes, poolName), nil
}

// filterPools returns the pools that match the requested criteria.
func (d *Client) filterPools(
	allPools []VolumeGroupEx, mediaType string, minFreeSpaceBytes uint64, poolName string,
) []VolumeGroupEx {

	matchingPools := make([]VolumeGroupEx, 0)
	for _, pool := range allPools {

		log.WithFields(log.Fields{
			"Name": pool.Label,
			"Pool": pool,
		}).Debug("Considering pool.")

		// Pool must match regex from config
		if !d.config.CompiledPoolNameSearchPattern.MatchString(pool.Label) {
			log.WithFields(log.Fields{"Name": pool.Label}).Debug("Pool does not match search pattern.")
			continue
		}

		// Pool must be online
		if pool.IsOffline {
			log.WithFields(log.Fields{"Name": pool.Label}).Debug("Pool is offline.")
			continue
		}

		// Pool name
		if poolName != "" {
			if poolName != pool.Label {
				log.WithFields(log.Fields{
					"Name":          pool.Label,
					"RequestedName": poolName,
				}).Debug("Pool does not match requested pool name.")
				continue
			}
		}

		// Drive media type
		if mediaType != "" {
			if mediaType != pool.DriveMediaType {
				log.WithFields(log.Fields{
					"Name":               pool.Label,
					"MediaType":          pool.DriveMediaType,
					"RequestedMediaType": mediaType,
				}).Debug("Pool does not match requested media type.")
				continue
			}
		}

		// Free space
		if minFreeSpaceBytes > 0 {
			poolFreeSpace, err := strconv.ParseUint(pool.FreeSpace, 10, 64)
			if err != nil {
				log.WithFields(log.Fields{
					"Name":  pool.Label,
					"Error": err,
				}).Warn("Could not parse free space for pool.")
				continue
			}
			if poolFreeSpace < minFreeSpaceBytes {
				log.WithFields(log.Fields{
					"Name":           pool.Label,
					"FreeSpace":      poolFreeSpace,
					"RequestedSpace": minFreeSpaceBytes,
				}).Debug("Pool does not have sufficient free space.")
				continue
			}
		}

		// Everything matched
		matchingPools = append(matchingPools, pool)
	}

	return matchingPools
}

// PoolCatalog caches the array's storage pools so that pool queries during provisioning do not
// each pay for a round trip to the proxy. The catalog is refreshed on demand or on a background
// interval; readers always get the last good snapshot.
type PoolCatalog struct {
	client *Client

	mutex       sync.RWMutex
	pools       []VolumeGroupEx
	lastRefresh time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

func NewPoolCatalog(client *Client) *PoolCatalog {
	return &PoolCatalog{
		client: client,
	}
}

// Refresh replaces the cached pool snapshot with the current array state.
func (p *PoolCatalog) Refresh() error {

	pools, err := p.client.getStoragePools()
	if err != nil {
		return fmt.Errorf("could not refresh storage pool catalog: %v", err)
	}

	// Largest pools first so provisioning favors the emptiest pool
	sort.Sort(sort.Reverse(ByFreeSpace(pools)))

	p.mutex.Lock()
	p.pools = pools
	p.lastRefresh = time.Now()
	p.mutex.Unlock()

	log.WithField("Count", len(pools)).Debug("Refreshed storage pool catalog.")

	return nil
}

// GetPools returns the cached pool snapshot, refreshing first if the catalog has never been filled.
func (p *PoolCatalog) GetPools() ([]VolumeGroupEx, error) {

	p.mutex.RLock()
	stale := p.lastRefresh.IsZero()
	p.mutex.RUnlock()

	if stale {
		if err := p.Refresh(); err != nil {
			return nil, err
		}
	}

	p.mutex.RLock()
	defer p.mutex.RUnlock()

	pools := make([]VolumeGroupEx, len(p.pools))
	copy(pools, p.pools)
	return pools, nil
}

// GetMatchingPools filters the cached pool snapshot with the same selection criteria as
// Client.GetVolumePools, so provisioning can pick a pool without a round trip to the proxy.
// Pools are returned largest free space first.
func (p *PoolCatalog) GetMatchingPools(
	mediaType string, minFreeSpaceBytes uint64, poolName string,
) ([]VolumeGroupEx, error) {

	pools, err := p.GetPools()
	if err != nil {
		return nil, err
	}

	return p.client.filterPools(pools, mediaType, minFreeSpaceBytes, poolName), nil
}

// LastRefresh returns the time of the last successful refresh, or the zero time if none succeeded.
func (p *PoolCatalog) LastRefresh() time.Time {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.lastRefresh
}

// StartBackgroundRefresh refreshes the catalog on the given interval until Stop is called.
func (p *PoolCatalog) StartBackgroundRefresh(interval time.Duration) {

	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})

	go func() {
		defer close(p.doneCh)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := p.Refresh(); err != nil {
					log.WithField("error", err).Warn("Background storage pool refresh failed.")
				}
			case <-p.stopCh:
				return
			}
		}
	}()

	log.WithField("interval", interval).Debug("Started background storage pool refresh.")
}

// Stop halts the background refresh goroutine, if one is running.
func (p *PoolCatalog) Stop() {
	if p.stopCh == nil {
		return
	}
	close(p.stopCh)
	<-p.doneCh
	p.stopCh = nil
	p.doneCh = nil
}
