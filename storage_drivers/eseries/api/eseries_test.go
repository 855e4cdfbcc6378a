// Copyright 2025 NetApp, Inc. All Rights Reserved.

package api

import (
	"encoding/json"
	"io/ioutil"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netapp/eseries-mapper/mapper"
	"github.com/netapp/eseries-mapper/utils/errors"
)

const (
	testArrayID   = "array1"
	testProxyURL  = "https://proxy.example.com:8443"
	testAltURL    = "https://proxy-alt.example.com:8443"
	testArrayURL  = testProxyURL + "/devmgr/v2/storage-systems/" + testArrayID
	testHostRef   = "8400000060080E50001F6B1A00000000596A0000"
	testGroupRef  = "8500000060080E50001F6B1A00000000596B0000"
	testVolumeRef = "0200000060080E50001F6B1A00000000596C0000"
	testIQN       = "iqn.1993-08.org.debian:01:9031309bbebd"
)

func newTestClient(t *testing.T) *Client {

	client := NewAPIClient(ClientConfig{
		WebProxyHostname:      "proxy.example.com",
		WebProxyAltHostname:   "proxy-alt.example.com",
		Username:              "rw",
		Password:              "rw",
		PoolNameSearchPattern: ".+",
		DebugTraceFlags:       map[string]bool{},
	})
	client.config.ArrayID = testArrayID

	httpmock.ActivateNonDefault(client.HTTPClient())
	t.Cleanup(httpmock.DeactivateAndReset)

	return client
}

func newJSONResponder(t *testing.T, status int, body interface{}) httpmock.Responder {
	responder, err := httpmock.NewJsonResponder(status, body)
	require.NoError(t, err)
	return responder
}

func testHostEx() HostEx {
	return HostEx{
		HostRef:       testHostRef,
		ClusterRef:    mapper.NullRef,
		Label:         "compute-node-1_9031309bbe",
		HostTypeIndex: 28,
		Initiators: []HostExInitiator{
			{
				InitiatorRef: "8900000060080E50001F6B1A00000000596A0001",
				NodeName: HostExScsiNodeName{
					IoInterfaceType: "iscsi",
					IscsiNodeName:   testIQN,
				},
				Label: "compute-node-1_9031309bbe_port",
			},
		},
	}
}

func TestConnect(t *testing.T) {

	client := newTestClient(t)
	client.config.ArrayID = ""

	httpmock.RegisterResponder("POST", testProxyURL+connectPath,
		newJSONResponder(t, http.StatusCreated, MsgConnectResponse{ArrayID: testArrayID, AlreadyExists: false}))

	arrayID, err := client.Connect()

	assert.NoError(t, err)
	assert.Equal(t, testArrayID, arrayID)
	assert.Equal(t, testArrayID, client.config.ArrayID)
}

func TestConnectEmptyArrayID(t *testing.T) {

	client := newTestClient(t)

	httpmock.RegisterResponder("POST", testProxyURL+connectPath,
		newJSONResponder(t, http.StatusOK, MsgConnectResponse{}))

	_, err := client.Connect()

	assert.Error(t, err)
}

func TestListNodeSerialNumbers(t *testing.T) {

	client := newTestClient(t)

	controllers := []Controller{
		{SerialNumber: " 021633000985 ", Active: true},
		{SerialNumber: "021633000986"},
		{SerialNumber: ""},
	}
	httpmock.RegisterResponder("GET", testArrayURL+"/controllers",
		newJSONResponder(t, http.StatusOK, controllers))

	serialNumbers, err := client.ListNodeSerialNumbers()

	assert.NoError(t, err)
	assert.Equal(t, []string{"021633000985", "021633000986"}, serialNumbers)
}

func TestListHosts(t *testing.T) {

	client := newTestClient(t)

	httpmock.RegisterResponder("GET", testArrayURL+"/hosts",
		newJSONResponder(t, http.StatusOK, []HostEx{testHostEx()}))

	hosts, err := client.ListHosts()

	require.NoError(t, err)
	require.Len(t, hosts, 1)
	assert.Equal(t, testHostRef, hosts[0].HostRef)
	assert.Equal(t, mapper.NullRef, hosts[0].GroupRef)
	require.Len(t, hosts[0].Ports, 1)
	assert.Equal(t, "iscsi", hosts[0].Ports[0].Type)
	assert.Equal(t, testIQN, hosts[0].Ports[0].Port)
}

func TestListHostsFailure(t *testing.T) {

	client := newTestClient(t)

	httpmock.RegisterResponder("GET", testArrayURL+"/hosts",
		httpmock.NewStringResponder(http.StatusInternalServerError, "boom"))

	_, err := client.ListHosts()

	assert.Error(t, err)
}

func TestCreateHost(t *testing.T) {

	client := newTestClient(t)

	httpmock.RegisterResponder("POST", testArrayURL+"/hosts",
		func(request *http.Request) (*http.Response, error) {

			requestBody, _ := ioutil.ReadAll(request.Body)
			hostRequest := HostCreateRequest{}
			require.NoError(t, json.Unmarshal(requestBody, &hostRequest))

			assert.Equal(t, "compute-node-1_9031309bbe", hostRequest.Name)
			assert.Equal(t, 28, hostRequest.HostType.Index)
			assert.Empty(t, hostRequest.GroupID)
			require.Len(t, hostRequest.Ports, 1)
			assert.Equal(t, testIQN, hostRequest.Ports[0].Port)

			return httpmock.NewJsonResponse(http.StatusCreated, testHostEx())
		})

	ports := []mapper.HostPort{{Type: "iscsi", Port: testIQN, Label: "compute-node-1_9031309bbe_port"}}
	host, err := client.CreateHost("compute-node-1_9031309bbe", 28, ports, mapper.NullRef)

	assert.NoError(t, err)
	assert.Equal(t, testHostRef, host.HostRef)
	assert.Equal(t, 28, host.HostTypeIndex)
}

func TestUpdateHostType(t *testing.T) {

	client := newTestClient(t)

	updated := testHostEx()
	updated.HostTypeIndex = 10

	httpmock.RegisterResponder("POST", testArrayURL+"/hosts/"+testHostRef,
		func(request *http.Request) (*http.Response, error) {

			requestBody, _ := ioutil.ReadAll(request.Body)
			updateRequest := HostUpdateRequest{}
			require.NoError(t, json.Unmarshal(requestBody, &updateRequest))

			require.NotNil(t, updateRequest.HostType)
			assert.Equal(t, 10, updateRequest.HostType.Index)
			assert.Empty(t, updateRequest.PortsToRemove)

			return httpmock.NewJsonResponse(http.StatusOK, updated)
		})

	host, err := client.UpdateHostType(testHostRef, 10)

	assert.NoError(t, err)
	assert.Equal(t, 10, host.HostTypeIndex)
}

func TestRemoveHostPort(t *testing.T) {

	client := newTestClient(t)

	original := testHostEx()
	updated := testHostEx()
	updated.Initiators = nil

	httpmock.RegisterResponder("GET", testArrayURL+"/hosts",
		newJSONResponder(t, http.StatusOK, []HostEx{original}))

	httpmock.RegisterResponder("POST", testArrayURL+"/hosts/"+testHostRef,
		func(request *http.Request) (*http.Response, error) {

			requestBody, _ := ioutil.ReadAll(request.Body)
			updateRequest := HostUpdateRequest{}
			require.NoError(t, json.Unmarshal(requestBody, &updateRequest))

			assert.Equal(t, []string{original.Initiators[0].InitiatorRef}, updateRequest.PortsToRemove)

			return httpmock.NewJsonResponse(http.StatusOK, updated)
		})

	host, err := client.RemoveHostPort(testHostRef, testIQN)

	assert.NoError(t, err)
	assert.Empty(t, host.Ports)
}

func TestRemoveHostPortUnknownPort(t *testing.T) {

	client := newTestClient(t)

	httpmock.RegisterResponder("GET", testArrayURL+"/hosts",
		newJSONResponder(t, http.StatusOK, []HostEx{testHostEx()}))

	_, err := client.RemoveHostPort(testHostRef, "iqn.1993-08.org.debian:01:other")

	assert.True(t, errors.IsNotFoundError(err))
}

func TestDeleteHostAbsent(t *testing.T) {

	client := newTestClient(t)

	httpmock.RegisterResponder("DELETE", testArrayURL+"/hosts/"+testHostRef,
		httpmock.NewStringResponder(http.StatusNotFound, "not found"))

	assert.NoError(t, client.DeleteHost(testHostRef))
}

func TestHostTypeIndex(t *testing.T) {

	client := newTestClient(t)

	hostTypes := []HostType{
		{Name: "Linux (DM-MP)", Index: 28, Code: "LnxALUA"},
		{Name: "VMware", Index: 10, Code: "VmwTPGSALUA"},
	}
	httpmock.RegisterResponder("GET", testArrayURL+"/host-types",
		newJSONResponder(t, http.StatusOK, hostTypes))

	// Friendly name
	index, err := client.HostTypeIndex("vmware")
	assert.NoError(t, err)
	assert.Equal(t, 10, index)

	// Raw code
	index, err = client.HostTypeIndex("LnxALUA")
	assert.NoError(t, err)
	assert.Equal(t, 28, index)

	// Unknown value falls back to the Linux multipath driver
	index, err = client.HostTypeIndex("solaris")
	assert.NoError(t, err)
	assert.Equal(t, 28, index)
}

func TestGetHostGroupByName(t *testing.T) {

	client := newTestClient(t)

	groups := []HostGroup{
		{ClusterRef: testGroupRef, Label: "eseries_mapper_group"},
		{ClusterRef: "8500000060080E50001F6B1A00000000596B0001", Label: "other_group"},
	}
	httpmock.RegisterResponder("GET", testArrayURL+"/host-groups",
		newJSONResponder(t, http.StatusOK, groups))

	group, err := client.GetHostGroupByName("eseries_mapper_group")

	assert.NoError(t, err)
	assert.Equal(t, testGroupRef, group.ClusterRef)

	_, err = client.GetHostGroupByName("missing_group")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestCreateHostGroup(t *testing.T) {

	client := newTestClient(t)

	httpmock.RegisterResponder("POST", testArrayURL+"/host-groups",
		newJSONResponder(t, http.StatusCreated, HostGroup{ClusterRef: testGroupRef, Label: "eseries_mapper_group"}))

	group, err := client.CreateHostGroup("eseries_mapper_group")

	assert.NoError(t, err)
	assert.Equal(t, testGroupRef, group.ClusterRef)
}

func TestCreateHostGroupConflict(t *testing.T) {

	client := newTestClient(t)

	conflict := CallResponseError{
		ErrorMsg:     "The operation cannot complete because the label is already used.",
		LocalizedMsg: "Duplicate label.",
		ReturnCode:   "duplicateLabel",
		CodeType:     "symbol",
	}
	httpmock.RegisterResponder("POST", testArrayURL+"/host-groups",
		newJSONResponder(t, HTTPUnprocessableEntity, conflict))

	_, err := client.CreateHostGroup("eseries_mapper_group")

	assert.True(t, errors.IsAlreadyExistsError(err))
}

func TestGetVolumeMappingsForVolume(t *testing.T) {

	client := newTestClient(t)

	mappings := []LUNMapping{
		{LunMappingRef: "8800000000000001", LunNumber: 0, VolumeRef: testVolumeRef, MapRef: testHostRef, Type: "host"},
		{LunMappingRef: "8800000000000002", LunNumber: 1, VolumeRef: "0200000060080E50001F6B1A00000000596C0001", MapRef: testGroupRef, Type: "cluster"},
	}
	httpmock.RegisterResponder("GET", testArrayURL+"/volume-mappings",
		newJSONResponder(t, http.StatusOK, mappings))

	result, err := client.GetVolumeMappingsForVolume(testVolumeRef)

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, testHostRef, result[0].TargetRef)
	assert.Equal(t, mapper.MappingTypeHost, result[0].Type)
	assert.Equal(t, 0, result[0].LunNumber)
}

func TestCreateVolumeMappingSerializesLunZero(t *testing.T) {

	client := newTestClient(t)

	created := LUNMapping{
		LunMappingRef: "8800000000000001",
		LunNumber:     0,
		VolumeRef:     testVolumeRef,
		MapRef:        testHostRef,
		Type:          "host",
	}

	httpmock.RegisterResponder("POST", testArrayURL+"/volume-mappings",
		func(request *http.Request) (*http.Response, error) {

			requestBody, _ := ioutil.ReadAll(request.Body)
			assert.Contains(t, string(requestBody), `"lun":0`)

			return httpmock.NewJsonResponse(http.StatusOK, created)
		})

	mapping, err := client.CreateVolumeMapping(testVolumeRef, testHostRef, 0)

	assert.NoError(t, err)
	assert.Equal(t, 0, mapping.LunNumber)
	assert.Equal(t, testHostRef, mapping.TargetRef)
}

func TestCreateVolumeMappingRace(t *testing.T) {

	client := newTestClient(t)

	raceError := CallResponseError{
		ErrorMsg:   "The LUN is already in use.",
		ReturnCode: "lunInUse",
		CodeType:   "symbol",
	}
	httpmock.RegisterResponder("POST", testArrayURL+"/volume-mappings",
		newJSONResponder(t, HTTPUnprocessableEntity, raceError))

	_, err := client.CreateVolumeMapping(testVolumeRef, testHostRef, 0)

	assert.True(t, errors.IsRaceConditionError(err))
}

func TestDeleteVolumeMappingAbsent(t *testing.T) {

	client := newTestClient(t)

	httpmock.RegisterResponder("DELETE", testArrayURL+"/volume-mappings/8800000000000001",
		httpmock.NewStringResponder(http.StatusGone, "gone"))

	assert.NoError(t, client.DeleteVolumeMapping("8800000000000001"))
}

func TestTransportFailover(t *testing.T) {

	client := newTestClient(t)

	// Only the alternate endpoint answers; the primary fails at the transport level.
	altArrayURL := testAltURL + "/devmgr/v2/storage-systems/" + testArrayID
	httpmock.RegisterResponder("GET", altArrayURL+"/controllers",
		newJSONResponder(t, http.StatusOK, []Controller{{SerialNumber: "021633000985"}}))

	controllers, err := client.GetControllers()

	require.NoError(t, err)
	require.Len(t, controllers, 1)
	assert.Equal(t, testAltURL, client.transport.activeEndpoint())
}

func TestGetVolumePools(t *testing.T) {

	client := newTestClient(t)

	pools := []VolumeGroupEx{
		{Label: "pool_hdd", DriveMediaType: "hdd", FreeSpace: "5000000000", VolumeGroupRef: "04000000A"},
		{Label: "pool_ssd", DriveMediaType: "ssd", FreeSpace: "9000000000", VolumeGroupRef: "04000000B"},
		{Label: "pool_offline", DriveMediaType: "ssd", FreeSpace: "9000000000", IsOffline: true},
		{Label: "pool_small", DriveMediaType: "ssd", FreeSpace: "100", VolumeGroupRef: "04000000C"},
	}
	httpmock.RegisterResponder("GET", testArrayURL+"/storage-pools",
		newJSONResponder(t, http.StatusOK, pools))

	matching, err := client.GetVolumePools("ssd", 1000000000, "")

	require.NoError(t, err)
	require.Len(t, matching, 1)
	assert.Equal(t, "pool_ssd", matching[0].Label)
}

func TestPoolCatalogCachesPools(t *testing.T) {

	client := newTestClient(t)

	pools := []VolumeGroupEx{
		{Label: "pool_a", FreeSpace: "5000000000"},
		{Label: "pool_b", FreeSpace: "9000000000"},
	}
	httpmock.RegisterResponder("GET", testArrayURL+"/storage-pools",
		newJSONResponder(t, http.StatusOK, pools))

	catalog := NewPoolCatalog(client)

	first, err := catalog.GetPools()
	require.NoError(t, err)
	assert.Len(t, first, 2)
	assert.False(t, catalog.LastRefresh().IsZero())

	// Second read comes from the cache
	_, err = catalog.GetPools()
	require.NoError(t, err)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())

	// Explicit refresh hits the array again
	require.NoError(t, catalog.Refresh())
	assert.Equal(t, 2, httpmock.GetTotalCallCount())
}

func TestPoolCatalogGetMatchingPools(t *testing.T) {

	client := newTestClient(t)

	pools := []VolumeGroupEx{
		{Label: "pool_hdd", DriveMediaType: "hdd", FreeSpace: "5000000000", VolumeGroupRef: "04000000A"},
		{Label: "pool_ssd_small", DriveMediaType: "ssd", FreeSpace: "2000000000", VolumeGroupRef: "04000000B"},
		{Label: "pool_ssd_big", DriveMediaType: "ssd", FreeSpace: "90000000000", VolumeGroupRef: "04000000C"},
		{Label: "pool_offline", DriveMediaType: "ssd", FreeSpace: "90000000000", IsOffline: true},
	}
	httpmock.RegisterResponder("GET", testArrayURL+"/storage-pools",
		newJSONResponder(t, http.StatusOK, pools))

	catalog := NewPoolCatalog(client)

	matching, err := catalog.GetMatchingPools("ssd", 1000000000, "")
	require.NoError(t, err)
	require.Len(t, matching, 2)

	// Largest free space first, so provisioning can take the head of the list
	assert.Equal(t, "pool_ssd_big", matching[0].Label)
	assert.Equal(t, "pool_ssd_small", matching[1].Label)

	// Repeated selections filter the cached snapshot without another round trip
	matching, err = catalog.GetMatchingPools("hdd", 0, "")
	require.NoError(t, err)
	require.Len(t, matching, 1)
	assert.Equal(t, "pool_hdd", matching[0].Label)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}
