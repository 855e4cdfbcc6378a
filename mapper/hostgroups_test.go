// Copyright 2025 NetApp, Inc. All Rights Reserved.

package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGroupName = "eseries_mapper_group"

func TestEnsureGroupCreatesWhenMissing(t *testing.T) {

	api := newFakeArrayClient()
	catalog := NewHostGroupCatalog(api, testGroupName)

	group, err := catalog.EnsureGroup()

	require.NoError(t, err)
	assert.Equal(t, testGroupName, group.Label)
	assert.True(t, IsRefValid(group.ClusterRef))
	assert.Equal(t, 1, api.createGroupCalls)
}

func TestEnsureGroupReturnsExisting(t *testing.T) {

	api := newFakeArrayClient()
	existing := api.addGroup(testGroupName)

	catalog := NewHostGroupCatalog(api, testGroupName)
	group, err := catalog.EnsureGroup()

	require.NoError(t, err)
	assert.Equal(t, existing.ClusterRef, group.ClusterRef)
	assert.Zero(t, api.createGroupCalls)
}

func TestEnsureGroupCreateConflictIsSuccess(t *testing.T) {

	api := newFakeArrayClient()

	// Simulate a concurrent creator winning the race between our lookup and our create.
	var winner HostGroup
	api.createGroupHook = func() error {
		winner = api.addGroup(testGroupName)
		return nil
	}

	catalog := NewHostGroupCatalog(api, testGroupName)
	group, err := catalog.EnsureGroup()

	require.NoError(t, err)
	assert.Equal(t, winner.ClusterRef, group.ClusterRef)
}

func TestEnsureGroupTruncatesLongLabel(t *testing.T) {

	api := newFakeArrayClient()
	catalog := NewHostGroupCatalog(api, "an-unreasonably-long-host-group-label-name")

	group, err := catalog.EnsureGroup()

	require.NoError(t, err)
	assert.LessOrEqual(t, len(group.Label), 30)
}

func TestAddHostToGroup(t *testing.T) {

	api := newFakeArrayClient()
	group := api.addGroup(testGroupName)
	host := api.addHost("compute1", testIQN, 28, "")

	catalog := NewHostGroupCatalog(api, testGroupName)
	err := catalog.AddHostToGroup(host, group)

	require.NoError(t, err)
	assert.Equal(t, group.ClusterRef, api.hosts[0].GroupRef)
}

func TestAddHostToGroupIsNoOpWhenMember(t *testing.T) {

	api := newFakeArrayClient()
	group := api.addGroup(testGroupName)
	host := api.addHost("compute1", testIQN, 28, group.ClusterRef)

	catalog := NewHostGroupCatalog(api, testGroupName)
	err := catalog.AddHostToGroup(host, group)

	require.NoError(t, err)
	assert.Equal(t, group.ClusterRef, api.hosts[0].GroupRef)
}
