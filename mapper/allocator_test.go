// Copyright 2025 NetApp, Inc. All Rights Reserved.

package mapper

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netapp/eseries-mapper/utils/errors"
)

func TestAllocateLunEmpty(t *testing.T) {
	lun, err := AllocateLun(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, lun)
}

func TestAllocateLunLowestGap(t *testing.T) {
	tests := []struct {
		name     string
		used     []int
		expected int
	}{
		{"gap at zero", []int{1, 2, 3}, 0},
		{"contiguous from zero", []int{0, 1}, 2},
		{"gap in middle", []int{0, 1, 3, 4}, 2},
		{"unordered input", []int{5, 0, 3, 1, 2}, 4},
		{"duplicates ignored", []int{0, 0, 1, 1}, 2},
		{"only top used", []int{255}, 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			lun, err := AllocateLun(test.used)
			require.NoError(t, err)
			assert.Equal(t, test.expected, lun)
		})
	}
}

func TestAllocateLunDeterminism(t *testing.T) {

	// The allocator must return min({0..255} \ S) regardless of input order.
	rng := rand.New(rand.NewSource(1))

	for trial := 0; trial < 100; trial++ {

		used := make(map[int]struct{})
		for i := 0; i < rng.Intn(255); i++ {
			used[rng.Intn(MaxLunsPerTarget)] = struct{}{}
		}

		expected := -1
		for lun := 0; lun < MaxLunsPerTarget; lun++ {
			if _, ok := used[lun]; !ok {
				expected = lun
				break
			}
		}

		shuffled := make([]int, 0, len(used))
		for lun := range used {
			shuffled = append(shuffled, lun)
		}
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		lun, err := AllocateLun(shuffled)
		require.NoError(t, err)
		assert.Equal(t, expected, lun)
	}
}

func TestAllocateLunExhausted(t *testing.T) {

	used := make([]int, 0, MaxLunsPerTarget)
	for lun := 0; lun < MaxLunsPerTarget; lun++ {
		used = append(used, lun)
	}

	_, err := AllocateLun(used)
	assert.True(t, errors.IsNoCapacityError(err))
}

func TestAllocateLunForMappings(t *testing.T) {

	mappings := []VolumeMapping{
		{MappingRef: "m1", LunNumber: 0},
		{MappingRef: "m2", LunNumber: 1},
		{MappingRef: "m3", LunNumber: 4},
	}

	lun, err := AllocateLunForMappings(mappings)
	require.NoError(t, err)
	assert.Equal(t, 2, lun)
}
