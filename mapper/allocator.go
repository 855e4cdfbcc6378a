// Copyright 2025 NetApp, Inc. All Rights Reserved.

package mapper

import (
	"github.com/netapp/eseries-mapper/utils/errors"
)

// AllocateLun returns the lowest LUN number in [0, MaxLunsPerTarget) that is absent from the
// supplied list of in-use LUNs. The scan is deterministic, so two callers working from the same
// mapping set always choose the same slot; that keeps idempotent retries from drifting. A
// NoCapacityError is returned when every slot is taken.
func AllocateLun(usedLuns []int) (int, error) {

	used := make(map[int]struct{}, len(usedLuns))
	for _, lun := range usedLuns {
		used[lun] = struct{}{}
	}

	for lun := 0; lun < MaxLunsPerTarget; lun++ {
		if _, ok := used[lun]; !ok {
			return lun, nil
		}
	}

	return -1, errors.NoCapacityError("all %d LUNs are in use on the target", MaxLunsPerTarget)
}

// AllocateLunForMappings is AllocateLun applied to the LUN numbers of a set of mappings, which is
// how the coordinator consumes it after a scoped mapping query.
func AllocateLunForMappings(mappings []VolumeMapping) (int, error) {

	luns := make([]int, 0, len(mappings))
	for _, mapping := range mappings {
		luns = append(luns, mapping.LunNumber)
	}

	return AllocateLun(luns)
}
