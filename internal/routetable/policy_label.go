package routetable

import "github.com/dreamware/meridian/internal/routing"

var policyKindLabels = map[routing.PolicyKind]string{
	routing.PolicyShards:                 "shards",
	routing.PolicyShardsRandom:           "shards_random",
	routing.PolicyActiveShards:           "active_shards",
	routing.PolicyActiveShardsRandom:     "active_shards_random",
	routing.PolicyAssignedShards:         "assigned_shards",
	routing.PolicyAssignedShardsRandom:   "assigned_shards_random",
	routing.PolicyPrimary:                "primary",
	routing.PolicyPrimaryFirstActive:     "primary_first_active",
	routing.PolicyPreferNode:             "prefer_node",
	routing.PolicyPreferNodeActive:       "prefer_node_active",
	routing.PolicyPreferNodeAssigned:     "prefer_node_assigned",
	routing.PolicyOnlyNodeActive:         "only_node_active",
	routing.PolicyPreferAttributesActive: "prefer_attributes_active",
}

// policyKindLabel returns a stable metric label for a policy kind,
// falling back to "unknown" for a value outside the known set (a
// future PolicyKind added without an entry here, say).
func policyKindLabel(k routing.PolicyKind) string {
	if label, ok := policyKindLabels[k]; ok {
		return label
	}
	return "unknown"
}
