package watch

import "slices"

// RemovalPolicy controls handling of reaction-removal notices, evaluated once
// before anything else in the monitoring flow.
type RemovalPolicy string

const (
	// RemovalIgnore drops removal events before any processing, logging included.
	RemovalIgnore RemovalPolicy = "ignore-entirely"
	// RemovalLogOnly logs removal events but never forwards them.
	RemovalLogOnly RemovalPolicy = "log-only"
	// RemovalLogAndForward treats removal events exactly like additions.
	RemovalLogAndForward RemovalPolicy = "log-and-forward"
)

// ParseRemovalPolicy maps a config value to a policy; unknown values get the
// default log-and-forward behavior.
func ParseRemovalPolicy(s string) RemovalPolicy {
	switch RemovalPolicy(s) {
	case RemovalIgnore, RemovalLogOnly:
		return RemovalPolicy(s)
	default:
		return RemovalLogAndForward
	}
}

// ShouldMonitor decides whether a reaction event is in monitoring scope.
// Checks short-circuit in order: deny list, allow list, self policy. A
// session on the deny list is rejected even if it also appears on the allow
// list.
func ShouldMonitor(sid, actorUserID, selfUserID string, monitorSelf bool, denyList, allowList []string) bool {
	if slices.Contains(denyList, sid) {
		return false
	}
	if len(allowList) > 0 && !slices.Contains(allowList, sid) {
		return false
	}
	if actorUserID == selfUserID && !monitorSelf {
		return false
	}
	return true
}
