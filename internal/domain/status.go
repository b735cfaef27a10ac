package domain

// Complaint status values.
const (
	StatusRegistered = "REGISTERED"
	StatusAssigned   = "ASSIGNED"
	StatusInProgress = "IN_PROGRESS"
	StatusResolved   = "RESOLVED"
	StatusClosed     = "CLOSED"
	StatusReopened   = "REOPENED"
)

// AllStatuses lists complaint statuses in lifecycle order.
var AllStatuses = []string{
	StatusRegistered,
	StatusAssigned,
	StatusInProgress,
	StatusResolved,
	StatusClosed,
	StatusReopened,
}

var transitions = map[string]map[string]struct{}{
	StatusRegistered: {StatusAssigned: {}, StatusClosed: {}},
	StatusAssigned:   {StatusInProgress: {}, StatusRegistered: {}, StatusClosed: {}},
	StatusInProgress: {StatusResolved: {}, StatusAssigned: {}},
	StatusResolved:   {StatusClosed: {}, StatusReopened: {}},
	StatusClosed:     {StatusReopened: {}},
	StatusReopened:   {StatusAssigned: {}, StatusInProgress: {}, StatusClosed: {}},
}

// roleTargets lists the statuses each role may move a complaint into.
// Administrators are not listed: they may make any valid transition.
var roleTargets = map[string]map[string]struct{}{
	RoleCitizen:         {StatusReopened: {}, StatusClosed: {}},
	RoleMaintenanceTeam: {StatusInProgress: {}, StatusResolved: {}},
	RoleWardOfficer: {
		StatusAssigned:   {},
		StatusInProgress: {},
		StatusResolved:   {},
		StatusClosed:     {},
		StatusReopened:   {},
	},
}

func IsValidStatus(s string) bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether a complaint may move from one status to another.
func CanTransition(from, to string) bool {
	next, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

// RoleCanSetStatus reports whether the role may set the target status at all.
// Ownership and ward scoping are checked by the complaint service.
func RoleCanSetStatus(role, to string) bool {
	if role == RoleAdministrator {
		return IsValidStatus(to)
	}
	allowed, ok := roleTargets[role]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

// IsOpen reports whether the complaint still counts against its SLA.
func IsOpen(status string) bool {
	return status != StatusResolved && status != StatusClosed
}
