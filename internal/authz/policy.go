package authz

import "fleettrack/internal/domain"

// Resource is a kind of record the policy protects.
type Resource string

const (
	ResourceVehicle Resource = "vehicle"
	ResourceTrip    Resource = "trip"
	ResourceDriver  Resource = "driver"
)

// Action is something an actor can attempt on a resource.
type Action string

const (
	ActionCreate         Action = "create"
	ActionRead           Action = "read"
	ActionUpdate         Action = "update"
	ActionDelete         Action = "delete"
	ActionAssignDriver   Action = "assign_driver"
	ActionReportLocation Action = "report_location"
	ActionAppendRoute    Action = "append_route"
	ActionComplete       Action = "complete"
	ActionCancel         Action = "cancel"
	ActionStart          Action = "start"
)

// scope narrows a granted action to a subset of resources.
type scope int

const (
	scopeNone  scope = iota // not granted
	scopeOwned              // granted only when the actor owns/is bound to the resource
	scopeAny                // granted on every resource of the kind
)

// capabilities maps role -> resource -> action -> scope. Entries absent
// from the table are denied, which keeps the function total: any
// unrecognized role, resource or action falls through to deny.
var capabilities = map[domain.Role]map[Resource]map[Action]scope{
	domain.RoleOwner: {
		ResourceVehicle: {
			ActionCreate: scopeAny, ActionRead: scopeAny, ActionUpdate: scopeAny,
			ActionDelete: scopeAny, ActionAssignDriver: scopeAny, ActionReportLocation: scopeAny,
		},
		ResourceTrip: {
			ActionCreate: scopeAny, ActionRead: scopeAny, ActionUpdate: scopeAny,
			ActionDelete: scopeAny, ActionComplete: scopeAny, ActionCancel: scopeAny,
			ActionStart: scopeAny,
		},
		ResourceDriver: {
			ActionCreate: scopeAny, ActionRead: scopeAny, ActionUpdate: scopeAny,
			ActionDelete: scopeAny,
		},
	},
	domain.RoleManager: {
		ResourceVehicle: {
			ActionCreate: scopeAny, ActionRead: scopeAny, ActionUpdate: scopeAny,
			ActionAssignDriver: scopeAny, ActionReportLocation: scopeAny,
		},
		ResourceTrip: {
			ActionCreate: scopeAny, ActionRead: scopeAny, ActionUpdate: scopeAny,
			ActionStart: scopeAny,
		},
		ResourceDriver: {
			ActionCreate: scopeAny, ActionRead: scopeAny,
		},
	},
	domain.RoleDriver: {
		ResourceVehicle: {
			ActionRead:           scopeOwned,
			ActionReportLocation: scopeOwned,
		},
		ResourceTrip: {
			ActionStart:       scopeOwned,
			ActionRead:        scopeOwned,
			ActionUpdate:      scopeOwned,
			ActionAppendRoute: scopeOwned,
			ActionComplete:    scopeOwned,
			ActionCancel:      scopeOwned,
		},
	},
}

// Allow decides whether the actor may perform action on a resource whose
// owner (bound driver for vehicles, trip driver for trips) is ownerID.
// Unknown role/resource/action combinations are denied.
func Allow(actor domain.Actor, ownerID string, resource Resource, action Action) bool {
	byResource, ok := capabilities[actor.Role]
	if !ok {
		return false
	}
	byAction, ok := byResource[resource]
	if !ok {
		return false
	}
	switch byAction[action] {
	case scopeAny:
		return true
	case scopeOwned:
		return ownerID != "" && ownerID == actor.ID
	default:
		return false
	}
}

// CanManage reports whether the actor carries manager or owner capability.
func CanManage(actor domain.Actor) bool {
	return actor.Role == domain.RoleOwner || actor.Role == domain.RoleManager
}

// IsOwner reports whether the actor carries owner capability.
func IsOwner(actor domain.Actor) bool {
	return actor.Role == domain.RoleOwner
}
