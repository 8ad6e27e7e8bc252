package controller

// Action is what a reconciliation pass does with a CDBootstrap.
type Action int

const (
	// ActionNoOp reads status and runs the credential pipeline.
	ActionNoOp Action = iota
	// ActionCreate attaches the finalizer and applies every dependent object.
	ActionCreate
	// ActionUpdate re-applies Config, Policy and Workload.
	ActionUpdate
	// ActionDelete removes every dependent object, then the finalizer.
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionNoOp:
		return "noop"
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// selectAction picks the action for one pass. Precedence, highest first:
// deletion timestamp, missing finalizer, desired state mismatch.
// inDesiredState is only consulted when the first two do not decide.
func selectAction(deleting, hasFinalizer bool, inDesiredState func() bool) Action {
	switch {
	case deleting:
		return ActionDelete
	case !hasFinalizer:
		return ActionCreate
	case !inDesiredState():
		return ActionUpdate
	default:
		return ActionNoOp
	}
}
