package domain

// Operation identifies a lifecycle operation on a valuation record. Create is
// not listed: it applies to records that do not exist yet and is handled by
// the record service directly.
type Operation string

const (
	OpRead    Operation = "read"
	OpEdit    Operation = "edit"
	OpApprove Operation = "approve"
	OpReject  Operation = "reject"
	OpRework  Operation = "rework"
)

// lifecycleRule describes, for one (operation, role) pair, the states the
// operation may start from and whether a plain user must own the record.
type lifecycleRule struct {
	// fromStates is the set of permitted current states; nil means any state.
	fromStates map[RecordState]bool
	// ownerOnly restricts the operation to the record's owner.
	ownerOnly bool
}

func states(ss ...RecordState) map[RecordState]bool {
	m := make(map[RecordState]bool, len(ss))
	for _, s := range ss {
		m[s] = true
	}
	return m
}

// decisionStates are the states approve and reject may start from. A record
// already approved cannot be re-approved without an intervening edit or
// rework, but a rejected one may be reconsidered directly.
var decisionStates = states(StatePending, StateOnProgress, StateRejected, StateRework)

// lifecycleTable is the single source of truth for the approval workflow.
// A missing role entry means the role may never perform the operation.
var lifecycleTable = map[Operation]map[UserRole]lifecycleRule{
	OpRead: {
		RoleAdmin:   {},
		RoleManager: {},
		RoleUser:    {ownerOnly: true},
	},
	OpEdit: {
		RoleAdmin:   {},
		RoleManager: {fromStates: states(StatePending, StateRejected, StateOnProgress, StateRework)},
		RoleUser:    {fromStates: states(StatePending, StateRejected, StateRework), ownerOnly: true},
	},
	OpApprove: {
		RoleAdmin:   {fromStates: decisionStates},
		RoleManager: {fromStates: decisionStates},
	},
	OpReject: {
		RoleAdmin:   {fromStates: decisionStates},
		RoleManager: {fromStates: decisionStates},
	},
	OpRework: {
		RoleAdmin:   {},
		RoleManager: {},
	},
}

// resultingStates maps an operation to the state it leaves the record in.
// Read is absent: it never changes state. Edit always lands in on-progress,
// regardless of the prior state, so any save reopens the workflow and a
// previously approved record cannot be silently modified while keeping its
// approved status.
var resultingStates = map[Operation]RecordState{
	OpEdit:    StateOnProgress,
	OpApprove: StateApproved,
	OpReject:  StateRejected,
	OpRework:  StateRework,
}

// ResultingState returns the state an operation transitions a record into,
// and false for operations that leave the state unchanged.
func ResultingState(op Operation) (RecordState, bool) {
	s, ok := resultingStates[op]
	return s, ok
}

// RoleMayPerform reports whether the role can ever perform the operation,
// irrespective of record state or ownership. Used to reject non-privileged
// callers before a record is even fetched, so they cannot probe for its
// existence.
func RoleMayPerform(op Operation, role UserRole) bool {
	_, ok := lifecycleTable[op][role]
	return ok
}

// CheckTransition validates an operation attempt against the lifecycle table.
//
// It returns ErrForbidden when the role may not perform the operation, when a
// plain user targets a record they do not own, or when the record's current
// state is outside the role's permitted set for read/edit. For the
// manager-driven transitions (approve, reject, rework) a disallowed current
// state yields ErrInvalidTransition instead, since the role itself is
// privileged and only the requested state change is invalid.
//
// A nil return guarantees the operation is in the table; it never mutates
// the record.
func CheckTransition(op Operation, id Identity, rec *ValuationRecord) error {
	rule, ok := lifecycleTable[op][id.Role]
	if !ok {
		return ErrForbidden
	}
	if rule.ownerOnly && rec.OwnerUsername != id.Username {
		return ErrForbidden
	}
	if rule.fromStates != nil && !rule.fromStates[rec.State] {
		switch op {
		case OpApprove, OpReject, OpRework:
			return ErrInvalidTransition
		default:
			return ErrForbidden
		}
	}
	return nil
}

// DecisionOperation maps a manager action to its lifecycle operation.
func DecisionOperation(action ManagerAction) (Operation, error) {
	switch action {
	case ActionApproved:
		return OpApprove, nil
	case ActionRejected:
		return OpReject, nil
	default:
		return "", ErrInvalidAction
	}
}
