package domain

// Role is the fixed role enumeration of the identity provider.
type Role int

const (
	RoleAdmin         Role = 0
	RoleKitchenStaff  Role = 1
	RoleKitchenSupply Role = 2
	RoleManager       Role = 3
	RoleStoreStaff    Role = 4
)

var roleNames = map[Role]string{
	RoleAdmin:         "ADMIN",
	RoleKitchenStaff:  "KITCHEN_STAFF",
	RoleKitchenSupply: "KITCHEN_SUPPLY",
	RoleManager:       "MANAGER",
	RoleStoreStaff:    "STORE_STAFF",
}

func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "UNKNOWN"
}

// In reports whether r is one of roles.
func (r Role) In(roles ...Role) bool {
	for _, allowed := range roles {
		if r == allowed {
			return true
		}
	}
	return false
}

// TransitionKind names the side effect attached to a permitted (role, edge) pair.
type TransitionKind int

const (
	TransitionNone TransitionKind = iota
	// TransitionProduce consumes materials and packs cooked batches.
	TransitionProduce
	// TransitionDispatch requires every cooked batch to have cleared QC.
	TransitionDispatch
	// TransitionDeliver credits the owning store's inventory.
	TransitionDeliver
	// TransitionCancel is the owner's cancellation, subject to the cut-off for pending orders.
	TransitionCancel
	// TransitionOverride is the admin override with no side effects.
	TransitionOverride
)

func (k TransitionKind) String() string {
	switch k {
	case TransitionProduce:
		return "produce"
	case TransitionDispatch:
		return "dispatch"
	case TransitionDeliver:
		return "deliver"
	case TransitionCancel:
		return "cancel"
	case TransitionOverride:
		return "override"
	default:
		return "none"
	}
}

// TransitionRule grants Role the edge From -> To. An empty From matches any
// non-terminal status that has a valid edge to To.
type TransitionRule struct {
	Role Role
	From OrderStatus
	To   OrderStatus
	Kind TransitionKind
}

var transitionRules = []TransitionRule{
	{Role: RoleKitchenStaff, From: OrderInProduction, To: OrderStaged, Kind: TransitionProduce},
	{Role: RoleKitchenSupply, From: OrderStaged, To: OrderDispatched, Kind: TransitionDispatch},
	{Role: RoleStoreStaff, From: OrderDispatched, To: OrderDelivered, Kind: TransitionDeliver},
	{Role: RoleStoreStaff, To: OrderCancelled, Kind: TransitionCancel},
}

// TransitionRules returns a copy of the role/edge table.
func TransitionRules() []TransitionRule {
	out := make([]TransitionRule, len(transitionRules))
	copy(out, transitionRules)
	return out
}

// ResolveTransition looks up the transition kind for role moving an order
// from -> to. It returns TransitionNone when the edge is invalid or the role
// holds no rule for it.
func ResolveTransition(role Role, from, to OrderStatus) TransitionKind {
	if from.IsTerminal() || !IsValidTransition(from, to) {
		return TransitionNone
	}
	if role == RoleAdmin {
		return TransitionOverride
	}
	for _, rule := range transitionRules {
		if rule.Role != role || rule.To != to {
			continue
		}
		if rule.From == "" || rule.From == from {
			return rule.Kind
		}
	}
	return TransitionNone
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Role   Role
}
