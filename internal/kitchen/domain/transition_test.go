package domain

import "testing"

func TestResolveTransition(t *testing.T) {
	tests := []struct {
		name string
		role Role
		from OrderStatus
		to   OrderStatus
		want TransitionKind
	}{
		{"kitchen stages production", RoleKitchenStaff, OrderInProduction, OrderStaged, TransitionProduce},
		{"supply dispatches", RoleKitchenSupply, OrderStaged, OrderDispatched, TransitionDispatch},
		{"store confirms delivery", RoleStoreStaff, OrderDispatched, OrderDelivered, TransitionDeliver},
		{"store cancels pending", RoleStoreStaff, OrderPending, OrderCancelled, TransitionCancel},
		{"store cancels dispatched", RoleStoreStaff, OrderDispatched, OrderCancelled, TransitionCancel},
		{"admin overrides", RoleAdmin, OrderPending, OrderInProduction, TransitionOverride},
		{"admin override still needs valid edge", RoleAdmin, OrderPending, OrderDelivered, TransitionNone},
		{"kitchen cannot start production", RoleKitchenStaff, OrderPending, OrderInProduction, TransitionNone},
		{"supply cannot stage", RoleKitchenSupply, OrderInProduction, OrderStaged, TransitionNone},
		{"store cannot dispatch", RoleStoreStaff, OrderStaged, OrderDispatched, TransitionNone},
		{"manager holds no rules", RoleManager, OrderDispatched, OrderDelivered, TransitionNone},
		{"terminal rejects admin", RoleAdmin, OrderDelivered, OrderCancelled, TransitionNone},
		{"store cannot cancel staged", RoleStoreStaff, OrderStaged, OrderCancelled, TransitionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveTransition(tt.role, tt.from, tt.to); got != tt.want {
				t.Errorf("ResolveTransition(%s, %s, %s) = %s, want %s",
					tt.role, tt.from.Name(), tt.to.Name(), got, tt.want)
			}
		})
	}
}

func TestEveryRuleIsAValidEdge(t *testing.T) {
	for _, rule := range TransitionRules() {
		if rule.From == "" {
			continue
		}
		if !IsValidTransition(rule.From, rule.To) {
			t.Errorf("rule %s for %s uses invalid edge %s -> %s", rule.Kind, rule.Role, rule.From.Name(), rule.To.Name())
		}
	}
}

func TestRoleNames(t *testing.T) {
	if RoleStoreStaff.String() != "STORE_STAFF" {
		t.Errorf("got %s", RoleStoreStaff)
	}
	if Role(9).Valid() {
		t.Error("role 9 should be invalid")
	}
	if !RoleManager.In(RoleAdmin, RoleManager) {
		t.Error("manager should be in allow-list")
	}
}
