package domain

import "testing"

func TestOrderStatusEdgeTable(t *testing.T) {
	permitted := map[[2]OrderStatus]bool{
		{OrderPending, OrderInProduction}: true,
		{OrderPending, OrderCancelled}:    true,
		{OrderInProduction, OrderStaged}:  true,
		{OrderStaged, OrderDispatched}:    true,
		{OrderDispatched, OrderDelivered}: true,
		{OrderDispatched, OrderCancelled}: true,
	}

	for _, from := range AllOrderStatuses() {
		for _, to := range AllOrderStatuses() {
			want := permitted[[2]OrderStatus{from, to}]
			if got := IsValidTransition(from, to); got != want {
				t.Errorf("IsValidTransition(%s, %s) = %v, want %v", from.Name(), to.Name(), got, want)
			}
		}
	}
}

func TestTerminalStatusesHaveNoEdges(t *testing.T) {
	for _, s := range []OrderStatus{OrderDelivered, OrderCancelled} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s.Name())
		}
		info, ok := LookupOrderStatus(s)
		if !ok {
			t.Fatalf("%s missing from registry", s)
		}
		if len(info.Next) != 0 {
			t.Errorf("%s has next statuses %v", s.Name(), info.Next)
		}
	}
	for _, s := range []OrderStatus{OrderPending, OrderInProduction, OrderStaged, OrderDispatched} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s.Name())
		}
	}
}

func TestUnknownCodes(t *testing.T) {
	if _, ok := LookupOrderStatus("OR999"); ok {
		t.Error("unknown order code should not resolve")
	}
	if OrderStatus("OR999").Valid() {
		t.Error("unknown order code should be invalid")
	}
	if IsValidTransition("OR999", OrderPending) {
		t.Error("edge from unknown code should be rejected")
	}
	if OrderStatus("").Name() != "UNKNOWN" {
		t.Error("empty code should be UNKNOWN")
	}
	if _, ok := LookupAuthStatus("AUTH999"); ok {
		t.Error("unknown auth code should not resolve")
	}
}

func TestAuthRegistries(t *testing.T) {
	info, ok := LookupAuthStatus(CodeAuthInvalidCredentials)
	if !ok || info.Name != "INVALID_CREDENTIALS" {
		t.Errorf("AUTH102 = %+v", info)
	}
	info, ok = LookupAuthzStatus(CodeAuthzInsufficient)
	if !ok || info.Name != "INSUFFICIENT_PERMISSIONS" {
		t.Errorf("AUTHZ101 = %+v", info)
	}
}

func TestAuthTablesAreOrdered(t *testing.T) {
	auth := AuthStatuses()
	if len(auth) != 8 || auth[0].ID != "AUTH100" || auth[7].ID != "AUTH107" {
		t.Errorf("unexpected auth table %+v", auth)
	}
	authz := AuthzStatuses()
	if len(authz) != 5 || authz[0].Name != "AUTHENTICATION_REQUIRED" {
		t.Errorf("unexpected authz table %+v", authz)
	}
}
