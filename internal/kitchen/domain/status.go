package domain

import "sort"

// OrderStatus is the code of a node in the order lifecycle.
type OrderStatus string

const (
	OrderPending      OrderStatus = "OR100"
	OrderInProduction OrderStatus = "OR101"
	OrderStaged       OrderStatus = "OR102"
	OrderDispatched   OrderStatus = "OR103"
	OrderDelivered    OrderStatus = "OR104"
	OrderCancelled    OrderStatus = "OR105"
)

// StatusInfo describes one entry of a status table.
type StatusInfo struct {
	ID          string   `json:"status_id"`
	Name        string   `json:"status_name"`
	Description string   `json:"description"`
	Next        []string `json:"next_statuses,omitempty"`
}

var orderStatuses = map[OrderStatus]StatusInfo{
	OrderPending: {
		ID:          string(OrderPending),
		Name:        "PENDING",
		Description: "Order submitted, awaiting processing",
		Next:        []string{string(OrderInProduction), string(OrderCancelled)},
	},
	OrderInProduction: {
		ID:          string(OrderInProduction),
		Name:        "IN_PRODUCTION",
		Description: "Order in kitchen production, materials deducted",
		Next:        []string{string(OrderStaged)},
	},
	OrderStaged: {
		ID:          string(OrderStaged),
		Name:        "STAGED",
		Description: "Kitchen cooking complete, staged for dispatch",
		Next:        []string{string(OrderDispatched)},
	},
	OrderDispatched: {
		ID:          string(OrderDispatched),
		Name:        "DISPATCHED",
		Description: "Order loaded on truck and dispatched to store",
		Next:        []string{string(OrderDelivered), string(OrderCancelled)},
	},
	OrderDelivered: {
		ID:          string(OrderDelivered),
		Name:        "DELIVERED",
		Description: "Order received and confirmed by store staff, added to inventory",
	},
	OrderCancelled: {
		ID:          string(OrderCancelled),
		Name:        "CANCELLED",
		Description: "Order cancelled before or after dispatch",
	},
}

var authStatuses = map[Code]StatusInfo{
	CodeAuthSuccess:            {ID: string(CodeAuthSuccess), Name: "SUCCESS", Description: "Authentication successful"},
	CodeAuthFailed:             {ID: string(CodeAuthFailed), Name: "FAILED", Description: "Authentication failed"},
	CodeAuthInvalidCredentials: {ID: string(CodeAuthInvalidCredentials), Name: "INVALID_CREDENTIALS", Description: "Invalid email or password"},
	CodeAuthTokenExpired:       {ID: string(CodeAuthTokenExpired), Name: "TOKEN_EXPIRED", Description: "Authentication token has expired"},
	CodeAuthTokenInvalid:       {ID: string(CodeAuthTokenInvalid), Name: "TOKEN_INVALID", Description: "Invalid authentication token"},
	CodeAuthRegistered:         {ID: string(CodeAuthRegistered), Name: "REGISTERED", Description: "User registered successfully"},
	CodeAuthEmailExists:        {ID: string(CodeAuthEmailExists), Name: "EMAIL_EXISTS", Description: "Email already registered"},
	CodeAuthVerified:           {ID: string(CodeAuthVerified), Name: "VERIFIED", Description: "Token verified successfully"},
}

var authzStatuses = map[Code]StatusInfo{
	CodeAuthzRequired:     {ID: string(CodeAuthzRequired), Name: "AUTHENTICATION_REQUIRED", Description: "No authentication token provided"},
	CodeAuthzInsufficient: {ID: string(CodeAuthzInsufficient), Name: "INSUFFICIENT_PERMISSIONS", Description: "User role does not have permission for this resource"},
	CodeAuthzDenied:       {ID: string(CodeAuthzDenied), Name: "ACCESS_DENIED", Description: "Access denied to resource"},
	CodeAuthzTokenExpired: {ID: string(CodeAuthzTokenExpired), Name: "TOKEN_EXPIRED", Description: "Authentication token has expired"},
	CodeAuthzTokenInvalid: {ID: string(CodeAuthzTokenInvalid), Name: "TOKEN_INVALID", Description: "Invalid authentication token"},
}

// AllOrderStatuses lists the order enum in lifecycle order.
func AllOrderStatuses() []OrderStatus {
	return []OrderStatus{OrderPending, OrderInProduction, OrderStaged, OrderDispatched, OrderDelivered, OrderCancelled}
}

// LookupOrderStatus returns the registry entry for code.
func LookupOrderStatus(code OrderStatus) (StatusInfo, bool) {
	info, ok := orderStatuses[code]
	return info, ok
}

// LookupAuthStatus returns the registry entry for an AUTH code.
func LookupAuthStatus(code Code) (StatusInfo, bool) {
	info, ok := authStatuses[code]
	return info, ok
}

// AuthStatuses returns the AUTH table ordered by code.
func AuthStatuses() []StatusInfo { return sortedInfos(authStatuses) }

// AuthzStatuses returns the AUTHZ table ordered by code.
func AuthzStatuses() []StatusInfo { return sortedInfos(authzStatuses) }

func sortedInfos(table map[Code]StatusInfo) []StatusInfo {
	out := make([]StatusInfo, 0, len(table))
	for _, info := range table {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LookupAuthzStatus returns the registry entry for an AUTHZ code.
func LookupAuthzStatus(code Code) (StatusInfo, bool) {
	info, ok := authzStatuses[code]
	return info, ok
}

// Valid reports whether s is a member of the order enum.
func (s OrderStatus) Valid() bool {
	_, ok := orderStatuses[s]
	return ok
}

// Name returns the human name of s, or UNKNOWN.
func (s OrderStatus) Name() string {
	if info, ok := orderStatuses[s]; ok {
		return info.Name
	}
	return "UNKNOWN"
}

// IsTerminal reports whether s accepts no further transitions.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// IsValidTransition reports whether the edge from -> to is in the lifecycle table.
func IsValidTransition(from, to OrderStatus) bool {
	info, ok := orderStatuses[from]
	if !ok {
		return false
	}
	for _, next := range info.Next {
		if next == string(to) {
			return true
		}
	}
	return false
}

// Code returns s as a domain code, for errors about orders in status s.
func (s OrderStatus) Code() Code { return Code(s) }
