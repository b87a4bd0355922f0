package domain

import "time"

// IssueType classifies a disputed line.
type IssueType string

const (
	IssueMissing          IssueType = "MISSING"
	IssueSpoiled          IssueType = "SPOILED"
	IssueDamaged          IssueType = "DAMAGED"
	IssueWrongItem        IssueType = "WRONG_ITEM"
	IssueQuantityMismatch IssueType = "QUANTITY_MISMATCH"
)

// IssueTypeInfo is an entry of the dispute type table.
type IssueTypeInfo struct {
	Code        Code      `json:"code"`
	Type        IssueType `json:"type"`
	Description string    `json:"description"`
}

var issueTypes = []IssueTypeInfo{
	{Code: "DISP100", Type: IssueMissing, Description: "Item was not included in delivery"},
	{Code: "DISP101", Type: IssueSpoiled, Description: "Item arrived spoiled or contaminated"},
	{Code: "DISP102", Type: IssueDamaged, Description: "Item arrived damaged or broken"},
	{Code: "DISP103", Type: IssueWrongItem, Description: "Wrong item delivered instead of ordered item"},
	{Code: "DISP104", Type: IssueQuantityMismatch, Description: "Delivered quantity does not match ordered quantity"},
}

// IssueTypes returns the dispute type table.
func IssueTypes() []IssueTypeInfo {
	out := make([]IssueTypeInfo, len(issueTypes))
	copy(out, issueTypes)
	return out
}

func (t IssueType) Valid() bool {
	for _, info := range issueTypes {
		if info.Type == t {
			return true
		}
	}
	return false
}

// DisputeStatus is the lifecycle state of a dispute. Resolution always moves
// a dispute from PENDING to RESOLVED and records the outcome in Resolution.
// APPROVED and REJECTED are legacy statuses still accepted as list filters;
// CountsTowardLedger treats a REJECTED status like a REJECT resolution.
type DisputeStatus string

const (
	DisputePending  DisputeStatus = "PENDING"
	DisputeApproved DisputeStatus = "APPROVED"
	DisputeRejected DisputeStatus = "REJECTED"
	DisputeResolved DisputeStatus = "RESOLVED"
)

// Resolution is the outcome chosen when resolving a dispute.
type Resolution string

const (
	ResolutionApprove Resolution = "APPROVE"
	ResolutionReject  Resolution = "REJECT"
)

func (r Resolution) Valid() bool {
	return r == ResolutionApprove || r == ResolutionReject
}

// DisputeItem is one claimed product line.
type DisputeItem struct {
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"disputed_quantity"`
	IssueType IssueType `json:"issue_type"`
}

// Dispute is a post-delivery claim against an order.
type Dispute struct {
	ID              string        `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID         string        `json:"order_id" gorm:"type:varchar(36);not null;index"`
	StoreStaffID    string        `json:"store_staff_id" gorm:"type:varchar(36);not null;index"`
	FiledBy         string        `json:"filed_by" gorm:"type:varchar(36)"`
	Items           []DisputeItem `json:"items" gorm:"serializer:json;type:jsonb"`
	Reason          string        `json:"reason"`
	Status          DisputeStatus `json:"status" gorm:"type:varchar(10);not null;index"`
	Resolution      Resolution    `json:"resolution_type,omitempty" gorm:"type:varchar(10)"`
	ResolutionNotes string        `json:"resolution_notes,omitempty"`
	ResolvedBy      *string       `json:"resolved_by,omitempty" gorm:"type:varchar(36)"`
	ResolvedAt      *time.Time    `json:"resolved_at,omitempty"`
	CreditID        *string       `json:"credit_id,omitempty" gorm:"type:varchar(36)"`
	Version         int           `json:"version" gorm:"not null;default:1"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (Dispute) TableName() string { return "disputes" }

// CountsTowardLedger reports whether d's quantities hold back further filings.
func (d Dispute) CountsTowardLedger(countRejected bool) bool {
	if d.Resolution == ResolutionReject || d.Status == DisputeRejected {
		return countRejected
	}
	return true
}

// DisputedQuantities sums claimed quantities per product across disputes.
func DisputedQuantities(disputes []Dispute, countRejected bool) map[string]int {
	totals := make(map[string]int)
	for _, d := range disputes {
		if !d.CountsTowardLedger(countRejected) {
			continue
		}
		for _, item := range d.Items {
			totals[item.ProductID] += item.Quantity
		}
	}
	return totals
}
