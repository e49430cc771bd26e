package entities

import "time"

// ItemStatus is the circulation status of one physical copy.
type ItemStatus string

const (
	StatusAvailable     ItemStatus = "Available"
	StatusOnLoan        ItemStatus = "On Loan"
	StatusInTransit     ItemStatus = "In Transit"
	StatusReferenceOnly ItemStatus = "Reference Only"
	StatusReserved      ItemStatus = "Reserved"
	StatusUnknown       ItemStatus = "Unknown"
)

// OnLoan reports whether the status implies an active loan with a due date.
func (s ItemStatus) OnLoan() bool {
	return s == StatusOnLoan
}

// AvailabilityItem is the stored loan status of one copy (ItemNo) of a book
// at one branch. For a given BID the set of rows mirrors the most recent
// successful upstream fetch; rows are written only through the reconciler.
type AvailabilityItem struct {
	ItemNo      string     `gorm:"primaryKey;size:64" json:"item_no"`
	BID         string     `gorm:"column:bid;size:32;index" json:"bid"`
	BranchName  string     `gorm:"size:256" json:"branch_name"`
	CallNumber  string     `gorm:"size:64" json:"call_number"`
	Status      ItemStatus `gorm:"size:32" json:"status"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	RefreshedAt time.Time  `json:"refreshed_at"`
}

func (AvailabilityItem) TableName() string {
	return "availability_items"
}
