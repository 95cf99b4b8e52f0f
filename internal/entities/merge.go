// Package entities contains core business entities.
package entities

import "time"

// RelationshipCategory is a class of dependent records referencing a member by foreign key.
type RelationshipCategory string

const (
	// CategoryCPDActivities holds continuing-education log entries.
	CategoryCPDActivities RelationshipCategory = "cpd_activities"
	// CategoryEventRegistrations holds event registrations.
	CategoryEventRegistrations RelationshipCategory = "event_registrations"
	// CategoryPayments holds payment records.
	CategoryPayments RelationshipCategory = "payments"
)

// AllCategories returns relationship categories in transfer order.
func AllCategories() []RelationshipCategory {
	return []RelationshipCategory{CategoryCPDActivities, CategoryEventRegistrations, CategoryPayments}
}

// ParseCategory converts a string into a known RelationshipCategory.
func ParseCategory(value string) (RelationshipCategory, bool) {
	for _, c := range AllCategories() {
		if string(c) == value {
			return c, true
		}
	}
	return "", false
}

// Dependent is one record of a relationship category. Value carries the category's
// numeric total column (CPD points, event points, payment amount).
type Dependent struct {
	ID       string               `json:"id"`
	Category RelationshipCategory `json:"category"`
	MemberID string               `json:"member_id"`
	Value    float64              `json:"value"`
}

// RelationshipPolicy selects which dependent categories a merge repoints.
type RelationshipPolicy struct {
	MergeCPDActivities      bool `json:"merge_cpd_activities"`
	MergeEventRegistrations bool `json:"merge_event_registrations"`
	MergePayments           bool `json:"merge_payments"`
	// SumCPDPoints stores the combined CPD points of both members on the primary.
	SumCPDPoints bool `json:"sum_cpd_points"`
}

// Enabled returns the categories selected for transfer, in transfer order.
func (p RelationshipPolicy) Enabled() []RelationshipCategory {
	res := make([]RelationshipCategory, 0, 3)
	if p.MergeCPDActivities {
		res = append(res, CategoryCPDActivities)
	}
	if p.MergeEventRegistrations {
		res = append(res, CategoryEventRegistrations)
	}
	if p.MergePayments {
		res = append(res, CategoryPayments)
	}
	return res
}

// MergeConfig is the caller's input to a merge.
type MergeConfig struct {
	PrimaryMemberID string `json:"primary_member_id"`
	// FieldsToKeep maps a mergeable field to true (keep primary) or false (take secondary).
	FieldsToKeep  map[string]bool    `json:"fields_to_keep"`
	Relationships RelationshipPolicy `json:"relationships"`
}

// TransferOutcome records what happened to one relationship category during a merge.
type TransferOutcome struct {
	Category  RelationshipCategory `json:"category"`
	Attempted bool                 `json:"attempted"`
	Succeeded bool                 `json:"succeeded"`
	Moved     int64                `json:"moved"`
	Error     string               `json:"error,omitempty"`
}

// MergeHistory is the durable, undoable record of a completed merge.
type MergeHistory struct {
	ID              string            `json:"id"`
	PairID          string            `json:"pair_id"`
	KeptMemberID    string            `json:"kept_member_id"`
	DeletedMemberID string            `json:"deleted_member_id"`
	DeletedMember   Member            `json:"deleted_member_data"`
	Config          MergeConfig       `json:"merge_data"`
	Transfers       []TransferOutcome `json:"relationships_transferred"`
	PerformedBy     string            `json:"performed_by"`
	PerformedAt     time.Time         `json:"performed_at"`
	UndoDeadline    time.Time         `json:"undo_deadline"`
	Undone          bool              `json:"undone"`
	UndoneBy        string            `json:"undone_by,omitempty"`
	UndoneAt        *time.Time        `json:"undone_at,omitempty"`
}

// Warning returns a PartialTransferError when any attempted category failed, nil otherwise.
func (h MergeHistory) Warning() *PartialTransferError {
	var failed []TransferOutcome
	for _, t := range h.Transfers {
		if t.Attempted && !t.Succeeded {
			failed = append(failed, t)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return &PartialTransferError{Failures: failed}
}

// CanUndo reports whether the entry may still be undone at the given time.
func (h MergeHistory) CanUndo(now time.Time) bool {
	return !h.Undone && !now.After(h.UndoDeadline)
}

// MergeSuggestion is the default merge configuration proposed for a pair.
type MergeSuggestion struct {
	PairID       string         `json:"pair_id"`
	Config       MergeConfig    `json:"config"`
	Completeness map[string]int `json:"completeness"`
}
