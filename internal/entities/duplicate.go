// Package entities contains core business entities.
package entities

import (
	"strings"
	"time"
)

// DuplicateStatus enumerates review lifecycle states of a duplicate pair.
type DuplicateStatus string

const (
	// StatusPending marks a pair awaiting review.
	StatusPending DuplicateStatus = "pending"
	// StatusMerged marks a pair consolidated by the merge executor.
	StatusMerged DuplicateStatus = "merged"
	// StatusNotDuplicate marks a pair a reviewer rejected.
	StatusNotDuplicate DuplicateStatus = "not_duplicate"
	// StatusSkipped marks a pair a reviewer set aside.
	StatusSkipped DuplicateStatus = "skipped"
)

var allStatuses = []DuplicateStatus{StatusPending, StatusMerged, StatusNotDuplicate, StatusSkipped}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []DuplicateStatus {
	cp := make([]DuplicateStatus, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known DuplicateStatus.
func ParseStatus(value string) (DuplicateStatus, bool) {
	normalized := DuplicateStatus(strings.ToLower(strings.TrimSpace(value)))
	for _, s := range allStatuses {
		if s == normalized {
			return s, true
		}
	}
	return "", false
}

// IsReviewDecision reports whether a status may be set by a manual review action.
func (s DuplicateStatus) IsReviewDecision() bool {
	return s == StatusNotDuplicate || s == StatusSkipped
}

// AddressMatch flags each address component that matched.
type AddressMatch struct {
	Street   bool `json:"street"`
	Suburb   bool `json:"suburb"`
	Postcode bool `json:"postcode"`
	State    bool `json:"state"`
}

// Any reports whether at least one component matched.
func (a AddressMatch) Any() bool {
	return a.Street || a.Suburb || a.Postcode || a.State
}

// NameTier names the name-similarity band that fired.
type NameTier string

const (
	NameTierNone   NameTier = "none"
	NameTierMedium NameTier = "medium"
	NameTierHigh   NameTier = "high"
	NameTierExact  NameTier = "exact"
)

// CategoryPoints records the points each signal category contributed.
type CategoryPoints struct {
	Name    int `json:"name"`
	Company int `json:"company"`
	Email   int `json:"email"`
	Phone   int `json:"phone"`
	Address int `json:"address"`
}

// Total sums the category points without clamping.
func (p CategoryPoints) Total() int {
	return p.Name + p.Company + p.Email + p.Phone + p.Address
}

// MatchDetail is the structured breakdown of a similarity score.
type MatchDetail struct {
	ExactName         bool           `json:"exact_name"`
	SimilarName       bool           `json:"similar_name"`
	NameSimilarity    float64        `json:"name_similarity_score"`
	NameTier          NameTier       `json:"name_tier"`
	SameCompany       bool           `json:"same_company"`
	CompanySimilarity float64        `json:"company_similarity_score,omitempty"`
	SimilarEmail      bool           `json:"similar_email"`
	ExactEmail        bool           `json:"exact_email"`
	EmailDomainMatch  bool           `json:"email_domain_match"`
	SamePhone         bool           `json:"same_phone"`
	SameAddress       bool           `json:"same_address"`
	Address           AddressMatch   `json:"address_components_match"`
	Points            CategoryPoints `json:"points"`
}

// DuplicatePair is one candidate duplicate relationship between two distinct members.
// Member1ID always sorts before Member2ID.
type DuplicatePair struct {
	ID          string          `json:"id"`
	Member1ID   string          `json:"member1_id"`
	Member2ID   string          `json:"member2_id"`
	Score       int             `json:"similarity_score"`
	Detail      MatchDetail     `json:"match_details"`
	Status      DuplicateStatus `json:"status"`
	ReviewedBy  string          `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time      `json:"reviewed_at,omitempty"`
	ReviewNotes string          `json:"review_notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Contains reports whether memberID is one side of the pair.
func (p DuplicatePair) Contains(memberID string) bool {
	return p.Member1ID == memberID || p.Member2ID == memberID
}

// Other returns the side of the pair that is not memberID.
func (p DuplicatePair) Other(memberID string) string {
	if p.Member1ID == memberID {
		return p.Member2ID
	}
	return p.Member1ID
}

// PairKey canonicalizes two member ids so a pair is stored once regardless of order.
func PairKey(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// DuplicateCandidate is a scored pair produced by a scan, before persistence.
type DuplicateCandidate struct {
	Member1ID string
	Member2ID string
	Score     int
	Detail    MatchDetail
}

// DuplicateFilter narrows queue listings.
type DuplicateFilter struct {
	Status   *DuplicateStatus
	MinScore int
	Limit    int
	Offset   int
}
