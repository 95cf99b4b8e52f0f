// Package oapi contains the HTTP API models and the fiber route wrapper.
package oapi

import "time"

// ErrorResponseErrorCode enumerates API error codes.
type ErrorResponseErrorCode string

const (
	CONFLICT        ErrorResponseErrorCode = "CONFLICT"
	EXPIRED         ErrorResponseErrorCode = "EXPIRED"
	INTERNAL        ErrorResponseErrorCode = "INTERNAL"
	INVALIDARGUMENT ErrorResponseErrorCode = "INVALID_ARGUMENT"
	NOTFOUND        ErrorResponseErrorCode = "NOT_FOUND"
)

// ErrorResponse defines model for ErrorResponse.
type ErrorResponse struct {
	Error struct {
		Code    ErrorResponseErrorCode `json:"code"`
		Message string                 `json:"message"`
	} `json:"error"`
}

// DuplicateStatus defines model for DuplicateStatus.
type DuplicateStatus string

const (
	Merged       DuplicateStatus = "merged"
	NotDuplicate DuplicateStatus = "not_duplicate"
	Pending      DuplicateStatus = "pending"
	Skipped      DuplicateStatus = "skipped"
)

// AddressMatch defines model for AddressMatch.
type AddressMatch struct {
	Postcode bool `json:"postcode"`
	State    bool `json:"state"`
	Street   bool `json:"street"`
	Suburb   bool `json:"suburb"`
}

// MatchPoints defines model for MatchPoints.
type MatchPoints struct {
	Address int `json:"address"`
	Company int `json:"company"`
	Email   int `json:"email"`
	Name    int `json:"name"`
	Phone   int `json:"phone"`
}

// MatchDetails defines model for MatchDetails.
type MatchDetails struct {
	AddressComponentsMatch AddressMatch `json:"address_components_match"`
	CompanySimilarityScore *float64     `json:"company_similarity_score,omitempty"`
	EmailDomainMatch       bool         `json:"email_domain_match"`
	ExactEmail             bool         `json:"exact_email"`
	ExactName              bool         `json:"exact_name"`
	NameSimilarityScore    float64      `json:"name_similarity_score"`
	NameTier               string       `json:"name_tier"`
	Points                 MatchPoints  `json:"points"`
	SameAddress            bool         `json:"same_address"`
	SameCompany            bool         `json:"same_company"`
	SamePhone              bool         `json:"same_phone"`
	SimilarEmail           bool         `json:"similar_email"`
	SimilarName            bool         `json:"similar_name"`
}

// DuplicatePair defines model for DuplicatePair.
type DuplicatePair struct {
	CreatedAt       time.Time       `json:"created_at"`
	Id              string          `json:"id"`
	MatchDetails    MatchDetails    `json:"match_details"`
	Member1Id       string          `json:"member1_id"`
	Member2Id       string          `json:"member2_id"`
	ReviewNotes     *string         `json:"review_notes,omitempty"`
	ReviewedAt      *time.Time      `json:"reviewed_at,omitempty"`
	ReviewedBy      *string         `json:"reviewed_by,omitempty"`
	SimilarityScore int             `json:"similarity_score"`
	Status          DuplicateStatus `json:"status"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// DuplicatePairList defines model for DuplicatePairList.
type DuplicatePairList struct {
	Items []DuplicatePair `json:"items"`
}

// Member defines model for Member.
type Member struct {
	Bio              string    `json:"bio,omitempty"`
	CompanyId        string    `json:"company_id,omitempty"`
	CompanyName      string    `json:"company_name,omitempty"`
	Country          string    `json:"country,omitempty"`
	CpdPointsTotal   float64   `json:"cpd_points_total"`
	CreatedAt        time.Time `json:"created_at"`
	Email            string    `json:"email"`
	FirstName        string    `json:"first_name"`
	Id               string    `json:"id"`
	LastName         string    `json:"last_name"`
	MembershipStatus string    `json:"membership_status,omitempty"`
	MembershipType   string    `json:"membership_type,omitempty"`
	Mobile           string    `json:"mobile,omitempty"`
	Phone            string    `json:"phone,omitempty"`
	Postcode         string    `json:"postcode,omitempty"`
	State            string    `json:"state,omitempty"`
	StreetAddress    string    `json:"street_address,omitempty"`
	Suburb           string    `json:"suburb,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ScanRequest defines model for ScanRequest.
type ScanRequest struct {
	Threshold *int `json:"threshold,omitempty"`
}

// ScanResult defines model for ScanResult.
type ScanResult struct {
	Candidates int             `json:"candidates"`
	DurationMs int64           `json:"duration_ms"`
	Evaluated  int64           `json:"evaluated"`
	Pairs      []DuplicatePair `json:"pairs"`
	Threshold  int             `json:"threshold"`
}

// ScanJob defines model for ScanJob.
type ScanJob struct {
	Candidates int        `json:"candidates"`
	Error      *string    `json:"error,omitempty"`
	Evaluated  int64      `json:"evaluated"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Id         *string    `json:"id,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	State      string     `json:"state"`
	Threshold  int        `json:"threshold"`
}

// ReviewRequest defines model for ReviewRequest.
type ReviewRequest struct {
	Decision DuplicateStatus `json:"decision"`
	Notes    *string         `json:"notes,omitempty"`
	Reviewer string          `json:"reviewer"`
}

// RelationshipPolicy defines model for RelationshipPolicy.
type RelationshipPolicy struct {
	MergeCpdActivities      bool `json:"merge_cpd_activities"`
	MergeEventRegistrations bool `json:"merge_event_registrations"`
	MergePayments           bool `json:"merge_payments"`
	SumCpdPoints            bool `json:"sum_cpd_points"`
}

// MergeConfig defines model for MergeConfig.
type MergeConfig struct {
	FieldsToKeep    map[string]bool    `json:"fields_to_keep,omitempty"`
	PrimaryMemberId string             `json:"primary_member_id"`
	Relationships   RelationshipPolicy `json:"relationships"`
}

// MergeRequest defines model for MergeRequest.
type MergeRequest struct {
	Config      MergeConfig `json:"config"`
	PerformedBy string      `json:"performed_by"`
}

// TransferOutcome defines model for TransferOutcome.
type TransferOutcome struct {
	Attempted bool    `json:"attempted"`
	Category  string  `json:"category"`
	Error     *string `json:"error,omitempty"`
	Moved     int64   `json:"moved"`
	Succeeded bool    `json:"succeeded"`
}

// MergeHistory defines model for MergeHistory.
type MergeHistory struct {
	DeletedMemberData        Member            `json:"deleted_member_data"`
	DeletedMemberId          string            `json:"deleted_member_id"`
	Id                       string            `json:"id"`
	KeptMemberId             string            `json:"kept_member_id"`
	MergeData                MergeConfig       `json:"merge_data"`
	PairId                   string            `json:"pair_id"`
	PerformedAt              time.Time         `json:"performed_at"`
	PerformedBy              string            `json:"performed_by"`
	RelationshipsTransferred []TransferOutcome `json:"relationships_transferred"`
	UndoDeadline             time.Time         `json:"undo_deadline"`
	Undone                   bool              `json:"undone"`
	UndoneAt                 *time.Time        `json:"undone_at,omitempty"`
	UndoneBy                 *string           `json:"undone_by,omitempty"`
}

// MergeResponse defines model for MergeResponse.
type MergeResponse struct {
	Merge    MergeHistory `json:"merge"`
	Warnings []string     `json:"warnings,omitempty"`
}

// UndoRequest defines model for UndoRequest.
type UndoRequest struct {
	PerformedBy string `json:"performed_by"`
}

// MergeSuggestion defines model for MergeSuggestion.
type MergeSuggestion struct {
	Completeness map[string]int `json:"completeness"`
	Config       MergeConfig    `json:"config"`
	PairId       string         `json:"pair_id"`
}

// StatusStat defines model for StatusStat.
type StatusStat struct {
	Count  int64           `json:"count"`
	Status DuplicateStatus `json:"status"`
}

// QueueStats defines model for QueueStats.
type QueueStats struct {
	ByStatus         []StatusStat `json:"by_status"`
	MergesTotal      int64        `json:"merges_total"`
	MergesUndone     int64        `json:"merges_undone"`
	PendingMeanScore float64      `json:"pending_mean_score"`
	Total            int64        `json:"total"`
}

// GetDuplicatesParams defines parameters for GetDuplicates.
type GetDuplicatesParams struct {
	Status   *DuplicateStatus `form:"status,omitempty" json:"status,omitempty"`
	MinScore *int             `form:"min_score,omitempty" json:"min_score,omitempty"`
	Limit    *int             `form:"limit,omitempty" json:"limit,omitempty"`
	Offset   *int             `form:"offset,omitempty" json:"offset,omitempty"`
}

// GetMergesParams defines parameters for GetMerges.
type GetMergesParams struct {
	MemberId *string `form:"member_id,omitempty" json:"member_id,omitempty"`
	Limit    *int    `form:"limit,omitempty" json:"limit,omitempty"`
}

// PostDuplicatesScanJSONRequestBody defines body for PostDuplicatesScan for application/json ContentType.
type PostDuplicatesScanJSONRequestBody = ScanRequest

// PostMembersIdDuplicatesScanJSONRequestBody defines body for PostMembersIdDuplicatesScan for application/json ContentType.
type PostMembersIdDuplicatesScanJSONRequestBody = ScanRequest

// PostDuplicatesIdReviewJSONRequestBody defines body for PostDuplicatesIdReview for application/json ContentType.
type PostDuplicatesIdReviewJSONRequestBody = ReviewRequest

// PostDuplicatesIdMergeJSONRequestBody defines body for PostDuplicatesIdMerge for application/json ContentType.
type PostDuplicatesIdMergeJSONRequestBody = MergeRequest

// PostMergesIdUndoJSONRequestBody defines body for PostMergesIdUndo for application/json ContentType.
type PostMergesIdUndoJSONRequestBody = UndoRequest
