// Package mapper converts between domain models and transport DTOs.
package mapper

import (
	"member-dedup/internal/entities"
	oapi "member-dedup/internal/oapi"
)

// ToOAPIPair maps entities.DuplicatePair to transport model.
func ToOAPIPair(p entities.DuplicatePair) oapi.DuplicatePair {
	return oapi.DuplicatePair{
		Id:              p.ID,
		Member1Id:       p.Member1ID,
		Member2Id:       p.Member2ID,
		SimilarityScore: p.Score,
		MatchDetails:    ToOAPIMatchDetails(p.Detail),
		Status:          oapi.DuplicateStatus(p.Status),
		ReviewedBy:      optional(p.ReviewedBy),
		ReviewedAt:      p.ReviewedAt,
		ReviewNotes:     optional(p.ReviewNotes),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// ToOAPIPairList maps a slice of pairs to transport slice.
func ToOAPIPairList(list []entities.DuplicatePair) []oapi.DuplicatePair {
	res := make([]oapi.DuplicatePair, 0, len(list))
	for _, p := range list {
		res = append(res, ToOAPIPair(p))
	}
	return res
}

// ToOAPIMatchDetails maps the score breakdown to transport model.
func ToOAPIMatchDetails(d entities.MatchDetail) oapi.MatchDetails {
	res := oapi.MatchDetails{
		ExactName:           d.ExactName,
		SimilarName:         d.SimilarName,
		NameSimilarityScore: d.NameSimilarity,
		NameTier:            string(d.NameTier),
		SameCompany:         d.SameCompany,
		SimilarEmail:        d.SimilarEmail,
		ExactEmail:          d.ExactEmail,
		EmailDomainMatch:    d.EmailDomainMatch,
		SamePhone:           d.SamePhone,
		SameAddress:         d.SameAddress,
		AddressComponentsMatch: oapi.AddressMatch{
			Street:   d.Address.Street,
			Suburb:   d.Address.Suburb,
			Postcode: d.Address.Postcode,
			State:    d.Address.State,
		},
		Points: oapi.MatchPoints{
			Name:    d.Points.Name,
			Company: d.Points.Company,
			Email:   d.Points.Email,
			Phone:   d.Points.Phone,
			Address: d.Points.Address,
		},
	}
	if d.CompanySimilarity > 0 {
		cs := d.CompanySimilarity
		res.CompanySimilarityScore = &cs
	}
	return res
}

// ToOAPIScanResult maps a scan summary to transport model.
func ToOAPIScanResult(r entities.ScanResult) oapi.ScanResult {
	return oapi.ScanResult{
		Evaluated:  r.Evaluated,
		Candidates: r.Candidates,
		Threshold:  r.Threshold,
		DurationMs: r.Duration.Milliseconds(),
		Pairs:      ToOAPIPairList(r.Pairs),
	}
}

// ToOAPIScanJob maps background scan status to transport model.
func ToOAPIScanJob(j entities.ScanJob) oapi.ScanJob {
	return oapi.ScanJob{
		Id:         optional(j.ID),
		State:      string(j.State),
		Threshold:  j.Threshold,
		StartedAt:  j.StartedAt,
		FinishedAt: j.FinishedAt,
		Evaluated:  j.Evaluated,
		Candidates: j.Candidates,
		Error:      optional(j.Error),
	}
}

// ToOAPIQueueStats maps queue statistics to transport model.
func ToOAPIQueueStats(s entities.QueueStats) oapi.QueueStats {
	byStatus := make([]oapi.StatusStat, 0, len(s.ByStatus))
	for _, st := range s.ByStatus {
		byStatus = append(byStatus, oapi.StatusStat{Status: oapi.DuplicateStatus(st.Status), Count: st.Count})
	}
	return oapi.QueueStats{
		Total:            s.Total,
		ByStatus:         byStatus,
		PendingMeanScore: s.PendingMeanScore,
		MergesTotal:      s.MergesTotal,
		MergesUndone:     s.MergesUndone,
	}
}

// ToOAPIMember maps entities.Member to transport model.
func ToOAPIMember(m entities.Member) oapi.Member {
	return oapi.Member{
		Id:               m.ID,
		FirstName:        m.FirstName,
		LastName:         m.LastName,
		Email:            m.Email,
		Phone:            m.Phone,
		Mobile:           m.Mobile,
		CompanyId:        m.CompanyID,
		CompanyName:      m.CompanyName,
		StreetAddress:    m.StreetAddress,
		Suburb:           m.Suburb,
		Postcode:         m.Postcode,
		State:            m.State,
		Country:          m.Country,
		MembershipStatus: m.MembershipStatus,
		MembershipType:   m.MembershipType,
		Bio:              m.Bio,
		CpdPointsTotal:   m.CPDPointsTotal,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// FromOAPIMergeConfig builds an entities.MergeConfig from transport DTO.
func FromOAPIMergeConfig(src oapi.MergeConfig) entities.MergeConfig {
	keep := make(map[string]bool, len(src.FieldsToKeep))
	for k, v := range src.FieldsToKeep {
		keep[k] = v
	}
	return entities.MergeConfig{
		PrimaryMemberID: src.PrimaryMemberId,
		FieldsToKeep:    keep,
		Relationships: entities.RelationshipPolicy{
			MergeCPDActivities:      src.Relationships.MergeCpdActivities,
			MergeEventRegistrations: src.Relationships.MergeEventRegistrations,
			MergePayments:           src.Relationships.MergePayments,
			SumCPDPoints:            src.Relationships.SumCpdPoints,
		},
	}
}

// ToOAPIMergeConfig maps entities.MergeConfig to transport model.
func ToOAPIMergeConfig(cfg entities.MergeConfig) oapi.MergeConfig {
	return oapi.MergeConfig{
		PrimaryMemberId: cfg.PrimaryMemberID,
		FieldsToKeep:    cfg.FieldsToKeep,
		Relationships: oapi.RelationshipPolicy{
			MergeCpdActivities:      cfg.Relationships.MergeCPDActivities,
			MergeEventRegistrations: cfg.Relationships.MergeEventRegistrations,
			MergePayments:           cfg.Relationships.MergePayments,
			SumCpdPoints:            cfg.Relationships.SumCPDPoints,
		},
	}
}

// ToOAPIMergeHistory maps a merge audit entry to transport model.
func ToOAPIMergeHistory(h entities.MergeHistory) oapi.MergeHistory {
	transfers := make([]oapi.TransferOutcome, 0, len(h.Transfers))
	for _, t := range h.Transfers {
		transfers = append(transfers, oapi.TransferOutcome{
			Category:  string(t.Category),
			Attempted: t.Attempted,
			Succeeded: t.Succeeded,
			Moved:     t.Moved,
			Error:     optional(t.Error),
		})
	}
	return oapi.MergeHistory{
		Id:                       h.ID,
		PairId:                   h.PairID,
		KeptMemberId:             h.KeptMemberID,
		DeletedMemberId:          h.DeletedMemberID,
		DeletedMemberData:        ToOAPIMember(h.DeletedMember),
		MergeData:                ToOAPIMergeConfig(h.Config),
		RelationshipsTransferred: transfers,
		PerformedBy:              h.PerformedBy,
		PerformedAt:              h.PerformedAt,
		UndoDeadline:             h.UndoDeadline,
		Undone:                   h.Undone,
		UndoneBy:                 optional(h.UndoneBy),
		UndoneAt:                 h.UndoneAt,
	}
}

// ToOAPIMergeHistoryList maps a slice of history entries to transport slice.
func ToOAPIMergeHistoryList(list []entities.MergeHistory) []oapi.MergeHistory {
	res := make([]oapi.MergeHistory, 0, len(list))
	for _, h := range list {
		res = append(res, ToOAPIMergeHistory(h))
	}
	return res
}

// ToOAPIMergeResponse wraps a completed merge with its transfer warnings.
func ToOAPIMergeResponse(h entities.MergeHistory) oapi.MergeResponse {
	res := oapi.MergeResponse{Merge: ToOAPIMergeHistory(h)}
	if w := h.Warning(); w != nil {
		for _, f := range w.Failures {
			res.Warnings = append(res.Warnings, string(f.Category)+": "+f.Error)
		}
	}
	return res
}

// ToOAPIMergeSuggestion maps a suggested configuration to transport model.
func ToOAPIMergeSuggestion(s entities.MergeSuggestion) oapi.MergeSuggestion {
	return oapi.MergeSuggestion{
		PairId:       s.PairID,
		Config:       ToOAPIMergeConfig(s.Config),
		Completeness: s.Completeness,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
