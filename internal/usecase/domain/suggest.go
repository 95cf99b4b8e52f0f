package domain

import (
	"context"
	"fmt"
	"strings"

	"member-dedup/internal/entities"
)

const maxCPDCompleteness = 5

var completenessFields = []string{
	entities.FieldFirstName,
	entities.FieldLastName,
	entities.FieldEmail,
	entities.FieldPhone,
	entities.FieldMobile,
	entities.FieldCompanyName,
	entities.FieldStreetAddress,
	entities.FieldSuburb,
	entities.FieldPostcode,
	entities.FieldState,
	entities.FieldBio,
}

// SuggestMerge proposes a merge configuration for a pair: the more complete member is kept
// and each field takes whichever side has a value.
func (u *Usecase) SuggestMerge(ctx context.Context, pairID string) (*entities.MergeSuggestion, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if strings.TrimSpace(pairID) == "" {
		return nil, fmt.Errorf("%w: pair id is required", entities.ErrInvalidArgument)
	}
	pair, err := u.repo.GetPair(ctx, pairID)
	if err != nil {
		return nil, err
	}

	m1, err := u.repo.GetMember(ctx, pair.Member1ID)
	if err != nil {
		return nil, err
	}
	m2, err := u.repo.GetMember(ctx, pair.Member2ID)
	if err != nil {
		return nil, err
	}
	cpd1, err := u.repo.CountRelationship(ctx, entities.CategoryCPDActivities, m1.ID)
	if err != nil {
		return nil, err
	}
	cpd2, err := u.repo.CountRelationship(ctx, entities.CategoryCPDActivities, m2.ID)
	if err != nil {
		return nil, err
	}

	s := SuggestMergeConfig(*m1, *m2, cpd1, cpd2)
	s.PairID = pair.ID
	return &s, nil
}

// SuggestMergeConfig builds the default configuration for merging a and b. Ties keep a.
func SuggestMergeConfig(a, b entities.Member, cpdA, cpdB int64) entities.MergeSuggestion {
	scoreA := Completeness(a, cpdA)
	scoreB := Completeness(b, cpdB)

	primary, secondary := a, b
	if scoreB > scoreA {
		primary, secondary = b, a
	}

	keep := make(map[string]bool, len(entities.MergeableFields()))
	for _, field := range entities.MergeableFields() {
		p, _ := primary.Field(field)
		s, _ := secondary.Field(field)
		keep[field] = !(strings.TrimSpace(p) == "" && strings.TrimSpace(s) != "")
	}

	return entities.MergeSuggestion{
		Config: entities.MergeConfig{
			PrimaryMemberID: primary.ID,
			FieldsToKeep:    keep,
			Relationships: entities.RelationshipPolicy{
				MergeCPDActivities:      true,
				MergeEventRegistrations: true,
				MergePayments:           true,
				SumCPDPoints:            true,
			},
		},
		Completeness: map[string]int{a.ID: scoreA, b.ID: scoreB},
	}
}

// Completeness counts populated profile fields plus up to five CPD activities.
func Completeness(m entities.Member, cpdActivities int64) int {
	score := 0
	for _, field := range completenessFields {
		if v, _ := m.Field(field); strings.TrimSpace(v) != "" {
			score++
		}
	}
	if cpdActivities > maxCPDCompleteness {
		cpdActivities = maxCPDCompleteness
	}
	return score + int(cpdActivities)
}
