package postgres

import (
	"context"
	"fmt"

	"member-dedup/internal/entities"

	"github.com/google/uuid"
)

type relationshipTable struct {
	name  string
	value string
}

var relationshipTables = map[entities.RelationshipCategory]relationshipTable{
	entities.CategoryCPDActivities:      {name: "cpd_activities", value: "points"},
	entities.CategoryEventRegistrations: {name: "event_registrations", value: "points"},
	entities.CategoryPayments:           {name: "payments", value: "amount"},
}

func tableFor(category entities.RelationshipCategory) (relationshipTable, error) {
	t, ok := relationshipTables[category]
	if !ok {
		return relationshipTable{}, fmt.Errorf("%w: unknown relationship category %q", entities.ErrInvalidArgument, category)
	}
	return t, nil
}

// InsertDependent stores one dependent record.
func (p *Postgres) InsertDependent(ctx context.Context, d entities.Dependent) error {
	t, err := tableFor(d.Category)
	if err != nil {
		return err
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	query := fmt.Sprintf(`INSERT INTO %s(id, member_id, %s) VALUES ($1,$2,$3)`, t.name, t.value)
	if _, err := p.db.Exec(ctx, query, d.ID, d.MemberID, d.Value); err != nil {
		p.log.Errorw("failed to insert dependent", "error", err, "category", d.Category, "member_id", d.MemberID)
		return fmt.Errorf("insert %s: %w", t.name, err)
	}
	return nil
}

// CountRelationship counts the records of category referencing memberID.
func (p *Postgres) CountRelationship(ctx context.Context, category entities.RelationshipCategory, memberID string) (int64, error) {
	t, err := tableFor(category)
	if err != nil {
		return 0, err
	}
	var n int64
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE member_id=$1`, t.name)
	if err := p.db.QueryRow(ctx, query, memberID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", t.name, err)
	}
	return n, nil
}

// SumRelationship sums the numeric column of category across records of memberID.
func (p *Postgres) SumRelationship(ctx context.Context, category entities.RelationshipCategory, memberID string) (float64, error) {
	return sumRelationship(ctx, p.db, category, memberID)
}

func sumRelationship(ctx context.Context, q querier, category entities.RelationshipCategory, memberID string) (float64, error) {
	t, err := tableFor(category)
	if err != nil {
		return 0, err
	}
	var total float64
	query := fmt.Sprintf(`SELECT COALESCE(SUM(%s), 0)::float8 FROM %s WHERE member_id=$1`, t.value, t.name)
	if err := q.QueryRow(ctx, query, memberID).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum %s: %w", t.name, err)
	}
	return total, nil
}

func transferRelationship(ctx context.Context, q querier, category entities.RelationshipCategory, from, to string) (int64, error) {
	t, err := tableFor(category)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`UPDATE %s SET member_id=$1 WHERE member_id=$2`, t.name)
	tag, err := q.Exec(ctx, query, to, from)
	if err != nil {
		return 0, fmt.Errorf("repoint %s: %w", t.name, err)
	}
	return tag.RowsAffected(), nil
}
