package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"member-dedup/internal/entities"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const memberColumns = `id, first_name, last_name, email, phone, mobile, company_id, company_name,
	street_address, suburb, postcode, state, country, membership_status, membership_type, bio,
	cpd_points_total, created_at, updated_at`

const (
	selectMemberQuery  = `SELECT ` + memberColumns + ` FROM members WHERE id=$1`
	selectMembersQuery = `SELECT ` + memberColumns + ` FROM members ORDER BY id`
	countMembersQuery  = `SELECT COUNT(*) FROM members`
	lockMembersQuery   = `SELECT ` + memberColumns + ` FROM members WHERE id = ANY($1) ORDER BY id FOR UPDATE`
	advisoryLockQuery  = `SELECT pg_advisory_xact_lock(hashtext($1))`
	deleteMemberQuery  = `DELETE FROM members WHERE id=$1`
	insertMemberQuery  = `INSERT INTO members(` + memberColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`
)

const updateMemberQuery = `UPDATE members SET first_name=$2, last_name=$3, email=$4, phone=$5, mobile=$6,
	company_id=$7, company_name=$8, street_address=$9, suburb=$10, postcode=$11, state=$12, country=$13,
	membership_status=$14, membership_type=$15, bio=$16, cpd_points_total=$17, updated_at=$18
	WHERE id=$1`

// GetMember returns a member by id.
func (p *Postgres) GetMember(ctx context.Context, id string) (*entities.Member, error) {
	m, err := scanMember(p.db.QueryRow(ctx, selectMemberQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: member %s", entities.ErrNotFound, id)
		}
		p.log.Errorw("failed to get member", "error", err, "member_id", id)
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

// ListMembers returns the whole member population ordered by id.
func (p *Postgres) ListMembers(ctx context.Context) ([]entities.Member, error) {
	rows, err := p.db.Query(ctx, selectMembersQuery)
	if err != nil {
		p.log.Errorw("failed to list members", "error", err)
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := make([]entities.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

// InsertMember stores a new member, generating an id when none is given.
func (p *Postgres) InsertMember(ctx context.Context, m entities.Member) (*entities.Member, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = now
	}
	if err := insertMember(ctx, p.db, m); err != nil {
		if !errors.Is(err, entities.ErrConflict) {
			p.log.Errorw("failed to insert member", "error", err, "member_id", m.ID)
		}
		return nil, err
	}
	return &m, nil
}

// CountMembers returns the population size.
func (p *Postgres) CountMembers(ctx context.Context) (int64, error) {
	var n int64
	if err := p.db.QueryRow(ctx, countMembersQuery).Scan(&n); err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return n, nil
}

func insertMember(ctx context.Context, q querier, m entities.Member) error {
	_, err := q.Exec(ctx, insertMemberQuery,
		m.ID, m.FirstName, m.LastName, m.Email, m.Phone, m.Mobile, m.CompanyID, m.CompanyName,
		m.StreetAddress, m.Suburb, m.Postcode, m.State, m.Country, m.MembershipStatus, m.MembershipType, m.Bio,
		m.CPDPointsTotal, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: member %s already exists", entities.ErrConflict, m.ID)
		}
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

func updateMember(ctx context.Context, q querier, m entities.Member) error {
	tag, err := q.Exec(ctx, updateMemberQuery,
		m.ID, m.FirstName, m.LastName, m.Email, m.Phone, m.Mobile, m.CompanyID, m.CompanyName,
		m.StreetAddress, m.Suburb, m.Postcode, m.State, m.Country, m.MembershipStatus, m.MembershipType, m.Bio,
		m.CPDPointsTotal, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: member %s", entities.ErrNotFound, m.ID)
	}
	return nil
}

func scanMember(row pgx.Row) (*entities.Member, error) {
	var m entities.Member
	if err := row.Scan(
		&m.ID, &m.FirstName, &m.LastName, &m.Email, &m.Phone, &m.Mobile, &m.CompanyID, &m.CompanyName,
		&m.StreetAddress, &m.Suburb, &m.Postcode, &m.State, &m.Country, &m.MembershipStatus, &m.MembershipType, &m.Bio,
		&m.CPDPointsTotal, &m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}
