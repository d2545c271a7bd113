package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/compass/internal/compass/domain"
	"github.com/aussiebroadwan/compass/internal/compass/store"
	"github.com/aussiebroadwan/compass/pkg/idx"
	"github.com/jmoiron/sqlx"
)

type assessmentsRepo struct {
	db *sqlx.DB
}

type assessmentRow struct {
	ID              string         `db:"id"`
	OwnerID         string         `db:"owner_id"`
	CompanyName     string         `db:"company_name"`
	CompanyIndustry sql.NullString `db:"company_industry"`
	CompanySize     sql.NullString `db:"company_size"`
	InviteToken     string         `db:"invite_token"`
	InviteExpiresAt timestamp      `db:"invite_expires_at"`
	Status          string         `db:"status"`
	ExecProfile     sql.NullString `db:"exec_profile"`
	Selections      sql.NullString `db:"selections"`
	Scores          sql.NullString `db:"scores"`
	Responses       sql.NullString `db:"responses"`
	Progress        sql.NullString `db:"progress"`
	CreatedAt       timestamp      `db:"created_at"`
	UpdatedAt       timestamp      `db:"updated_at"`
}

const selectAssessment = `SELECT id, owner_id, company_name, company_industry, company_size,
	invite_token, invite_expires_at, status, exec_profile, selections, scores,
	responses, progress, created_at, updated_at FROM assessments`

func (r assessmentRow) domain() (domain.Assessment, error) {
	a := domain.Assessment{
		ID:              r.ID,
		OwnerID:         r.OwnerID,
		CompanyName:     r.CompanyName,
		CompanyIndustry: mapNullStringPtr(r.CompanyIndustry),
		CompanySize:     mapNullStringPtr(r.CompanySize),
		InviteToken:     r.InviteToken,
		InviteExpiresAt: r.InviteExpiresAt.Time(),
		Status:          r.Status,
		Selections:      mapNullPayload(r.Selections),
		Scores:          mapNullPayload(r.Scores),
		Responses:       mapNullPayload(r.Responses),
		CreatedAt:       r.CreatedAt.Time(),
		UpdatedAt:       r.UpdatedAt.Time(),
	}

	if r.ExecProfile.Valid {
		var p domain.ExecProfile
		if err := json.Unmarshal([]byte(r.ExecProfile.String), &p); err != nil {
			return domain.Assessment{}, fmt.Errorf("sqlite: decode exec_profile of %s: %w", r.ID, err)
		}
		a.ExecProfile = &p
	}
	if r.Progress.Valid {
		var p domain.Progress
		if err := json.Unmarshal([]byte(r.Progress.String), &p); err != nil {
			return domain.Assessment{}, fmt.Errorf("sqlite: decode progress of %s: %w", r.ID, err)
		}
		a.Progress = &p
	}
	return a, nil
}

func mapNullPayload(ns sql.NullString) domain.Payload {
	if !ns.Valid {
		return nil
	}
	return domain.Payload(ns.String)
}

func mapOptionalPayload(p domain.Payload) sql.NullString {
	if len(p) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(p), Valid: true}
}

func mapOptionalJSON[T any](v *T) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func (r *assessmentsRepo) CreateAssessment(ctx context.Context, a domain.Assessment) (domain.Assessment, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}
	if a.ID == "" {
		a.ID = idx.NewAt(a.CreatedAt).String()
	}

	execProfile, err := mapOptionalJSON(a.ExecProfile)
	if err != nil {
		return domain.Assessment{}, err
	}
	progress, err := mapOptionalJSON(a.Progress)
	if err != nil {
		return domain.Assessment{}, err
	}

	row := assessmentRow{
		ID:              a.ID,
		OwnerID:         a.OwnerID,
		CompanyName:     a.CompanyName,
		CompanyIndustry: mapOptionalString(a.CompanyIndustry),
		CompanySize:     mapOptionalString(a.CompanySize),
		InviteToken:     a.InviteToken,
		InviteExpiresAt: timestamp(a.InviteExpiresAt),
		Status:          a.Status,
		ExecProfile:     execProfile,
		Selections:      mapOptionalPayload(a.Selections),
		Scores:          mapOptionalPayload(a.Scores),
		Responses:       mapOptionalPayload(a.Responses),
		Progress:        progress,
		CreatedAt:       timestamp(a.CreatedAt),
		UpdatedAt:       timestamp(a.UpdatedAt),
	}

	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO assessments (
			id, owner_id, company_name, company_industry, company_size,
			invite_token, invite_expires_at, status, exec_profile, selections,
			scores, responses, progress, created_at, updated_at
		) VALUES (
			:id, :owner_id, :company_name, :company_industry, :company_size,
			:invite_token, :invite_expires_at, :status, :exec_profile, :selections,
			:scores, :responses, :progress, :created_at, :updated_at
		)`, row)
	if err != nil {
		return domain.Assessment{}, mapConstraint(err)
	}
	return row.domain()
}

func (r *assessmentsRepo) GetAssessmentByID(ctx context.Context, id string) (domain.Assessment, error) {
	if !idx.Valid(id) {
		return domain.Assessment{}, store.ErrInvalidID
	}
	return r.getOne(ctx, selectAssessment+` WHERE id = ?`, id)
}

func (r *assessmentsRepo) GetAssessmentByInviteToken(ctx context.Context, token string) (domain.Assessment, error) {
	if token == "" {
		return domain.Assessment{}, store.ErrNotFound
	}
	return r.getOne(ctx, selectAssessment+` WHERE invite_token = ?`, token)
}

func (r *assessmentsRepo) getOne(ctx context.Context, query string, args ...any) (domain.Assessment, error) {
	var row assessmentRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return domain.Assessment{}, mapNotFound(err)
	}
	return row.domain()
}

func (r *assessmentsRepo) ListAssessmentsByOwner(ctx context.Context, ownerID string) ([]domain.Assessment, error) {
	var rows []assessmentRow
	err := r.db.SelectContext(ctx, &rows,
		selectAssessment+` WHERE owner_id = ? ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Assessment, 0, len(rows))
	for _, row := range rows {
		a, err := row.domain()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *assessmentsRepo) UpdateAssessment(ctx context.Context, f store.AssessmentFilter, c domain.AssessmentChanges) error {
	where, whereArgs, err := filterClause(f)
	if err != nil {
		return err
	}
	sets, setArgs, err := setClause(c)
	if err != nil {
		return err
	}

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var cur struct {
			ID        string    `db:"id"`
			UpdatedAt timestamp `db:"updated_at"`
		}
		if err := tx.GetContext(ctx, &cur, `SELECT id, updated_at FROM assessments WHERE `+where, whereArgs...); err != nil {
			return mapNotFound(err)
		}

		stamp := domain.NextUpdatedAt(cur.UpdatedAt.Time(), c.UpdatedAt)
		sets = append(sets, "updated_at = ?")
		args := append(setArgs, timestamp(stamp), cur.ID)

		_, err := tx.ExecContext(ctx, `UPDATE assessments SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
		return err
	})
}

func filterClause(f store.AssessmentFilter) (string, []any, error) {
	var conds []string
	var args []any

	if f.ID == "" && f.InviteToken == "" {
		return "", nil, fmt.Errorf("sqlite: update filter needs an id or invite token")
	}
	if f.ID != "" {
		if !idx.Valid(f.ID) {
			return "", nil, store.ErrInvalidID
		}
		conds = append(conds, "id = ?")
		args = append(args, f.ID)
	}
	if f.OwnerID != "" {
		conds = append(conds, "owner_id = ?")
		args = append(args, f.OwnerID)
	}
	if f.InviteToken != "" {
		conds = append(conds, "invite_token = ?")
		args = append(args, f.InviteToken)
	}
	if !f.OpenAt.IsZero() {
		conds = append(conds, "status = ?", "invite_expires_at >= ?")
		args = append(args, domain.StatusActive, timestamp(f.OpenAt))
	}
	return strings.Join(conds, " AND "), args, nil
}

func setClause(c domain.AssessmentChanges) ([]string, []any, error) {
	var (
		sets []string
		args []any
	)

	text := func(col string, p domain.Patch[string]) {
		if v, ok := p.Value(); ok {
			sets = append(sets, col+" = ?")
			args = append(args, v)
		} else if p.IsClear() {
			sets = append(sets, col+" = NULL")
		}
	}
	text("status", c.Status)
	text("company_name", c.CompanyName)
	text("company_industry", c.CompanyIndustry)
	text("company_size", c.CompanySize)

	if v, ok := c.InviteExpiresAt.Value(); ok {
		sets = append(sets, "invite_expires_at = ?")
		args = append(args, timestamp(v))
	}

	payload := func(col string, p domain.Patch[domain.Payload]) {
		if v, ok := p.Value(); ok {
			sets = append(sets, col+" = ?")
			args = append(args, string(v))
		} else if p.IsClear() {
			sets = append(sets, col+" = NULL")
		}
	}
	payload("selections", c.Selections)
	payload("scores", c.Scores)
	payload("responses", c.Responses)

	if v, ok := c.ExecProfile.Value(); ok {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, nil, err
		}
		sets = append(sets, "exec_profile = ?")
		args = append(args, string(b))
	}
	if v, ok := c.Progress.Value(); ok {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, nil, err
		}
		sets = append(sets, "progress = ?")
		args = append(args, string(b))
	}

	return sets, args, nil
}
