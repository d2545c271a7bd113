package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/compass/internal/compass/domain"
	"github.com/aussiebroadwan/compass/internal/compass/store"
	"github.com/aussiebroadwan/compass/pkg/slogx"
)

// Snapshot is what an invitee may see of an assessment.
type Snapshot struct {
	CompanyName     string
	CompanyIndustry *string
	CompanySize     *string
	Status          string
	ExecProfile     *domain.ExecProfile
	Selections      domain.Payload
	Scores          domain.Payload
	Responses       domain.Payload
	Progress        *domain.Progress
}

func snapshotOf(a domain.Assessment) Snapshot {
	return Snapshot{
		CompanyName:     a.CompanyName,
		CompanyIndustry: a.CompanyIndustry,
		CompanySize:     a.CompanySize,
		Status:          a.Status,
		ExecProfile:     a.ExecProfile,
		Selections:      a.Selections,
		Scores:          a.Scores,
		Responses:       a.Responses,
		Progress:        a.Progress,
	}
}

// InvitePatch is a sparse invitee update. Status only ever moves to
// completed; any other value is dropped. Null values leave fields as they
// are, except the optional company text fields which null clears.
type InvitePatch struct {
	Status          domain.Patch[string]             `json:"status"`
	CompanyName     domain.Patch[string]             `json:"company_name"`
	CompanyIndustry domain.Patch[string]             `json:"company_industry"`
	CompanySize     domain.Patch[string]             `json:"company_size"`
	ExecProfile     domain.Patch[domain.ExecProfile] `json:"exec_profile"`
	Selections      domain.Patch[domain.Payload]     `json:"selections"`
	Scores          domain.Patch[domain.Payload]     `json:"scores"`
	Responses       domain.Patch[domain.Payload]     `json:"responses"`
	Progress        domain.Patch[domain.Progress]    `json:"progress"`
}

// InviteService is the token-holder path of the assessment lifecycle.
type InviteService struct {
	Store        store.Store
	Metrics      *Metrics
	Now          Clock
	StoreTimeout time.Duration
}

func (s *InviteService) Snapshot(ctx context.Context, token string) (Snapshot, error) {
	sctx, cancel := withStoreTimeout(ctx, s.StoreTimeout)
	defer cancel()

	a, err := s.open(sctx, token, s.Now.now())
	if err != nil {
		return Snapshot{}, err
	}
	return snapshotOf(a), nil
}

// UpdateSnapshot applies p through a live invite. The gate is checked again
// inside the write, so an invite cancelled or expired between the read and
// the write refuses the update.
func (s *InviteService) UpdateSnapshot(ctx context.Context, token string, p InvitePatch) error {
	log := slogx.FromContext(ctx)
	now := s.Now.now()

	sctx, cancel := withStoreTimeout(ctx, s.StoreTimeout)
	defer cancel()

	if _, err := s.open(sctx, token, now); err != nil {
		return err
	}

	changes, err := inviteChanges(p, now)
	if err != nil {
		return err
	}

	err = s.Store.Assessments().UpdateAssessment(sctx, store.AssessmentFilter{InviteToken: token, OpenAt: now}, changes)
	if errors.Is(err, store.ErrNotFound) {
		if _, gateErr := s.open(sctx, token, now); gateErr != nil {
			return gateErr
		}
		return ErrNotFound
	}
	if err != nil {
		log.Error("failed to update assessment through invite", slog.Any("error", err))
		return mapStoreErr(err)
	}
	return nil
}

// open evaluates the invite gate at now. Cancelled wins over expired.
func (s *InviteService) open(ctx context.Context, token string, now time.Time) (domain.Assessment, error) {
	if token == "" {
		return domain.Assessment{}, ErrNotFound
	}

	a, err := s.Store.Assessments().GetAssessmentByInviteToken(ctx, token)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slogx.FromContext(ctx).Error("failed to load invite", slog.Any("error", err))
		}
		return domain.Assessment{}, mapStoreErr(err)
	}

	switch {
	case a.Status != domain.StatusActive:
		s.Metrics.inviteRejected("cancelled")
		return domain.Assessment{}, ErrInviteCancelled
	case a.InviteExpiresAt.Before(now):
		s.Metrics.inviteRejected("expired")
		return domain.Assessment{}, ErrInviteExpired
	}
	return a, nil
}

func inviteChanges(p InvitePatch, now time.Time) (domain.AssessmentChanges, error) {
	c := domain.AssessmentChanges{
		CompanyName:     p.CompanyName.IgnoreClear(),
		CompanyIndustry: p.CompanyIndustry,
		CompanySize:     p.CompanySize,
		ExecProfile:     p.ExecProfile.IgnoreClear(),
		Selections:      p.Selections.IgnoreClear(),
		Scores:          p.Scores.IgnoreClear(),
		Responses:       p.Responses.IgnoreClear(),
		Progress:        p.Progress.IgnoreClear(),
		UpdatedAt:       now,
	}

	if status, ok := p.Status.Value(); ok && status == domain.StatusCompleted {
		c.Status = domain.Set(domain.StatusCompleted)
	}

	if ep, ok := c.ExecProfile.Value(); ok {
		if !isBareAddress(ep.Email) {
			return domain.AssessmentChanges{}, invalidInput("exec_profile.email must be a valid email address")
		}
	}

	for name, pl := range map[string]domain.Patch[domain.Payload]{
		"selections": c.Selections,
		"scores":     c.Scores,
		"responses":  c.Responses,
	} {
		if v, ok := pl.Value(); ok {
			if err := v.Validate(); err != nil {
				return domain.AssessmentChanges{}, invalidInput(name + " must be a JSON value")
			}
		}
	}

	if pr, ok := c.Progress.Value(); ok {
		if pr.CompletedMetrics < 0 || pr.TotalMetrics < 0 || pr.Percent < 0 || pr.Percent > 100 {
			return domain.AssessmentChanges{}, invalidInput("progress values out of range")
		}
		if pr.UpdatedAt.IsZero() {
			pr.UpdatedAt = now
			c.Progress = domain.Set(pr)
		}
	}

	return c, nil
}
