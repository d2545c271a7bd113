package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/compass/internal/compass/domain"
	"github.com/aussiebroadwan/compass/internal/compass/store"
	"github.com/aussiebroadwan/compass/pkg/cryptox"
	"github.com/aussiebroadwan/compass/pkg/slogx"
)

const (
	DefaultInviteDays = 30
	MaxInviteDays     = 365
)

// CreateAssessment is the owner's request to open a new assessment.
type CreateAssessment struct {
	CompanyName     string  `json:"company_name"`
	CompanyIndustry *string `json:"company_industry,omitempty"`
	CompanySize     *string `json:"company_size,omitempty"`
	InviteDays      *int    `json:"invite_days,omitempty"`
}

// OwnerPatch is a sparse owner update. InviteDays re-issues the invite by
// moving its expiry to now plus that many days; the token is kept.
type OwnerPatch struct {
	Status          domain.Patch[string] `json:"status"`
	CompanyName     domain.Patch[string] `json:"company_name"`
	CompanyIndustry domain.Patch[string] `json:"company_industry"`
	CompanySize     domain.Patch[string] `json:"company_size"`
	InviteDays      domain.Patch[int]    `json:"invite_days"`
}

// AssessmentService is the owner path of the assessment lifecycle.
type AssessmentService struct {
	Store        store.Store
	Metrics      *Metrics
	Now          Clock
	StoreTimeout time.Duration

	// NewInviteToken defaults to cryptox.GenerateInviteToken.
	NewInviteToken func() (string, error)
}

// List returns the owner's assessments, newest first.
func (s *AssessmentService) List(ctx context.Context, ownerID string) ([]domain.Assessment, error) {
	sctx, cancel := withStoreTimeout(ctx, s.StoreTimeout)
	defer cancel()

	list, err := s.Store.Assessments().ListAssessmentsByOwner(sctx, ownerID)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list assessments", slog.Any("error", err))
		return nil, mapStoreErr(err)
	}
	return list, nil
}

func (s *AssessmentService) Create(ctx context.Context, ownerID string, req CreateAssessment) (domain.Assessment, error) {
	log := slogx.FromContext(ctx)

	if strings.TrimSpace(req.CompanyName) == "" {
		return domain.Assessment{}, invalidInput("company_name is required")
	}
	days := DefaultInviteDays
	if req.InviteDays != nil {
		days = *req.InviteDays
	}
	if err := validateInviteDays(days); err != nil {
		return domain.Assessment{}, err
	}

	token, err := s.inviteToken()
	if err != nil {
		return domain.Assessment{}, err
	}

	now := s.Now.now()
	sctx, cancel := withStoreTimeout(ctx, s.StoreTimeout)
	defer cancel()

	a, err := s.Store.Assessments().CreateAssessment(sctx, domain.Assessment{
		OwnerID:         ownerID,
		CompanyName:     req.CompanyName,
		CompanyIndustry: req.CompanyIndustry,
		CompanySize:     req.CompanySize,
		InviteToken:     token,
		InviteExpiresAt: now.Add(inviteTTL(days)),
		Status:          domain.StatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			log.Warn("invite token collision", slog.String("owner_id", ownerID))
			return domain.Assessment{}, ErrConflict
		}
		log.Error("failed to create assessment", slog.Any("error", err))
		return domain.Assessment{}, mapStoreErr(err)
	}

	s.Metrics.assessmentCreated()
	log.Info("assessment created",
		slog.String("assessment_id", a.ID),
		slog.Time("invite_expires_at", a.InviteExpiresAt),
	)
	return a, nil
}

// Get returns the assessment if ownerID owns it.
func (s *AssessmentService) Get(ctx context.Context, id, ownerID string) (domain.Assessment, error) {
	sctx, cancel := withStoreTimeout(ctx, s.StoreTimeout)
	defer cancel()

	a, err := s.Store.Assessments().GetAssessmentByID(sctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) && !errors.Is(err, store.ErrInvalidID) {
			slogx.FromContext(ctx).Error("failed to load assessment", slog.Any("error", err))
		}
		return domain.Assessment{}, mapStoreErr(err)
	}
	if a.OwnerID != ownerID {
		return domain.Assessment{}, ErrForbidden
	}
	return a, nil
}

// Update applies p to an owned assessment and stamps updated_at.
func (s *AssessmentService) Update(ctx context.Context, id, ownerID string, p OwnerPatch) error {
	changes, err := s.ownerChanges(p)
	if err != nil {
		return err
	}

	if _, err := s.Get(ctx, id, ownerID); err != nil {
		return err
	}

	sctx, cancel := withStoreTimeout(ctx, s.StoreTimeout)
	defer cancel()

	err = s.Store.Assessments().UpdateAssessment(sctx, store.AssessmentFilter{ID: id, OwnerID: ownerID}, changes)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slogx.FromContext(ctx).Error("failed to update assessment", slog.Any("error", err))
		}
		return mapStoreErr(err)
	}
	return nil
}

func (s *AssessmentService) ownerChanges(p OwnerPatch) (domain.AssessmentChanges, error) {
	now := s.Now.now()
	c := domain.AssessmentChanges{
		Status:          p.Status.IgnoreClear(),
		CompanyName:     p.CompanyName.IgnoreClear(),
		CompanyIndustry: p.CompanyIndustry,
		CompanySize:     p.CompanySize,
		UpdatedAt:       now,
	}

	if days, ok := p.InviteDays.Value(); ok {
		if err := validateInviteDays(days); err != nil {
			return domain.AssessmentChanges{}, err
		}
		c.InviteExpiresAt = domain.Set(now.Add(inviteTTL(days)))
	}
	return c, nil
}

func (s *AssessmentService) inviteToken() (string, error) {
	if s.NewInviteToken != nil {
		return s.NewInviteToken()
	}
	return cryptox.GenerateInviteToken()
}

func validateInviteDays(days int) error {
	if days < 1 || days > MaxInviteDays {
		return invalidInput("invite_days must be between 1 and 365")
	}
	return nil
}

func inviteTTL(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}
