package http

import (
	"encoding/json"

	"github.com/aussiebroadwan/compass/internal/compass/domain"
	"github.com/aussiebroadwan/compass/internal/compass/service"
	"github.com/aussiebroadwan/compass/pkg/compasssdk"
)

func toUser(u domain.User) compasssdk.User {
	return compasssdk.User{ID: u.ID, Email: u.Email}
}

func toSummary(a domain.Assessment) compasssdk.AssessmentSummary {
	return compasssdk.AssessmentSummary{
		ID:              a.ID,
		CompanyName:     a.CompanyName,
		CompanyIndustry: a.CompanyIndustry,
		CompanySize:     a.CompanySize,
		InviteToken:     a.InviteToken,
		InviteExpiresAt: a.InviteExpiresAt,
		Status:          a.Status,
		Progress:        toProgress(a.Progress),
	}
}

func toSnapshot(s service.Snapshot) compasssdk.InviteSnapshot {
	out := compasssdk.InviteSnapshot{
		CompanyName:     s.CompanyName,
		CompanyIndustry: s.CompanyIndustry,
		CompanySize:     s.CompanySize,
		Status:          s.Status,
		Selections:      rawJSON(s.Selections),
		Scores:          rawJSON(s.Scores),
		Responses:       rawJSON(s.Responses),
		Progress:        toProgress(s.Progress),
	}
	if s.ExecProfile != nil {
		out.ExecProfile = &compasssdk.ExecProfile{
			Name:  s.ExecProfile.Name,
			Title: s.ExecProfile.Title,
			Email: s.ExecProfile.Email,
		}
	}
	return out
}

func toProgress(p *domain.Progress) *compasssdk.Progress {
	if p == nil {
		return nil
	}
	return &compasssdk.Progress{
		CompletedMetrics: p.CompletedMetrics,
		TotalMetrics:     p.TotalMetrics,
		Percent:          p.Percent,
		UpdatedAt:        p.UpdatedAt,
	}
}

func rawJSON(p domain.Payload) json.RawMessage {
	if len(p) == 0 {
		return nil
	}
	return json.RawMessage(p)
}
