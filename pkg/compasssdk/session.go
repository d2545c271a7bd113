package compasssdk

import (
	"context"
	"net/http"
	"net/url"
)

// Session performs owner operations with a bearer token. Tokens are not
// refreshed; log in again once one expires.
type Session struct {
	client *Client
	token  string

	// User is set when the session came from Register or Login.
	User User
}

func (s *Session) Token() string { return s.token }

// Me returns the account behind the token.
func (s *Session) Me(ctx context.Context) (*User, error) {
	var out User
	if err := s.do(ctx, http.MethodGet, "/auth/me", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) ListAssessments(ctx context.Context) ([]AssessmentSummary, error) {
	var out []AssessmentSummary
	if err := s.do(ctx, http.MethodGet, "/assessments", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) CreateAssessment(ctx context.Context, req CreateAssessmentRequest) (*AssessmentSummary, error) {
	var out AssessmentSummary
	if err := s.do(ctx, http.MethodPost, "/assessments", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) GetAssessment(ctx context.Context, id string) (*AssessmentSummary, error) {
	var out AssessmentSummary
	if err := s.do(ctx, http.MethodGet, "/assessments/"+url.PathEscape(id), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) UpdateAssessment(ctx context.Context, id string, req UpdateAssessmentRequest) error {
	var out OKResponse
	return s.do(ctx, http.MethodPatch, "/assessments/"+url.PathEscape(id), req, &out, http.StatusOK)
}

func (s *Session) do(ctx context.Context, method, path string, body, out any, expectedStatus int) error {
	return s.client.do(ctx, method, s.client.apiPath(path), s.token, body, out, expectedStatus)
}
