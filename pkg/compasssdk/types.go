package compasssdk

import (
	"encoding/json"
	"time"
)

// Credentials is the body of register and login.
type Credentials struct {
	Email    string `json:"email" example:"owner@example.com"`
	Password string `json:"password" example:"correct-horse"`
}

type User struct {
	ID    string `json:"id" example:"01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV"`
	Email string `json:"email" example:"owner@example.com"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type ExecProfile struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Email string `json:"email"`
}

type Progress struct {
	CompletedMetrics int       `json:"completed_metrics"`
	TotalMetrics     int       `json:"total_metrics"`
	Percent          int       `json:"percent"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// AssessmentSummary is the owner's view of an assessment.
type AssessmentSummary struct {
	ID              string    `json:"id"`
	CompanyName     string    `json:"company_name"`
	CompanyIndustry *string   `json:"company_industry,omitempty"`
	CompanySize     *string   `json:"company_size,omitempty"`
	InviteToken     string    `json:"invite_token"`
	InviteExpiresAt time.Time `json:"invite_expires_at"`
	Status          string    `json:"status" example:"active"`
	Progress        *Progress `json:"progress,omitempty"`
}

// InviteSnapshot is what an invite link shows. It never contains the
// owner or the token itself.
type InviteSnapshot struct {
	CompanyName     string          `json:"company_name"`
	CompanyIndustry *string         `json:"company_industry,omitempty"`
	CompanySize     *string         `json:"company_size,omitempty"`
	Status          string          `json:"status"`
	ExecProfile     *ExecProfile    `json:"exec_profile,omitempty"`
	Selections      json.RawMessage `json:"selections,omitempty" swaggertype:"object"`
	Scores          json.RawMessage `json:"scores,omitempty" swaggertype:"object"`
	Responses       json.RawMessage `json:"responses,omitempty" swaggertype:"object"`
	Progress        *Progress       `json:"progress,omitempty"`
}

type CreateAssessmentRequest struct {
	CompanyName     string  `json:"company_name" example:"Acme"`
	CompanyIndustry *string `json:"company_industry,omitempty"`
	CompanySize     *string `json:"company_size,omitempty"`
	InviteDays      *int    `json:"invite_days,omitempty" example:"30"`
}

// UpdateAssessmentRequest is a sparse owner update. Nil fields are not sent.
// Fields named in Clear are sent as null, which empties company_industry and
// company_size.
type UpdateAssessmentRequest struct {
	Status          *string `json:"status,omitempty" example:"cancelled"`
	CompanyName     *string `json:"company_name,omitempty"`
	CompanyIndustry *string `json:"company_industry,omitempty"`
	CompanySize     *string `json:"company_size,omitempty"`
	InviteDays      *int    `json:"invite_days,omitempty" example:"30"`

	Clear []string `json:"-"`
}

func (r UpdateAssessmentRequest) MarshalJSON() ([]byte, error) {
	type plain UpdateAssessmentRequest
	return marshalWithNulls(plain(r), r.Clear)
}

// UpdateInviteRequest is a sparse invitee update. Status is only honoured
// when it is "completed".
type UpdateInviteRequest struct {
	Status          *string         `json:"status,omitempty" example:"completed"`
	CompanyName     *string         `json:"company_name,omitempty"`
	CompanyIndustry *string         `json:"company_industry,omitempty"`
	CompanySize     *string         `json:"company_size,omitempty"`
	ExecProfile     *ExecProfile    `json:"exec_profile,omitempty"`
	Selections      json.RawMessage `json:"selections,omitempty" swaggertype:"object"`
	Scores          json.RawMessage `json:"scores,omitempty" swaggertype:"object"`
	Responses       json.RawMessage `json:"responses,omitempty" swaggertype:"object"`
	Progress        *Progress       `json:"progress,omitempty"`

	Clear []string `json:"-"`
}

func (r UpdateInviteRequest) MarshalJSON() ([]byte, error) {
	type plain UpdateInviteRequest
	return marshalWithNulls(plain(r), r.Clear)
}

// OKResponse acknowledges an update.
type OKResponse struct {
	OK bool `json:"ok" example:"true"`
}

type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Version string `json:"version,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

type WelcomeResponse struct {
	Message string `json:"message"`
}

// marshalWithNulls encodes v and adds a null member for every key in nulls.
func marshalWithNulls(v any, nulls []string) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil || len(nulls) == 0 {
		return b, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	for _, k := range nulls {
		fields[k] = json.RawMessage("null")
	}
	return json.Marshal(fields)
}
