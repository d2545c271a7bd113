package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

// Assessment statuses. Any other non-empty value an owner sets is stored as
// is and closes the invite like cancelled does.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

type Assessment struct {
	ID              string
	OwnerID         string
	CompanyName     string
	CompanyIndustry *string
	CompanySize     *string
	InviteToken     string
	InviteExpiresAt time.Time
	Status          string
	ExecProfile     *ExecProfile
	Selections      Payload // nil when never set
	Scores          Payload
	Responses       Payload
	Progress        *Progress
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// InviteOpenAt reports whether the invite can be used at now.
func (a Assessment) InviteOpenAt(now time.Time) bool {
	return a.Status == StatusActive && !a.InviteExpiresAt.Before(now)
}

type ExecProfile struct {
	Name  string `json:"name" bson:"name"`
	Title string `json:"title" bson:"title"`
	Email string `json:"email" bson:"email"`
}

type Progress struct {
	CompletedMetrics int       `json:"completed_metrics" bson:"completed_metrics"`
	TotalMetrics     int       `json:"total_metrics" bson:"total_metrics"`
	Percent          int       `json:"percent" bson:"percent"`
	UpdatedAt        time.Time `json:"updated_at" bson:"updated_at"`
}

// ErrInvalidPayload is returned for payloads that are not a JSON value.
var ErrInvalidPayload = errors.New("domain: payload must be a non-null json value")

// Payload is a caller-defined JSON document stored verbatim.
type Payload json.RawMessage

// Validate checks p is syntactically valid JSON and not null.
func (p Payload) Validate() error {
	trimmed := bytes.TrimSpace(p)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || !json.Valid(trimmed) {
		return ErrInvalidPayload
	}
	return nil
}

func (p Payload) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}

func (p *Payload) UnmarshalJSON(b []byte) error {
	*p = append((*p)[:0], b...)
	return nil
}

// AssessmentChanges is a sparse update. Unchanged fields are left as stored.
// UpdatedAt is a lower bound: stores write max(UpdatedAt, previous+1ms).
type AssessmentChanges struct {
	Status          Patch[string]
	CompanyName     Patch[string]
	CompanyIndustry Patch[string]
	CompanySize     Patch[string]
	InviteExpiresAt Patch[time.Time]
	ExecProfile     Patch[ExecProfile]
	Selections      Patch[Payload]
	Scores          Patch[Payload]
	Responses       Patch[Payload]
	Progress        Patch[Progress]
	UpdatedAt       time.Time
}

// MinUpdateStep is the smallest amount updated_at advances per write.
const MinUpdateStep = time.Millisecond

// NextUpdatedAt returns the stamp to write given the previous one.
func NextUpdatedAt(prev, now time.Time) time.Time {
	now = now.UTC().Truncate(time.Millisecond)
	if floor := prev.Add(MinUpdateStep); now.Before(floor) {
		return floor.UTC()
	}
	return now
}
