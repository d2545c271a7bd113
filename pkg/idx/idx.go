// Package idx generates and validates the ULID identifiers used for sqlite
// records and request ids.
package idx

import (
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

type ID string

// Zero is the empty ID.
const Zero ID = ""

// ErrInvalid reports a malformed ULID string.
var ErrInvalid = errors.New("idx: invalid ulid")

// New returns an ID for the current time. IDs from one process sort in
// creation order, even within a millisecond.
func New() ID {
	return ID(ulid.Make().String())
}

// NewAt returns an ID stamped with t, for tests that need a fixed order.
func NewAt(t time.Time) ID {
	return ID(ulid.MustNew(ulid.Timestamp(t.UTC()), ulid.DefaultEntropy()).String())
}

// Parse accepts the canonical 26 character form, surrounding space trimmed.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if _, err := ulid.ParseStrict(s); err != nil {
		return Zero, ErrInvalid
	}
	return ID(s), nil
}

func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// MustParse is Parse for hard-coded ids.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id ID) IsZero() bool   { return id == Zero }
func (id ID) String() string { return string(id) }

// Time is the embedded creation time in UTC, or the zero time for an
// invalid id.
func (id ID) Time() time.Time {
	u, err := ulid.ParseStrict(string(id))
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time()).UTC()
}

func Compare(a, b ID) int {
	return strings.Compare(string(a), string(b))
}
