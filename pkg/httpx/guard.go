package httpx

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/compass/pkg/jwtx"
)

// CredentialState is the outcome of inspecting a request's bearer credential.
type CredentialState int

const (
	NoCredential CredentialState = iota
	Verified
	Rejected
)

func (s CredentialState) String() string {
	switch s {
	case NoCredential:
		return "no_credential"
	case Verified:
		return "verified"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Resolution is the result of a single Resolve pass.
type Resolution struct {
	State  CredentialState
	Claims jwtx.Claims
	Err    error
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(authz, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Resolve runs the credential state machine once over r.
func Resolve(r *http.Request, v jwtx.Verifier) Resolution {
	raw, ok := BearerToken(r)
	if !ok {
		return Resolution{State: NoCredential}
	}

	claims, err := v.Verify(raw)
	if err != nil {
		return Resolution{State: Rejected, Err: err}
	}
	return Resolution{State: Verified, Claims: claims}
}
