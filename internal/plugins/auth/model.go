// Package auth derives the client's authentication state from the stored
// session token and guards routes on it.
//
// The token's claims are decoded WITHOUT verifying its signature. This is
// not a security boundary: the backend re-authorizes every API call. The
// local decode only decides which screens to show and when to send the
// user back to the landing page.
//
// This is a CORE plugin -- always enabled, cannot be disabled.
package auth

// Status is the session state machine: Loading until the first check
// resolves, then Authenticated or Unauthenticated.
type Status string

const (
	StatusLoading         Status = "loading"
	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
)

// Claims is the decoded token payload.
type Claims map[string]any

// Subject returns the "sub" claim, or "" if absent.
func (c Claims) Subject() string {
	s, _ := c["sub"].(string)
	return s
}

// State is a snapshot of the session authority.
type State struct {
	Status Status `json:"status"`
	User   Claims `json:"user"`
}

// IsAuthenticated reports whether the last check found a live token.
func (s State) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated
}

// IsLoading reports whether no check has resolved yet.
func (s State) IsLoading() bool {
	return s.Status == StatusLoading
}

// --- Request DTOs (bound from HTTP requests) ---

// LoginRequest carries the credentials issued by the backend once OTP
// verification succeeds.
type LoginRequest struct {
	Token  string `json:"token"`
	Verify string `json:"verify"`
	IP     string `json:"ip"`
}

// sessionResponse is the JSON shape of GET /api/v1/session.
type sessionResponse struct {
	IsAuthenticated bool   `json:"is_authenticated"`
	IsLoading       bool   `json:"is_loading"`
	User            Claims `json:"user"`
}

func newSessionResponse(s State) sessionResponse {
	return sessionResponse{
		IsAuthenticated: s.IsAuthenticated(),
		IsLoading:       s.IsLoading(),
		User:            s.User,
	}
}
