package types

// Principal is the signed-in user as seen by the workbench. Credentials are
// issued elsewhere; the workbench only carries them to the platform.
type Principal struct {
	// UserID is the platform identifier of the user.
	UserID string `json:"user_id"`

	// Token is the opaque bearer credential attached to outgoing requests.
	// It is never echoed in API responses.
	Token string `json:"-"`
}

// SignedIn reports whether a user is present.
func (p Principal) SignedIn() bool {
	return p.UserID != ""
}
