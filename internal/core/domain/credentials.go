package domain

// Credentials authenticate the source client.
// Obtaining the token is outside wearsync; it is supplied by configuration.
type Credentials struct {
	// Token is the OAuth2 bearer access token for the provider API.
	Token string

	// DisplayName is the provider's user handle used in per-user endpoints.
	// Looked up at login when empty.
	DisplayName string
}

// IsEmpty reports whether no token is set.
func (c Credentials) IsEmpty() bool {
	return c.Token == ""
}
