package port

// TokenVerifier resolves a bearer token to a buyer identity. Token issuance
// and credential checks happen outside this service; we only consume the
// verified identifier.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}
