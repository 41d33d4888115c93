package auth

// Verifier turns an access token into the session it proves.
type Verifier interface {
	Verify(token string) (Session, error)
}
