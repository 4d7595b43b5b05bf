package auth

import "context"

// StatelessVerifier checks signature and expiry only. Services that hold no
// user store (the transaction service) use it where the account service uses
// the full workflow.
type StatelessVerifier struct {
	tokens *TokenService
}

func NewStatelessVerifier(tokens *TokenService) *StatelessVerifier {
	return &StatelessVerifier{tokens: tokens}
}

func (v *StatelessVerifier) VerifyToken(_ context.Context, token string) (*TokenCheck, error) {
	claims, err := v.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	return &TokenCheck{Claims: claims}, nil
}
