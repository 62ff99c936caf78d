package auth

import "context"

// TokenGenerator issues a signed bearer token carrying the user's
// identity and admin flag. Keeps the use case free of JWT specifics.
type TokenGenerator interface {
	Generate(ctx context.Context, user User) (string, error)
}
