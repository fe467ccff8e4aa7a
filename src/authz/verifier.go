package authz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Backend-Forms-Builder/src/models"
	"Backend-Forms-Builder/src/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNoToken      = errors.New("no session token")
	ErrInvalidToken = errors.New("invalid session token")
)

type TokenParser interface {
	ParseJWT(token string) (*utils.JWTClaims, error)
}

type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Session is a verified token: who it names and when it stops being valid.
type Session struct {
	Principal models.Principal
	TokenID   string
	ExpiresAt time.Time
}

// Verifier turns a session token into a Principal. It fails closed: anything
// other than a well-formed, unexpired, unrevoked token is an error. It does
// not look at the account's status; blocking only stops new sign-ins.
type Verifier struct {
	tokens  TokenParser
	revoked RevocationChecker
}

func NewVerifier(tokens TokenParser, revoked RevocationChecker) *Verifier {
	return &Verifier{tokens: tokens, revoked: revoked}
}

func (v *Verifier) Verify(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	claims, err := v.tokens.ParseJWT(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}

	if v.revoked != nil {
		revoked, err := v.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		if revoked {
			return nil, fmt.Errorf("%w: revoked", ErrInvalidToken)
		}
	}

	session := &Session{
		Principal: models.Principal{ID: id, Role: claims.Role},
		TokenID:   claims.ID,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}
