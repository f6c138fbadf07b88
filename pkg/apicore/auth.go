package apicore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// OperatorView is the wire projection of an authenticated Operator.
type OperatorView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Authenticate resolves a bearer token to its owning Operator (spec.md §2
// item 1 "operators, tokens"; HTTP transport itself stays out of scope).
func (c *Core) Authenticate(ctx context.Context, rawToken string) (OperatorView, error) {
	if rawToken == "" {
		return OperatorView{}, validationErr("token is required")
	}
	op, err := c.store.ResolveToken(ctx, hashToken(rawToken))
	if err != nil {
		return OperatorView{}, translateStoreErr(err, "authenticating")
	}
	return OperatorView{ID: op.ID, Username: op.Username}, nil
}

// CreateOperator registers a new operator account.
func (c *Core) CreateOperator(ctx context.Context, username string) (OperatorView, error) {
	if username == "" {
		return OperatorView{}, validationErr("username is required")
	}
	op, err := c.store.CreateOperator(ctx, uuid.NewString(), username)
	if err != nil {
		return OperatorView{}, translateStoreErr(err, "creating operator %q", username)
	}
	return OperatorView{ID: op.ID, Username: op.Username}, nil
}

// IssueToken mints a new bearer credential for operatorID, returning the
// raw token exactly once; only its hash is persisted.
func (c *Core) IssueToken(ctx context.Context, operatorID string, ttl time.Duration) (token string, err error) {
	raw := uuid.NewString() + uuid.NewString()
	var expiresAt *time.Time
	if ttl > 0 {
		t := time.Now().UTC().Add(ttl)
		expiresAt = &t
	}
	if _, err := c.store.IssueToken(ctx, operatorID, uuid.NewString(), hashToken(raw), expiresAt); err != nil {
		return "", translateStoreErr(err, "issuing token for operator %q", operatorID)
	}
	return raw, nil
}

// RevokeToken invalidates a previously issued token.
func (c *Core) RevokeToken(ctx context.Context, tokenID string) error {
	if err := c.store.RevokeToken(ctx, tokenID); err != nil {
		return translateStoreErr(err, "revoking token %q", tokenID)
	}
	return nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
