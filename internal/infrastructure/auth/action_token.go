package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/procurement/backend/internal/infrastructure/config"
)

// ActionKind names what an emailed approval link decides
type ActionKind string

const (
	ActionOnboardingManager     ActionKind = "onboarding.manager"
	ActionOnboardingProcurement ActionKind = "onboarding.procurement"
	ActionRequisitionStep       ActionKind = "requisition.step"
)

// IsValid checks if the kind is known
func (k ActionKind) IsValid() bool {
	switch k {
	case ActionOnboardingManager, ActionOnboardingProcurement, ActionRequisitionStep:
		return true
	}
	return false
}

// ErrInvalidActionKind is returned for a token naming an unknown action
var ErrInvalidActionKind = errors.New("invalid action kind")

const actionAudience = "approval-action"

// ActionClaims are the claims of an emailed approval link. Stage binds the
// link to the workflow position it was issued for.
type ActionClaims struct {
	jwt.RegisteredClaims
	TenantID string     `json:"tid"`
	Kind     ActionKind `json:"kind"`
	Ref      string     `json:"ref"`
	Stage    string     `json:"stage"`
}

// ActionTokenInput describes a link to issue
type ActionTokenInput struct {
	TenantID   uuid.UUID
	ApproverID uuid.UUID
	Kind       ActionKind
	Ref        uuid.UUID
	Stage      string
}

// ActionTokenService signs single-purpose approval links with a secret
// separate from session tokens
type ActionTokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewActionTokenService creates the service
func NewActionTokenService(cfg config.ApprovalConfig, issuer string) *ActionTokenService {
	ttl := cfg.ActionTokenTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &ActionTokenService{secret: []byte(cfg.ActionSecret), ttl: ttl, issuer: issuer}
}

// TTL returns the lifetime of issued links
func (s *ActionTokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a link token
func (s *ActionTokenService) Issue(in ActionTokenInput) (string, error) {
	if !in.Kind.IsValid() {
		return "", ErrInvalidActionKind
	}
	now := time.Now()
	claims := &ActionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   in.ApproverID.String(),
			Audience:  jwt.ClaimStrings{actionAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		TenantID: in.TenantID.String(),
		Kind:     in.Kind,
		Ref:      in.Ref.String(),
		Stage:    in.Stage,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse validates signature, expiry and shape of a link token
func (s *ActionTokenService) Parse(tokenString string) (*ActionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ActionClaims{}, hmacKey(s.secret),
		jwt.WithAudience(actionAudience),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, mapParseError(err)
	}
	claims, ok := token.Claims.(*ActionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if !claims.Kind.IsValid() {
		return nil, ErrInvalidActionKind
	}
	for _, v := range []string{claims.TenantID, claims.Subject, claims.Ref} {
		if _, err := uuid.Parse(v); err != nil {
			return nil, ErrInvalidClaims
		}
	}
	if claims.ID == "" {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

// TenantUUID parses the tenant claim
func (c *ActionClaims) TenantUUID() uuid.UUID {
	id, _ := uuid.Parse(c.TenantID)
	return id
}

// ApproverUUID parses the subject claim
func (c *ActionClaims) ApproverUUID() uuid.UUID {
	id, _ := uuid.Parse(c.Subject)
	return id
}

// RefUUID parses the aggregate reference
func (c *ActionClaims) RefUUID() uuid.UUID {
	id, _ := uuid.Parse(c.Ref)
	return id
}

// RemainingTTL returns the time until the link expires
func (c *ActionClaims) RemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	if d := time.Until(c.ExpiresAt.Time); d > 0 {
		return d
	}
	return 0
}
