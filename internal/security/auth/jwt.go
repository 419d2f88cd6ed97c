package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrTokenInvalid covers malformed tokens, signature mismatches and expired
// tokens. Callers must not distinguish between those conditions.
var ErrTokenInvalid = errors.New("invalid or expired token")

// claimsVersion tags the claim schema so a future layout change is rejected
// instead of silently misparsed.
const claimsVersion = 1

// minKeyBytes is the minimum HMAC key length (256 bits).
const minKeyBytes = 32

// Claims is the fixed claim schema embedded in every issued token.
type Claims struct {
	CompanyID   string   `json:"company_id"`
	CompanyName string   `json:"company_name"`
	LoginID     string   `json:"login_id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	Version     int      `json:"ver"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 tokens. It holds no state beyond
// the signing key, which is loaded once at startup and never mutated.
type TokenManager struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager validates the signing key and returns a manager. A key
// shorter than 256 bits is a configuration error, not a per-request failure.
func NewTokenManager(secret, issuer string, ttl time.Duration) (*TokenManager, error) {
	if len(secret) < minKeyBytes {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes, got %d", minKeyBytes, len(secret))
	}
	if issuer == "" {
		issuer = "training-system"
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenManager{
		key:    []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Generate signs a token for the given subject. The expiry is the issuance
// instant plus the configured TTL.
func (tm *TokenManager) Generate(subjectID uuid.UUID, c Claims) (string, time.Time, error) {
	now := tm.now()
	expiresAt := now.Add(tm.ttl)

	c.Version = claimsVersion
	c.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subjectID.String(),
		Issuer:    tm.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(tm.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate verifies the signature, expiry and claim schema and returns the
// embedded claims. Any failure collapses into ErrTokenInvalid.
func (tm *TokenManager) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.key, nil
	}, jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Version != claimsVersion {
		return nil, fmt.Errorf("%w: unsupported claims version %d", ErrTokenInvalid, claims.Version)
	}
	return claims, nil
}

// ExpiryOf returns the expiry embedded in a verified token. It is used for
// informational response fields only; authorization decisions always go
// through Validate.
func (tm *TokenManager) ExpiryOf(tokenString string) (time.Time, error) {
	claims, err := tm.Validate(tokenString)
	if err != nil {
		return time.Time{}, err
	}
	return claims.ExpiresAt.Time, nil
}

// SubjectID parses the subject claim into a user id.
func (c *Claims) SubjectID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", ErrTokenInvalid)
	}
	return id, nil
}

// CompanyUUID parses the company claim into a company id.
func (c *Claims) CompanyUUID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.CompanyID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad company claim", ErrTokenInvalid)
	}
	return id, nil
}

// ExtractToken pulls a bearer credential out of an Authorization header.
func ExtractToken(authHeader string) (string, error) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", fmt.Errorf("invalid authorization header")
	}
	return parts[1], nil
}
