package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"time"

	"boutique/internal/shared/config"
	"boutique/internal/users"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// TokenManager signs and verifies the two token kinds. Access and refresh
// tokens use different secrets so one can never be replayed as the other.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	now           func() time.Time
}

func NewTokenManager(cfg config.JWTConfig) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		issuer:        cfg.Issuer,
		now:           time.Now,
	}
}

func (m *TokenManager) AccessTTL() time.Duration  { return m.accessTTL }
func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

// IssueAccess signs a short-lived token carrying the user id and role.
func (m *TokenManager) IssueAccess(userID uuid.UUID, role users.Role) (string, error) {
	now := m.now()
	claims := AccessClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.accessSecret)
}

// IssueRefresh signs a long-lived token carrying only the user id. The jti
// keeps two tokens issued within the same second distinct.
func (m *TokenManager) IssueRefresh(userID uuid.UUID) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.refreshTTL)
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   userID.String(),
		Issuer:    m.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.refreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (m *TokenManager) ParseAccess(raw string) (*AccessClaims, error) {
	var claims AccessClaims
	if err := m.parse(raw, &claims, &claims.RegisteredClaims, m.accessSecret, false); err != nil {
		return nil, err
	}
	if !users.IsValidRole(claims.Role) {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// ParseRefresh returns the user id of a valid refresh token.
func (m *TokenManager) ParseRefresh(raw string) (uuid.UUID, error) {
	return m.parseRefresh(raw, false)
}

// parseRefresh with skipExpiry still checks the signature. Logout uses it
// so an expired cookie can still clear its record.
func (m *TokenManager) parseRefresh(raw string, skipExpiry bool) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	if err := m.parse(raw, &claims, &claims, m.refreshSecret, skipExpiry); err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(claims.Subject)
}

// VerifyAccessToken satisfies middleware.TokenVerifier.
func (m *TokenManager) VerifyAccessToken(raw string) (string, string, error) {
	claims, err := m.ParseAccess(raw)
	if err != nil {
		return "", "", err
	}
	return claims.Subject, claims.Role, nil
}

func (m *TokenManager) parse(raw string, claims jwt.Claims, registered *jwt.RegisteredClaims, secret []byte, skipExpiry bool) error {
	if raw == "" {
		return ErrInvalidToken
	}

	parser := jwt.Parser{
		ValidMethods:         []string{jwt.SigningMethodHS256.Alg()},
		SkipClaimsValidation: true,
	}
	token, err := parser.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}

	if !registered.VerifyIssuer(m.issuer, true) {
		return ErrInvalidToken
	}
	if _, err := uuid.Parse(registered.Subject); err != nil {
		return ErrInvalidToken
	}
	if !skipExpiry && !registered.VerifyExpiresAt(m.now(), true) {
		return ErrTokenExpired
	}
	return nil
}

// HashToken is the stored form of a refresh token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func hashesEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
