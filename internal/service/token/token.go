package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purpose discriminates what a token may be used for. Access and refresh
// tokens carry it in the token_type claim, verification and reset tokens in
// the purpose claim, so one can never stand in for another.
type Purpose string

const (
	PurposeAccess        Purpose = "access"
	PurposeRefresh       Purpose = "refresh"
	PurposeEmailVerify   Purpose = "email_verify"
	PurposePasswordReset Purpose = "pwd_reset"
)

const emailVerifyTTL = 7 * 24 * time.Hour

// ErrInvalidToken covers bad signature, expiry and purpose mismatch alike;
// callers must not tell the reasons apart.
var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	TokenType string `json:"token_type,omitempty"`
	Purpose   string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

type Service struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration

	now func() time.Time
}

func NewService(secret []byte, algorithm string, accessTTL, refreshTTL, resetTTL time.Duration) (*Service, error) {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, errors.New("unknown signing algorithm: " + algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.New("signing algorithm must be HMAC based: " + algorithm)
	}
	return &Service{
		secret:     secret,
		method:     method,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		resetTTL:   resetTTL,
		now:        time.Now,
	}, nil
}

func (s *Service) IssueAccess(sub string) (string, error) {
	return s.sign(Claims{TokenType: string(PurposeAccess)}, sub, s.accessTTL)
}

func (s *Service) IssueRefresh(sub string) (string, error) {
	return s.sign(Claims{TokenType: string(PurposeRefresh)}, sub, s.refreshTTL)
}

func (s *Service) IssueEmailVerify(sub string) (string, error) {
	return s.sign(Claims{Purpose: string(PurposeEmailVerify)}, sub, emailVerifyTTL)
}

func (s *Service) IssuePasswordReset(sub string) (string, error) {
	return s.sign(Claims{Purpose: string(PurposePasswordReset)}, sub, s.resetTTL)
}

// Verify checks signature, expiry and the purpose discriminator. Any failure
// collapses into ErrInvalidToken.
func (s *Service) Verify(raw string, purpose Purpose) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != s.method.Alg() {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}

	switch purpose {
	case PurposeAccess, PurposeRefresh:
		if claims.TokenType != string(purpose) {
			return nil, ErrInvalidToken
		}
	case PurposeEmailVerify, PurposePasswordReset:
		if claims.Purpose != string(purpose) {
			return nil, ErrInvalidToken
		}
	default:
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

func (s *Service) sign(claims Claims, sub string, ttl time.Duration) (string, error) {
	now := s.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   sub,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
}
