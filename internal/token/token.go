// Package token signs and verifies feedback links handed to interviewers.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer   = "interview-autopilot"
	audience = "feedback"
)

// ErrInvalid is returned for any token that cannot be trusted.
var ErrInvalid = errors.New("invalid token")

type Claims struct {
	InterviewID   int64 `json:"iid"`
	ParticipantID int64 `json:"pid"`
	jwt.RegisteredClaims
}

// Codec produces HS256 tokens binding an interview to a participant.
// A zero TTL issues tokens without expiry.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewCodec(secret string, ttl time.Duration) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("token secret is empty")
	}
	return &Codec{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Sign issues a token binding one participant to one interview, valid for
// the codec TTL.
func (c *Codec) Sign(interviewID, participantID int64) (string, error) {
	now := c.now()
	claims := Claims{
		InterviewID:   interviewID,
		ParticipantID: participantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Audience: jwt.ClaimStrings{audience},
			Subject:  strconv.FormatInt(participantID, 10),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if c.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(c.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign feedback token: %w", err)
	}
	return signed, nil
}

// Verify returns the interview and participant bound by the token. Every
// failure, including a tampered payload, maps to ErrInvalid.
func (c *Codec) Verify(raw string) (interviewID, participantID int64, err error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid {
		return 0, 0, ErrInvalid
	}
	if claims.InterviewID <= 0 || claims.ParticipantID <= 0 {
		return 0, 0, ErrInvalid
	}
	return claims.InterviewID, claims.ParticipantID, nil
}
