package jwt

import (
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

const issuerName = "itemsyncd"

// Claims claims токена доступа; Subject является владельцем коллекции
type Claims struct {
	gojwt.RegisteredClaims
}

// Owner возвращает владельца коллекции
func (c *Claims) Owner() string {
	return c.Subject
}

// Issuer выпускает и проверяет HS256 токены доступа
type Issuer struct {
	now    func() time.Time
	secret []byte
	ttl    time.Duration
}

// NewIssuer создает issuer.
// secret должен быть криптографически стойкой случайной строкой
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue выпускает токен для subject. Возвращает токен и время жизни в секундах.
func (i *Issuer) Issue(subject string) (string, int64, error) {
	return i.IssueWithTTL(subject, i.ttl)
}

// IssueWithTTL выпускает токен с явным временем жизни
func (i *Issuer) IssueWithTTL(subject string, ttl time.Duration) (string, int64, error) {
	if subject == "" {
		return "", 0, ErrEmptySubject
	}

	now := i.now()
	claims := Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuerName,
			IssuedAt:  gojwt.NewNumericDate(now),
			NotBefore: gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, int64(ttl.Seconds()), nil
}

// Validate проверяет подпись, срок действия и издателя токена
func (i *Issuer) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := gojwt.ParseWithClaims(tokenString, claims, func(token *gojwt.Token) (any, error) {
		return i.secret, nil
	},
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithIssuer(issuerName),
		gojwt.WithExpirationRequired(),
		gojwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
