package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind identifies which half of a token pair a claim set belongs to.
// Verification never trusts the kind alone; callers must check it against
// the operation they are serving.
type Kind string

const (
	// KindAccess is an exported constant or variable used by the authentication core.
	KindAccess Kind = "access"
	// KindRefresh is an exported constant or variable used by the authentication core.
	KindRefresh Kind = "refresh"
)

// SigningMethod defines a public type used by authgate APIs.
//
// SigningMethod instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SigningMethod string

const (
	// MethodHS256 is an exported constant or variable used by the authentication core.
	MethodHS256 SigningMethod = "hs256"
	// MethodHS512 is an exported constant or variable used by the authentication core.
	MethodHS512 SigningMethod = "hs512"
)

var (
	// ErrMalformed is returned when a token cannot be parsed at all.
	ErrMalformed = errors.New("malformed token")
	// ErrInvalidSignature is returned when the signature check fails.
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrExpiredSignature is returned for a genuinely signed token past its expiry.
	ErrExpiredSignature = errors.New("token expired")
)

// Config defines a public type used by authgate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Secret        []byte
	SigningMethod SigningMethod
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
}

// Claims is the claim set carried by both token kinds: a user id subject,
// the token kind, and the registered exp/iat pair.
type Claims struct {
	Kind Kind `json:"type"`
	jwt.RegisteredClaims
}

// Codec issues and verifies the two token kinds over a shared secret.
//
// Codec instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Codec struct {
	config Config
	now    func() time.Time
}

// NewCodec describes the newcodec operation and its observable behavior.
//
// NewCodec may return an error when input validation, dependency calls, or security checks fail.
// NewCodec does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("secret required")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	switch cfg.SigningMethod {
	case MethodHS256, MethodHS512:
	default:
		return nil, errors.New("unsupported signing method")
	}

	return &Codec{config: cfg, now: time.Now}, nil
}

// Issue signs a claim set of the given kind for the subject. The expiry is
// AccessTTL or RefreshTTL depending on kind; issuance never touches any
// store.
func (c *Codec) Issue(kind Kind, subject string) (string, error) {
	var ttl time.Duration
	switch kind {
	case KindAccess:
		ttl = c.config.AccessTTL
	case KindRefresh:
		ttl = c.config.RefreshTTL
	default:
		return "", errors.New("unknown token kind")
	}

	now := c.now()
	claims := Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    c.config.Issuer,
		},
	}

	token := jwt.NewWithClaims(c.method(), claims)
	return token.SignedString(c.config.Secret)
}

// Verify parses and validates a token, returning its claims or exactly one
// of [ErrExpiredSignature], [ErrInvalidSignature], or [ErrMalformed]. A
// payload is never returned unless the signature verified; an expired but
// genuine token is distinguishable from a forged one.
func (c *Codec) Verify(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method().Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != c.method().Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return c.config.Secret, nil
	})
	if err != nil {
		return nil, mapParseError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrMalformed
	}

	return claims, nil
}

// AccessTTL returns the configured access-token lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.config.AccessTTL }

// RefreshTTL returns the configured refresh-token lifetime.
func (c *Codec) RefreshTTL() time.Duration { return c.config.RefreshTTL }

func (c *Codec) method() jwt.SigningMethod {
	switch c.config.SigningMethod {
	case MethodHS512:
		return jwt.SigningMethodHS512
	default:
		return jwt.SigningMethodHS256
	}
}

// mapParseError collapses the upstream error set into the three-way failure
// taxonomy. Expired is checked first: the upstream library only reports
// expiry after the signature verified, so the kinds never overlap.
func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpiredSignature, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
