package authgate

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kmezhov/authgate/internal/rate"
	"github.com/kmezhov/authgate/jwt"
	"github.com/kmezhov/authgate/password"
	"github.com/kmezhov/authgate/session"
	"github.com/redis/go-redis/v9"
)

// Manager defines a public type used by authgate APIs.
//
// Manager instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Manager struct {
	config      Config
	codec       *jwt.Codec
	sessions    *session.Store
	credentials CredentialStore
	hasher      *password.Hasher
	limiter     *rate.Limiter
	audit       *auditDispatcher
	metrics     *Metrics
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	if m.audit != nil {
		m.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Manager) AuditDropped() uint64 {
	if m == nil || m.audit == nil {
		return 0
	}
	return m.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil || m.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return m.metrics.Snapshot()
}

// AccessTTL returns the configured access-token lifetime, for cookie expiry alignment.
func (m *Manager) AccessTTL() time.Duration { return m.config.JWT.AccessTTL }

// RefreshTTL returns the configured refresh-token lifetime, for cookie expiry alignment.
func (m *Manager) RefreshTTL() time.Duration { return m.config.JWT.RefreshTTL }

func (m *Manager) metricInc(id MetricID) {
	if m == nil || m.metrics == nil {
		return
	}
	m.metrics.Inc(id)
}

// Login verifies the username/password pair against the credential store,
// issues an access+refresh token pair with the user id as subject, and
// overwrites the user's session marker. An unknown username and a wrong
// password are indistinguishable to the caller: both return
// [ErrNotAuthenticated].
func (m *Manager) Login(ctx context.Context, username, plainPassword string) (TokenPair, error) {
	if m.hasher == nil {
		return TokenPair{}, ErrManagerNotReady
	}

	ip := clientIPFromContext(ctx)
	if m.limiter != nil {
		if err := m.limiter.CheckLogin(ctx, username, ip); err != nil {
			m.metricInc(MetricLoginRateLimited)
			m.emitAudit(ctx, auditEventLoginRateLimited, false, "", ErrLoginRateLimited, func() map[string]string {
				return map[string]string{
					"identifier": username,
				}
			})
			return TokenPair{}, ErrLoginRateLimited
		}
	}

	user, err := m.credentials.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return TokenPair{}, err
		}
		return TokenPair{}, m.failLogin(ctx, username, ip, "user_not_found")
	}

	ok, err := m.hasher.Verify(plainPassword, user.PasswordHash)
	if err != nil || !ok {
		return TokenPair{}, m.failLogin(ctx, username, ip, "password_mismatch")
	}
	plainPassword = ""

	pair, err := m.issuePair(user.ID.String())
	if err != nil {
		m.metricInc(MetricLoginFailure)
		m.emitAudit(ctx, auditEventLoginFailure, false, user.ID.String(), err, func() map[string]string {
			return map[string]string{
				"identifier": username,
				"reason":     "token_issue_failed",
			}
		})
		return TokenPair{}, err
	}

	if err := m.sessions.Save(ctx, user.ID.String()); err != nil {
		m.metricInc(MetricLoginFailure)
		m.emitAudit(ctx, auditEventLoginFailure, false, user.ID.String(), err, func() map[string]string {
			return map[string]string{
				"identifier": username,
				"reason":     "marker_save_failed",
			}
		})
		return TokenPair{}, err
	}

	if m.limiter != nil {
		// Limiter reset is best-effort and must not block successful login.
		_ = m.limiter.ResetLogin(ctx, username, ip)
	}

	m.metricInc(MetricSessionCreated)
	m.metricInc(MetricLoginSuccess)
	m.emitAudit(ctx, auditEventLoginSuccess, true, user.ID.String(), nil, func() map[string]string {
		return map[string]string{
			"identifier": username,
		}
	})

	return pair, nil
}

func (m *Manager) failLogin(ctx context.Context, username, ip, reason string) error {
	if m.limiter != nil {
		if err := m.limiter.IncrementLogin(ctx, username, ip); errors.Is(err, rate.ErrRateLimited) {
			m.metricInc(MetricLoginRateLimited)
			m.emitAudit(ctx, auditEventLoginRateLimited, false, "", ErrLoginRateLimited, func() map[string]string {
				return map[string]string{
					"identifier": username,
				}
			})
			return ErrLoginRateLimited
		}
	}
	m.metricInc(MetricLoginFailure)
	m.emitAudit(ctx, auditEventLoginFailure, false, "", ErrNotAuthenticated, func() map[string]string {
		return map[string]string{
			"identifier": username,
			"reason":     reason,
		}
	})
	return ErrNotAuthenticated
}

// Refresh exchanges a valid refresh token for a brand-new access+refresh
// pair. The token must verify, carry the refresh kind, and name a subject
// whose session marker still exists; a deleted marker revokes refresh
// ability even for tokens inside their signed expiry window. Individual
// token identifiers are not tracked, so an old refresh token remains usable
// until its own expiry.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := m.codec.Verify(refreshToken)
	if err != nil {
		m.metricInc(MetricRefreshFailure)
		m.emitAudit(ctx, auditEventRefreshInvalid, false, "", err, func() map[string]string {
			return map[string]string{
				"reason": "verify_failed",
			}
		})
		return TokenPair{}, err
	}
	if claims.Kind != jwt.KindRefresh {
		m.metricInc(MetricRefreshFailure)
		m.emitAudit(ctx, auditEventRefreshInvalid, false, claims.Subject, ErrInvalidTokenType, func() map[string]string {
			return map[string]string{
				"reason": "wrong_token_kind",
			}
		})
		return TokenPair{}, ErrInvalidTokenType
	}

	if err := m.checkMarker(ctx, claims.Subject); err != nil {
		m.metricInc(MetricRefreshFailure)
		m.emitAudit(ctx, auditEventRefreshInvalid, false, claims.Subject, err, func() map[string]string {
			return map[string]string{
				"reason": "marker_check_failed",
			}
		})
		return TokenPair{}, err
	}

	pair, err := m.issuePair(claims.Subject)
	if err != nil {
		m.metricInc(MetricRefreshFailure)
		m.emitAudit(ctx, auditEventRefreshInvalid, false, claims.Subject, err, func() map[string]string {
			return map[string]string{
				"reason": "token_issue_failed",
			}
		})
		return TokenPair{}, err
	}

	m.metricInc(MetricRefreshSuccess)
	m.emitAudit(ctx, auditEventRefreshSuccess, true, claims.Subject, nil, nil)

	return pair, nil
}

// ResolveIdentity validates an access token end to end: signature and
// expiry, access kind, live session marker, and a still-existing user row.
// It returns a read-only [Identity] view; credential material never leaves
// the store.
func (m *Manager) ResolveIdentity(ctx context.Context, accessToken string) (*Identity, error) {
	if m.metrics != nil && m.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { m.metrics.Observe(MetricResolveLatency, time.Since(start)) }()
	}

	claims, err := m.codec.Verify(accessToken)
	if err != nil {
		m.metricInc(MetricResolveFailure)
		return nil, err
	}
	if claims.Kind != jwt.KindAccess {
		m.metricInc(MetricResolveFailure)
		return nil, ErrInvalidTokenType
	}

	if err := m.checkMarker(ctx, claims.Subject); err != nil {
		m.metricInc(MetricResolveFailure)
		return nil, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		m.metricInc(MetricResolveFailure)
		return nil, jwt.ErrMalformed
	}

	user, err := m.credentials.GetByID(ctx, userID)
	if err != nil {
		m.metricInc(MetricResolveFailure)
		return nil, err
	}

	m.metricInc(MetricResolveSuccess)

	return &Identity{
		UserID:      user.ID,
		Username:    user.Username,
		Email:       user.Email,
		IsActive:    user.IsActive,
		IsSuperuser: user.IsSuperuser,
		IsVerified:  user.IsVerified,
	}, nil
}

// checkMarker enforces presence-based revocation: the marker must exist and
// its value must equal the token subject.
func (m *Manager) checkMarker(ctx context.Context, subject string) error {
	val, err := m.sessions.Get(ctx, subject)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrSessionNotFound
		}
		return err
	}
	if val != subject {
		return ErrSessionNotFound
	}
	return nil
}

// Logout deletes the user's session marker, revoking all outstanding tokens.
// Logging out a user with no marker is not an error; the operation is
// idempotent.
func (m *Manager) Logout(ctx context.Context, userID uuid.UUID) error {
	err := m.sessions.Delete(ctx, userID.String())
	if err == nil {
		m.metricInc(MetricLogout)
		m.metricInc(MetricSessionInvalidated)
	}
	m.emitAudit(ctx, auditEventLogout, err == nil, userID.String(), err, nil)
	return err
}

// LogoutByAccessToken verifies the access token and logs out its subject.
func (m *Manager) LogoutByAccessToken(ctx context.Context, accessToken string) error {
	claims, err := m.codec.Verify(accessToken)
	if err != nil {
		m.emitAudit(ctx, auditEventLogout, false, "", err, func() map[string]string {
			return map[string]string{
				"reason": "invalid_access_token",
			}
		})
		return err
	}
	if claims.Kind != jwt.KindAccess {
		return ErrInvalidTokenType
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return jwt.ErrMalformed
	}

	return m.Logout(ctx, userID)
}

func (m *Manager) issuePair(subject string) (TokenPair, error) {
	access, err := m.codec.Issue(jwt.KindAccess, subject)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := m.codec.Issue(jwt.KindRefresh, subject)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
