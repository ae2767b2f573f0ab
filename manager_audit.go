package authgate

import (
	"context"
	"errors"
	"time"

	"github.com/kmezhov/authgate/jwt"
	"github.com/kmezhov/authgate/session"
)

const (
	auditEventLoginSuccess          = "login_success"
	auditEventLoginFailure          = "login_failure"
	auditEventLoginRateLimited      = "login_rate_limited"
	auditEventRegisterSuccess       = "register_success"
	auditEventRegisterConflict      = "register_conflict"
	auditEventRefreshSuccess        = "refresh_success"
	auditEventRefreshInvalid        = "refresh_invalid"
	auditEventLogout                = "logout"
	auditEventSessionsListed        = "sessions_listed"
	auditEventSessionTerminated     = "session_terminated"
	auditEventSessionsTerminatedAll = "sessions_terminated_all"
)

// AuditErrorCode defines a public type used by authgate APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrNotAuthenticated AuditErrorCode = "not_authenticated"
	auditErrRateLimited      AuditErrorCode = "rate_limited"
	auditErrInvalidToken     AuditErrorCode = "invalid_token"
	auditErrExpiredToken     AuditErrorCode = "expired_token"
	auditErrWrongTokenType   AuditErrorCode = "wrong_token_type"
	auditErrSessionNotFound  AuditErrorCode = "session_not_found"
	auditErrUserNotFound     AuditErrorCode = "user_not_found"
	auditErrDuplicate        AuditErrorCode = "duplicate"
	auditErrUnavailable      AuditErrorCode = "backend_unavailable"
	auditErrInternal         AuditErrorCode = "internal_error"
)

func (m *Manager) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if m == nil || m.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	m.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return auditErrNotAuthenticated
	case errors.Is(err, ErrLoginRateLimited):
		return auditErrRateLimited
	case errors.Is(err, jwt.ErrExpiredSignature):
		return auditErrExpiredToken
	case errors.Is(err, jwt.ErrInvalidSignature),
		errors.Is(err, jwt.ErrMalformed),
		errors.Is(err, ErrTokenMissing):
		return auditErrInvalidToken
	case errors.Is(err, ErrInvalidTokenType):
		return auditErrWrongTokenType
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrConflict):
		return auditErrDuplicate
	case errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, session.ErrRedisUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
