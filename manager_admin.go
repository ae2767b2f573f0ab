package authgate

import (
	"context"
	"log"
	"strconv"

	"github.com/google/uuid"
)

// ListSessions returns one [SessionInfo] per live session marker. The scan
// is a point-in-time view; markers created or deleted during the scan may
// or may not appear. Markers whose user row cannot be loaded are logged and
// skipped rather than failing the whole listing.
func (m *Manager) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	ids, err := m.sessions.UserIDs(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]SessionInfo, 0, len(ids))
	for _, id := range ids {
		userID, err := uuid.Parse(id)
		if err != nil {
			log.Printf("authgate: skipping session marker with malformed user id %q", id)
			continue
		}
		user, err := m.credentials.GetByID(ctx, userID)
		if err != nil {
			log.Printf("authgate: skipping session for user %s: %v", id, err)
			continue
		}
		infos = append(infos, SessionInfo{
			UserID:      user.ID,
			Username:    user.Username,
			Email:       user.Email,
			IsSuperuser: user.IsSuperuser,
		})
	}

	m.metricInc(MetricSessionsListed)
	m.emitAudit(ctx, auditEventSessionsListed, true, "", nil, func() map[string]string {
		return map[string]string{
			"count": strconv.Itoa(len(infos)),
		}
	})

	return infos, nil
}

// TerminateSession force-revokes a single user's session by deleting its
// marker. Unlike [Manager.Logout] it reports [ErrSessionNotFound] when no
// marker exists, so an admin can tell a no-op from a revocation.
func (m *Manager) TerminateSession(ctx context.Context, userID uuid.UUID) error {
	removed, err := m.sessions.Remove(ctx, userID.String())
	if err != nil {
		return err
	}
	if !removed {
		return ErrSessionNotFound
	}

	m.metricInc(MetricSessionsTerminated)
	m.metricInc(MetricSessionInvalidated)
	m.emitAudit(ctx, auditEventSessionTerminated, true, userID.String(), nil, nil)

	return nil
}

// TerminateAllSessions deletes every session marker under the configured
// prefix and returns how many were removed. The scan snapshot is taken
// first, so logins that land mid-operation survive.
func (m *Manager) TerminateAllSessions(ctx context.Context) (int, error) {
	ids, err := m.sessions.UserIDs(ctx)
	if err != nil {
		return 0, err
	}

	terminated := 0
	for _, id := range ids {
		if err := m.sessions.Delete(ctx, id); err != nil {
			return terminated, err
		}
		terminated++
		m.metricInc(MetricSessionInvalidated)
	}

	m.metricInc(MetricSessionsTerminated)
	m.emitAudit(ctx, auditEventSessionsTerminatedAll, true, "", nil, func() map[string]string {
		return map[string]string{
			"count": strconv.Itoa(terminated),
		}
	})

	return terminated, nil
}

// Ping verifies the Redis session backend is reachable.
func (m *Manager) Ping(ctx context.Context) error {
	if m == nil || m.sessions == nil {
		return ErrManagerNotReady
	}
	_, err := m.sessions.Ping(ctx)
	return err
}
