package authgate

import (
	"context"
	"errors"
	"strings"
)

// Register creates a new account with a bcrypt-hashed password. The caller
// supplies the plaintext exactly once; only the hash is stored. Duplicate
// usernames or emails surface as [ErrConflict]. Registration does not log
// the user in; no tokens are issued and no session marker is written.
func (m *Manager) Register(ctx context.Context, username, email, plainPassword string) (*User, error) {
	if m.hasher == nil {
		return nil, ErrManagerNotReady
	}

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" {
		return nil, errors.New("username must not be empty")
	}
	if email == "" {
		return nil, errors.New("email must not be empty")
	}
	if plainPassword == "" {
		return nil, errors.New("password must not be empty")
	}

	hash, err := m.hasher.Hash(plainPassword)
	if err != nil {
		return nil, err
	}
	plainPassword = ""

	user := &User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	}

	if err := m.credentials.Create(ctx, user); err != nil {
		if errors.Is(err, ErrConflict) {
			m.metricInc(MetricRegisterConflict)
			m.emitAudit(ctx, auditEventRegisterConflict, false, "", err, func() map[string]string {
				return map[string]string{
					"identifier": username,
				}
			})
		}
		return nil, err
	}

	m.metricInc(MetricRegisterSuccess)
	m.emitAudit(ctx, auditEventRegisterSuccess, true, user.ID.String(), nil, func() map[string]string {
		return map[string]string{
			"identifier": username,
		}
	})

	return user, nil
}
