package auth

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/yourorg/jobboard/internal/domain"
)

// Identity authenticates requests: it verifies the bearer token and syncs
// the provider identity into the local users table, so every authenticated
// request carries an up-to-date {id, role} user record.
type Identity struct {
	tokens *TokenManager
	users  domain.UserRepository
	logger *slog.Logger
}

func NewIdentity(tokens *TokenManager, users domain.UserRepository, logger *slog.Logger) *Identity {
	if logger == nil {
		logger = slog.Default()
	}
	return &Identity{tokens: tokens, users: users, logger: logger}
}

// Authenticate resolves an Authorization header into a local user. Missing
// or invalid tokens are unauthorized; storage failures are internal errors,
// never collapsed into unauthorized.
func (s *Identity) Authenticate(ctx context.Context, authHeader string) (*domain.User, error) {
	if authHeader == "" {
		return nil, domain.Unauthorized("missing authorization header")
	}

	tokenString, err := ExtractToken(authHeader)
	if err != nil {
		return nil, domain.Unauthorized("invalid authorization header")
	}

	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		s.logger.Info("token rejected", slog.String("error", err.Error()))
		return nil, domain.Unauthorized("invalid token")
	}

	user, err := s.users.GetByExternalID(ctx, claims.Subject)
	if err != nil {
		if !domain.IsKind(err, domain.KindNotFound) {
			return nil, domain.Internal("failed to load user", err)
		}
		user = &domain.User{
			ID:         uuid.NewString(),
			ExternalID: claims.Subject,
			Email:      claims.Email,
			FullName:   claims.FullName,
			Role:       domain.RoleEmployee,
		}
	} else {
		user.Email = claims.Email
		if claims.FullName != "" {
			user.FullName = claims.FullName
		}
	}

	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, domain.Internal("failed to sync user", err)
	}

	// Accounts created before roles defaulted to employee stay usable.
	if user.Role == domain.RoleUnassigned {
		if err := s.users.UpdateRole(ctx, user.ID, domain.RoleEmployee); err != nil {
			return nil, domain.Internal("failed to assign default role", err)
		}
		user.Role = domain.RoleEmployee
	}

	return user, nil
}
