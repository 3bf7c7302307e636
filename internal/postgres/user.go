package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dukerupert/greencart/internal/domain"
)

type userRepo struct{ s *Store }

func (r userRepo) GetUser(ctx context.Context, id uuid.UUID) (*domain.UserSummary, error) {
	var (
		u    domain.UserSummary
		role string
	)
	err := r.s.db.QueryRow(ctx, `SELECT id, name, email, role FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Name, &u.Email, &role)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFound("user.get", "user", id.String())
	}
	if err != nil {
		return nil, mapError(err, "user.get")
	}
	u.Role = domain.Role(role)
	return &u, nil
}
