package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"matchlink/internal/domain"
)

type ProfileRepo struct {
	db *sql.DB
}

func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

var _ domain.ProfileRepository = (*ProfileRepo)(nil)

func (r *ProfileRepo) Create(ctx context.Context, p *domain.Profile) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, username, display_name, hashed_password, created_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, p.UserID, p.Username, p.DisplayName, p.HashedPassword)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	p.ID = id
	return nil
}

func (r *ProfileRepo) GetByID(ctx context.Context, id int64) (*domain.Profile, error) {
	return r.getOne(ctx, `WHERE id = ?`, id)
}

func (r *ProfileRepo) GetByUserID(ctx context.Context, userID int64) (*domain.Profile, error) {
	return r.getOne(ctx, `WHERE user_id = ?`, userID)
}

func (r *ProfileRepo) GetByUsername(ctx context.Context, username string) (*domain.Profile, error) {
	return r.getOne(ctx, `WHERE username = ?`, username)
}

func (r *ProfileRepo) getOne(ctx context.Context, where string, arg any) (*domain.Profile, error) {
	query := `
		SELECT id, user_id, username, display_name, hashed_password, created_at
		FROM profiles
	` + where
	p := &domain.Profile{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&p.ID,
		&p.UserID,
		&p.Username,
		&p.DisplayName,
		&p.HashedPassword,
		&p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}
