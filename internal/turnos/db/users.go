package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ms-turnos/internal/models"
)

// ErrInvalidCredentials does not tell an unknown user from a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Authenticate compares username and password by exact match.
func (d *DB) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("usuario = ?", username).
		Where("password = ?", password).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	return &user, nil
}

// UserExists checks if a staff account with the given username exists.
func (d *DB) UserExists(ctx context.Context, username string) (bool, error) {
	exists, err := d.Bun.NewSelect().
		Model((*models.User)(nil)).
		Where("usuario = ?", username).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("user exists: %w", err)
	}
	return exists, nil
}

// SeedUser inserts the account unless the username is already taken.
func (d *DB) SeedUser(ctx context.Context, username, password string) (bool, error) {
	exists, err := d.UserExists(ctx, username)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	user := models.User{Username: username, Password: password}
	if _, err := d.Bun.NewInsert().Model(&user).Exec(ctx); err != nil {
		return false, fmt.Errorf("seed user: %w", err)
	}
	return true, nil
}
