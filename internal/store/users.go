package store

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// normEmail trims and lowercases the email (needed if DB col isnt citext)
func normEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// CreateUser inserts a new user with a hashed password
func (p *Postgres) CreateUser(ctx context.Context, username, email, password string) (User, error) {
	email = normEmail(email)
	if username == "" || email == "" || password == "" {
		return User{}, errors.New("missing username, email or password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	row := p.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id::text, username, email, COALESCE(avatar, ''), created_at
	`, username, email, string(hash))

	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Avatar, &u.CreatedAt); err != nil {
		return User{}, err
	}
	return u, nil
}

// GetUser fetches a user by ID
func (p *Postgres) GetUser(ctx context.Context, id string) (User, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT id::text, username, email, COALESCE(avatar, ''), created_at
		FROM users
		WHERE id = $1
	`, id)

	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Avatar, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

// GetUserByEmail returns the user + hashed password for login verification
func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (User, string, error) {
	email = normEmail(email)

	row := p.pool.QueryRow(ctx, `
		SELECT id::text, username, email, COALESCE(avatar, ''), password_hash, created_at
		FROM users
		WHERE email = $1
	`, email)

	var u User
	var hash string
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Avatar, &hash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, "", ErrNotFound
		}
		return User{}, "", err
	}
	return u, hash, nil
}

// VerifyUser checks email + password match
func (p *Postgres) VerifyUser(ctx context.Context, email, password string) (User, error) {
	u, hash, err := p.GetUserByEmail(ctx, email)
	if err != nil {
		return User{}, errors.New("invalid credentials")
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, errors.New("invalid credentials")
	}

	return u, nil
}
