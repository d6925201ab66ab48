package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// ErrNameTaken is returned when a channel name already exists.
var ErrNameTaken = errors.New("channel name already exists")

// CreateChannel inserts a channel; the creator joins automatically.
func (p *Postgres) CreateChannel(ctx context.Context, name, description, createdBy string) (Channel, error) {
	if name == "" {
		return Channel{}, errors.New("missing channel name")
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return Channel{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM channels WHERE name = $1)`, name,
	).Scan(&exists); err != nil {
		return Channel{}, err
	}
	if exists {
		return Channel{}, ErrNameTaken
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO channels (name, description, created_by)
		VALUES ($1, $2, $3)
		RETURNING id::text, name, COALESCE(description, ''), created_by::text, created_at, updated_at
	`, name, description, createdBy)

	var c Channel
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return Channel{}, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO channel_members (channel_id, user_id) VALUES ($1, $2)
	`, c.ID, createdBy); err != nil {
		return Channel{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Channel{}, err
	}
	c.Members = []string{createdBy}
	return c, nil
}

// ListChannels returns all channels, newest first, with their member IDs.
func (p *Postgres) ListChannels(ctx context.Context) ([]Channel, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT c.id::text, c.name, COALESCE(c.description, ''), c.created_by::text, c.created_at, c.updated_at,
		       COALESCE(array_agg(m.user_id::text) FILTER (WHERE m.user_id IS NOT NULL), '{}')
		FROM channels c
		LEFT JOIN channel_members m ON m.channel_id = c.id
		GROUP BY c.id
		ORDER BY c.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Channel
	for rows.Next() {
		var c Channel
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt, &c.Members); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetChannel fetches one channel with its member IDs
func (p *Postgres) GetChannel(ctx context.Context, id string) (Channel, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT c.id::text, c.name, COALESCE(c.description, ''), c.created_by::text, c.created_at, c.updated_at,
		       COALESCE(array_agg(m.user_id::text) FILTER (WHERE m.user_id IS NOT NULL), '{}')
		FROM channels c
		LEFT JOIN channel_members m ON m.channel_id = c.id
		WHERE c.id = $1
		GROUP BY c.id
	`, id)

	var c Channel
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt, &c.Members); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Channel{}, ErrNotFound
		}
		return Channel{}, err
	}
	return c, nil
}

// JoinedChannelIDs returns the IDs of channels the user is a member of
func (p *Postgres) JoinedChannelIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT channel_id::text FROM channel_members WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// AddMember joins a user to a channel; joining twice is a no-op
func (p *Postgres) AddMember(ctx context.Context, channelID, userID string) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO channel_members (channel_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, channelID, userID)
	return err
}

// RemoveMember removes a user from a channel; removing a non-member is a no-op
func (p *Postgres) RemoveMember(ctx context.Context, channelID, userID string) error {
	_, err := p.pool.Exec(ctx, `
		DELETE FROM channel_members WHERE channel_id = $1 AND user_id = $2
	`, channelID, userID)
	return err
}

// DeleteChannel removes a channel and its messages. Only the creator may
// delete; anyone else gets ErrNotFound.
func (p *Postgres) DeleteChannel(ctx context.Context, channelID, userID string) error {
	ct, err := p.pool.Exec(ctx, `
		DELETE FROM channels WHERE id = $1 AND created_by = $2
	`, channelID, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	p.log.Info("channel.deleted", "id", channelID, "by", userID)
	return nil
}
