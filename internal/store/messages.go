package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// CreateMessage persists a chat message and returns it with its canonical
// ID and server timestamp. The realtime hub only ever broadcasts the
// returned representation.
func (p *Postgres) CreateMessage(ctx context.Context, channelID, userID, content string) (Message, error) {
	if content == "" {
		return Message{}, errors.New("empty message")
	}

	row := p.pool.QueryRow(ctx, `
		WITH ins AS (
			INSERT INTO messages (channel_id, user_id, content)
			VALUES ($1, $2, $3)
			RETURNING id, channel_id, user_id, content, created_at
		)
		SELECT ins.id::text, ins.content, ins.user_id::text, u.username, COALESCE(u.avatar, ''),
		       ins.channel_id::text, ins.created_at
		FROM ins JOIN users u ON u.id = ins.user_id
	`, channelID, userID, content)

	var m Message
	if err := row.Scan(&m.ID, &m.Content, &m.UserID, &m.Username, &m.Avatar, &m.ChannelID, &m.Timestamp); err != nil {
		return Message{}, err
	}
	return m, nil
}

// ListMessages returns a channel's messages oldest first
func (p *Postgres) ListMessages(ctx context.Context, channelID string, limit int) ([]Message, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT m.id::text, m.content, m.user_id::text, u.username, COALESCE(u.avatar, ''),
		       m.channel_id::text, m.created_at, m.edited_at
		FROM messages m
		JOIN users u ON u.id = m.user_id
		WHERE m.channel_id = $1
		ORDER BY m.created_at ASC
		LIMIT $2
	`, channelID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Content, &m.UserID, &m.Username, &m.Avatar, &m.ChannelID, &m.Timestamp, &m.EditedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpdateMessage edits a message's content. Only the author may edit.
func (p *Postgres) UpdateMessage(ctx context.Context, messageID, userID, content string) (Message, error) {
	row := p.pool.QueryRow(ctx, `
		WITH upd AS (
			UPDATE messages
			SET content = $3, edited_at = NOW()
			WHERE id = $1 AND user_id = $2
			RETURNING id, channel_id, user_id, content, created_at, edited_at
		)
		SELECT upd.id::text, upd.content, upd.user_id::text, u.username, COALESCE(u.avatar, ''),
		       upd.channel_id::text, upd.created_at, upd.edited_at
		FROM upd JOIN users u ON u.id = upd.user_id
	`, messageID, userID, content)

	var m Message
	if err := row.Scan(&m.ID, &m.Content, &m.UserID, &m.Username, &m.Avatar, &m.ChannelID, &m.Timestamp, &m.EditedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Message{}, ErrNotFound
		}
		return Message{}, err
	}
	return m, nil
}

// DeleteMessage removes a message. Only the author may delete.
func (p *Postgres) DeleteMessage(ctx context.Context, messageID, userID string) error {
	ct, err := p.pool.Exec(ctx, `
		DELETE FROM messages WHERE id = $1 AND user_id = $2
	`, messageID, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
