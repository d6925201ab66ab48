package store

import "time"

type User struct {
	ID        string
	Username  string
	Email     string
	Avatar    string
	CreatedAt time.Time
}

type Channel struct {
	ID          string
	Name        string
	Description string
	Members     []string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Message struct {
	ID        string
	Content   string
	UserID    string
	Username  string
	Avatar    string
	ChannelID string
	Timestamp time.Time
	EditedAt  *time.Time
}
