package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"teamchat/internal/store"
	"teamchat/pkg/auth"
)

type MessagesAPI struct {
	DB *store.Postgres
}

type createMessageReq struct {
	ChannelID string `json:"channelId"`
	Content   string `json:"content"`
}

type editMessageReq struct {
	Content string `json:"content"`
}

type messageDTO struct {
	ID        string     `json:"id"`
	Content   string     `json:"content"`
	UserID    string     `json:"userId"`
	Username  string     `json:"username"`
	ChannelID string     `json:"channelId"`
	Timestamp time.Time  `json:"timestamp"`
	EditedAt  *time.Time `json:"editedAt,omitempty"`
	Avatar    string     `json:"avatar,omitempty"`
}

func toMessageDTO(m store.Message) messageDTO {
	return messageDTO{
		ID: m.ID, Content: m.Content, UserID: m.UserID, Username: m.Username,
		ChannelID: m.ChannelID, Timestamp: m.Timestamp, EditedAt: m.EditedAt, Avatar: m.Avatar,
	}
}

// Create persists a message and returns the canonical envelope (ID +
// server timestamp). The client then hands that envelope to the hub over
// its websocket; the hub never persists anything itself.
func (a *MessagesAPI) Create(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.User(r.Context())

	var req createMessageReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ChannelID == "" || req.Content == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	m, err := a.DB.CreateMessage(r.Context(), req.ChannelID, claims.UserID, req.Content)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, toMessageDTO(m))
}

// ListByChannel returns a channel's history oldest first
func (a *MessagesAPI) ListByChannel(w http.ResponseWriter, r *http.Request) {
	msgs, err := a.DB.ListMessages(r.Context(), r.PathValue("id"), 200)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	resp := make([]messageDTO, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, toMessageDTO(m))
	}
	writeJSON(w, resp)
}

// Edit updates a message's content; author only.
func (a *MessagesAPI) Edit(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.User(r.Context())

	var req editMessageReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	m, err := a.DB.UpdateMessage(r.Context(), r.PathValue("id"), claims.UserID, req.Content)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "message not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, toMessageDTO(m))
}

// Delete removes a message; author only.
func (a *MessagesAPI) Delete(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.User(r.Context())
	if err := a.DB.DeleteMessage(r.Context(), r.PathValue("id"), claims.UserID); err != nil {
		http.Error(w, "message not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
