package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"teamchat/internal/store"
	"teamchat/internal/ws"
	"teamchat/pkg/auth"
)

type ChannelsAPI struct {
	DB  *store.Postgres
	Hub *ws.Hub
}

type createChannelReq struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type channelDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Members     []string  `json:"members"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toChannelDTO(c store.Channel) channelDTO {
	members := c.Members
	if members == nil {
		members = []string{}
	}
	return channelDTO{
		ID: c.ID, Name: c.Name, Description: c.Description,
		Members: members, CreatedBy: c.CreatedBy, CreatedAt: c.CreatedAt,
	}
}

// Create makes a new channel; the creator joins automatically.
func (a *ChannelsAPI) Create(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.User(r.Context())

	var req createChannelReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	c, err := a.DB.CreateChannel(r.Context(), req.Name, req.Description, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNameTaken) {
			http.Error(w, "channel name already exists", http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, toChannelDTO(c))
}

// List returns all channels
func (a *ChannelsAPI) List(w http.ResponseWriter, r *http.Request) {
	channels, err := a.DB.ListChannels(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	resp := make([]channelDTO, 0, len(channels))
	for _, c := range channels {
		resp = append(resp, toChannelDTO(c))
	}
	writeJSON(w, resp)
}

// Get returns one channel
func (a *ChannelsAPI) Get(w http.ResponseWriter, r *http.Request) {
	c, err := a.DB.GetChannel(r.Context(), r.PathValue("id"))
	if err != nil {
		http.Error(w, "channel not found", http.StatusNotFound)
		return
	}
	writeJSON(w, toChannelDTO(c))
}

// Delete removes a channel; only the creator may delete it.
func (a *ChannelsAPI) Delete(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.User(r.Context())
	if err := a.DB.DeleteChannel(r.Context(), r.PathValue("id"), claims.UserID); err != nil {
		http.Error(w, "channel not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Join adds the caller to a channel's durable membership
func (a *ChannelsAPI) Join(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.User(r.Context())
	if err := a.DB.AddMember(r.Context(), r.PathValue("id"), claims.UserID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Leave removes the caller from a channel's durable membership
func (a *ChannelsAPI) Leave(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.User(r.Context())
	if err := a.DB.RemoveMember(r.Context(), r.PathValue("id"), claims.UserID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Joined returns the IDs of channels the caller belongs to
func (a *ChannelsAPI) Joined(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.User(r.Context())
	ids, err := a.DB.JoinedChannelIDs(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, ids)
}

// Typers returns who is currently typing in a channel, excluding the caller
func (a *ChannelsAPI) Typers(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.User(r.Context())
	typers := a.Hub.ActiveTypers(r.PathValue("id"), claims.UserID)

	type typerDTO struct {
		UserID   string `json:"userId"`
		Username string `json:"username"`
	}
	resp := make([]typerDTO, 0, len(typers))
	for _, t := range typers {
		resp = append(resp, typerDTO{UserID: t.UserID, Username: t.Username})
	}
	writeJSON(w, resp)
}
