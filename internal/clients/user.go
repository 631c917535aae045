package clients

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UnknownUser is shown when the user service cannot name a user.
const UnknownUser = "Unknown User"

// UserClient resolves display names from the user service.
type UserClient struct {
	peer *peer
}

// NewUserClient builds a user service client rooted at baseURL.
func NewUserClient(baseURL string, timeout time.Duration) *UserClient {
	return &UserClient{peer: newPeer("user", baseURL, timeout, DefaultBreakerConfig())}
}

// Username returns the display name of userID, or UnknownUser on any failure.
// Display names are decoration and never fail the caller.
func (c *UserClient) Username(ctx context.Context, userID uuid.UUID) string {
	var resp struct {
		Username string `json:"username"`
	}
	if err := c.peer.get(ctx, "user", "/api/v1/users/"+userID.String(), &resp); err != nil || resp.Username == "" {
		return UnknownUser
	}
	return resp.Username
}

// Usernames resolves each distinct id once.
func (c *UserClient) Usernames(ctx context.Context, userIDs []uuid.UUID) map[uuid.UUID]string {
	names := make(map[uuid.UUID]string, len(userIDs))
	for _, id := range userIDs {
		if _, ok := names[id]; ok {
			continue
		}
		names[id] = c.Username(ctx, id)
	}
	return names
}
