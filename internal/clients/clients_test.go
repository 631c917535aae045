package clients

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestContentClient_ChapterExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/chapters/1":
			writeJSON(w, http.StatusOK, map[string]any{"id": 1, "valid": true})
		case "/api/v1/chapters/2":
			writeJSON(w, http.StatusOK, map[string]any{"id": 2, "valid": false})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewContentClient(srv.URL, time.Second)
	ctx := context.Background()

	ok, err := client.ChapterExists(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.ChapterExists(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = client.ChapterExists(ctx, 3)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestContentClient_ChaptersExist(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "4,5,6", r.URL.Query().Get("ids"))
		writeJSON(w, http.StatusOK, map[string]any{"chapters": []map[string]any{
			{"id": 4, "valid": true},
			{"id": 5, "valid": false},
			{"id": 99, "valid": true},
		}})
	}))
	defer srv.Close()

	got, err := NewContentClient(srv.URL, time.Second).ChaptersExist(context.Background(), []uint{4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, map[uint]bool{4: true, 5: false, 6: false}, got)
}

func TestContentClient_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewContentClient(srv.URL, time.Second).NovelExists(context.Background(), 1)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestPeer_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewContentClient(srv.URL, time.Second)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		_, err := client.ChapterExists(ctx, 1)
		assert.True(t, errors.Is(err, ErrUnavailable))
	}
	assert.Equal(t, int32(5), hits.Load(), "open breaker must stop calling the peer")
}

func TestUserClient_Username(t *testing.T) {
	known := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/users/"+known.String() {
			writeJSON(w, http.StatusOK, map[string]any{"username": "reader42"})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewUserClient(srv.URL, time.Second)
	ctx := context.Background()

	assert.Equal(t, "reader42", client.Username(ctx, known))
	assert.Equal(t, UnknownUser, client.Username(ctx, uuid.New()))

	names := client.Usernames(ctx, []uuid.UUID{known, known})
	assert.Equal(t, map[uuid.UUID]string{known: "reader42"}, names)
}

func TestUserClient_UnreachableDegradesToPlaceholder(t *testing.T) {
	client := NewUserClient("http://127.0.0.1:1", 100*time.Millisecond)
	assert.Equal(t, UnknownUser, client.Username(context.Background(), uuid.New()))
}

func TestGamificationClient_PostsEvent(t *testing.T) {
	received := make(chan ExperienceEvent, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/experience", r.URL.Path)
		var ev ExperienceEvent
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
		received <- ev
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	event := ExperienceEvent{UserID: uuid.New(), Action: ActionComment, EntityID: 7}
	require.NoError(t, NewGamificationClient(srv.URL, time.Second).AwardExperience(context.Background(), event))
	assert.Equal(t, event, <-received)
}

type senderFunc func(ctx context.Context, event ExperienceEvent) error

func (f senderFunc) AwardExperience(ctx context.Context, event ExperienceEvent) error {
	return f(ctx, event)
}

func TestDispatcher_SurvivesRequestCancellation(t *testing.T) {
	var sent atomic.Int32
	d := NewDispatcher(senderFunc(func(ctx context.Context, _ ExperienceEvent) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		sent.Add(1)
		return nil
	}), 2, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Notify(ctx, ExperienceEvent{Action: ActionLike})
	d.Wait()

	assert.Equal(t, int32(1), sent.Load())
}

func TestDispatcher_DropsWhenSaturated(t *testing.T) {
	release := make(chan struct{})
	var sent atomic.Int32
	d := NewDispatcher(senderFunc(func(ctx context.Context, _ ExperienceEvent) error {
		<-release
		sent.Add(1)
		return nil
	}), 1, time.Second)

	d.Notify(context.Background(), ExperienceEvent{Action: ActionReview})
	d.Notify(context.Background(), ExperienceEvent{Action: ActionReview})
	close(release)
	d.Wait()

	assert.Equal(t, int32(1), sent.Load())
}

func TestDispatcher_FailureIsSwallowed(t *testing.T) {
	d := NewDispatcher(senderFunc(func(context.Context, ExperienceEvent) error {
		return errors.New("boom")
	}), 1, time.Second)

	assert.NotPanics(t, func() {
		d.Notify(context.Background(), ExperienceEvent{Action: ActionComment})
		d.Wait()
	})
}
