package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/npezzotti/go-chatclient/internal/testutil"
	"github.com/npezzotti/go-chatclient/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "tok-123", time.Second, testutil.TestLogger(t))
}

func TestClient_RequestHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))
		json.NewEncoder(w).Encode([]types.Room{})
	})

	_, err := c.Rooms(context.Background())
	require.NoError(t, err)
}

func TestClient_Rooms(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/users/rooms", r.URL.Path)
		json.NewEncoder(w).Encode([]types.Room{
			{Id: "room-1", Name: "general", LastMessage: "hi"},
		})
	})

	rooms, err := c.Rooms(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "general", rooms[0].Name)
}

func TestClient_HasRoom(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/room-1", r.URL.Path)
		w.Write([]byte("true"))
	})

	member, err := c.HasRoom(context.Background(), "room-1")
	require.NoError(t, err)
	assert.True(t, member)
}

func TestClient_Messages(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/messages/room-1/messages", r.URL.Path)
		json.NewEncoder(w).Encode([]types.Message{
			{Id: "m1", RoomId: "room-1", Content: "hello", SenderId: "u1"},
		})
	})

	msgs, err := c.Messages(context.Background(), "room-1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Content)
}

func TestClient_RoomUsers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/rooms/room-1/users":
			json.NewEncoder(w).Encode([]types.RoomUser{{Id: "u1"}})
		case "/api/rooms/room-1/users/all":
			json.NewEncoder(w).Encode([]types.RoomUser{{Id: "u1"}, {Id: "u2"}})
		default:
			http.NotFound(w, r)
		}
	})

	online, err := c.RoomUsers(context.Background(), "room-1")
	require.NoError(t, err)
	assert.Len(t, online, 1)

	all, err := c.AllRoomUsers(context.Background(), "room-1")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestClient_SaveProfile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/users/saveUserProfile", r.URL.Path)

		var user types.User
		require.NoError(t, json.NewDecoder(r.Body).Decode(&user))
		assert.Equal(t, "Anne", user.FirstName)
		json.NewEncoder(w).Encode(user)
	})

	saved, err := c.SaveProfile(context.Background(), types.User{Id: "u1", FirstName: "Anne"})
	require.NoError(t, err)
	assert.Equal(t, "Anne", saved.FirstName)
}

func TestClient_CreateRoom(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/rooms/create", r.URL.Path)

		var req struct {
			Name string `json:"name"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		json.NewEncoder(w).Encode(types.Room{Id: "room-1", Name: req.Name})
	})

	room, err := c.CreateRoom(context.Background(), "general")
	require.NoError(t, err)
	assert.Equal(t, "room-1", room.Id)
	assert.Equal(t, "general", room.Name)
}

func TestClient_DeleteRoom(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/rooms/room-1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.DeleteRoom(context.Background(), "room-1"))
}

func TestClient_AcceptInvitation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/rooms/join", r.URL.Path)
		assert.Equal(t, "inv-token", r.URL.Query().Get("token"))
		json.NewEncoder(w).Encode(types.Room{Id: "room-1", Name: "general"})
	})

	room, err := c.AcceptInvitation(context.Background(), "inv-token")
	require.NoError(t, err)
	assert.Equal(t, "room-1", room.Id)
}

func TestClient_ErrorResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "room not found", http.StatusNotFound)
	})

	_, err := c.Room(context.Background(), "room-9")
	require.Error(t, err)

	var apiErr *ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "room not found")
}

func TestClient_ErrorResponseEmptyBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := c.DeleteRoom(context.Background(), "room-1")

	var apiErr *ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.NotEmpty(t, apiErr.Message)
}

func TestClient_ContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Rooms(ctx)
	assert.Error(t, err)
}
