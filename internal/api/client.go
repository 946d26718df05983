package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/npezzotti/go-chatclient/internal/types"
)

const defaultRequestTimeout = 10 * time.Second

// RoomService is the REST surface the session manager consumes. All
// operations are opaque request/response calls; push state flows through
// the transport instead.
type RoomService interface {
	Rooms(ctx context.Context) ([]types.Room, error)
	Room(ctx context.Context, roomId string) (types.Room, error)
	HasRoom(ctx context.Context, roomId string) (bool, error)
	Messages(ctx context.Context, roomId string) ([]types.Message, error)
	RoomUsers(ctx context.Context, roomId string) ([]types.RoomUser, error)
	AllRoomUsers(ctx context.Context, roomId string) ([]types.RoomUser, error)
	Profile(ctx context.Context) (types.User, error)
	SaveProfile(ctx context.Context, user types.User) (types.User, error)
	CreateRoom(ctx context.Context, name string) (types.Room, error)
	RenameRoom(ctx context.Context, roomId, name string) (types.Room, error)
	DeleteRoom(ctx context.Context, roomId string) error
	LeaveRoom(ctx context.Context, roomId string) error
	CreateInvitation(ctx context.Context, roomId string) (types.Invitation, error)
	AcceptInvitation(ctx context.Context, token string) (types.Room, error)
}

type Client struct {
	baseURL string
	token   string
	client  *http.Client
	log     *log.Logger
}

func NewClient(baseURL, token string, timeout time.Duration, logger *log.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
		log:     logger,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return NewApiError(resp.StatusCode, string(bytes.TrimSpace(msg)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

// Rooms fetches the current user's room list.
func (c *Client) Rooms(ctx context.Context) ([]types.Room, error) {
	var rooms []types.Room
	if err := c.do(ctx, http.MethodGet, "/api/users/rooms", nil, &rooms); err != nil {
		return nil, err
	}

	return rooms, nil
}

func (c *Client) Room(ctx context.Context, roomId string) (types.Room, error) {
	var room types.Room
	err := c.do(ctx, http.MethodGet, "/api/rooms/"+url.PathEscape(roomId), nil, &room)

	return room, err
}

// HasRoom reports whether the current user is a member of the room. The
// coordinator uses it to gate per-room subscriptions.
func (c *Client) HasRoom(ctx context.Context, roomId string) (bool, error) {
	var hasRoom bool
	if err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(roomId), nil, &hasRoom); err != nil {
		return false, err
	}

	return hasRoom, nil
}

func (c *Client) Messages(ctx context.Context, roomId string) ([]types.Message, error) {
	var msgs []types.Message
	if err := c.do(ctx, http.MethodGet, "/api/messages/"+url.PathEscape(roomId)+"/messages", nil, &msgs); err != nil {
		return nil, err
	}

	return msgs, nil
}

func (c *Client) RoomUsers(ctx context.Context, roomId string) ([]types.RoomUser, error) {
	var users []types.RoomUser
	if err := c.do(ctx, http.MethodGet, "/api/rooms/"+url.PathEscape(roomId)+"/users", nil, &users); err != nil {
		return nil, err
	}

	return users, nil
}

func (c *Client) AllRoomUsers(ctx context.Context, roomId string) ([]types.RoomUser, error) {
	var users []types.RoomUser
	if err := c.do(ctx, http.MethodGet, "/api/rooms/"+url.PathEscape(roomId)+"/users/all", nil, &users); err != nil {
		return nil, err
	}

	return users, nil
}

func (c *Client) Profile(ctx context.Context) (types.User, error) {
	var user types.User
	err := c.do(ctx, http.MethodGet, "/api/users/userProfile", nil, &user)

	return user, err
}

func (c *Client) SaveProfile(ctx context.Context, user types.User) (types.User, error) {
	var saved types.User
	err := c.do(ctx, http.MethodPut, "/api/users/saveUserProfile", user, &saved)

	return saved, err
}

type createRoomRequest struct {
	Name string `json:"name"`
}

func (c *Client) CreateRoom(ctx context.Context, name string) (types.Room, error) {
	var room types.Room
	err := c.do(ctx, http.MethodPost, "/api/rooms/create", createRoomRequest{Name: name}, &room)

	return room, err
}

func (c *Client) RenameRoom(ctx context.Context, roomId, name string) (types.Room, error) {
	var room types.Room
	err := c.do(ctx, http.MethodPut, "/api/rooms/"+url.PathEscape(roomId), createRoomRequest{Name: name}, &room)

	return room, err
}

func (c *Client) DeleteRoom(ctx context.Context, roomId string) error {
	return c.do(ctx, http.MethodDelete, "/api/rooms/"+url.PathEscape(roomId), nil, nil)
}

func (c *Client) LeaveRoom(ctx context.Context, roomId string) error {
	return c.do(ctx, http.MethodGet, "/api/rooms/"+url.PathEscape(roomId)+"/leave", nil, nil)
}

func (c *Client) CreateInvitation(ctx context.Context, roomId string) (types.Invitation, error) {
	var inv types.Invitation
	err := c.do(ctx, http.MethodPost, "/api/rooms/"+url.PathEscape(roomId)+"/invite", nil, &inv)

	return inv, err
}

// AcceptInvitation joins the room the invitation token was minted for and
// returns it.
func (c *Client) AcceptInvitation(ctx context.Context, token string) (types.Room, error) {
	var room types.Room
	err := c.do(ctx, http.MethodGet, "/api/rooms/join?token="+url.QueryEscape(token), nil, &room)

	return room, err
}
