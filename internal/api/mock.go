package api

import (
	"context"

	"github.com/npezzotti/go-chatclient/internal/types"
	"github.com/stretchr/testify/mock"
)

type MockRoomService struct {
	mock.Mock
}

func (m *MockRoomService) Rooms(ctx context.Context) ([]types.Room, error) {
	args := m.Called(ctx)
	return args.Get(0).([]types.Room), args.Error(1)
}
func (m *MockRoomService) Room(ctx context.Context, roomId string) (types.Room, error) {
	args := m.Called(ctx, roomId)
	return args.Get(0).(types.Room), args.Error(1)
}
func (m *MockRoomService) HasRoom(ctx context.Context, roomId string) (bool, error) {
	args := m.Called(ctx, roomId)
	return args.Bool(0), args.Error(1)
}
func (m *MockRoomService) Messages(ctx context.Context, roomId string) ([]types.Message, error) {
	args := m.Called(ctx, roomId)
	return args.Get(0).([]types.Message), args.Error(1)
}
func (m *MockRoomService) RoomUsers(ctx context.Context, roomId string) ([]types.RoomUser, error) {
	args := m.Called(ctx, roomId)
	return args.Get(0).([]types.RoomUser), args.Error(1)
}
func (m *MockRoomService) AllRoomUsers(ctx context.Context, roomId string) ([]types.RoomUser, error) {
	args := m.Called(ctx, roomId)
	return args.Get(0).([]types.RoomUser), args.Error(1)
}
func (m *MockRoomService) Profile(ctx context.Context) (types.User, error) {
	args := m.Called(ctx)
	return args.Get(0).(types.User), args.Error(1)
}
func (m *MockRoomService) SaveProfile(ctx context.Context, user types.User) (types.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(types.User), args.Error(1)
}
func (m *MockRoomService) CreateRoom(ctx context.Context, name string) (types.Room, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(types.Room), args.Error(1)
}
func (m *MockRoomService) RenameRoom(ctx context.Context, roomId, name string) (types.Room, error) {
	args := m.Called(ctx, roomId, name)
	return args.Get(0).(types.Room), args.Error(1)
}
func (m *MockRoomService) DeleteRoom(ctx context.Context, roomId string) error {
	args := m.Called(ctx, roomId)
	return args.Error(0)
}
func (m *MockRoomService) LeaveRoom(ctx context.Context, roomId string) error {
	args := m.Called(ctx, roomId)
	return args.Error(0)
}
func (m *MockRoomService) CreateInvitation(ctx context.Context, roomId string) (types.Invitation, error) {
	args := m.Called(ctx, roomId)
	return args.Get(0).(types.Invitation), args.Error(1)
}
func (m *MockRoomService) AcceptInvitation(ctx context.Context, token string) (types.Room, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(types.Room), args.Error(1)
}
