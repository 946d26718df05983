package session

import (
	"github.com/npezzotti/go-chatclient/internal/transport"
	"github.com/stretchr/testify/mock"
)

// MockTransport is a mock implementation of the Transport interface.
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect(token string) error {
	args := m.Called(token)
	return args.Error(0)
}

func (m *MockTransport) Disconnect() {
	m.Called()
}

func (m *MockTransport) State() transport.State {
	args := m.Called()
	return args.Get(0).(transport.State)
}

func (m *MockTransport) Publish(destination string, body []byte) error {
	args := m.Called(destination, body)
	return args.Error(0)
}

func (m *MockTransport) Subscribe(destination string, h transport.HandlerFunc) (*transport.Subscription, error) {
	args := m.Called(destination, h)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transport.Subscription), args.Error(1)
}

func (m *MockTransport) Unsubscribe(sub *transport.Subscription) error {
	args := m.Called(sub)
	return args.Error(0)
}
