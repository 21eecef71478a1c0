package server

import (
	"context"

	"github.com/gorilla/websocket"
	"github.com/leadstream/leadstream/internal/types"
	"github.com/stretchr/testify/mock"
)

type MockRealtime struct {
	mock.Mock
}

func (m *MockRealtime) ServeConn(user types.User, conn *websocket.Conn) {
	m.Called(user, conn)
}
func (m *MockRealtime) NotifyAll(kind string, data map[string]any) {
	m.Called(kind, data)
}
func (m *MockRealtime) RequestTransfer(ctx context.Context, sessionId string, user types.User, recent []types.ChatContextMessage) (TransferResult, error) {
	args := m.Called(ctx, sessionId, user, recent)
	return args.Get(0).(TransferResult), args.Error(1)
}
