package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"mafia-service/internal/archive"
	"mafia-service/internal/models"
)

type SessionServiceMock struct {
	mock.Mock
}

func (m *SessionServiceMock) Create(name string) (string, models.Player, error) {
	args := m.Called(name)
	var player models.Player
	if val := args.Get(1); val != nil {
		player = val.(models.Player)
	}
	return args.String(0), player, args.Error(2)
}

func (m *SessionServiceMock) Join(code, name string) (models.Player, error) {
	args := m.Called(code, name)
	var player models.Player
	if val := args.Get(0); val != nil {
		player = val.(models.Player)
	}
	return player, args.Error(1)
}

func (m *SessionServiceMock) Leave(playerID string) error {
	args := m.Called(playerID)
	return args.Error(0)
}

func (m *SessionServiceMock) View(code, playerID string) (models.SessionView, error) {
	args := m.Called(code, playerID)
	var view models.SessionView
	if val := args.Get(0); val != nil {
		view = val.(models.SessionView)
	}
	return view, args.Error(1)
}

func (m *SessionServiceMock) Exists(code string) bool {
	args := m.Called(code)
	return args.Bool(0)
}

type ArchiveStoreMock struct {
	mock.Mock
}

func (m *ArchiveStoreMock) RecordMatch(ctx context.Context, match archive.Match) error {
	args := m.Called(ctx, match)
	return args.Error(0)
}

func (m *ArchiveStoreMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
