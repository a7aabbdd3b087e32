package service

import (
	"context"

	"jtdxmon/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Send(ctx context.Context, content string) error {
	args := m.Called(ctx, content)
	return args.Error(0)
}

type mockContactStore struct {
	mock.Mock
}

func (m *mockContactStore) SaveContact(ctx context.Context, record *models.ContactRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}
