package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"taxdesk/internal/port"
)

// MockEmailSender is a mock implementation of port.EmailSender.
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendDocumentStatusEmail(ctx context.Context, notice port.StatusNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}

func (m *MockEmailSender) SendFilingStatusEmail(ctx context.Context, notice port.StatusNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}
