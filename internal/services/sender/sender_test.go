package sender

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	smtplib "github.com/magabrotheeeer/marketplace-billing/internal/lib/smtp"
	"github.com/magabrotheeeer/marketplace-billing/internal/models"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect() (smtplib.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtplib.Client), args.Error(1)
}

func (m *MockTransport) GetSMTPUser() string {
	args := m.Called()
	return args.String(0)
}

type MockSMTPClient struct {
	mock.Mock
}

func (m *MockSMTPClient) Mail(from string) error {
	args := m.Called(from)
	return args.Error(0)
}

func (m *MockSMTPClient) Rcpt(to string) error {
	args := m.Called(to)
	return args.Error(0)
}

func (m *MockSMTPClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSMTPClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSMTPClient) Quit() error {
	args := m.Called()
	return args.Error(0)
}

type MockSMTPWriter struct {
	mock.Mock
}

func (m *MockSMTPWriter) Write(p []byte) (n int, err error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *MockSMTPWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return body
}

func TestSenderService_SendNotification(t *testing.T) {
	message := models.NotificationMessage{
		Email:    "buyer@example.com",
		Username: "buyer",
		Title:    "Subscription activated",
		Body:     "Your PRO subscription is active until 28 Sep 2026.",
	}

	t.Run("письмо уходит получателю из сообщения", func(t *testing.T) {
		transport := new(MockTransport)
		client := new(MockSMTPClient)
		writer := new(MockSMTPWriter)

		transport.On("GetSMTPUser").Return("billing@marketplace.example")
		transport.On("Connect").Return(client, nil)
		client.On("Mail", "billing@marketplace.example").Return(nil)
		client.On("Rcpt", "buyer@example.com").Return(nil)
		client.On("Data").Return(writer, nil)
		writer.On("Write", mock.MatchedBy(func(p []byte) bool {
			return len(p) > 0
		})).Return(0, nil)
		writer.On("Close").Return(nil)
		client.On("Quit").Return(nil)
		client.On("Close").Return(nil)

		svc := NewSenderService(newNoopLogger(), transport)
		err := svc.SendNotification(mustMarshal(t, message))

		require.NoError(t, err)
		client.AssertExpectations(t)
	})

	t.Run("сообщение без получателя отбрасывается без ошибки", func(t *testing.T) {
		transport := new(MockTransport)

		svc := NewSenderService(newNoopLogger(), transport)
		err := svc.SendNotification(mustMarshal(t, models.NotificationMessage{Title: "x"}))

		require.NoError(t, err)
		transport.AssertNotCalled(t, "Connect")
	})

	t.Run("невалидный JSON возвращает ошибку", func(t *testing.T) {
		svc := NewSenderService(newNoopLogger(), new(MockTransport))
		err := svc.SendNotification([]byte("{broken"))

		require.Error(t, err)
	})

	t.Run("ошибка соединения поднимается наверх", func(t *testing.T) {
		transport := new(MockTransport)
		transport.On("GetSMTPUser").Return("billing@marketplace.example")
		transport.On("Connect").Return(nil, errors.New("dial tcp: connection refused"))

		svc := NewSenderService(newNoopLogger(), transport)
		err := svc.SendNotification(mustMarshal(t, message))

		assert.Error(t, err)
	})
}
