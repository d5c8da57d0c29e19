package smtp

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSend_BuildsHTMLMessage(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	var gotAuth smtp.Auth

	sender := NewSender(Config{
		Host:      "mail.acme.test",
		Port:      587,
		FromName:  "ExpenseFlow",
		FromEmail: "noreply@acme.test",
	}, zap.NewNop())
	sender.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, msg
		return nil
	}

	err := sender.Send(context.Background(), "dana@acme.test", "Expense Approved", "<p>done</p>")
	require.NoError(t, err)

	assert.Equal(t, "mail.acme.test:587", gotAddr)
	assert.Equal(t, "noreply@acme.test", gotFrom)
	assert.Equal(t, []string{"dana@acme.test"}, gotTo)
	assert.Nil(t, gotAuth)

	body := string(gotMsg)
	assert.Contains(t, body, "From: ExpenseFlow <noreply@acme.test>\r\n")
	assert.Contains(t, body, "Subject: Expense Approved\r\n")
	assert.Contains(t, body, "Content-Type: text/html")
	assert.Contains(t, body, "<p>done</p>")
}

func TestSend_UsesAuthWhenConfigured(t *testing.T) {
	var gotAuth smtp.Auth
	sender := NewSender(Config{
		Host:      "mail.acme.test",
		Port:      587,
		Username:  "mailer",
		Password:  "secret",
		FromEmail: "noreply@acme.test",
	}, zap.NewNop())
	sender.send = func(_ string, a smtp.Auth, _ string, _ []string, _ []byte) error {
		gotAuth = a
		return nil
	}

	require.NoError(t, sender.Send(context.Background(), "dana@acme.test", "s", "b"))
	assert.NotNil(t, gotAuth)
}

func TestSend_PropagatesFailure(t *testing.T) {
	sender := NewSender(Config{FromEmail: "noreply@acme.test"}, zap.NewNop())
	sender.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	err := sender.Send(context.Background(), "dana@acme.test", "s", "b")
	assert.Error(t, err)
}

func TestSend_CancelledContext(t *testing.T) {
	sender := NewSender(Config{FromEmail: "noreply@acme.test"}, zap.NewNop())
	called := false
	sender.send = func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, sender.Send(ctx, "dana@acme.test", "s", "b"))
	assert.False(t, called)
}
