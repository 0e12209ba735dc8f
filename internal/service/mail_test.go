package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSMTPMailerChecksInputBeforeDialing(t *testing.T) {
	// Nothing listens here, both calls must fail before dialing
	m := NewSMTPMailer("127.0.0.1", 1, "", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Send(ctx, Message{To: []string{"a@example.com"}})
	assert.ErrorIs(t, err, context.Canceled)

	err = m.Send(context.Background(), Message{})
	assert.EqualError(t, err, "no recipients")
}

func TestLogMailer(t *testing.T) {
	assert.NoError(t, LogMailer{}.Send(context.Background(), Message{To: []string{"a@example.com"}, Subject: "hi"}))
}
