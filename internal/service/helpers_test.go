package service

import (
	"bitwise74/bboard/internal/event"
	"bitwise74/bboard/internal/model"
	"bitwise74/bboard/pkg/security"
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMailer struct{ mock.Mock }

func (m *mockMailer) Send(ctx context.Context, msg Message) error {
	return m.Called(ctx, msg).Error(0)
}

type mockRegistrationNotifier struct{ mock.Mock }

func (m *mockRegistrationNotifier) RegistrationCompleted(ctx context.Context, e event.RegistrationCompleted) error {
	return m.Called(ctx, e).Error(0)
}

type mockCommentNotifier struct{ mock.Mock }

func (m *mockCommentNotifier) CommentCreated(ctx context.Context, e event.CommentCreated) error {
	return m.Called(ctx, e).Error(0)
}

type fakeAuthors struct {
	listing *model.Listing
	err     error
}

func (f fakeAuthors) ListingWithAuthor(context.Context, uint) (*model.Listing, error) {
	return f.listing, f.err
}

func testSigner(t *testing.T) *security.Signer {
	t.Helper()

	s, err := security.NewSigner("test-secret", "activation")
	require.NoError(t, err)

	return s
}

func testArgon() *security.ArgonHash {
	return &security.ArgonHash{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}
