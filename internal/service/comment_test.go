package service

import (
	"bitwise74/bboard/internal/event"
	"bitwise74/bboard/internal/model"
	"bitwise74/bboard/internal/testutil"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type commentFixture struct {
	svc      *CommentService
	notifier *mockCommentNotifier
	db       *gorm.DB
	author   *model.Account
	listing  *model.Listing
}

func newCommentFixture(t *testing.T) commentFixture {
	t.Helper()

	conn := testutil.DB(t)
	_, sub := testutil.Rubrics(t, conn)
	author := testutil.Account(t, conn, "seller", true)
	n := &mockCommentNotifier{}

	return commentFixture{
		svc:      NewCommentService(conn, n, nil),
		notifier: n,
		db:       conn,
		author:   author,
		listing:  testutil.Listing(t, conn, author, sub.ID, "Bike", "Red bike", true),
	}
}

func TestCreateGuestComment(t *testing.T) {
	f := newCommentFixture(t)

	f.notifier.On("CommentCreated", mock.Anything, mock.MatchedBy(func(e event.CommentCreated) bool {
		return e.CommenterID == "" && e.Comment.Author == "guest" && e.Comment.ListingID == f.listing.ID
	})).Return(nil).Once()

	c, err := f.svc.Create(context.Background(), f.listing.ID, CommentForm{
		Author:  "guest",
		Email:   "guest@example.com",
		Content: "<i>Is it</i> still available?",
	}, nil)
	require.NoError(t, err)

	assert.True(t, c.IsActive)
	assert.Equal(t, "Is it still available?", c.Content)
	f.notifier.AssertExpectations(t)
}

func TestCreateAccountCommentUsesAccountIdentity(t *testing.T) {
	f := newCommentFixture(t)
	buyer := testutil.Account(t, f.db, "buyer", true)

	f.notifier.On("CommentCreated", mock.Anything, mock.MatchedBy(func(e event.CommentCreated) bool {
		return e.CommenterID == buyer.ID
	})).Return(nil).Once()

	c, err := f.svc.Create(context.Background(), f.listing.ID, CommentForm{
		Author:  "someone else",
		Content: "Interested",
	}, buyer)
	require.NoError(t, err)

	assert.Equal(t, "buyer", c.Author)
	assert.Equal(t, buyer.Email, c.Email)
	f.notifier.AssertExpectations(t)
}

func TestCreateCommentTruncatesLongUsername(t *testing.T) {
	f := newCommentFixture(t)
	long := testutil.Account(t, f.db, strings.Repeat("ж", 150), true)

	f.notifier.On("CommentCreated", mock.Anything, mock.Anything).Return(nil).Once()

	c, err := f.svc.Create(context.Background(), f.listing.ID, CommentForm{Content: "Interested"}, long)
	require.NoError(t, err)

	assert.Equal(t, strings.Repeat("ж", 30), c.Author)
	assert.Equal(t, long.Email, c.Email)
}

func TestCreateCommentValidation(t *testing.T) {
	f := newCommentFixture(t)

	tests := []struct {
		name  string
		form  CommentForm
		field string
	}{
		{"missing author", CommentForm{Content: "hi"}, "author"},
		{"long author", CommentForm{Author: strings.Repeat("a", 31), Content: "hi"}, "author"},
		{"missing content", CommentForm{Author: "guest", Content: "<b></b>"}, "content"},
		{"bad email", CommentForm{Author: "guest", Email: "nope", Content: "hi"}, "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), f.listing.ID, tt.form, nil)
			assert.Contains(t, fieldErrors(t, err), tt.field)
		})
	}

	assert.Zero(t, countRows(t, f.db, &model.Comment{}))
	f.notifier.AssertNotCalled(t, "CommentCreated", mock.Anything, mock.Anything)
}

func TestCreateCommentNeedsActiveListing(t *testing.T) {
	f := newCommentFixture(t)
	hidden := testutil.Listing(t, f.db, f.author, f.listing.RubricID, "Hidden", "content", false)

	for _, id := range []uint{hidden.ID, 9999} {
		_, err := f.svc.Create(context.Background(), id, CommentForm{Author: "guest", Content: "hi"}, nil)
		assert.ErrorIs(t, err, ErrNotFound)
	}

	f.notifier.AssertNotCalled(t, "CommentCreated", mock.Anything, mock.Anything)
}

func TestCreateCommentSurfacesDeliveryFailure(t *testing.T) {
	f := newCommentFixture(t)
	lookup := errors.New("lookup failed")

	f.notifier.On("CommentCreated", mock.Anything, mock.Anything).Return(lookup).Once()

	c, err := f.svc.Create(context.Background(), f.listing.ID, CommentForm{Author: "guest", Content: "hi"}, nil)
	require.NotNil(t, c)
	assert.ErrorIs(t, err, ErrDelivery)
	assert.ErrorIs(t, err, lookup)

	// The comment stays even though nobody was told about it
	assert.EqualValues(t, 1, countRows(t, f.db, &model.Comment{}))
}

func TestListActiveComments(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()
	other := testutil.Listing(t, f.db, f.author, f.listing.RubricID, "Other", "content", true)

	first := model.Comment{ListingID: f.listing.ID, Author: "a", Content: "first", IsActive: true}
	hidden := model.Comment{ListingID: f.listing.ID, Author: "b", Content: "hidden", IsActive: false}
	second := model.Comment{ListingID: f.listing.ID, Author: "c", Content: "second", IsActive: true}
	elsewhere := model.Comment{ListingID: other.ID, Author: "d", Content: "elsewhere", IsActive: true}

	for _, c := range []*model.Comment{&first, &hidden, &second, &elsewhere} {
		require.NoError(t, f.db.Create(c).Error)
	}

	comments, err := f.svc.ListActive(ctx, f.listing.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)
	assert.Equal(t, "second", comments[1].Content)

	_, err = f.svc.ListActive(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}
