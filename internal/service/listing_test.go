package service

import (
	"bitwise74/bboard/internal/model"
	"bitwise74/bboard/internal/testutil"
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type listingFixture struct {
	svc    *ListingService
	db     *gorm.DB
	store  *testutil.MemStore
	author *model.Account
	super  *model.Rubric
	sub    *model.Rubric
}

func newListingFixture(t *testing.T, opts ListingOptions) listingFixture {
	t.Helper()

	conn := testutil.DB(t)
	store := testutil.NewMemStore()
	super, sub := testutil.Rubrics(t, conn)

	return listingFixture{
		svc:    NewListingService(conn, store, nil, opts),
		db:     conn,
		store:  store,
		author: testutil.Account(t, conn, "seller", true),
		super:  super,
		sub:    sub,
	}
}

func (f listingFixture) form() ListingForm {
	return ListingForm{
		RubricID: f.sub.ID,
		Title:    "Old sofa",
		Content:  "Comfortable, slightly used",
		Price:    50,
		Contacts: "+100000000",
	}
}

func pngs(t *testing.T, n int) []*multipart.FileHeader {
	files := make([]*multipart.FileHeader, 0, n)
	for range n {
		files = append(files, testutil.FileHeader(t, "photo.png", "image/png", testutil.PNG(t)))
	}

	return files
}

func countRows(t *testing.T, conn *gorm.DB, m any) int64 {
	t.Helper()

	var count int64
	require.NoError(t, conn.Model(m).Count(&count).Error)

	return count
}

func TestPublishStoresListingWithImages(t *testing.T) {
	f := newListingFixture(t, ListingOptions{})

	listing, err := f.svc.Publish(context.Background(), f.form(), pngs(t, 2), f.author)
	require.NoError(t, err)

	assert.True(t, listing.IsActive)
	assert.Equal(t, f.author.ID, listing.AuthorID)
	require.Len(t, listing.Images, 2)

	for _, img := range listing.Images {
		assert.True(t, strings.HasPrefix(img.Key, "listings/"))
		assert.True(t, strings.HasSuffix(img.Key, ".png"))
		assert.Equal(t, "image/png", img.ContentType)
		assert.Equal(t, "http://media.test/"+img.Key, img.URL)
		assert.Contains(t, f.store.Keys(), img.Key)
	}

	assert.EqualValues(t, 2, countRows(t, f.db, &model.ListingImage{}))
}

func TestPublishStripsMarkup(t *testing.T) {
	f := newListingFixture(t, ListingOptions{})

	form := f.form()
	form.Content = "<b>Great</b> sofa<script>alert(1)</script>"

	listing, err := f.svc.Publish(context.Background(), form, nil, f.author)
	require.NoError(t, err)
	assert.Equal(t, "Great sofa", listing.Content)
}

func TestPublishValidation(t *testing.T) {
	f := newListingFixture(t, ListingOptions{})

	tests := []struct {
		name  string
		edit  func(*ListingForm)
		field string
	}{
		{"missing title", func(l *ListingForm) { l.Title = "" }, "title"},
		{"long title", func(l *ListingForm) { l.Title = strings.Repeat("я", 41) }, "title"},
		{"missing content", func(l *ListingForm) { l.Content = "  " }, "content"},
		{"negative price", func(l *ListingForm) { l.Price = -1 }, "price"},
		{"missing contacts", func(l *ListingForm) { l.Contacts = "" }, "contacts"},
		{"no rubric", func(l *ListingForm) { l.RubricID = 0 }, "rubric_id"},
		{"unknown rubric", func(l *ListingForm) { l.RubricID = 9999 }, "rubric_id"},
		{"super rubric", func(l *ListingForm) { l.RubricID = f.super.ID }, "rubric_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := f.form()
			tt.edit(&form)

			_, err := f.svc.Publish(context.Background(), form, pngs(t, 1), f.author)
			assert.Contains(t, fieldErrors(t, err), tt.field)
		})
	}

	assert.Zero(t, countRows(t, f.db, &model.Listing{}))
	assert.Empty(t, f.store.Keys())
}

func TestPublishAcceptsFortyCharacterTitle(t *testing.T) {
	f := newListingFixture(t, ListingOptions{})

	form := f.form()
	form.Title = strings.Repeat("я", 40)

	_, err := f.svc.Publish(context.Background(), form, nil, f.author)
	assert.NoError(t, err)
}

func TestPublishRejectsBadImagesBeforeWriting(t *testing.T) {
	f := newListingFixture(t, ListingOptions{MaxImages: 2})

	t.Run("not an image", func(t *testing.T) {
		files := append(pngs(t, 1), testutil.FileHeader(t, "fake.png", "image/png", []byte("hello there")))

		_, err := f.svc.Publish(context.Background(), f.form(), files, f.author)
		assert.Contains(t, fieldErrors(t, err), "images")
	})

	t.Run("too many", func(t *testing.T) {
		_, err := f.svc.Publish(context.Background(), f.form(), pngs(t, 3), f.author)
		assert.Contains(t, fieldErrors(t, err), "images")
	})

	t.Run("too large", func(t *testing.T) {
		small := newListingFixture(t, ListingOptions{MaxImageSize: 10})

		_, err := small.svc.Publish(context.Background(), small.form(), pngs(t, 1), small.author)
		assert.Contains(t, fieldErrors(t, err), "images")
	})

	assert.Zero(t, countRows(t, f.db, &model.Listing{}))
	assert.Empty(t, f.store.Keys())
}

func TestPublishRollsBackUploadsOnStoreFailure(t *testing.T) {
	f := newListingFixture(t, ListingOptions{})
	f.store.FailAfter = 2

	_, err := f.svc.Publish(context.Background(), f.form(), pngs(t, 2), f.author)
	assert.ErrorIs(t, err, testutil.ErrStoreFailure)

	assert.Empty(t, f.store.Keys())
	assert.Zero(t, countRows(t, f.db, &model.Listing{}))
	assert.Zero(t, countRows(t, f.db, &model.ListingImage{}))
}

func TestPublishRequiresAuthor(t *testing.T) {
	f := newListingFixture(t, ListingOptions{})

	_, err := f.svc.Publish(context.Background(), f.form(), nil, nil)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateAddsAndRemovesImages(t *testing.T) {
	f := newListingFixture(t, ListingOptions{})
	ctx := context.Background()

	listing, err := f.svc.Publish(ctx, f.form(), pngs(t, 1), f.author)
	require.NoError(t, err)
	oldKey := listing.Images[0].Key

	form := f.form()
	form.Title = "Newer sofa"
	form.Price = 0

	updated, err := f.svc.Update(ctx, listing.ID, form, pngs(t, 1), []uint{listing.Images[0].ID}, f.author)
	require.NoError(t, err)

	assert.Equal(t, "Newer sofa", updated.Title)
	assert.Zero(t, updated.Price)
	require.Len(t, updated.Images, 1)
	assert.NotEqual(t, oldKey, updated.Images[0].Key)
	assert.Equal(t, []string{updated.Images[0].Key}, f.store.Keys())
}

func TestUpdateAuthorization(t *testing.T) {
	f := newListingFixture(t, ListingOptions{})
	ctx := context.Background()

	listing, err := f.svc.Publish(ctx, f.form(), nil, f.author)
	require.NoError(t, err)

	stranger := testutil.Account(t, f.db, "stranger", true)

	_, err = f.svc.Update(ctx, listing.ID, f.form(), nil, nil, stranger)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Update(ctx, 9999, f.form(), nil, nil, f.author)
	assert.ErrorIs(t, err, ErrNotFound)

	err = f.svc.Delete(ctx, listing.ID, stranger)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.GetOwned(ctx, listing.ID, stranger)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateRejectsForeignImage(t *testing.T) {
	f := newListingFixture(t, ListingOptions{})
	ctx := context.Background()

	first, err := f.svc.Publish(ctx, f.form(), pngs(t, 1), f.author)
	require.NoError(t, err)

	second, err := f.svc.Publish(ctx, f.form(), nil, f.author)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, second.ID, f.form(), nil, []uint{first.Images[0].ID}, f.author)
	assert.Contains(t, fieldErrors(t, err), "remove_images")

	assert.EqualValues(t, 1, countRows(t, f.db, &model.ListingImage{}))
}

func TestUpdateEnforcesImageLimit(t *testing.T) {
	f := newListingFixture(t, ListingOptions{MaxImages: 2})
	ctx := context.Background()

	listing, err := f.svc.Publish(ctx, f.form(), pngs(t, 2), f.author)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, listing.ID, f.form(), pngs(t, 1), nil, f.author)
	assert.Contains(t, fieldErrors(t, err), "images")

	// Swapping one image keeps the count within the limit
	_, err = f.svc.Update(ctx, listing.ID, f.form(), pngs(t, 1), []uint{listing.Images[0].ID}, f.author)
	assert.NoError(t, err)
}

func TestDeleteListingRemovesEverything(t *testing.T) {
	f := newListingFixture(t, ListingOptions{})
	ctx := context.Background()

	listing, err := f.svc.Publish(ctx, f.form(), pngs(t, 2), f.author)
	require.NoError(t, err)
	require.NoError(t, f.db.Create(&model.Comment{ListingID: listing.ID, Author: "guest", Content: "hi", IsActive: true}).Error)

	require.NoError(t, f.svc.Delete(ctx, listing.ID, f.author))

	assert.Zero(t, countRows(t, f.db, &model.Listing{}))
	assert.Zero(t, countRows(t, f.db, &model.ListingImage{}))
	assert.Zero(t, countRows(t, f.db, &model.Comment{}))
	assert.Empty(t, f.store.Keys())

	assert.ErrorIs(t, f.svc.Delete(ctx, listing.ID, f.author), ErrNotFound)
}

func TestListPublicPaginatesNewestFirst(t *testing.T) {
	f := newListingFixture(t, ListingOptions{PageSize: 2})
	ctx := context.Background()

	var ids []uint
	for i := range 5 {
		l := testutil.Listing(t, f.db, f.author, f.sub.ID, "Item", strings.Repeat("x", i+1), true)
		ids = append(ids, l.ID)
	}
	testutil.Listing(t, f.db, f.author, f.sub.ID, "Hidden", "inactive", false)

	page, err := f.svc.ListPublic(ctx, ListingFilter{Page: 1})
	require.NoError(t, err)

	assert.EqualValues(t, 5, page.Total)
	assert.Equal(t, 3, page.NumPages)
	assert.Equal(t, 1, page.Number)
	assert.Equal(t, []uint{ids[4], ids[3]}, listingIDs(page.Items))
	assert.True(t, page.HasNext())
	assert.False(t, page.HasPrevious())

	// Out of range pages are clamped
	page, err = f.svc.ListPublic(ctx, ListingFilter{Page: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Number)

	page, err = f.svc.ListPublic(ctx, ListingFilter{Page: 99})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Number)
	assert.Equal(t, []uint{ids[0]}, listingIDs(page.Items))
	assert.False(t, page.HasNext())
}

func TestListPublicFilters(t *testing.T) {
	f := newListingFixture(t, ListingOptions{PageSize: 10})
	ctx := context.Background()

	other := &model.Rubric{Name: "Houses", SuperRubricID: &f.super.ID}
	require.NoError(t, f.db.Create(other).Error)

	sofa := testutil.Listing(t, f.db, f.author, f.sub.ID, "Old SOFA", "blue", true)
	chair := testutil.Listing(t, f.db, f.author, f.sub.ID, "Chair", "goes well with a sofa", true)
	house := testutil.Listing(t, f.db, f.author, other.ID, "Cottage", "100% wood", true)
	plain := testutil.Listing(t, f.db, f.author, other.ID, "Shed", "100 planks_of wood", true)
	stool := testutil.Listing(t, f.db, f.author, f.sub.ID, "Стул дубовый", "Крепкий, почти новый", true)

	tests := []struct {
		name   string
		filter ListingFilter
		want   []uint
	}{
		{"keyword is case insensitive over title and content", ListingFilter{Keyword: "Sofa"}, []uint{chair.ID, sofa.ID}},
		{"rubric", ListingFilter{RubricID: other.ID}, []uint{plain.ID, house.ID}},
		{"rubric and keyword", ListingFilter{RubricID: other.ID, Keyword: "wood"}, []uint{plain.ID, house.ID}},
		{"percent is literal", ListingFilter{Keyword: "0%"}, []uint{house.ID}},
		{"underscore is literal", ListingFilter{Keyword: "s_o"}, []uint{plain.ID}},
		{"non-ascii exact case", ListingFilter{Keyword: "Стул"}, []uint{stool.ID}},
		{"non-ascii lower case", ListingFilter{Keyword: "стул"}, []uint{stool.ID}},
		{"non-ascii upper case", ListingFilter{Keyword: "ДУБОВЫЙ"}, []uint{stool.ID}},
		{"non-ascii content", ListingFilter{Keyword: "КРЕПКИЙ"}, []uint{stool.ID}},
		{"no match", ListingFilter{Keyword: "piano"}, []uint{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := f.svc.ListPublic(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, listingIDs(page.Items))
		})
	}
}

func TestListPublicEmpty(t *testing.T) {
	f := newListingFixture(t, ListingOptions{})

	page, err := f.svc.ListPublic(context.Background(), ListingFilter{Page: 3})
	require.NoError(t, err)

	assert.Equal(t, 1, page.Number)
	assert.Equal(t, 1, page.NumPages)
	assert.Empty(t, page.Items)
}

func TestLatestAndVisibility(t *testing.T) {
	f := newListingFixture(t, ListingOptions{})
	ctx := context.Background()

	var ids []uint
	for range 3 {
		ids = append(ids, testutil.Listing(t, f.db, f.author, f.sub.ID, "Item", "content", true).ID)
	}
	hidden := testutil.Listing(t, f.db, f.author, f.sub.ID, "Hidden", "content", false)

	latest, err := f.svc.Latest(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint{ids[2], ids[1]}, listingIDs(latest))

	_, err = f.svc.Get(ctx, hidden.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	owned, err := f.svc.GetOwned(ctx, hidden.ID, f.author)
	require.NoError(t, err)
	assert.False(t, owned.IsActive)

	mine, err := f.svc.ListByAuthor(ctx, f.author.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 4)

	withAuthor, err := f.svc.ListingWithAuthor(ctx, ids[0])
	require.NoError(t, err)
	require.NotNil(t, withAuthor.Author)
	assert.Equal(t, f.author.Username, withAuthor.Author.Username)

	_, err = f.svc.ListingWithAuthor(ctx, 9999)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off\\`, escapeLike(`50%_off\`))
}

func listingIDs(items []model.Listing) []uint {
	ids := make([]uint, 0, len(items))
	for _, l := range items {
		ids = append(ids, l.ID)
	}

	return ids
}
