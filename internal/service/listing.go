package service

import (
	"bitwise74/bboard/db"
	"bitwise74/bboard/internal/metrics"
	"bitwise74/bboard/internal/model"
	"bitwise74/bboard/pkg/validators"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxTitleLength   = 40
	DefaultPageSize  = 2
	DefaultMaxImages = 10
	LatestCount      = 10
)

type ListingForm struct {
	RubricID uint    `form:"rubric_id" json:"rubric_id"`
	Title    string  `form:"title" json:"title"`
	Content  string  `form:"content" json:"content"`
	Price    float64 `form:"price" json:"price"`
	Contacts string  `form:"contacts" json:"contacts"`
}

// ListingFilter narrows the public listing index. Zero values mean "any".
type ListingFilter struct {
	RubricID uint
	Keyword  string
	Page     int
	PageSize int
}

type ListingOptions struct {
	MaxImageSize int64
	MaxImages    int
	PageSize     int
}

type ListingService struct {
	db      *gorm.DB
	images  ImageStore
	metrics metrics.Recorder
	opts    ListingOptions
}

func NewListingService(db *gorm.DB, images ImageStore, rec metrics.Recorder, opts ListingOptions) *ListingService {
	if rec == nil {
		rec = metrics.Nop{}
	}

	if opts.MaxImages <= 0 {
		opts.MaxImages = DefaultMaxImages
	}

	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}

	return &ListingService{
		db:      db,
		images:  images,
		metrics: rec,
		opts:    opts,
	}
}

// pendingImage is an uploaded file that passed validation and is waiting to
// be written to the store
type pendingImage struct {
	file        multipart.File
	name        string
	contentType string
	size        int64
}

func closeImages(images []pendingImage) {
	for _, img := range images {
		img.file.Close()
	}
}

// Publish creates an active listing owned by author together with its images.
// Either everything is stored or nothing is.
func (s *ListingService) Publish(ctx context.Context, f ListingForm, files []*multipart.FileHeader, author *model.Account) (*model.Listing, error) {
	if author == nil {
		return nil, ErrForbidden
	}

	f = normalizeForm(f)

	errs, err := s.validateForm(ctx, f)
	if err != nil {
		return nil, err
	}

	if len(files) > s.opts.MaxImages {
		errs.Add("images", fmt.Sprintf("%s, at most %d allowed", validators.ErrTooManyFiles, s.opts.MaxImages))
	}

	pending := s.openImages(files, errs)
	defer closeImages(pending)

	if err := errs.Err(); err != nil {
		return nil, err
	}

	images, err := s.upload(ctx, pending)
	if err != nil {
		return nil, err
	}

	listing := model.Listing{
		RubricID: f.RubricID,
		Title:    f.Title,
		Content:  f.Content,
		Price:    f.Price,
		Contacts: f.Contacts,
		AuthorID: author.ID,
		IsActive: true,
		Images:   images,
	}

	if err := s.db.WithContext(ctx).Create(&listing).Error; err != nil {
		removeObjects(ctx, s.images, imageKeys(images))
		return nil, fmt.Errorf("failed to create listing, %w", err)
	}

	s.metrics.RecordListingPublished()
	s.withURLs(&listing)

	return &listing, nil
}

// Update edits a listing owned by author. New images are added and the images
// named by removeIDs are dropped in the same unit of work.
func (s *ListingService) Update(ctx context.Context, id uint, f ListingForm, files []*multipart.FileHeader, removeIDs []uint, author *model.Account) (*model.Listing, error) {
	listing, err := s.owned(ctx, id, author)
	if err != nil {
		return nil, err
	}

	f = normalizeForm(f)

	errs, err := s.validateForm(ctx, f)
	if err != nil {
		return nil, err
	}

	var removed []model.ListingImage
	for _, rid := range removeIDs {
		i := slices.IndexFunc(listing.Images, func(img model.ListingImage) bool { return img.ID == rid })
		if i < 0 {
			errs.Add("remove_images", fmt.Sprintf("image %d does not belong to this listing", rid))
			continue
		}

		if !slices.ContainsFunc(removed, func(img model.ListingImage) bool { return img.ID == rid }) {
			removed = append(removed, listing.Images[i])
		}
	}

	if len(listing.Images)-len(removed)+len(files) > s.opts.MaxImages {
		errs.Add("images", fmt.Sprintf("%s, at most %d allowed", validators.ErrTooManyFiles, s.opts.MaxImages))
	}

	pending := s.openImages(files, errs)
	defer closeImages(pending)

	if err := errs.Err(); err != nil {
		return nil, err
	}

	added, err := s.upload(ctx, pending)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.Listing{}).
			Where("id = ?", listing.ID).
			Updates(map[string]any{
				"rubric_id": f.RubricID,
				"title":     f.Title,
				"content":   f.Content,
				"price":     f.Price,
				"contacts":  f.Contacts,
			}).
			Error
		if err != nil {
			return err
		}

		if len(removed) > 0 {
			ids := make([]uint, 0, len(removed))
			for _, img := range removed {
				ids = append(ids, img.ID)
			}

			if err := tx.Where("listing_id = ? AND id IN ?", listing.ID, ids).Delete(&model.ListingImage{}).Error; err != nil {
				return err
			}
		}

		if len(added) > 0 {
			for i := range added {
				added[i].ListingID = listing.ID
			}

			if err := tx.Create(&added).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		removeObjects(ctx, s.images, imageKeys(added))
		return nil, fmt.Errorf("failed to update listing, %w", err)
	}

	removeObjects(ctx, s.images, imageKeys(removed))

	return s.GetOwned(ctx, listing.ID, author)
}

// Delete removes a listing owned by author with its images and comments
func (s *ListingService) Delete(ctx context.Context, id uint, author *model.Account) error {
	listing, err := s.owned(ctx, id, author)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("listing_id = ?", listing.ID).Delete(&model.Comment{}).Error; err != nil {
			return err
		}

		if err := tx.Where("listing_id = ?", listing.ID).Delete(&model.ListingImage{}).Error; err != nil {
			return err
		}

		return tx.Delete(&model.Listing{}, listing.ID).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete listing, %w", err)
	}

	removeObjects(ctx, s.images, imageKeys(listing.Images))
	return nil
}

// ListPublic returns one page of active listings, newest first
func (s *ListingService) ListPublic(ctx context.Context, filter ListingFilter) (*Page[model.Listing], error) {
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = s.opts.PageSize
	}

	q := s.db.WithContext(ctx).
		Model(&model.Listing{}).
		Where("is_active = ?", true)

	if filter.RubricID != 0 {
		q = q.Where("rubric_id = ?", filter.RubricID)
	}

	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		q = keywordFilter(q, kw)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count listings, %w", err)
	}

	number, numPages := clampPage(filter.Page, pageSize, total)

	items := []model.Listing{}

	err := q.
		Preload("Images").
		Order("created_at desc, id desc").
		Offset((number - 1) * pageSize).
		Limit(pageSize).
		Find(&items).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list listings, %w", err)
	}

	for i := range items {
		s.withURLs(&items[i])
	}

	return &Page[model.Listing]{
		Items:    items,
		Number:   number,
		PageSize: pageSize,
		Total:    total,
		NumPages: numPages,
	}, nil
}

// Latest returns the n newest active listings
func (s *ListingService) Latest(ctx context.Context, n int) ([]model.Listing, error) {
	if n <= 0 {
		n = LatestCount
	}

	items := []model.Listing{}

	err := s.db.WithContext(ctx).
		Preload("Images").
		Where("is_active = ?", true).
		Order("created_at desc, id desc").
		Limit(n).
		Find(&items).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list latest listings, %w", err)
	}

	for i := range items {
		s.withURLs(&items[i])
	}

	return items, nil
}

// Get returns an active listing for public display
func (s *ListingService) Get(ctx context.Context, id uint) (*model.Listing, error) {
	var listing model.Listing

	err := s.db.WithContext(ctx).
		Preload("Images").
		Preload("Rubric").
		Where("id = ? AND is_active = ?", id, true).
		First(&listing).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to look up listing, %w", err)
	}

	s.withURLs(&listing)
	return &listing, nil
}

// GetOwned returns a listing of author whether it's active or not
func (s *ListingService) GetOwned(ctx context.Context, id uint, author *model.Account) (*model.Listing, error) {
	listing, err := s.owned(ctx, id, author)
	if err != nil {
		return nil, err
	}

	s.withURLs(listing)
	return listing, nil
}

func (s *ListingService) ListByAuthor(ctx context.Context, authorID string) ([]model.Listing, error) {
	items := []model.Listing{}

	err := s.db.WithContext(ctx).
		Preload("Images").
		Where("author_id = ?", authorID).
		Order("created_at desc, id desc").
		Find(&items).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list listings of author, %w", err)
	}

	for i := range items {
		s.withURLs(&items[i])
	}

	return items, nil
}

// ListingWithAuthor loads a listing with its author preloaded
func (s *ListingService) ListingWithAuthor(ctx context.Context, listingID uint) (*model.Listing, error) {
	var listing model.Listing

	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("id = ?", listingID).
		First(&listing).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to look up listing, %w", err)
	}

	if listing.Author == nil {
		return nil, fmt.Errorf("listing %d has no author", listingID)
	}

	return &listing, nil
}

func (s *ListingService) owned(ctx context.Context, id uint, author *model.Account) (*model.Listing, error) {
	if author == nil {
		return nil, ErrForbidden
	}

	var listing model.Listing

	err := s.db.WithContext(ctx).
		Preload("Images").
		Preload("Rubric").
		Where("id = ?", id).
		First(&listing).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to look up listing, %w", err)
	}

	if listing.AuthorID != author.ID {
		return nil, ErrForbidden
	}

	return &listing, nil
}

func normalizeForm(f ListingForm) ListingForm {
	f.Title = cleanText(f.Title)
	f.Content = cleanText(f.Content)
	f.Contacts = cleanText(f.Contacts)
	return f
}

func (s *ListingService) validateForm(ctx context.Context, f ListingForm) (validators.FieldErrors, error) {
	errs := validators.FieldErrors{}

	switch {
	case f.Title == "":
		errs.Add("title", "title is required")
	case utf8.RuneCountInString(f.Title) > maxTitleLength:
		errs.Add("title", fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}

	if f.Content == "" {
		errs.Add("content", "content is required")
	}

	if f.Price < 0 {
		errs.Add("price", "price can't be negative")
	}

	if f.Contacts == "" {
		errs.Add("contacts", "contacts are required")
	}

	if f.RubricID == 0 {
		errs.Add("rubric_id", "rubric is required")
		return errs, nil
	}

	var rubric model.Rubric

	err := s.db.WithContext(ctx).Where("id = ?", f.RubricID).First(&rubric).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		errs.Add("rubric_id", "rubric does not exist")
	case err != nil:
		return nil, fmt.Errorf("failed to look up rubric, %w", err)
	case rubric.IsSuper():
		errs.Add("rubric_id", "listings can only be filed under a sub-rubric")
	}

	return errs, nil
}

// openImages validates every file. Problems are recorded on errs and only the
// files that passed are returned, opened.
func (s *ListingService) openImages(files []*multipart.FileHeader, errs validators.FieldErrors) []pendingImage {
	pending := make([]pendingImage, 0, len(files))

	for i, fh := range files {
		f, contentType, err := validators.ImageValidator(fh, s.opts.MaxImageSize)
		if err != nil {
			errs.Add("images", fmt.Sprintf("image %d: %s", i+1, err))
			continue
		}

		pending = append(pending, pendingImage{
			file:        f,
			name:        fh.Filename,
			contentType: contentType,
			size:        fh.Size,
		})
	}

	return pending
}

// upload writes every pending image to the store and removes the ones already
// written if any of them fails
func (s *ListingService) upload(ctx context.Context, pending []pendingImage) ([]model.ListingImage, error) {
	images := make([]model.ListingImage, 0, len(pending))

	for _, p := range pending {
		ext := ""
		if m := mimetype.Lookup(p.contentType); m != nil {
			ext = m.Extension()
		}

		key := "listings/" + uuid.NewString() + ext

		if err := s.images.Put(ctx, key, p.contentType, p.file, p.size); err != nil {
			removeObjects(ctx, s.images, imageKeys(images))
			return nil, fmt.Errorf("failed to store image, %w", err)
		}

		zap.L().Debug("Stored listing image", zap.String("key", key))

		images = append(images, model.ListingImage{
			Key:         key,
			Name:        p.name,
			ContentType: p.contentType,
			Size:        p.size,
		})
	}

	return images, nil
}

func (s *ListingService) withURLs(l *model.Listing) {
	for i := range l.Images {
		l.Images[i].URL = s.images.URL(l.Images[i].Key)
	}
}

func imageKeys(images []model.ListingImage) []string {
	keys := make([]string, 0, len(images))
	for _, img := range images {
		keys = append(keys, img.Key)
	}

	return keys
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// keywordFilter matches kw anywhere in the title or content ignoring case.
// SQLite's own LOWER and LIKE only fold ASCII.
func keywordFilter(q *gorm.DB, kw string) *gorm.DB {
	if q.Dialector.Name() == "postgres" {
		pattern := "%" + escapeLike(kw) + "%"
		return q.Where(`(title ILIKE ? ESCAPE '\' OR content ILIKE ? ESCAPE '\')`, pattern, pattern)
	}

	pattern := "%" + escapeLike(strings.ToLower(kw)) + "%"
	return q.Where(
		fmt.Sprintf(`(%[1]s(title) LIKE ? ESCAPE '\' OR %[1]s(content) LIKE ? ESCAPE '\')`, db.SQLiteLower),
		pattern, pattern,
	)
}

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
