package service

import (
	"bitwise74/bboard/internal/event"
	"bitwise74/bboard/internal/metrics"
	"bitwise74/bboard/internal/model"
	"bitwise74/bboard/pkg/validators"
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxCommentAuthorLength = 30

// CommentNotifier consumes CommentCreated events
type CommentNotifier interface {
	CommentCreated(ctx context.Context, e event.CommentCreated) error
}

type CommentForm struct {
	Author  string `json:"author" form:"author"`
	Email   string `json:"email" form:"email"`
	Content string `json:"content" form:"content"`
}

type CommentService struct {
	db       *gorm.DB
	notifier CommentNotifier
	metrics  metrics.Recorder
}

func NewCommentService(db *gorm.DB, notifier CommentNotifier, rec metrics.Recorder) *CommentService {
	if rec == nil {
		rec = metrics.Nop{}
	}

	return &CommentService{
		db:       db,
		notifier: notifier,
		metrics:  rec,
	}
}

// Create stores a comment on an active listing. account is nil for guests.
//
// When the comment is stored but the listing author couldn't be notified the
// comment is returned together with an error wrapping ErrDelivery.
func (s *CommentService) Create(ctx context.Context, listingID uint, f CommentForm, account *model.Account) (*model.Comment, error) {
	if err := s.activeListing(ctx, listingID); err != nil {
		return nil, err
	}

	f.Author = cleanText(f.Author)
	f.Email = strings.TrimSpace(f.Email)
	f.Content = cleanText(f.Content)

	if account != nil {
		f.Author = truncateRunes(account.Username, maxCommentAuthorLength)
		f.Email = account.Email
	}

	errs := validators.FieldErrors{}

	switch {
	case f.Author == "":
		errs.Add("author", "author is required")
	case utf8.RuneCountInString(f.Author) > maxCommentAuthorLength:
		errs.Add("author", fmt.Sprintf("author must be at most %d characters", maxCommentAuthorLength))
	}

	if f.Email != "" {
		errs.Check("email", validators.EmailValidator(f.Email))
	}

	if f.Content == "" {
		errs.Add("content", "content is required")
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}

	comment := model.Comment{
		ListingID: listingID,
		Author:    f.Author,
		Email:     f.Email,
		Content:   f.Content,
		IsActive:  true,
	}

	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("failed to create comment, %w", err)
	}

	s.metrics.RecordCommentCreated(account == nil)

	if s.notifier == nil {
		return &comment, nil
	}

	e := event.CommentCreated{Comment: comment}
	if account != nil {
		e.CommenterID = account.ID
	}

	if err := s.notifier.CommentCreated(ctx, e); err != nil {
		zap.L().Warn("Comment stored but author notification failed", zap.Uint("comment_id", comment.ID), zap.Error(err))

		if !errors.Is(err, ErrDelivery) {
			err = fmt.Errorf("%w: %w", ErrDelivery, err)
		}

		return &comment, err
	}

	return &comment, nil
}

// ListActive returns the visible comments of an active listing, oldest first
func (s *CommentService) ListActive(ctx context.Context, listingID uint) ([]model.Comment, error) {
	if err := s.activeListing(ctx, listingID); err != nil {
		return nil, err
	}

	comments := []model.Comment{}

	err := s.db.WithContext(ctx).
		Where("listing_id = ? AND is_active = ?", listingID, true).
		Order("created_at asc, id asc").
		Find(&comments).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list comments, %w", err)
	}

	return comments, nil
}

func (s *CommentService) activeListing(ctx context.Context, listingID uint) error {
	var count int64

	err := s.db.WithContext(ctx).
		Model(&model.Listing{}).
		Where("id = ? AND is_active = ?", listingID, true).
		Count(&count).
		Error
	if err != nil {
		return fmt.Errorf("failed to look up listing, %w", err)
	}

	if count == 0 {
		return ErrNotFound
	}

	return nil
}

// truncateRunes cuts s down to at most n characters
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	return string([]rune(s)[:n])
}
