package service

import (
	"bitwise74/bboard/internal/event"
	"bitwise74/bboard/internal/metrics"
	"bitwise74/bboard/internal/model"
	"bitwise74/bboard/pkg/security"
	"bitwise74/bboard/pkg/validators"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

var (
	ErrAlreadyActive = errors.New("account is already active")

	errAccountActivated = errors.New("account was activated")
)

// RegistrationNotifier consumes RegistrationCompleted events
type RegistrationNotifier interface {
	RegistrationCompleted(ctx context.Context, e event.RegistrationCompleted) error
}

type ActivationResult int

const (
	Activated ActivationResult = iota + 1
	AlreadyActive
	BadSignature
)

func (r ActivationResult) String() string {
	switch r {
	case Activated:
		return "activated"
	case AlreadyActive:
		return "already_active"
	case BadSignature:
		return "bad_signature"
	}

	return "unknown"
}

type RegisterForm struct {
	Username  string `json:"username" form:"username"`
	Email     string `json:"email" form:"email"`
	Password1 string `json:"password1" form:"password1"`
	Password2 string `json:"password2" form:"password2"`
	FirstName string `json:"first_name" form:"first_name"`
	LastName  string `json:"last_name" form:"last_name"`
	// Defaults to true when left out
	SendMessages *bool `json:"send_messages" form:"send_messages"`
}

type ProfileForm struct {
	Username     string `json:"username" form:"username"`
	Email        string `json:"email" form:"email"`
	FirstName    string `json:"first_name" form:"first_name"`
	LastName     string `json:"last_name" form:"last_name"`
	SendMessages *bool  `json:"send_messages" form:"send_messages"`
}

// Registration is the outcome of a successful registration. DeliveryErr is set
// when the activation mail couldn't be sent, the account exists regardless.
type Registration struct {
	Account     *model.Account
	DeliveryErr error
}

type AccountService struct {
	db       *gorm.DB
	argon    *security.ArgonHash
	signer   *security.Signer
	notifier RegistrationNotifier
	images   ImageStore
	metrics  metrics.Recorder
}

func NewAccountService(db *gorm.DB, argon *security.ArgonHash, signer *security.Signer, notifier RegistrationNotifier, images ImageStore, rec metrics.Recorder) *AccountService {
	if rec == nil {
		rec = metrics.Nop{}
	}

	return &AccountService{
		db:       db,
		argon:    argon,
		signer:   signer,
		notifier: notifier,
		images:   images,
		metrics:  rec,
	}
}

// Register stores a new inactive account and asks the notifier to send the
// activation mail
func (s *AccountService) Register(ctx context.Context, f RegisterForm) (*Registration, error) {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)

	errs := validators.FieldErrors{}
	errs.Check("username", validators.UsernameValidator(f.Username))
	errs.Check("email", validators.EmailValidator(f.Email))

	for field, msg := range validators.PasswordPairValidator(f.Password1, f.Password2, f.Username) {
		errs.Add(field, msg)
	}

	if err := s.checkUnique(ctx, errs, f.Username, f.Email, ""); err != nil {
		return nil, err
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}

	hash, err := s.argon.GenerateFromPassword(f.Password1)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password, %w", err)
	}

	id, err := gonanoid.Generate(charset, 16)
	if err != nil {
		return nil, fmt.Errorf("failed to generate account ID, %w", err)
	}

	acc := model.Account{
		ID:           id,
		Username:     f.Username,
		Email:        f.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(f.FirstName),
		LastName:     strings.TrimSpace(f.LastName),
		IsActive:     false,
		IsActivated:  false,
		SendMessages: f.SendMessages == nil || *f.SendMessages,
	}

	if err := s.db.WithContext(ctx).Create(&acc).Error; err != nil {
		// Lost a race against another registration with the same name
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, validators.FieldErrors{"username": "an account with this username or email already exists"}
		}

		return nil, fmt.Errorf("failed to create account, %w", err)
	}

	s.metrics.RecordRegistration()

	reg := &Registration{Account: &acc}

	if s.notifier != nil {
		if err := s.notifier.RegistrationCompleted(ctx, event.RegistrationCompleted{Account: acc}); err != nil {
			zap.L().Warn("Account registered but activation mail failed", zap.String("account_id", acc.ID), zap.Error(err))
			reg.DeliveryErr = err
		}
	}

	return reg, nil
}

// Activate verifies an activation token and activates the account it names.
// A bad token is an outcome, not an error. Only a missing account or a
// database failure return an error.
func (s *AccountService) Activate(ctx context.Context, token string) (ActivationResult, error) {
	username, err := s.signer.Unsign(token)
	if err != nil {
		s.metrics.RecordActivation(BadSignature.String())
		return BadSignature, nil
	}

	var acc model.Account

	err = s.db.WithContext(ctx).
		Where("username = ?", username).
		First(&acc).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}

		return 0, fmt.Errorf("failed to look up account, %w", err)
	}

	if acc.IsActive {
		s.metrics.RecordActivation(AlreadyActive.String())
		return AlreadyActive, nil
	}

	// Conditional so concurrent activations of the same account only flip it once
	r := s.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ? AND is_active = ?", acc.ID, false).
		Updates(map[string]any{
			"is_active":    true,
			"is_activated": true,
		})
	if r.Error != nil {
		return 0, fmt.Errorf("failed to activate account, %w", r.Error)
	}

	if r.RowsAffected == 0 {
		s.metrics.RecordActivation(AlreadyActive.String())
		return AlreadyActive, nil
	}

	s.metrics.RecordActivation(Activated.String())
	return Activated, nil
}

// ResendActivation sends another activation mail to an inactive account
func (s *AccountService) ResendActivation(ctx context.Context, email string) error {
	var acc model.Account

	err := s.db.WithContext(ctx).
		Where("email = ?", strings.TrimSpace(email)).
		First(&acc).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}

		return fmt.Errorf("failed to look up account, %w", err)
	}

	if acc.IsActive {
		return ErrAlreadyActive
	}

	if s.notifier == nil {
		return nil
	}

	return s.notifier.RegistrationCompleted(ctx, event.RegistrationCompleted{Account: acc})
}

// Authenticate checks credentials. Only active accounts may log in.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*model.Account, error) {
	var acc model.Account

	err := s.db.WithContext(ctx).
		Where("username = ?", strings.TrimSpace(username)).
		First(&acc).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, fmt.Errorf("failed to look up account, %w", err)
	}

	ok, err := s.argon.VerifyPasswd(password, acc.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password, %w", err)
	}

	if !ok {
		return nil, ErrInvalidCredentials
	}

	if !acc.IsActive {
		return nil, ErrInactive
	}

	return &acc, nil
}

func (s *AccountService) Get(ctx context.Context, id string) (*model.Account, error) {
	var acc model.Account

	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&acc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to look up account, %w", err)
	}

	return &acc, nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, id string, f ProfileForm) (*model.Account, error) {
	acc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)

	errs := validators.FieldErrors{}
	errs.Check("username", validators.UsernameValidator(f.Username))
	errs.Check("email", validators.EmailValidator(f.Email))

	if err := s.checkUnique(ctx, errs, f.Username, f.Email, acc.ID); err != nil {
		return nil, err
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}

	sendMessages := acc.SendMessages
	if f.SendMessages != nil {
		sendMessages = *f.SendMessages
	}

	err = s.db.WithContext(ctx).
		Model(acc).
		Updates(map[string]any{
			"username":      f.Username,
			"email":         f.Email,
			"first_name":    strings.TrimSpace(f.FirstName),
			"last_name":     strings.TrimSpace(f.LastName),
			"send_messages": sendMessages,
		}).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, validators.FieldErrors{"username": "an account with this username or email already exists"}
		}

		return nil, fmt.Errorf("failed to update account, %w", err)
	}

	return s.Get(ctx, id)
}

func (s *AccountService) ChangePassword(ctx context.Context, id, oldPassword, password1, password2 string) error {
	acc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	ok, err := s.argon.VerifyPasswd(oldPassword, acc.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to verify password, %w", err)
	}

	errs := validators.PasswordPairValidator(password1, password2, acc.Username)
	if !ok {
		errs.Add("old_password", "old password is incorrect")
	}

	if err := errs.Err(); err != nil {
		return err
	}

	hash, err := s.argon.GenerateFromPassword(password1)
	if err != nil {
		return fmt.Errorf("failed to hash password, %w", err)
	}

	if err := s.db.WithContext(ctx).Model(acc).Update("password_hash", hash).Error; err != nil {
		return fmt.Errorf("failed to update password, %w", err)
	}

	return nil
}

// Delete removes an account together with its listings, their images and
// comments
func (s *AccountService) Delete(ctx context.Context, id string) error {
	return s.deleteAccount(ctx, id, false)
}

// deleteAccount runs the cascade of Delete. With unactivatedOnly the account
// is first claimed by a conditional update in the same transaction, so an
// account that got activated since it was selected is left alone and
// errAccountActivated is returned.
func (s *AccountService) deleteAccount(ctx context.Context, id string, unactivatedOnly bool) error {
	var keys []string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if unactivatedOnly {
			res := tx.Model(&model.Account{}).
				Where("id = ? AND is_activated = ? AND is_active = ?", id, false, false).
				Update("updated_at", time.Now())
			if res.Error != nil {
				return res.Error
			}

			if res.RowsAffected == 0 {
				return errAccountActivated
			}
		}

		var acc model.Account
		if err := tx.Where("id = ?", id).First(&acc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}

			return err
		}

		var listingIDs []uint
		if err := tx.Model(&model.Listing{}).Where("author_id = ?", id).Pluck("id", &listingIDs).Error; err != nil {
			return err
		}

		if len(listingIDs) > 0 {
			if err := tx.Model(&model.ListingImage{}).Where("listing_id IN ?", listingIDs).Pluck("key", &keys).Error; err != nil {
				return err
			}

			if err := tx.Where("listing_id IN ?", listingIDs).Delete(&model.Comment{}).Error; err != nil {
				return err
			}

			if err := tx.Where("listing_id IN ?", listingIDs).Delete(&model.ListingImage{}).Error; err != nil {
				return err
			}

			if err := tx.Where("id IN ?", listingIDs).Delete(&model.Listing{}).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&acc).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, errAccountActivated) {
			return err
		}

		return fmt.Errorf("failed to delete account, %w", err)
	}

	removeObjects(ctx, s.images, keys)
	return nil
}

// checkUnique records field errors for a username or email that belongs to
// another account. excludeID is the account being edited, if any.
func (s *AccountService) checkUnique(ctx context.Context, errs validators.FieldErrors, username, email, excludeID string) error {
	exists := func(column, value string) (bool, error) {
		var count int64

		q := s.db.WithContext(ctx).Model(&model.Account{}).Where(column+" = ?", value)
		if excludeID != "" {
			q = q.Where("id <> ?", excludeID)
		}

		if err := q.Count(&count).Error; err != nil {
			return false, fmt.Errorf("failed to check if %s is taken, %w", column, err)
		}

		return count > 0, nil
	}

	if _, bad := errs["username"]; !bad && username != "" {
		taken, err := exists("username", username)
		if err != nil {
			return err
		}

		if taken {
			errs.Add("username", "a user with that username already exists")
		}
	}

	if _, bad := errs["email"]; !bad && email != "" {
		taken, err := exists("email", email)
		if err != nil {
			return err
		}

		if taken {
			errs.Add("email", "a user with that email already exists")
		}
	}

	return nil
}
