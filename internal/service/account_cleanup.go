package service

import (
	"bitwise74/bboard/internal/model"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// PurgeUnactivated deletes accounts that registered before cutoff and never
// followed their activation link. Accounts deactivated after activating are
// kept. Returns how many accounts were removed.
func (s *AccountService) PurgeUnactivated(ctx context.Context, cutoff time.Time) (int, error) {
	var ids []string

	err := s.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("is_activated = ? AND is_active = ? AND created_at < ?", false, false, cutoff).
		Pluck("id", &ids).
		Error
	if err != nil {
		return 0, fmt.Errorf("failed to query unactivated accounts, %w", err)
	}

	purged := 0
	for _, id := range ids {
		if err := s.deleteAccount(ctx, id, true); err != nil {
			if errors.Is(err, errAccountActivated) || errors.Is(err, ErrNotFound) {
				continue
			}

			zap.L().Error("Failed to purge unactivated account", zap.String("account_id", id), zap.Error(err))
			continue
		}

		purged++
	}

	return purged, nil
}

// AccountCleanup periodically purges accounts that stayed unactivated for
// longer than maxAge. It stops when ctx is done.
func AccountCleanup(ctx context.Context, every, maxAge time.Duration, s *AccountService) {
	ticker := time.NewTicker(every)

	zap.L().Debug("Account cleanup attached", zap.Duration("tick_every", every), zap.Duration("max_age", maxAge))

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				n, err := s.PurgeUnactivated(ctx, now.Add(-maxAge))
				if err != nil {
					zap.L().Error("Account cleanup failed", zap.Error(err))
					continue
				}

				if n > 0 {
					zap.L().Debug("Account cleanup finished", zap.Int("purged", n))
				}
			}
		}
	}()
}
