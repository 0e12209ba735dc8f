package db

import (
	"bitwise74/bboard/internal/model"
	"bitwise74/bboard/pkg/validators"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RubricSeed is a super-rubric with the names of its sub-rubrics
type RubricSeed struct {
	Name string   `mapstructure:"name"`
	Subs []string `mapstructure:"subs"`
}

// SeedRubrics makes sure every seeded super-rubric exists together with its
// sub-rubrics, ordered as given. Existing rows are left alone so it's safe to
// run on every start.
func SeedRubrics(db *gorm.DB, seeds []RubricSeed) error {
	for _, seed := range seeds {
		if err := validators.RubricNameValidator(seed.Name); err != nil {
			return fmt.Errorf("invalid rubric %q, %w", seed.Name, err)
		}

		for _, sub := range seed.Subs {
			if err := validators.RubricNameValidator(sub); err != nil {
				return fmt.Errorf("invalid rubric %q, %w", sub, err)
			}
		}
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for i, seed := range seeds {
			var super model.Rubric

			err := tx.
				Where("name = ? AND super_rubric_id IS NULL", seed.Name).
				Attrs(model.Rubric{Order: i}).
				FirstOrCreate(&super, model.Rubric{Name: seed.Name}).
				Error
			if err != nil {
				return fmt.Errorf("failed to seed rubric %q, %w", seed.Name, err)
			}

			for j, sub := range seed.Subs {
				var r model.Rubric

				err := tx.
					Where("name = ? AND super_rubric_id = ?", sub, super.ID).
					Attrs(model.Rubric{Order: j, SuperRubricID: &super.ID}).
					FirstOrCreate(&r, model.Rubric{Name: sub}).
					Error
				if err != nil {
					return fmt.Errorf("failed to seed rubric %q, %w", sub, err)
				}
			}
		}

		zap.L().Debug("Rubrics seeded", zap.Int("super_rubrics", len(seeds)))
		return nil
	})
}
