package service

import (
	"bitwise74/bboard/internal/model"
	"bitwise74/bboard/pkg/validators"
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

type RubricService struct {
	db *gorm.DB
}

func NewRubricService(db *gorm.DB) *RubricService {
	return &RubricService{db: db}
}

// Tree returns every super-rubric with its sub-rubrics, both levels ordered
// by order then name
func (s *RubricService) Tree(ctx context.Context) ([]model.Rubric, error) {
	supers := []model.Rubric{}

	err := s.db.WithContext(ctx).
		Preload("SubRubrics", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order asc, name asc")
		}).
		Where("super_rubric_id IS NULL").
		Order("sort_order asc, name asc").
		Find(&supers).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to load rubrics, %w", err)
	}

	return supers, nil
}

// Get returns one rubric. Super-rubrics come with their sub-rubrics and
// sub-rubrics with their super-rubric.
func (s *RubricService) Get(ctx context.Context, id uint) (*model.Rubric, error) {
	var r model.Rubric

	err := s.db.WithContext(ctx).
		Preload("SuperRubric").
		Preload("SubRubrics", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order asc, name asc")
		}).
		Where("id = ?", id).
		First(&r).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to look up rubric, %w", err)
	}

	return &r, nil
}

func (s *RubricService) CreateSuper(ctx context.Context, name string, order int) (*model.Rubric, error) {
	return s.create(ctx, nil, name, order)
}

// CreateSub files a new sub-rubric under the super-rubric superID
func (s *RubricService) CreateSub(ctx context.Context, superID uint, name string, order int) (*model.Rubric, error) {
	var super model.Rubric

	err := s.db.WithContext(ctx).Where("id = ?", superID).First(&super).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validators.FieldErrors{"super_rubric_id": "super-rubric does not exist"}
		}

		return nil, fmt.Errorf("failed to look up rubric, %w", err)
	}

	if !super.IsSuper() {
		return nil, validators.FieldErrors{"super_rubric_id": "sub-rubrics can't be nested"}
	}

	return s.create(ctx, &super.ID, name, order)
}

func (s *RubricService) create(ctx context.Context, superID *uint, name string, order int) (*model.Rubric, error) {
	name = strings.TrimSpace(name)

	if err := validators.RubricNameValidator(name); err != nil {
		return nil, validators.FieldErrors{"name": err.Error()}
	}

	// NULL parents never collide in the unique index so super-rubrics are
	// checked by hand
	q := s.db.WithContext(ctx).Model(&model.Rubric{}).Where("name = ?", name)
	if superID == nil {
		q = q.Where("super_rubric_id IS NULL")
	} else {
		q = q.Where("super_rubric_id = ?", *superID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check rubric name, %w", err)
	}

	if count > 0 {
		return nil, validators.FieldErrors{"name": "a rubric with this name already exists here"}
	}

	r := model.Rubric{
		Name:          name,
		Order:         order,
		SuperRubricID: superID,
	}

	if err := s.db.WithContext(ctx).Create(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, validators.FieldErrors{"name": "a rubric with this name already exists here"}
		}

		return nil, fmt.Errorf("failed to create rubric, %w", err)
	}

	return &r, nil
}
