package model

// Rubric is either a super-rubric (SuperRubricID is nil) or a sub-rubric
// that listings can be filed under
type Rubric struct {
	ID            uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string  `gorm:"size:20;not null;uniqueIndex:idx_rubric_parent_name" json:"name"`
	Order         int     `gorm:"column:sort_order;not null;index" json:"order"`
	SuperRubricID *uint   `gorm:"uniqueIndex:idx_rubric_parent_name" json:"super_rubric_id,omitempty"`
	SuperRubric   *Rubric `json:"super_rubric,omitempty"`

	SubRubrics []Rubric `gorm:"foreignKey:SuperRubricID" json:"sub_rubrics,omitempty"`
}

func (r *Rubric) IsSuper() bool {
	return r.SuperRubricID == nil
}
