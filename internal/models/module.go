package models

import (
	"time"

	"gorm.io/gorm"
)

type DifficultyLevel string

const (
	DifficultyBeginner     DifficultyLevel = "BEGINNER"
	DifficultyIntermediate DifficultyLevel = "INTERMEDIATE"
	DifficultyAdvanced     DifficultyLevel = "ADVANCED"
	DifficultyExpert       DifficultyLevel = "EXPERT"
)

// difficultyRank orders levels for comparisons; unknown levels rank at 0.
var difficultyRank = map[DifficultyLevel]int{
	DifficultyBeginner:     1,
	DifficultyIntermediate: 2,
	DifficultyAdvanced:     3,
	DifficultyExpert:       4,
}

func (d DifficultyLevel) Valid() bool {
	_, ok := difficultyRank[d]
	return ok
}

// Rank returns the ordinal position of the level (BEGINNER=1 .. EXPERT=4),
// or 0 for unrecognized values.
func (d DifficultyLevel) Rank() int {
	return difficultyRank[d]
}

// QuestionPoints returns the point value assigned to synthesized questions
// at this difficulty.
func (d DifficultyLevel) QuestionPoints() int {
	switch d {
	case DifficultyBeginner:
		return 5
	case DifficultyIntermediate:
		return 10
	case DifficultyAdvanced:
		return 15
	case DifficultyExpert:
		return 20
	default:
		return 5
	}
}

// Module is a unit of learning content. Content authoring lives in the
// content-management subsystem; assessments reference modules by ID.
type Module struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Title       string          `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string         `json:"description" gorm:"type:text" validate:"omitempty,max=2000"`
	Difficulty  DifficultyLevel `json:"difficulty" gorm:"not null;default:BEGINNER;index" validate:"required,difficulty_level"`
	OrderIndex  int             `json:"order_index" gorm:"default:0"`
	IsPublished bool            `json:"is_published" gorm:"default:false;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Assessments []Assessment `json:"assessments,omitempty" gorm:"foreignKey:ModuleID"`
}

func (Module) TableName() string {
	return "modules"
}
