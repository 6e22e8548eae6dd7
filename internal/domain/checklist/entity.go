package checklist

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Checklist is a named set of steps attached to a claim.
type Checklist struct {
	ID          string     `json:"id" gorm:"type:uuid;primaryKey"`
	ClaimID     string     `json:"claim_id" gorm:"type:uuid;not null;index"`
	Type        string     `json:"type" gorm:"type:varchar(64);not null"`
	Status      Status     `json:"status" gorm:"type:varchar(16);not null;default:pending"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Items []Item `json:"items" gorm:"foreignKey:ChecklistID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Checklist) TableName() string {
	return "checklists"
}

func (c *Checklist) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = StatusPending
	}
	return nil
}

type Item struct {
	ID          string     `json:"id" gorm:"type:uuid;primaryKey"`
	ChecklistID string     `json:"checklist_id" gorm:"type:uuid;not null;index"`
	Title       string     `json:"title" gorm:"not null"`
	Description *string    `json:"description"`
	Value       *string    `json:"value"`
	IsCompleted bool       `json:"is_completed" gorm:"not null;default:false"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Item) TableName() string {
	return "checklist_items"
}

func (i *Item) BeforeCreate(_ *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// statusFor derives a checklist's status from its item counts.
func statusFor(total, done int64) Status {
	switch {
	case total > 0 && done == total:
		return StatusCompleted
	case done > 0:
		return StatusInProgress
	default:
		return StatusPending
	}
}
