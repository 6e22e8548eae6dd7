package checklist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"claimdesk/internal/domain/claim"
)

// ClaimLookup confirms the parent claim exists.
type ClaimLookup interface {
	GetByID(ctx context.Context, id string) (*claim.Claim, error)
}

// Service handles claim checklists. Item writes and the parent status
// recomputation share one transaction.
type Service struct {
	db     *gorm.DB
	claims ClaimLookup
	now    func() time.Time
}

func NewService(db *gorm.DB, claims ClaimLookup) *Service {
	return &Service{db: db, claims: claims, now: time.Now}
}

// ListByClaim returns the claim's checklists with items, oldest first.
func (s *Service) ListByClaim(ctx context.Context, claimID string) ([]Checklist, error) {
	var lists []Checklist
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Where("claim_id = ?", claimID).
		Order("created_at").
		Find(&lists).Error
	return lists, err
}

// Create adds a checklist, with optional initial items, to an existing claim.
func (s *Service) Create(ctx context.Context, claimID string, req *CreateChecklistRequest) (*Checklist, error) {
	typ := strings.TrimSpace(req.Type)
	if typ == "" {
		return nil, fmt.Errorf("%w: type is required", ErrValidation)
	}
	if _, err := s.claims.GetByID(ctx, claimID); err != nil {
		if errors.Is(err, claim.ErrNotFound) {
			return nil, ErrClaimNotFound
		}
		return nil, err
	}

	list := &Checklist{ClaimID: claimID, Type: typ, Items: []Item{}}
	now := s.now().UTC()
	for _, r := range req.Items {
		item, err := newItem(r, now)
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, *item)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Create(list).Error; err != nil {
			return err
		}
		for i := range list.Items {
			list.Items[i].ChecklistID = list.ID
			if err := tx.Create(&list.Items[i]).Error; err != nil {
				return err
			}
		}
		return refreshStatus(tx, list, now)
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// AddItem appends an item and recomputes the checklist status.
func (s *Service) AddItem(ctx context.Context, checklistID string, req *ItemRequest) (*Item, error) {
	now := s.now().UTC()
	item, err := newItem(*req, now)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var list Checklist
		if err := lockChecklist(tx, checklistID, &list); err != nil {
			return err
		}
		item.ChecklistID = list.ID
		if err := tx.Create(item).Error; err != nil {
			return err
		}
		return refreshStatus(tx, &list, now)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItem applies req to an item. Completing an item stamps
// completed_at; reopening it clears the stamp.
func (s *Service) UpdateItem(ctx context.Context, itemID string, req *UpdateItemRequest) (*Item, error) {
	now := s.now().UTC()
	var item Item

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", itemID).First(&item).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrItemNotFound
		}
		if err != nil {
			return err
		}

		if req.Title != nil {
			title := strings.TrimSpace(*req.Title)
			if title == "" {
				return fmt.Errorf("%w: title must not be empty", ErrValidation)
			}
			item.Title = title
		}
		if req.Description != nil {
			item.Description = optional(*req.Description)
		}
		if req.Value != nil {
			item.Value = optional(*req.Value)
		}
		if req.IsCompleted != nil && *req.IsCompleted != item.IsCompleted {
			item.IsCompleted = *req.IsCompleted
			if item.IsCompleted {
				item.CompletedAt = &now
			} else {
				item.CompletedAt = nil
			}
		}
		if err := tx.Save(&item).Error; err != nil {
			return err
		}

		var list Checklist
		if err := lockChecklist(tx, item.ChecklistID, &list); err != nil {
			return err
		}
		return refreshStatus(tx, &list, now)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes a checklist and its items.
func (s *Service) Delete(ctx context.Context, checklistID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("checklist_id = ?", checklistID).Delete(&Item{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", checklistID).Delete(&Checklist{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrChecklistNotFound
		}
		return nil
	})
}

func lockChecklist(tx *gorm.DB, id string, list *Checklist) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(list).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrChecklistNotFound
	}
	return err
}

func refreshStatus(tx *gorm.DB, list *Checklist, now time.Time) error {
	var total, done int64
	if err := tx.Model(&Item{}).Where("checklist_id = ?", list.ID).Count(&total).Error; err != nil {
		return err
	}
	if err := tx.Model(&Item{}).Where("checklist_id = ? AND is_completed = ?", list.ID, true).Count(&done).Error; err != nil {
		return err
	}

	status := statusFor(total, done)
	var completedAt *time.Time
	if status == StatusCompleted {
		completedAt = list.CompletedAt
		if completedAt == nil {
			completedAt = &now
		}
	}
	list.Status = status
	list.CompletedAt = completedAt
	return tx.Model(&Checklist{}).Where("id = ?", list.ID).Updates(map[string]any{
		"status":       status,
		"completed_at": completedAt,
		"updated_at":   now,
	}).Error
}

func newItem(r ItemRequest, now time.Time) (*Item, error) {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: item title is required", ErrValidation)
	}
	item := &Item{
		Title:       title,
		Description: optional(r.Description),
		Value:       optional(r.Value),
		IsCompleted: r.IsCompleted,
	}
	if item.IsCompleted {
		item.CompletedAt = &now
	}
	return item, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
