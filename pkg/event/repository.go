package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/evently-app/evently/internal/errdef"
	"github.com/evently-app/evently/pkg/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewRepository(db *gorm.DB) *repository {
	return &repository{db}
}

type repository struct {
	db *gorm.DB
}

func (r repository) FindById(ctx context.Context, id uint) (*model.Event, error) {
	var e *model.Event
	err := r.db.
		WithContext(ctx).
		Preload("User").
		Preload("Dates", func(db *gorm.DB) *gorm.DB {
			return db.Order("date, id")
		}).
		First(&e, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("event not found by id: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find event by id %d: %w", id, err)
	}
	return e, nil
}

func (r repository) FindByIdAndOwner(ctx context.Context, id uint, userId uint) (*model.Event, error) {
	var e *model.Event
	err := r.db.
		WithContext(ctx).
		Preload("Dates", func(db *gorm.DB) *gorm.DB {
			return db.Order("date, id")
		}).
		Where("user_id = ?", userId).
		First(&e, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("event not found by id %d and owner %d", id, userId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find event by id %d and owner %d: %w", id, userId, err)
	}
	return e, nil
}

// Save inserts the event and its dates if it has no id yet. Otherwise every column of the event is
// updated and its dates are replaced by e.Dates.
func (r repository) Save(ctx context.Context, e *model.Event) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if e.ID == 0 {
			return tx.Create(e).Error
		}

		db := tx.
			Model(e).
			Select("*").
			Omit("ID", "CreatedAt", clause.Associations).
			Updates(e)
		if db.Error != nil {
			return db.Error
		}
		if db.RowsAffected < 1 {
			return errdef.NewNotFound("event not found by id: %d", e.ID)
		}

		err := tx.Where("event_id = ?", e.ID).Delete(&model.EventDate{}).Error
		if err != nil {
			return err
		}

		for i := range e.Dates {
			e.Dates[i].ID = 0
			e.Dates[i].EventID = e.ID
		}
		if len(e.Dates) == 0 {
			return nil
		}
		return tx.Create(&e.Dates).Error
	})
	if err != nil && !errdef.IsNotFound(err) {
		return fmt.Errorf("failed to save event %q: %w", e.Name, err)
	}
	return err
}

func (r repository) DeleteCascade(ctx context.Context, e *model.Event) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("event_id = ?", e.ID).Delete(&model.EventDate{}).Error
		if err != nil {
			return fmt.Errorf("failed to delete dates of event %d: %w", e.ID, err)
		}

		db := tx.Delete(&model.Event{}, e.ID)
		if db.Error != nil {
			return fmt.Errorf("failed to delete event %d: %w", e.ID, db.Error)
		}
		if db.RowsAffected < 1 {
			return errdef.NewNotFound("event not found by id: %d", e.ID)
		}
		return nil
	})
}

// FindPage returns the events on the given page, newest first, and the total number of events.
// Pages start at 1.
func (r repository) FindPage(ctx context.Context, page int, size int) ([]*model.Event, int64, error) {
	var total int64
	err := r.db.
		WithContext(ctx).
		Model(&model.Event{}).
		Count(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	var events []*model.Event
	err = r.db.
		WithContext(ctx).
		Order("id DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&events).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find events on page %d: %w", page, err)
	}

	return events, total, nil
}

func (r repository) FindFeatured(ctx context.Context, limit int) ([]*model.Event, error) {
	var events []*model.Event
	err := r.db.
		WithContext(ctx).
		Where("is_featured = ?", true).
		Order("id DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find featured events: %w", err)
	}
	return events, nil
}
