package gorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/confportal/conf-portal-api/pkg/model"
	"github.com/confportal/conf-portal-api/pkg/server/store"
)

var (
	_ store.ConferenceStore    = (*ConferenceStore)(nil)
	_ store.EventScheduleStore = (*EventScheduleStore)(nil)
	_ store.WorkshopStore      = (*WorkshopStore)(nil)
	_ store.RegistrationStore  = (*RegistrationStore)(nil)
	_ store.FaqStore           = (*FaqStore)(nil)
	_ store.FaqCategoryStore   = (*FaqCategoryStore)(nil)
)

// NewInstructorsStore and NewLocationsStore return plain CRUD stores.
func NewInstructorsStore(db *gorm.DB) *CRUD[model.Instructor] {
	return NewCRUD[model.Instructor](db, Options{
		OrderBy: []string{"sequence", "name", "created_at"},
		Search:  []string{"name", "title"},
	})
}

func NewLocationsStore(db *gorm.DB) *CRUD[model.Location] {
	return NewCRUD[model.Location](db, Options{
		OrderBy: []string{"name", "created_at"},
		Search:  []string{"name", "address"},
	})
}

func NewFeedbackStore(db *gorm.DB) *CRUD[model.Feedback] {
	return NewCRUD[model.Feedback](db, Options{
		OrderBy: []string{"created_at", "status"},
		Search:  []string{"name", "email", "message"},
		Filters: []string{"status"},
	})
}

func NewTestimonyStore(db *gorm.DB) *CRUD[model.Testimony] {
	return NewCRUD[model.Testimony](db, Options{
		OrderBy: []string{"created_at", "name"},
		Search:  []string{"name", "message"},
		Filters: []string{"share"},
	})
}

// ConferenceStore implements store.ConferenceStore using GORM
type ConferenceStore struct {
	*CRUD[model.Conference]
	db *gorm.DB
}

func NewConferenceStore(db *gorm.DB) *ConferenceStore {
	return &ConferenceStore{
		CRUD: NewCRUD[model.Conference](db, Options{
			OrderBy: []string{"start_date", "created_at", "title"},
			Search:  []string{"title"},
			Filters: []string{"active"},
			Preload: []string{"Location"},
		}),
		db: db,
	}
}

func (s *ConferenceStore) Active(ctx context.Context) (*model.Conference, error) {
	var c model.Conference
	err := s.db.WithContext(ctx).Preload("Location").
		Where("active = ? AND is_deleted = ?", true, false).
		Order("start_date DESC").
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: active conference", store.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *ConferenceStore) Instructors(ctx context.Context, conferenceID uuid.UUID) ([]model.ConferenceInstructor, error) {
	var rows []model.ConferenceInstructor
	err := s.db.WithContext(ctx).Preload("Instructor").
		Where("conference_id = ?", conferenceID).
		Order("sequence").
		Find(&rows).Error
	return rows, err
}

func (s *ConferenceStore) SetInstructors(ctx context.Context, conferenceID uuid.UUID, instructors []model.ConferenceInstructor) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conference_id = ?", conferenceID).Delete(&model.ConferenceInstructor{}).Error; err != nil {
			return err
		}
		if len(instructors) == 0 {
			return nil
		}
		for i := range instructors {
			instructors[i].ConferenceID = conferenceID
		}
		return tx.Omit("Instructor").Create(&instructors).Error
	})
}

// EventScheduleStore implements store.EventScheduleStore using GORM
type EventScheduleStore struct {
	*CRUD[model.EventSchedule]
	db *gorm.DB
}

func NewEventScheduleStore(db *gorm.DB) *EventScheduleStore {
	return &EventScheduleStore{
		CRUD: NewCRUD[model.EventSchedule](db, Options{
			OrderBy: []string{"sequence", "start_datetime", "created_at"},
			Search:  []string{"title"},
			Filters: []string{"conference_id"},
		}),
		db: db,
	}
}

func (s *EventScheduleStore) ByConference(ctx context.Context, conferenceID uuid.UUID) ([]model.EventSchedule, error) {
	var rows []model.EventSchedule
	err := s.db.WithContext(ctx).
		Where("conference_id = ? AND is_deleted = ?", conferenceID, false).
		Order("sequence").Order("start_datetime").
		Find(&rows).Error
	return rows, err
}

// WorkshopStore implements store.WorkshopStore using GORM
type WorkshopStore struct {
	*CRUD[model.Workshop]
	db *gorm.DB
}

func NewWorkshopStore(db *gorm.DB) *WorkshopStore {
	return &WorkshopStore{
		CRUD: NewCRUD[model.Workshop](db, Options{
			OrderBy: []string{"sequence", "start_datetime", "created_at", "title"},
			Search:  []string{"title"},
			Filters: []string{"conference_id", "location_id"},
			Preload: []string{"Location"},
		}),
		db: db,
	}
}

func (s *WorkshopStore) SetSequence(ctx context.Context, id uuid.UUID, sequence float64) error {
	tx := s.db.WithContext(ctx).Model(&model.Workshop{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Update("sequence", sequence)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("%w: workshop %s", store.ErrNotFound, id)
	}
	return nil
}

func (s *WorkshopStore) Instructors(ctx context.Context, workshopID uuid.UUID) ([]model.WorkshopInstructor, error) {
	var rows []model.WorkshopInstructor
	err := s.db.WithContext(ctx).Preload("Instructor").
		Where("workshop_id = ?", workshopID).
		Order("sequence").
		Find(&rows).Error
	return rows, err
}

func (s *WorkshopStore) SetInstructors(ctx context.Context, workshopID uuid.UUID, instructors []model.WorkshopInstructor) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("workshop_id = ?", workshopID).Delete(&model.WorkshopInstructor{}).Error; err != nil {
			return err
		}
		if len(instructors) == 0 {
			return nil
		}
		for i := range instructors {
			instructors[i].WorkshopID = workshopID
		}
		return tx.Omit("Instructor").Create(&instructors).Error
	})
}

// RegistrationStore implements store.RegistrationStore using GORM
type RegistrationStore struct {
	*CRUD[model.WorkshopRegistration]
	db *gorm.DB
}

func NewRegistrationStore(db *gorm.DB) *RegistrationStore {
	return &RegistrationStore{
		CRUD: NewCRUD[model.WorkshopRegistration](db, Options{
			OrderBy: []string{"registered_at", "created_at"},
			Filters: []string{"workshop_id", "user_id"},
		}),
		db: db,
	}
}

func (s *RegistrationStore) Unregister(ctx context.Context, id uuid.UUID, at time.Time) error {
	tx := s.db.WithContext(ctx).Model(&model.WorkshopRegistration{}).
		Where("id = ? AND is_deleted = ? AND unregistered_at IS NULL", id, false).
		Update("unregistered_at", at)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("%w: active registration %s", store.ErrNotFound, id)
	}
	return nil
}

// FaqStore implements store.FaqStore using GORM
type FaqStore struct {
	*CRUD[model.Faq]
	db *gorm.DB
}

func NewFaqStore(db *gorm.DB) *FaqStore {
	return &FaqStore{
		CRUD: NewCRUD[model.Faq](db, Options{
			OrderBy: []string{"sequence", "created_at"},
			Search:  []string{"question", "answer"},
			Filters: []string{"category_id"},
		}),
		db: db,
	}
}

func (s *FaqStore) ByCategory(ctx context.Context, categoryID uuid.UUID) ([]model.Faq, error) {
	var rows []model.Faq
	err := s.db.WithContext(ctx).
		Where("category_id = ? AND is_deleted = ?", categoryID, false).
		Order("sequence").
		Find(&rows).Error
	return rows, err
}

type FaqCategoryStore struct {
	*CRUD[model.FaqCategory]
}

func NewFaqCategoryStore(db *gorm.DB) *FaqCategoryStore {
	return &FaqCategoryStore{
		CRUD: NewCRUD[model.FaqCategory](db, Options{
			OrderBy: []string{"sequence", "name", "created_at"},
			Search:  []string{"name"},
		}),
	}
}
