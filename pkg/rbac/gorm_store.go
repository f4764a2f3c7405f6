package rbac

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/confportal/conf-portal-api/pkg/model"
)

// Ensure GormStore implements Store
var _ Store = (*GormStore)(nil)

// GormStore implements Store using GORM for database operations.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GormStore.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Transaction wraps operations in a database transaction.
func (s *GormStore) Transaction(fn func(Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) UpsertVerb(v *model.Verb) error {
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "action"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "is_active"}),
	}).Create(v).Error
	if err != nil {
		return fmt.Errorf("failed to upsert verb %s: %w", v.Action, err)
	}
	return nil
}

func (s *GormStore) UpsertResource(r *model.Resource) error {
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"pid", "key", "name", "icon", "path", "type", "is_visible", "description",
		}),
	}).Create(r).Error
	if err != nil {
		return fmt.Errorf("failed to upsert resource %s: %w", r.Code, err)
	}
	return nil
}

func (s *GormStore) UpsertPermission(p *model.Permission) error {
	err := s.db.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "is_active", "description"}),
	}).Create(p).Error
	if err != nil {
		return fmt.Errorf("failed to upsert permission %s: %w", p.Code, err)
	}
	return nil
}

func (s *GormStore) Verbs() ([]model.Verb, error) {
	var verbs []model.Verb
	err := s.db.Where("is_deleted = ?", false).Find(&verbs).Error
	return verbs, err
}

func (s *GormStore) Resources() ([]model.Resource, error) {
	var resources []model.Resource
	err := s.db.Where("is_deleted = ?", false).Order("sequence").Find(&resources).Error
	return resources, err
}

func (s *GormStore) Permissions() ([]model.Permission, error) {
	var permissions []model.Permission
	err := s.db.Where("is_deleted = ?", false).Find(&permissions).Error
	return permissions, err
}

func (s *GormStore) DeleteRolesExcept(code string) error {
	return s.db.Where("code <> ?", code).Delete(&model.Role{}).Error
}

func (s *GormStore) EnsureRole(r *model.Role) (*model.Role, error) {
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoNothing: true,
	}).Create(r).Error
	if err != nil {
		return nil, fmt.Errorf("failed to ensure role %s: %w", r.Code, err)
	}
	var stored model.Role
	if err := s.db.Where("code = ?", r.Code).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *GormStore) GrantPermission(roleID, permissionID uuid.UUID) error {
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.RolePermission{RoleID: roleID, PermissionID: permissionID}).Error
}
