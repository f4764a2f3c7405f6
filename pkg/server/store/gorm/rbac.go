package gorm

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/confportal/conf-portal-api/pkg/model"
	"github.com/confportal/conf-portal-api/pkg/server/store"
)

var (
	_ store.RolesStore       = (*RolesStore)(nil)
	_ store.PermissionsStore = (*PermissionsStore)(nil)
	_ store.ResourcesStore   = (*ResourcesStore)(nil)
	_ store.VerbsStore       = (*VerbsStore)(nil)
)

// RolesStore implements store.RolesStore using GORM
type RolesStore struct {
	*CRUD[model.Role]
	db *gorm.DB
}

// NewRolesStore creates a new RolesStore
func NewRolesStore(db *gorm.DB) *RolesStore {
	return &RolesStore{
		CRUD: NewCRUD[model.Role](db, Options{
			OrderBy: []string{"created_at", "code", "name"},
			Search:  []string{"code", "name"},
			Filters: []string{"is_active"},
		}),
		db: db,
	}
}

func (s *RolesStore) PermissionIDs(ctx context.Context, roleID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Model(&model.RolePermission{}).
		Where("role_id = ?", roleID).
		Pluck("permission_id", &ids).Error
	return ids, err
}

func (s *RolesStore) AssignPermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	rows := make([]model.RolePermission, 0, len(permissionIDs))
	for _, id := range permissionIDs {
		rows = append(rows, model.RolePermission{RoleID: roleID, PermissionID: id})
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (s *RolesStore) RevokePermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("role_id = ? AND permission_id IN ?", roleID, permissionIDs).
		Delete(&model.RolePermission{}).Error
}

func (s *RolesStore) UserIDs(ctx context.Context, roleID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Model(&model.UserRole{}).
		Where("role_id = ?", roleID).
		Pluck("user_id", &ids).Error
	return ids, err
}

// PermissionsStore implements store.PermissionsStore using GORM
type PermissionsStore struct {
	*CRUD[model.Permission]
}

func NewPermissionsStore(db *gorm.DB) *PermissionsStore {
	return &PermissionsStore{
		CRUD: NewCRUD[model.Permission](db, Options{
			OrderBy: []string{"code", "created_at", "display_name"},
			Search:  []string{"code", "display_name"},
			Filters: []string{"resource_id", "verb_id", "is_active"},
			Preload: []string{"Resource", "Verb"},
		}),
	}
}

// ResourcesStore implements store.ResourcesStore using GORM
type ResourcesStore struct {
	*CRUD[model.Resource]
	db *gorm.DB
}

func NewResourcesStore(db *gorm.DB) *ResourcesStore {
	return &ResourcesStore{
		CRUD: NewCRUD[model.Resource](db, Options{
			OrderBy: []string{"sequence", "code", "created_at"},
			Search:  []string{"code", "name", "key"},
			Filters: []string{"pid", "type", "is_visible", "is_active"},
		}),
		db: db,
	}
}

func (s *ResourcesStore) Active(ctx context.Context) ([]model.Resource, error) {
	var items []model.Resource
	err := s.db.WithContext(ctx).
		Where("is_deleted = ? AND is_active = ?", false, true).
		Order("sequence").Order("code").
		Find(&items).Error
	return items, err
}

const menuResourcesSQL = `
SELECT r.* FROM portal_resource r
WHERE r.is_deleted = false AND r.is_active = true AND r.is_visible = true
  AND (r.id IN (
        SELECT p.resource_id FROM portal_permission p
        WHERE p.code IN ? AND p.is_deleted = false AND p.is_active = true)
    OR r.id IN (
        SELECT c.pid FROM portal_resource c
        JOIN portal_permission p ON p.resource_id = c.id
        WHERE p.code IN ? AND c.pid IS NOT NULL AND p.is_deleted = false AND p.is_active = true))
ORDER BY r.sequence, r.code`

func (s *ResourcesStore) Menus(ctx context.Context, codes []string) ([]model.Resource, error) {
	var items []model.Resource
	db := s.db.WithContext(ctx)
	if codes == nil {
		err := db.Where("is_deleted = ? AND is_active = ? AND is_visible = ?", false, true, true).
			Order("sequence").Order("code").
			Find(&items).Error
		return items, err
	}
	if len(codes) == 0 {
		return items, nil
	}
	err := db.Raw(menuResourcesSQL, codes, codes).Scan(&items).Error
	return items, err
}

func (s *ResourcesStore) ChangeParent(ctx context.Context, id uuid.UUID, pid *uuid.UUID) error {
	if pid != nil && *pid == id {
		return fmt.Errorf("resource %s cannot be its own parent", id)
	}
	tx := s.db.WithContext(ctx).Model(&model.Resource{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Update("pid", pid)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("%w: resource %s", store.ErrNotFound, id)
	}
	return nil
}

func (s *ResourcesStore) ChangeSequence(ctx context.Context, changes []store.SequenceChange) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range changes {
			if err := tx.Model(&model.Resource{}).
				Where("id = ?", c.ID).
				Update("sequence", c.Sequence).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// VerbsStore implements store.VerbsStore using GORM
type VerbsStore struct {
	db *gorm.DB
}

func NewVerbsStore(db *gorm.DB) *VerbsStore {
	return &VerbsStore{db: db}
}

func (s *VerbsStore) List(ctx context.Context) ([]model.Verb, error) {
	var verbs []model.Verb
	err := s.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Order("action").
		Find(&verbs).Error
	return verbs, err
}
