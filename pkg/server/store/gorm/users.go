package gorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/confportal/conf-portal-api/pkg/model"
	"github.com/confportal/conf-portal-api/pkg/server/store"
)

var _ store.UsersStore = (*UsersStore)(nil)

// UsersStore implements store.UsersStore using GORM
type UsersStore struct {
	*CRUD[model.User]
	db *gorm.DB
}

// NewUsersStore creates a new UsersStore
func NewUsersStore(db *gorm.DB) *UsersStore {
	return &UsersStore{
		CRUD: NewCRUD[model.User](db, Options{
			OrderBy: []string{"created_at", "email", "last_login_at"},
			Search:  []string{"email", "phone_number"},
			Filters: []string{"is_admin", "is_superuser", "is_active"},
			Preload: []string{"Profile"},
		}),
		db: db,
	}
}

func (s *UsersStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Preload("Profile").
		Where("email = ? AND is_deleted = ? AND is_active = ?", email, false, true).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %s", store.ErrNotFound, email)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UsersStore) Exists(ctx context.Context, email, phone string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("email = ? OR phone_number = ?", email, phone).
		Count(&count).Error
	return count > 0, err
}

func (s *UsersStore) FindForLogin(ctx context.Context, provider, uid, email string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Preload("Profile").
		Joins("JOIN portal_user_third_party_auth a ON a.user_id = portal_user.id").
		Joins("JOIN portal_third_party_provider p ON p.id = a.provider_id").
		Where("p.name = ? AND a.provider_uid = ? AND portal_user.is_deleted = ?", provider, uid, false).
		First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if email == "" {
		return nil, fmt.Errorf("%w: user %s/%s", store.ErrNotFound, provider, uid)
	}

	err = s.db.WithContext(ctx).Preload("Profile").
		Where("email = ? AND is_deleted = ?", email, false).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %s", store.ErrNotFound, email)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UsersStore) CreateWithProfile(ctx context.Context, user *model.User, profile *model.UserProfile) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(user).Error; err != nil {
			return err
		}
		profile.UserID = user.ID
		if err := tx.Create(profile).Error; err != nil {
			return err
		}
		user.Profile = profile
		return nil
	})
}

func (s *UsersStore) LinkProvider(ctx context.Context, userID uuid.UUID, provider, uid string, data datatypes.JSON) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.ThirdPartyProvider
		if err := tx.Where("name = ?", provider).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: provider %s", store.ErrNotFound, provider)
			}
			return err
		}
		link := &model.UserThirdPartyAuth{
			UserID:         userID,
			ProviderID:     p.ID,
			ProviderUID:    uid,
			AdditionalData: data,
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_id"}, {Name: "provider_uid"}},
			DoUpdates: clause.AssignmentColumns([]string{"additional_data", "updated_at"}),
		}).Create(link).Error
	})
}

func (s *UsersStore) TouchLogin(ctx context.Context, userID uuid.UUID, at time.Time) error {
	return s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumn("last_login_at", at).Error
}

func (s *UsersStore) SetPassword(ctx context.Context, userID uuid.UUID, hash string, at time.Time) error {
	tx := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND is_deleted = ?", userID, false).
		Updates(map[string]interface{}{
			"password_hash":       hash,
			"password_changed_at": at,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("%w: user %s", store.ErrNotFound, userID)
	}
	return nil
}

func (s *UsersStore) UpdateProfile(ctx context.Context, userID uuid.UUID, update store.ProfileUpdate) error {
	values := map[string]interface{}{}
	if update.DisplayName != nil {
		values["display_name"] = *update.DisplayName
	}
	if update.Gender != nil {
		values["gender"] = *update.Gender
	}
	if len(values) == 0 {
		return nil
	}
	tx := s.db.WithContext(ctx).Model(&model.UserProfile{}).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Updates(values)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("%w: profile %s", store.ErrNotFound, userID)
	}
	return nil
}

const activePermissionsSQL = `
SELECT DISTINCT p.code FROM portal_permission p
JOIN portal_verb v ON v.id = p.verb_id
JOIN portal_resource r ON r.id = p.resource_id
WHERE p.is_deleted = false AND p.is_active = true
  AND (p.expire_date IS NULL OR p.expire_date > ?)
  AND v.is_deleted = false AND v.is_active = true
  AND r.is_deleted = false AND r.is_active = true AND r.is_visible = true
ORDER BY p.code`

const rolePermissionsSQL = `
SELECT DISTINCT p.code FROM portal_user_role ur
JOIN portal_role ro ON ro.id = ur.role_id
JOIN portal_role_permission rp ON rp.role_id = ro.id
JOIN portal_permission p ON p.id = rp.permission_id
JOIN portal_verb v ON v.id = p.verb_id
JOIN portal_resource r ON r.id = p.resource_id
WHERE ur.user_id = ?
  AND ro.is_deleted = false AND ro.is_active = true
  AND (rp.expire_date IS NULL OR rp.expire_date > ?)
  AND p.is_deleted = false AND p.is_active = true
  AND (p.expire_date IS NULL OR p.expire_date > ?)
  AND v.is_deleted = false AND v.is_active = true
  AND r.is_deleted = false AND r.is_active = true AND r.is_visible = true
ORDER BY p.code`

const roleCodesSQL = `
SELECT ro.code FROM portal_user_role ur
JOIN portal_role ro ON ro.id = ur.role_id
WHERE ur.user_id = ? AND ro.is_deleted = false AND ro.is_active = true
ORDER BY ro.code`

func (s *UsersStore) AdminGrants(ctx context.Context, user *model.User, now time.Time) (*store.Grants, error) {
	db := s.db.WithContext(ctx)
	grants := &store.Grants{Roles: []string{}, Permissions: []string{}}

	if user.IsSuperuser {
		grants.Roles = []string{model.RoleSuperuser}
		if err := db.Raw(activePermissionsSQL, now).Scan(&grants.Permissions).Error; err != nil {
			return nil, err
		}
		return grants, nil
	}

	if err := db.Raw(roleCodesSQL, user.ID).Scan(&grants.Roles).Error; err != nil {
		return nil, err
	}
	if err := db.Raw(rolePermissionsSQL, user.ID, now, now).Scan(&grants.Permissions).Error; err != nil {
		return nil, err
	}
	return grants, nil
}

func (s *UsersStore) SetRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&model.UserRole{}).Error; err != nil {
			return err
		}
		if len(roleIDs) == 0 {
			return nil
		}
		rows := make([]model.UserRole, 0, len(roleIDs))
		for _, id := range roleIDs {
			rows = append(rows, model.UserRole{UserID: userID, RoleID: id})
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	})
}

func (s *UsersStore) RoleIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Model(&model.UserRole{}).
		Where("user_id = ?", userID).
		Pluck("role_id", &ids).Error
	return ids, err
}

var _ store.PasswordResetStore = (*PasswordResetStore)(nil)

// PasswordResetStore implements store.PasswordResetStore using GORM
type PasswordResetStore struct {
	db *gorm.DB
}

func NewPasswordResetStore(db *gorm.DB) *PasswordResetStore {
	return &PasswordResetStore{db: db}
}

func (s *PasswordResetStore) Create(ctx context.Context, token *model.PasswordResetToken) error {
	return s.db.WithContext(ctx).Create(token).Error
}

func (s *PasswordResetStore) Redeem(ctx context.Context, tokenHash, passwordHash string, now time.Time) (*model.PasswordResetToken, error) {
	var token model.PasswordResetToken
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("token_hash = ? AND used_at IS NULL AND expires_at > ?", tokenHash, now).
			First(&token).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: password reset token", store.ErrNotFound)
		}
		if err != nil {
			return err
		}
		if err := NewUsersStore(tx).SetPassword(ctx, token.UserID, passwordHash, now); err != nil {
			return err
		}
		token.UsedAt = &now
		return tx.Model(&model.PasswordResetToken{}).
			Where("id = ?", token.ID).
			Update("used_at", now).Error
	})
	if err != nil {
		return nil, err
	}
	return &token, nil
}
