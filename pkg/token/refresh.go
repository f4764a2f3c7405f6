package token

import (
	"context"
	"crypto/rand"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/confportal/conf-portal-api/pkg/model"
)

const (
	refreshTokenBytes = 96

	ReasonReused = "Refresh token reused"
	ReasonLogout = "Logout"
)

var (
	ErrRefreshTokenInvalid = errors.New("refresh token is invalid or expired")
	ErrRefreshTokenReused  = errors.New("refresh token reused")
)

// Client describes where a token request came from.
type Client struct {
	IP        string
	UserAgent string
}

// RefreshProvider issues, rotates and revokes opaque refresh tokens.
type RefreshProvider struct {
	db     *gorm.DB
	salt   string
	pepper string
	ttl    time.Duration
	now    func() time.Time
}

func NewRefreshProvider(db *gorm.DB, salt, pepper string, ttl time.Duration) *RefreshProvider {
	return &RefreshProvider{
		db:     db,
		salt:   salt,
		pepper: pepper,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Hash returns the stored form of a raw token.
func (p *RefreshProvider) Hash(raw string) string {
	return HashSecret(p.salt, raw, p.pepper)
}

// HashSecret is sha512(salt + raw + pepper) in hex.
func HashSecret(salt, raw, pepper string) string {
	sum := sha512.Sum512([]byte(salt + raw + pepper))
	return hex.EncodeToString(sum[:])
}

// NewOpaque returns n random bytes as unpadded base64url.
func NewOpaque(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Issue records the device and stores a new token in familyID.
func (p *RefreshProvider) Issue(ctx context.Context, userID, deviceID, familyID uuid.UUID, client Client) (string, *model.RefreshToken, error) {
	raw, err := NewOpaque(refreshTokenBytes)
	if err != nil {
		return "", nil, err
	}
	now := p.now()

	rt := &model.RefreshToken{
		UserID:     userID,
		DeviceID:   &deviceID,
		FamilyID:   familyID,
		TokenHash:  p.Hash(raw),
		ExpiresAt:  now.Add(p.ttl),
		LastUsedAt: &now,
		IP:         optional(client.IP),
		UserAgent:  optional(client.UserAgent),
	}

	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		device := &model.AuthDevice{
			Base:          model.Base{ID: deviceID},
			UserID:        userID,
			FirstSeenAt:   now,
			LastSeenAt:    now,
			LastIP:        rt.IP,
			LastUserAgent: rt.UserAgent,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_seen_at", "last_ip", "last_user_agent"}),
		}).Create(device).Error; err != nil {
			return fmt.Errorf("failed to upsert auth device: %w", err)
		}
		if err := tx.Create(rt).Error; err != nil {
			return fmt.Errorf("failed to store refresh token: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	return raw, rt, nil
}

// Lookup returns the stored row for raw.
func (p *RefreshProvider) Lookup(ctx context.Context, raw string) (*model.RefreshToken, error) {
	var rt model.RefreshToken
	err := p.db.WithContext(ctx).Where("token_hash = ?", p.Hash(raw)).First(&rt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRefreshTokenInvalid
	}
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

// Rotate exchanges raw for a new token in the same family. A token that was
// already rotated revokes the family and fails with ErrRefreshTokenReused.
func (p *RefreshProvider) Rotate(ctx context.Context, raw string, client Client) (string, *model.RefreshToken, error) {
	newRaw, err := NewOpaque(refreshTokenBytes)
	if err != nil {
		return "", nil, err
	}
	now := p.now()

	var (
		child  *model.RefreshToken
		reused bool
	)
	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.RefreshToken
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("token_hash = ?", p.Hash(raw)).
			First(&current).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRefreshTokenInvalid
		}
		if err != nil {
			return err
		}
		if current.Revoked() || current.Expired(now) {
			return ErrRefreshTokenInvalid
		}

		if current.ReplacedByID != nil {
			reused = true
			return revokeFamily(tx, current.FamilyID, ReasonReused, now)
		}

		parentID := current.ID
		child = &model.RefreshToken{
			Base:       model.Base{ID: uuid.New()},
			UserID:     current.UserID,
			DeviceID:   current.DeviceID,
			FamilyID:   current.FamilyID,
			ParentID:   &parentID,
			TokenHash:  p.Hash(newRaw),
			ExpiresAt:  current.ExpiresAt,
			LastUsedAt: &now,
			IP:         optional(client.IP),
			UserAgent:  optional(client.UserAgent),
		}

		if current.DeviceID != nil {
			if err := tx.Model(&model.AuthDevice{}).
				Where("id = ?", *current.DeviceID).
				Updates(map[string]interface{}{
					"last_seen_at":    now,
					"last_ip":         child.IP,
					"last_user_agent": child.UserAgent,
				}).Error; err != nil {
				return err
			}
		}
		if err := tx.Create(child).Error; err != nil {
			return err
		}
		return tx.Model(&model.RefreshToken{}).
			Where("id = ?", current.ID).
			Updates(map[string]interface{}{
				"replaced_by_id": child.ID,
				"last_used_at":   now,
			}).Error
	})
	if err != nil {
		return "", nil, err
	}
	if reused {
		return "", nil, ErrRefreshTokenReused
	}
	return newRaw, child, nil
}

func revokeFamily(tx *gorm.DB, familyID uuid.UUID, reason string, now time.Time) error {
	return tx.Model(&model.RefreshToken{}).
		Where("family_id = ? AND revoked_at IS NULL", familyID).
		Updates(map[string]interface{}{
			"revoked_at":     now,
			"revoked_reason": reason,
		}).Error
}

// RevokeFamily revokes every live token in familyID.
func (p *RefreshProvider) RevokeFamily(ctx context.Context, familyID uuid.UUID, reason string) error {
	return revokeFamily(p.db.WithContext(ctx), familyID, reason, p.now())
}

// RevokeByToken revokes the family raw belongs to. It reports false when the
// token is unknown.
func (p *RefreshProvider) RevokeByToken(ctx context.Context, raw string) (bool, error) {
	rt, err := p.Lookup(ctx, raw)
	if errors.Is(err, ErrRefreshTokenInvalid) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := p.RevokeFamily(ctx, rt.FamilyID, ReasonLogout); err != nil {
		return false, err
	}
	return true, nil
}

// RevokeUser revokes every live token the user holds.
func (p *RefreshProvider) RevokeUser(ctx context.Context, userID uuid.UUID, reason string) error {
	return p.db.WithContext(ctx).Model(&model.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Updates(map[string]interface{}{
			"revoked_at":     p.now(),
			"revoked_reason": reason,
		}).Error
}
