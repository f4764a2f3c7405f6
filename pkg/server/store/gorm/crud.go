package gorm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/confportal/conf-portal-api/pkg/server/store"
)

// Options configures a CRUD store.
type Options struct {
	// OrderBy whitelists the sortable columns. The first is the default.
	OrderBy []string
	// Search lists the columns matched by the keyword with ILIKE.
	Search []string
	// Filters whitelists the columns accepted in PageQuery.Filters.
	Filters []string
	// Preload names associations loaded on Get and Pages.
	Preload []string
}

// protected columns are never written by Update.
var protected = []string{"id", "created_at", "created_by", "created_by_id", "is_deleted", "delete_reason"}

// CRUD implements store.CRUDStore for a model embedding model.Base.
type CRUD[T any] struct {
	db   *gorm.DB
	opts Options
}

// NewCRUD creates a CRUD store for T.
func NewCRUD[T any](db *gorm.DB, opts Options) *CRUD[T] {
	if len(opts.OrderBy) == 0 {
		opts.OrderBy = []string{"created_at"}
	}
	return &CRUD[T]{db: db, opts: opts}
}

func (s *CRUD[T]) table() string {
	stmt := &gorm.Statement{DB: s.db}
	if err := stmt.Parse(new(T)); err != nil || stmt.Schema == nil {
		return "record"
	}
	return stmt.Schema.Table
}

func (s *CRUD[T]) notFound(id uuid.UUID) error {
	return fmt.Errorf("%w: %s %s", store.ErrNotFound, s.table(), id)
}

func (s *CRUD[T]) preload(tx *gorm.DB) *gorm.DB {
	for _, p := range s.opts.Preload {
		tx = tx.Preload(p)
	}
	return tx
}

// orderColumn returns the requested column if whitelisted, else the default.
func (s *CRUD[T]) orderColumn(requested string) string {
	for _, c := range s.opts.OrderBy {
		if c == requested {
			return c
		}
	}
	return s.opts.OrderBy[0]
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Query returns a session scoped to T for stores that extend CRUD.
func (s *CRUD[T]) Query(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(new(T))
}

func (s *CRUD[T]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	var item T
	err := s.preload(s.db.WithContext(ctx)).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, s.notFound(id)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *CRUD[T]) GetAny(ctx context.Context, id uuid.UUID) (*T, error) {
	var item T
	err := s.preload(s.db.WithContext(ctx)).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, s.notFound(id)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *CRUD[T]) List(ctx context.Context, deleted bool) ([]T, error) {
	var items []T
	err := s.preload(s.db.WithContext(ctx)).
		Where("is_deleted = ?", deleted).
		Order(clause.OrderByColumn{Column: clause.Column{Name: s.opts.OrderBy[0]}}).
		Find(&items).Error
	return items, err
}

// Filtered applies the deleted flag, whitelisted filters and keyword of q.
func (s *CRUD[T]) Filtered(ctx context.Context, q store.PageQuery) *gorm.DB {
	tx := s.Query(ctx).Where("is_deleted = ?", q.Deleted)
	for col, v := range q.Filters {
		if contains(s.opts.Filters, col) {
			tx = tx.Where(clause.Eq{Column: clause.Column{Name: col}, Value: v})
		}
	}
	if kw := strings.TrimSpace(q.Keyword); kw != "" && len(s.opts.Search) > 0 {
		like := "%" + kw + "%"
		conds := make([]string, 0, len(s.opts.Search))
		args := make([]interface{}, 0, len(s.opts.Search))
		for _, col := range s.opts.Search {
			conds = append(conds, col+" ILIKE ?")
			args = append(args, like)
		}
		tx = tx.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
	return tx.Session(&gorm.Session{})
}

func (s *CRUD[T]) Pages(ctx context.Context, q store.PageQuery) (*store.Page[T], error) {
	q = q.Normalize()
	base := s.Filtered(ctx, q)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	items := make([]T, 0, q.PageSize)
	err := s.preload(base).
		Order(clause.OrderByColumn{Column: clause.Column{Name: s.orderColumn(q.OrderBy)}, Desc: q.Descending}).
		Limit(q.PageSize).
		Offset(q.Offset()).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return &store.Page[T]{Page: q.Page, PageSize: q.PageSize, Total: total, Items: items}, nil
}

func (s *CRUD[T]) Create(ctx context.Context, item *T) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error
}

func (s *CRUD[T]) Update(ctx context.Context, item *T) error {
	tx := s.db.WithContext(ctx).Model(item).
		Where("is_deleted = ?", false).
		Select("*").
		Omit(append([]string{clause.Associations}, protected...)...).
		Updates(item)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, s.table())
	}
	return nil
}

func (s *CRUD[T]) SoftDelete(ctx context.Context, id uuid.UUID, reason string) error {
	tx := s.Query(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]interface{}{"is_deleted": true, "delete_reason": reason})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return s.notFound(id)
	}
	return nil
}

func (s *CRUD[T]) Delete(ctx context.Context, id uuid.UUID) error {
	tx := s.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return s.notFound(id)
	}
	return nil
}

func (s *CRUD[T]) Restore(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx := s.Query(ctx).
		Where("id IN ? AND is_deleted = ?", ids, true).
		Updates(map[string]interface{}{"is_deleted": false, "delete_reason": nil})
	return tx.RowsAffected, tx.Error
}
