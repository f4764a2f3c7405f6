package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/confportal/conf-portal-api/pkg/testutil"
)

func TestKeys(t *testing.T) {
	c := NewPermissionCache(&testutil.MockRedis{}, "portal")
	id := uuid.MustParse("11111111-1111-1111-1111-111111111111")

	assert.Equal(t, "portal:perm:11111111-1111-1111-1111-111111111111", c.PermissionKey(id))
	assert.Equal(t, "portal:role:11111111-1111-1111-1111-111111111111", c.RoleKey(id))
}

func TestWarm(t *testing.T) {
	r := &testutil.MockRedis{}
	c := NewPermissionCache(r, "portal")
	id := uuid.New()
	ctx := context.Background()

	r.On("Del", []string{c.PermissionKey(id), c.RoleKey(id)}).Return(2, nil)
	r.On("HSet", c.PermissionKey(id), []interface{}{"system:user:read", "1", "system:role:read", "1"}).Return(2, nil)
	r.On("Expire", c.PermissionKey(id), DefaultTTL).Return(true, nil)
	r.On("Set", c.RoleKey(id), []byte(`["admin"]`), DefaultTTL).Return("OK", nil)

	require.NoError(t, c.Warm(ctx, id, []string{"admin"}, []string{"system:user:read", "system:role:read"}))
	r.AssertExpectations(t)
}

func TestWarmWithoutPermissionsCachesEmptySet(t *testing.T) {
	r := &testutil.MockRedis{}
	c := NewPermissionCache(r, "portal")
	id := uuid.New()

	r.On("Del", mock.Anything).Return(0, nil)
	r.On("HSet", c.PermissionKey(id), []interface{}{emptyField, "1"}).Return(1, nil)
	r.On("Expire", c.PermissionKey(id), DefaultTTL).Return(true, nil)
	r.On("Set", c.RoleKey(id), []byte(`["viewer"]`), DefaultTTL).Return("OK", nil)
	r.On("HKeys", c.PermissionKey(id)).Return([]string{emptyField}, nil)

	require.NoError(t, c.Warm(context.Background(), id, []string{"viewer"}, nil))

	codes, err := c.Permissions(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, codes)
	r.AssertExpectations(t)
}

func TestPermissions(t *testing.T) {
	r := &testutil.MockRedis{}
	c := NewPermissionCache(r, "portal")
	hit, miss, broken := uuid.New(), uuid.New(), uuid.New()

	r.On("HKeys", c.PermissionKey(hit)).Return([]string{"content:faq:read"}, nil)
	r.On("HKeys", c.PermissionKey(miss)).Return([]string{}, nil)
	r.On("HKeys", c.PermissionKey(broken)).Return(nil, errors.New("timeout"))

	codes, err := c.Permissions(context.Background(), hit)
	require.NoError(t, err)
	assert.Equal(t, []string{"content:faq:read"}, codes)

	_, err = c.Permissions(context.Background(), miss)
	assert.ErrorIs(t, err, ErrMiss)

	_, err = c.Permissions(context.Background(), broken)
	assert.EqualError(t, err, "timeout")
}

func TestRoles(t *testing.T) {
	r := &testutil.MockRedis{}
	c := NewPermissionCache(r, "portal")
	hit, miss := uuid.New(), uuid.New()

	r.On("Get", c.RoleKey(hit)).Return(`["admin","editor"]`, nil)
	r.On("Get", c.RoleKey(miss)).Return("", redis.Nil)

	roles, err := c.Roles(context.Background(), hit)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin", "editor"}, roles)

	_, err = c.Roles(context.Background(), miss)
	assert.ErrorIs(t, err, ErrMiss)
}
