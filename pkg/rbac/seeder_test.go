package rbac

import (
	"errors"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confportal/conf-portal-api/pkg/model"
)

// fakeStore keeps rows in maps keyed like the unique constraints.
type fakeStore struct {
	verbs       map[string]model.Verb
	resources   map[string]model.Resource
	permissions map[string]model.Permission
	roles       map[string]model.Role
	grants      map[uuid.UUID]map[uuid.UUID]bool
	failOn      string
	committed   bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		verbs:       map[string]model.Verb{},
		resources:   map[string]model.Resource{},
		permissions: map[string]model.Permission{},
		roles:       map[string]model.Role{},
		grants:      map[uuid.UUID]map[uuid.UUID]bool{},
	}
}

func (f *fakeStore) Transaction(fn func(Store) error) error {
	if err := fn(f); err != nil {
		return err
	}
	f.committed = true
	return nil
}

func withID(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}

func (f *fakeStore) UpsertVerb(v *model.Verb) error {
	if existing, ok := f.verbs[v.Action]; ok {
		existing.DisplayName = v.DisplayName
		f.verbs[v.Action] = existing
		return nil
	}
	v.ID = withID(v.ID)
	f.verbs[v.Action] = *v
	return nil
}

func (f *fakeStore) UpsertResource(r *model.Resource) error {
	if f.failOn == r.Code {
		return errors.New("boom")
	}
	if existing, ok := f.resources[r.Code]; ok {
		r.ID = existing.ID
	} else {
		r.ID = withID(r.ID)
	}
	f.resources[r.Code] = *r
	return nil
}

func (f *fakeStore) UpsertPermission(p *model.Permission) error {
	if existing, ok := f.permissions[p.Code]; ok {
		p.ID = existing.ID
	} else {
		p.ID = withID(p.ID)
	}
	f.permissions[p.Code] = *p
	return nil
}

func (f *fakeStore) Verbs() ([]model.Verb, error) {
	var out []model.Verb
	for _, v := range f.verbs {
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeStore) Resources() ([]model.Resource, error) {
	var out []model.Resource
	for _, r := range f.resources {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) Permissions() ([]model.Permission, error) {
	var out []model.Permission
	for _, p := range f.permissions {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) DeleteRolesExcept(code string) error {
	for c, r := range f.roles {
		if c != code {
			delete(f.roles, c)
			delete(f.grants, r.ID)
		}
	}
	return nil
}

func (f *fakeStore) EnsureRole(r *model.Role) (*model.Role, error) {
	if existing, ok := f.roles[r.Code]; ok {
		return &existing, nil
	}
	r.ID = withID(r.ID)
	f.roles[r.Code] = *r
	return r, nil
}

func (f *fakeStore) GrantPermission(roleID, permissionID uuid.UUID) error {
	if f.grants[roleID] == nil {
		f.grants[roleID] = map[uuid.UUID]bool{}
	}
	f.grants[roleID][permissionID] = true
	return nil
}

func (f *fakeStore) grantedCodes(roleCode string) []string {
	role := f.roles[roleCode]
	var codes []string
	for _, p := range f.permissions {
		if f.grants[role.ID][p.ID] {
			codes = append(codes, p.Code)
		}
	}
	sort.Strings(codes)
	return codes
}

func TestSeederApplyDefault(t *testing.T) {
	store := newFakeStore()
	store.roles["editor"] = model.Role{Base: model.Base{ID: uuid.New()}, Code: "editor"}

	result, err := NewSeeder(store, zerolog.Nop()).Apply(DefaultSeed())
	require.NoError(t, err)
	assert.True(t, store.committed)

	seed := DefaultSeed()
	assert.Equal(t, 4, result.Verbs)
	assert.Equal(t, len(seed.Parents)+len(seed.Resources), result.Resources)
	assert.Equal(t, len(seed.Resources)*4, result.Permissions)
	assert.Len(t, store.permissions, len(seed.Resources)*4)

	// Only admin survives.
	assert.Len(t, store.roles, 1)
	assert.Contains(t, store.roles, model.RoleAdmin)

	granted := store.grantedCodes(model.RoleAdmin)
	assert.Equal(t, result.Granted, len(granted))
	assert.Contains(t, granted, "system:user:read")
	assert.Contains(t, granted, "support:faq:delete")
	for _, code := range granted {
		assert.NotContains(t, code, "system:resource:")
		assert.NotContains(t, code, "system:fcm_device:")
		assert.NotContains(t, code, "comms:notification")
	}

	// Parents keep their fixed ids and leaves point at them.
	assert.Equal(t, SystemParentID, store.resources["system"].ID)
	require.NotNil(t, store.resources[SystemRole].PID)
	assert.Equal(t, SystemParentID, *store.resources[SystemRole].PID)
	assert.Equal(t, model.ResourceTypeSystem, store.resources[CommsNotification].Type)
	assert.Equal(t, model.ResourceTypeGeneral, store.resources[ContentFile].Type)

	assert.Equal(t, "Roles Read", store.permissions["system:role:read"].DisplayName)
}

func TestSeederIsIdempotent(t *testing.T) {
	store := newFakeStore()
	seeder := NewSeeder(store, zerolog.Nop())

	_, err := seeder.Apply(DefaultSeed())
	require.NoError(t, err)
	first := store.permissions["content:file:read"].ID
	adminID := store.roles[model.RoleAdmin].ID

	_, err = seeder.Apply(DefaultSeed())
	require.NoError(t, err)
	assert.Equal(t, first, store.permissions["content:file:read"].ID)
	assert.Equal(t, adminID, store.roles[model.RoleAdmin].ID)
	assert.Len(t, store.permissions, len(DefaultSeed().Resources)*4)
}

func TestSeederPropagatesErrors(t *testing.T) {
	store := newFakeStore()
	store.failOn = SystemLog

	_, err := NewSeeder(store, zerolog.Nop()).Apply(DefaultSeed())
	assert.EqualError(t, err, "boom")
	assert.False(t, store.committed)
}

func TestSeederDryRun(t *testing.T) {
	store := newFakeStore()

	result, err := NewSeeder(store, zerolog.Nop()).WithDryRun(true).Apply(DefaultSeed())
	require.NoError(t, err)
	assert.False(t, store.committed)
	assert.Equal(t, 4, result.Verbs)
}

func TestPermissionDisplayName(t *testing.T) {
	assert.Equal(t, "Files Delete", PermissionDisplayName("Files", "delete"))
	assert.Equal(t, "Files", PermissionDisplayName("Files", ""))
}
