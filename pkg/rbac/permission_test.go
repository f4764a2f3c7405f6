package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		code     string
		resource string
		verb     string
		ok       bool
	}{
		{code: "system:role:read", resource: "system:role", verb: "read", ok: true},
		{code: "comms:notification_history:*", resource: "comms:notification_history", verb: "*", ok: true},
		{code: "plain", ok: false},
		{code: ":read", ok: false},
		{code: "system:role:", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			resource, verb, ok := Split(tt.code)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.resource, resource)
			assert.Equal(t, tt.verb, verb)
		})
	}
}

func TestAllowed(t *testing.T) {
	tests := []struct {
		name       string
		held       []string
		required   []string
		requireAll bool
		expected   bool
	}{
		{
			name:     "nothing required",
			expected: true,
		},
		{
			name:     "exact match",
			held:     []string{"system:user:read"},
			required: []string{"system:user:read"},
			expected: true,
		},
		{
			name:     "any of several",
			held:     []string{"support:faq:modify"},
			required: []string{"support:faq:read", "support:faq:modify"},
			expected: true,
		},
		{
			name:     "none held",
			held:     []string{"support:faq:read"},
			required: []string{"system:user:read"},
			expected: false,
		},
		{
			name:       "all required but one missing",
			held:       []string{"system:role:read"},
			required:   []string{"system:role:read", "system:permission:read"},
			requireAll: true,
			expected:   false,
		},
		{
			name:       "all required and held",
			held:       []string{"system:role:read", "system:permission:read"},
			required:   []string{"system:role:read", "system:permission:read"},
			requireAll: true,
			expected:   true,
		},
		{
			name:     "wildcard covers a verb",
			held:     []string{"system:role:*"},
			required: []string{"system:role:delete"},
			expected: true,
		},
		{
			name:     "wildcard does not leak to other resources",
			held:     []string{"system:role:*"},
			required: []string{"system:user:read"},
			expected: false,
		},
		{
			name:       "wildcard with require all",
			held:       []string{"workshop:workshops:*", "workshop:registration:read"},
			required:   []string{"workshop:workshops:modify", "workshop:registration:read"},
			requireAll: true,
			expected:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Allowed(tt.held, tt.required, tt.requireAll))
		})
	}
}

func TestRequirementSuperuser(t *testing.T) {
	req := Any(Read(SystemLog))
	assert.True(t, req.Allows(nil, true))
	assert.False(t, req.Allows(nil, false))

	req.DenySuperuser = true
	assert.False(t, req.Allows(nil, true))
	assert.True(t, req.Allows([]string{"system:log:*"}, true))
}

func TestCodeHelpers(t *testing.T) {
	assert.Equal(t, "content:file:read", Read(ContentFile))
	assert.Equal(t, "content:file:create", Create(ContentFile))
	assert.Equal(t, "content:file:modify", Modify(ContentFile))
	assert.Equal(t, "content:file:delete", Delete(ContentFile))
}
