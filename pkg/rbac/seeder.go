package rbac

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/confportal/conf-portal-api/pkg/model"
)

// Result summarizes a seeding run.
type Result struct {
	Verbs       int `json:"verbs"`
	Resources   int `json:"resources"`
	Permissions int `json:"permissions"`
	Granted     int `json:"granted"`
}

// Seeder applies a seed document.
type Seeder struct {
	store  Store
	logger zerolog.Logger
	dryRun bool
}

// NewSeeder creates a new Seeder.
func NewSeeder(store Store, logger zerolog.Logger) *Seeder {
	return &Seeder{store: store, logger: logger}
}

// WithDryRun rolls the transaction back after applying the seed.
func (s *Seeder) WithDryRun(dryRun bool) *Seeder {
	s.dryRun = dryRun
	return s
}

var errDryRun = fmt.Errorf("dry run")

// Apply runs every seeding step in one transaction.
func (s *Seeder) Apply(seed *Seed) (*Result, error) {
	if err := seed.Validate(); err != nil {
		return nil, err
	}

	result := &Result{}
	err := s.store.Transaction(func(tx Store) error {
		if err := s.apply(tx, seed, result); err != nil {
			return err
		}
		if s.dryRun {
			return errDryRun
		}
		return nil
	})
	if err == errDryRun {
		err = nil
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int("verbs", result.Verbs).
		Int("resources", result.Resources).
		Int("permissions", result.Permissions).
		Int("granted", result.Granted).
		Bool("dry_run", s.dryRun).
		Msg("rbac seed applied")
	return result, nil
}

func (s *Seeder) apply(tx Store, seed *Seed, result *Result) error {
	for _, v := range seed.Verbs {
		if err := tx.UpsertVerb(&model.Verb{Action: v.Action, DisplayName: v.DisplayName, IsActive: true}); err != nil {
			return err
		}
		result.Verbs++
	}

	for i, p := range seed.Parents {
		r := resourceRow(p, p.ResourceType(), float64(i))
		r.ID = p.ID
		if err := tx.UpsertResource(r); err != nil {
			return err
		}
		result.Resources++
	}

	stored, err := tx.Resources()
	if err != nil {
		return err
	}
	byCode := make(map[string]model.Resource, len(stored))
	for _, r := range stored {
		byCode[r.Code] = r
	}

	for i, leaf := range seed.Resources {
		parent, ok := byCode[leaf.Parent()]
		if !ok {
			return fmt.Errorf("parent resource %q missing after upsert", leaf.Parent())
		}
		r := resourceRow(leaf, leaf.ResourceType(), float64(i))
		r.PID = &parent.ID
		if err := tx.UpsertResource(r); err != nil {
			return err
		}
		result.Resources++
	}

	if stored, err = tx.Resources(); err != nil {
		return err
	}
	verbs, err := tx.Verbs()
	if err != nil {
		return err
	}

	for _, res := range stored {
		if !strings.Contains(res.Code, ":") {
			continue
		}
		for _, verb := range verbs {
			p := permissionRow(res, verb)
			if err := tx.UpsertPermission(p); err != nil {
				return err
			}
			result.Permissions++
		}
	}

	if err := tx.DeleteRolesExcept(seed.Admin.Code); err != nil {
		return fmt.Errorf("failed to prune roles: %w", err)
	}
	admin, err := tx.EnsureRole(&model.Role{Code: seed.Admin.Code, Name: seed.Admin.Name, IsActive: true})
	if err != nil {
		return err
	}

	permissions, err := tx.Permissions()
	if err != nil {
		return err
	}
	for _, p := range permissions {
		if seed.Admin.Excludes(p.Code) {
			continue
		}
		if err := tx.GrantPermission(admin.ID, p.ID); err != nil {
			return fmt.Errorf("failed to grant %s: %w", p.Code, err)
		}
		result.Granted++
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func resourceRow(s SeedResource, t model.ResourceType, sequence float64) *model.Resource {
	key := s.Key
	if key == "" {
		key = strings.ToUpper(strings.ReplaceAll(s.Code, ":", "_"))
	}
	r := &model.Resource{
		Code:      s.Code,
		Key:       key,
		Name:      s.Name,
		Icon:      optional(s.Icon),
		Path:      optional(s.Path),
		Type:      t,
		IsVisible: true,
		IsActive:  true,
	}
	r.Sequence = sequence
	r.Description = optional(s.Description)
	return r
}

// PermissionDisplayName is "<Resource Name> <Verb>".
func PermissionDisplayName(resourceName, action string) string {
	return strings.TrimSpace(resourceName + " " + capitalize(action))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func permissionRow(res model.Resource, verb model.Verb) *model.Permission {
	name := res.Name
	if name == "" {
		name = res.Code
	}
	p := &model.Permission{
		ResourceID:  res.ID,
		VerbID:      verb.ID,
		Code:        Code(res.Code, verb.Action),
		DisplayName: PermissionDisplayName(name, verb.Action),
		IsActive:    true,
	}
	if res.Description != nil {
		p.Description = optional(fmt.Sprintf("%s on %s", capitalize(verb.Action), *res.Description))
	}
	return p
}
