package rbac

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/confportal/conf-portal-api/pkg/model"
)

// Fixed ids of the parent resources.
var (
	SystemParentID     = uuid.MustParse("b46586f5-7e43-4eed-9f44-fecff64c9b1d")
	ConferenceParentID = uuid.MustParse("902bc7d2-8c42-40e6-9a8e-8bf12fc0efc5")
	WorkshopParentID   = uuid.MustParse("d92c0e66-0ac4-475c-981e-8989c7e5f472")
	CommsParentID      = uuid.MustParse("342a72a7-544a-4967-8841-c11c9cf7ccd9")
	ContentParentID    = uuid.MustParse("bbc09c99-28b9-4d37-a1c7-c44a427cbfbf")
	SupportParentID    = uuid.MustParse("0450da45-9482-4321-81a3-1fddcf6264e5")
)

// SeedVerb is a verb entry of a seed document.
type SeedVerb struct {
	Action      string `yaml:"action"`
	DisplayName string `yaml:"display_name"`
}

// SeedResource is a resource entry of a seed document. Leaf types default to
// SYSTEM under the system and comms groups and GENERAL elsewhere.
type SeedResource struct {
	ID          uuid.UUID           `yaml:"id,omitempty"`
	Code        string              `yaml:"code"`
	Key         string              `yaml:"key"`
	Name        string              `yaml:"name"`
	Icon        string              `yaml:"icon,omitempty"`
	Path        string              `yaml:"path,omitempty"`
	Description string              `yaml:"description,omitempty"`
	Type        *model.ResourceType `yaml:"type,omitempty"`
}

// Parent returns the group code of a leaf resource.
func (r SeedResource) Parent() string {
	parent, _, _ := strings.Cut(r.Code, ":")
	return parent
}

// ResourceType resolves the effective type of the entry.
func (r SeedResource) ResourceType() model.ResourceType {
	if r.Type != nil {
		return *r.Type
	}
	switch r.Parent() {
	case "system", "comms":
		return model.ResourceTypeSystem
	default:
		return model.ResourceTypeGeneral
	}
}

// SeedAdmin describes the single role kept by seeding.
type SeedAdmin struct {
	Code             string   `yaml:"code"`
	Name             string   `yaml:"name"`
	ExcludedPrefixes []string `yaml:"excluded_prefixes"`
}

// Excludes reports whether a permission code is withheld from the admin role.
func (a SeedAdmin) Excludes(code string) bool {
	for _, prefix := range a.ExcludedPrefixes {
		if strings.HasPrefix(code, prefix) {
			return true
		}
	}
	return false
}

// Seed is the full RBAC seed document.
type Seed struct {
	Verbs     []SeedVerb     `yaml:"verbs"`
	Parents   []SeedResource `yaml:"parents"`
	Resources []SeedResource `yaml:"resources"`
	Admin     SeedAdmin      `yaml:"admin"`
}

// Validate checks the document is internally consistent.
func (s *Seed) Validate() error {
	if len(s.Verbs) == 0 {
		return fmt.Errorf("seed has no verbs")
	}
	if s.Admin.Code == "" {
		return fmt.Errorf("seed admin role has no code")
	}
	parents := make(map[string]bool, len(s.Parents))
	for _, p := range s.Parents {
		if p.Code == "" || strings.Contains(p.Code, ":") {
			return fmt.Errorf("invalid parent resource code %q", p.Code)
		}
		if p.ID == uuid.Nil {
			return fmt.Errorf("parent resource %q has no id", p.Code)
		}
		parents[p.Code] = true
	}
	seen := make(map[string]bool, len(s.Resources))
	for _, r := range s.Resources {
		if strings.Count(r.Code, ":") != 1 {
			return fmt.Errorf("invalid resource code %q", r.Code)
		}
		if !parents[r.Parent()] {
			return fmt.Errorf("resource %q has unknown parent %q", r.Code, r.Parent())
		}
		if seen[r.Code] {
			return fmt.Errorf("duplicate resource %q", r.Code)
		}
		seen[r.Code] = true
	}
	return nil
}

// LoadSeed reads a YAML seed document. Sections missing from the document
// keep their built-in values.
func LoadSeed(r io.Reader) (*Seed, error) {
	var doc Seed
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	seed := DefaultSeed()
	if len(doc.Verbs) > 0 {
		seed.Verbs = doc.Verbs
	}
	if len(doc.Parents) > 0 {
		seed.Parents = doc.Parents
	}
	if len(doc.Resources) > 0 {
		seed.Resources = doc.Resources
	}
	if doc.Admin.Code != "" {
		seed.Admin.Code = doc.Admin.Code
	}
	if doc.Admin.Name != "" {
		seed.Admin.Name = doc.Admin.Name
	}
	if doc.Admin.ExcludedPrefixes != nil {
		seed.Admin.ExcludedPrefixes = doc.Admin.ExcludedPrefixes
	}

	if err := seed.Validate(); err != nil {
		return nil, err
	}
	return seed, nil
}

// LoadSeedFile reads a seed document from disk.
func LoadSeedFile(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return LoadSeed(f)
}

func typ(t model.ResourceType) *model.ResourceType { return &t }

// DefaultSeed returns the built-in seed document.
func DefaultSeed() *Seed {
	return &Seed{
		Verbs: []SeedVerb{
			{Action: VerbCreate, DisplayName: "Create"},
			{Action: VerbRead, DisplayName: "Read"},
			{Action: VerbModify, DisplayName: "Modify"},
			{Action: VerbDelete, DisplayName: "Delete"},
		},
		Parents: []SeedResource{
			{ID: SystemParentID, Code: "system", Key: "SYSTEM", Name: "System", Icon: "settings", Path: "/system", Description: "System administration", Type: typ(model.ResourceTypeSystem)},
			{ID: CommsParentID, Code: "comms", Key: "COMMS", Name: "Notifications", Icon: "bell", Path: "/comms", Description: "Notifications and messaging", Type: typ(model.ResourceTypeSystem)},
			{ID: ConferenceParentID, Code: "conference", Key: "CONFERENCE", Name: "Conferences", Icon: "calendar", Path: "/conference", Description: "Conference management", Type: typ(model.ResourceTypeGeneral)},
			{ID: WorkshopParentID, Code: "workshop", Key: "WORKSHOP", Name: "Workshops", Icon: "briefcase", Path: "/workshop", Description: "Workshop management", Type: typ(model.ResourceTypeGeneral)},
			{ID: ContentParentID, Code: "content", Key: "CONTENT", Name: "Content", Icon: "folder", Path: "/content", Description: "Content management", Type: typ(model.ResourceTypeGeneral)},
			{ID: SupportParentID, Code: "support", Key: "SUPPORT", Name: "Support", Icon: "life-buoy", Path: "/support", Description: "Support and feedback", Type: typ(model.ResourceTypeGeneral)},
		},
		Resources: []SeedResource{
			{Code: SystemUser, Key: "SYSTEM_USER", Name: "Users", Icon: "users", Path: "/system/users", Description: "system users"},
			{Code: SystemRole, Key: "SYSTEM_ROLE", Name: "Roles", Icon: "shield", Path: "/system/roles", Description: "system roles"},
			{Code: SystemPermission, Key: "SYSTEM_PERMISSION", Name: "Permissions", Icon: "key", Path: "/system/permissions", Description: "system permissions"},
			{Code: SystemResource, Key: "SYSTEM_RESOURCE", Name: "Resources", Icon: "folder", Path: "/system/resources", Description: "system resources"},
			{Code: SystemLog, Key: "SYSTEM_LOG", Name: "Logs", Icon: "file-text", Path: "/system/logs", Description: "operation logs"},
			{Code: SystemFcmDevice, Key: "SYSTEM_FCM_DEVICE", Name: "FCM Devices", Icon: "smartphone", Path: "/system/devices", Description: "push devices"},
			{Code: ConferenceConferences, Key: "CONFERENCE_BASIC", Name: "Conferences", Icon: "calendar", Path: "/conference/conferences", Description: "conferences"},
			{Code: ConferenceInstructor, Key: "CONFERENCE_INSTRUCTOR", Name: "Conference Instructors", Icon: "user-check", Path: "/conference/instructors", Description: "conference instructors"},
			{Code: ConferenceEventSchedule, Key: "CONFERENCE_EVENT_SCHEDULE", Name: "Event Schedule", Icon: "clock", Path: "/conference/events", Description: "conference event schedule"},
			{Code: WorkshopWorkshops, Key: "WORKSHOP_BASIC", Name: "Workshops", Icon: "briefcase", Path: "/workshop/workshops", Description: "workshops"},
			{Code: WorkshopRegistration, Key: "WORKSHOP_REGISTRATION", Name: "Workshop Registrations", Icon: "clipboard", Path: "/workshop/registrations", Description: "workshop registrations"},
			{Code: CommsNotification, Key: "COMMS_NOTIFICATION", Name: "Notifications", Icon: "bell", Path: "/comms/notifications", Description: "notifications"},
			{Code: CommsNotificationHistory, Key: "COMMS_NOTIFICATION_HISTORY", Name: "Notification History", Icon: "archive", Path: "/comms/notification-history", Description: "notification history"},
			{Code: ContentFaq, Key: "CONTENT_FAQ", Name: "FAQ", Icon: "help-circle", Path: "/content/faq", Description: "FAQ content"},
			{Code: ContentTestimony, Key: "CONTENT_TESTIMONY", Name: "Testimonies", Icon: "message-circle", Path: "/content/testimonies", Description: "testimonies"},
			{Code: ContentInstructor, Key: "CONTENT_INSTRUCTOR", Name: "Instructors", Icon: "user", Path: "/content/instructors", Description: "instructors"},
			{Code: ContentLocation, Key: "CONTENT_LOCATION", Name: "Locations", Icon: "map-pin", Path: "/content/locations", Description: "locations"},
			{Code: ContentFile, Key: "CONTENT_FILE", Name: "Files", Icon: "file", Path: "/content/files", Description: "files"},
			{Code: SupportFaq, Key: "SUPPORT_FAQ", Name: "FAQ", Icon: "help-circle", Path: "/support/faq", Description: "FAQ entries"},
			{Code: SupportFeedback, Key: "SUPPORT_FEEDBACK", Name: "Feedback", Icon: "message-square", Path: "/support/feedback", Description: "feedback"},
		},
		Admin: SeedAdmin{
			Code: model.RoleAdmin,
			Name: "Administrator",
			ExcludedPrefixes: []string{
				"system:resource:",
				"system:verb:",
				"system:fcm_device:",
				"comms:notification",
			},
		},
	}
}
