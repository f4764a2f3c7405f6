package rbac

import "strings"

const (
	VerbRead   = "read"
	VerbCreate = "create"
	VerbModify = "modify"
	VerbDelete = "delete"

	// Wildcard in the verb position grants every verb on the resource.
	Wildcard = "*"
)

// Leaf resource codes.
const (
	CommsNotification        = "comms:notification"
	CommsNotificationHistory = "comms:notification_history"

	ConferenceConferences   = "conference:conferences"
	ConferenceEventSchedule = "conference:event_schedule"
	ConferenceInstructor    = "conference:instructor"

	ContentFile       = "content:file"
	ContentFaq        = "content:faq"
	ContentInstructor = "content:instructor"
	ContentLocation   = "content:location"
	ContentTestimony  = "content:testimony"

	SupportFaq      = "support:faq"
	SupportFeedback = "support:feedback"

	WorkshopRegistration = "workshop:registration"
	WorkshopWorkshops    = "workshop:workshops"

	SystemFcmDevice  = "system:fcm_device"
	SystemLog        = "system:log"
	SystemPermission = "system:permission"
	SystemResource   = "system:resource"
	SystemRole       = "system:role"
	SystemUser       = "system:user"
)

// Code joins a resource and a verb into a permission code.
func Code(resource, verb string) string {
	return resource + ":" + verb
}

func Read(resource string) string   { return Code(resource, VerbRead) }
func Create(resource string) string { return Code(resource, VerbCreate) }
func Modify(resource string) string { return Code(resource, VerbModify) }
func Delete(resource string) string { return Code(resource, VerbDelete) }

// Split separates a permission code at its last colon.
func Split(code string) (resource, verb string, ok bool) {
	i := strings.LastIndex(code, ":")
	if i <= 0 || i == len(code)-1 {
		return "", "", false
	}
	return code[:i], code[i+1:], true
}

// Requirement is what a route demands from its caller.
type Requirement struct {
	Codes      []string
	RequireAll bool
	// DenySuperuser turns off the superuser bypass.
	DenySuperuser bool
}

// Any requires at least one of codes.
func Any(codes ...string) Requirement {
	return Requirement{Codes: codes}
}

// All requires every one of codes.
func All(codes ...string) Requirement {
	return Requirement{Codes: codes, RequireAll: true}
}

// Allows reports whether held satisfies the requirement. An empty
// requirement is always satisfied.
func (r Requirement) Allows(held []string, superuser bool) bool {
	if superuser && !r.DenySuperuser {
		return true
	}
	return Allowed(held, r.Codes, r.RequireAll)
}

// Allowed checks required codes against held ones, honouring wildcards.
func Allowed(held, required []string, requireAll bool) bool {
	if len(required) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(held))
	for _, code := range held {
		set[code] = struct{}{}
	}
	for _, code := range required {
		ok := holds(set, code)
		if ok && !requireAll {
			return true
		}
		if !ok && requireAll {
			return false
		}
	}
	return requireAll
}

func holds(set map[string]struct{}, code string) bool {
	if _, ok := set[code]; ok {
		return true
	}
	resource, _, ok := Split(code)
	if !ok {
		return false
	}
	_, ok = set[Code(resource, Wildcard)]
	return ok
}
