package token

import (
	"sort"
	"strings"
)

// Verbs is the full set a resource needs to collapse into "resource:*".
var Verbs = []string{"read", "create", "modify", "delete"}

// BuildScope condenses permission codes into the scope claim. Codes are
// grouped by resource (everything before the last colon); a resource holding
// every verb is written as "resource:*".
func BuildScope(permissions []string) string {
	if len(permissions) == 0 {
		return ""
	}

	order := make([]string, 0)
	byResource := make(map[string]map[string]bool)
	for _, code := range permissions {
		i := strings.LastIndex(code, ":")
		if i <= 0 {
			continue
		}
		resource, verb := code[:i], code[i+1:]
		if _, ok := byResource[resource]; !ok {
			byResource[resource] = make(map[string]bool)
			order = append(order, resource)
		}
		byResource[resource][verb] = true
	}

	scope := make([]string, 0, len(permissions))
	for _, resource := range order {
		verbs := byResource[resource]
		if hasAllVerbs(verbs) {
			scope = append(scope, resource+":*")
			continue
		}
		held := make([]string, 0, len(verbs))
		for verb := range verbs {
			held = append(held, verb)
		}
		sort.Strings(held)
		for _, verb := range held {
			scope = append(scope, resource+":"+verb)
		}
	}
	return strings.Join(scope, " ")
}

func hasAllVerbs(held map[string]bool) bool {
	if len(held) != len(Verbs) {
		return false
	}
	for _, v := range Verbs {
		if !held[v] {
			return false
		}
	}
	return true
}
