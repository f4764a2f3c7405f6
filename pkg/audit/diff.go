package audit

import (
	"encoding/json"
	"reflect"
	"sort"
)

// FieldChange is one entry of changed_fields.
type FieldChange struct {
	Field string `json:"field"`
	Old   any    `json:"old"`
	New   any    `json:"new"`
}

// Fields that change on every write and carry no information.
var ignoredFields = map[string]bool{
	"updated_at": true,
	"updated_by": true,
}

// toMap renders a record through its JSON form so field names match the API.
func toMap(v any) (map[string]any, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// ChangedFields compares two records field by field. A nil side is treated
// as a record with no fields.
func ChangedFields(old, new any) ([]FieldChange, error) {
	before, err := toMap(old)
	if err != nil {
		return nil, err
	}
	after, err := toMap(new)
	if err != nil {
		return nil, err
	}

	keys := make(map[string]struct{}, len(before)+len(after))
	for k := range before {
		keys[k] = struct{}{}
	}
	for k := range after {
		keys[k] = struct{}{}
	}

	var changes []FieldChange
	for k := range keys {
		if ignoredFields[k] {
			continue
		}
		o, n := before[k], after[k]
		if reflect.DeepEqual(o, n) {
			continue
		}
		changes = append(changes, FieldChange{Field: k, Old: o, New: n})
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Field < changes[j].Field })
	return changes, nil
}
