// api/audit/diff.go
package audit

import (
	"reflect"

	"github.com/ccpo-cloud/atat/model"
)

// Diff compares two snapshots of the same entity and returns the changed
// fields as {field: [old, new]}. Only struct fields carrying an `audit` tag
// participate; everything else (timestamps, join decorations, internal
// bookkeeping) is invisible to the differ. An empty result means the save was
// a no-op and no event should be recorded.
func Diff(before, after any) map[string][]any {
	bv := reflect.Indirect(reflect.ValueOf(before))
	av := reflect.Indirect(reflect.ValueOf(after))
	if !bv.IsValid() || !av.IsValid() || bv.Type() != av.Type() {
		return nil
	}

	changed := map[string][]any{}
	t := bv.Type()
	for i := 0; i < t.NumField(); i++ {
		name, ok := t.Field(i).Tag.Lookup("audit")
		if !ok || name == "" || name == "-" {
			continue
		}
		oldVal := bv.Field(i).Interface()
		newVal := av.Field(i).Interface()
		if !reflect.DeepEqual(oldVal, newVal) {
			changed[name] = []any{oldVal, newVal}
		}
	}
	if len(changed) == 0 {
		return nil
	}
	return changed
}

// DiffPermissionSets records a change to a role's permission-set collection as
// a single entry, {"permission_sets": [oldNames, newNames]}. Order-insensitive:
// the same sets in a different order is a no-op.
func DiffPermissionSets(before, after []model.PermissionSetName) map[string][]any {
	if sameSetNames(before, after) {
		return nil
	}
	return map[string][]any{
		"permission_sets": {names(before), names(after)},
	}
}

func sameSetNames(a, b []model.PermissionSetName) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[model.PermissionSetName]int, len(a))
	for _, n := range a {
		seen[n]++
	}
	for _, n := range b {
		seen[n]--
		if seen[n] < 0 {
			return false
		}
	}
	return true
}

func names(sets []model.PermissionSetName) []string {
	out := make([]string, len(sets))
	for i, n := range sets {
		out[i] = string(n)
	}
	return out
}

// Merge folds several partial diffs into one event payload. Later maps win on
// key collisions.
func Merge(diffs ...map[string][]any) map[string][]any {
	var merged map[string][]any
	for _, d := range diffs {
		if len(d) == 0 {
			continue
		}
		if merged == nil {
			merged = map[string][]any{}
		}
		for k, v := range d {
			merged[k] = v
		}
	}
	return merged
}
