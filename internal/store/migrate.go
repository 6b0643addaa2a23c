package store

import (
	"errors"
	"fmt"
)

// SchemaVersion is the version written with every snapshot.
//
//	0 -> 1  notifications[].isRead renamed to read
//	1 -> 2  theme defaults to "light", formProgress to {}
//	2 -> 3  selectedSkills defaults to [], projects[].collaborators to []
const SchemaVersion = 3

// ErrUnknownVersion reports a snapshot version Migrate cannot upgrade.
var ErrUnknownVersion = errors.New("unknown snapshot version")

var migrations = map[int]func(map[string]any){
	0: renameReadFlag,
	1: addUIDefaults,
	2: addSkillDefaults,
}

// Migrate upgrades a decoded snapshot state from version to SchemaVersion.
// The input is not modified. Each step only fills in what is missing, so
// running Migrate on its own output returns an equal value.
func Migrate(version int, state map[string]any) (map[string]any, error) {
	if version < 0 || version > SchemaVersion {
		return nil, fmt.Errorf("%w: %d (current %d)", ErrUnknownVersion, version, SchemaVersion)
	}
	if state == nil {
		return nil, errors.New("snapshot state is not an object")
	}
	out, _ := cloneJSON(state).(map[string]any)
	for v := version; v < SchemaVersion; v++ {
		step, ok := migrations[v]
		if !ok {
			return nil, fmt.Errorf("%w: no migration from version %d", ErrUnknownVersion, v)
		}
		step(out)
	}
	return out, nil
}

func renameReadFlag(state map[string]any) {
	for _, n := range objects(state["notifications"]) {
		old, ok := n["isRead"]
		if !ok {
			continue
		}
		if _, has := n["read"]; !has {
			n["read"] = old == true
		}
		delete(n, "isRead")
	}
}

func addUIDefaults(state map[string]any) {
	if _, ok := state["theme"].(string); !ok {
		state["theme"] = ThemeLight
	}
	if _, ok := state["formProgress"].(map[string]any); !ok {
		state["formProgress"] = map[string]any{}
	}
}

func addSkillDefaults(state map[string]any) {
	if _, ok := state["selectedSkills"].([]any); !ok {
		state["selectedSkills"] = []any{}
	}
	for _, p := range objects(state["projects"]) {
		if _, ok := p["collaborators"].([]any); !ok {
			p["collaborators"] = []any{}
		}
	}
}

// objects returns the JSON objects inside a JSON array, skipping anything
// else.
func objects(v any) []map[string]any {
	list, _ := v.([]any)
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

func cloneJSON(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = cloneJSON(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneJSON(item)
		}
		return out
	default:
		return v
	}
}
