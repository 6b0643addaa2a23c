package domain

import (
	"math"
	"slices"
	"strings"
	"time"
)

// CommonSkills returns the skills present in both lists, compared
// case-insensitively, in the order they appear in a. Duplicates are dropped.
func CommonSkills(a, b []string) []string {
	have := make(map[string]struct{}, len(b))
	for _, s := range b {
		have[strings.ToLower(s)] = struct{}{}
	}
	seen := make(map[string]struct{}, len(a))
	out := []string{}
	for _, s := range a {
		key := strings.ToLower(s)
		if _, ok := have[key]; !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Compatibility scores two skill sets from 0 to 100 by the share of distinct
// skills they have in common.
func Compatibility(a, b []string) float64 {
	union := make(map[string]struct{}, len(a)+len(b))
	for _, s := range a {
		union[strings.ToLower(s)] = struct{}{}
	}
	for _, s := range b {
		union[strings.ToLower(s)] = struct{}{}
	}
	if len(union) == 0 {
		return 0
	}
	common := len(CommonSkills(a, b))
	return math.Round(float64(common)/float64(len(union))*1000) / 10
}

// NewMatch pairs subject with other based on their skills.
func NewMatch(subject User, other User, now time.Time) Match {
	return Match{
		ID:              NewID(),
		UserID:          subject.ID,
		MatchedUserID:   other.ID,
		Score:           Compatibility(subject.Skills, other.Skills),
		CommonSkills:    CommonSkills(subject.Skills, other.Skills),
		MutualInterests: []string{},
		CreatedAt:       now,
	}
}

// ProjectFilter narrows a project list. Zero fields match everything.
type ProjectFilter struct {
	Query    string        `json:"query"`
	Category string        `json:"category"`
	Status   ProjectStatus `json:"status"`
	// Skills must all be present on a project for it to match.
	Skills []string `json:"skills"`
}

// FilterProjects returns the projects matching f, keeping their order.
func FilterProjects(projects []Project, f ProjectFilter) []Project {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]Project, 0, len(projects))
	for _, p := range projects {
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Title), query) &&
			!strings.Contains(strings.ToLower(p.Description), query) {
			continue
		}
		if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if len(CommonSkills(f.Skills, p.Skills)) != len(dedupFold(f.Skills)) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// ToggleSkill returns a copy of skills with skill removed if present, or
// appended otherwise. Skills compare case-insensitively.
func ToggleSkill(skills []string, skill string) []string {
	match := func(s string) bool { return strings.EqualFold(s, skill) }
	if slices.ContainsFunc(skills, match) {
		return slices.DeleteFunc(slices.Clone(skills), match)
	}
	return append(slices.Clone(skills), skill)
}

func dedupFold(skills []string) []string {
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		if !slices.ContainsFunc(out, func(o string) bool { return strings.EqualFold(o, s) }) {
			out = append(out, s)
		}
	}
	return out
}
