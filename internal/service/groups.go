package service

import (
	"sort"
	"strings"

	"github.com/courseforge/usersync/internal/model"
)

// DiffGroups computes the reconciliation delta between two group
// membership snapshots. It is pure so the result can be computed once and
// handed to every external system, guaranteeing they all observe the same
// delta even though they are called independently.
func DiffGroups(oldGroups, newGroups []string) model.GroupDelta {
	oldSet := make(map[string]struct{}, len(oldGroups))
	for _, g := range oldGroups {
		oldSet[g] = struct{}{}
	}
	newSet := make(map[string]struct{}, len(newGroups))
	for _, g := range newGroups {
		newSet[g] = struct{}{}
	}

	var delta model.GroupDelta
	for g := range newSet {
		if _, ok := oldSet[g]; !ok {
			delta.Added = append(delta.Added, g)
		}
	}
	for g := range oldSet {
		if _, ok := newSet[g]; !ok {
			delta.Removed = append(delta.Removed, g)
		}
	}

	sort.Strings(delta.Added)
	sort.Strings(delta.Removed)
	return delta
}

// RoleRules maps group names to derived authorities.
type RoleRules struct {
	AdminGroup            string
	InstructorGroupSuffix string
	TAGroupSuffix         string
}

// Authorities derives the authority set from a group set. Every user
// holds RoleUser; the rest follow from the role rules.
func (r RoleRules) Authorities(groups []string) []string {
	authorities := []string{model.RoleUser}

	hasTA, hasInstructor, hasAdmin := false, false, false
	for _, g := range groups {
		switch {
		case r.AdminGroup != "" && g == r.AdminGroup:
			hasAdmin = true
		case r.InstructorGroupSuffix != "" && strings.HasSuffix(g, r.InstructorGroupSuffix):
			hasInstructor = true
		case r.TAGroupSuffix != "" && strings.HasSuffix(g, r.TAGroupSuffix):
			hasTA = true
		}
	}

	if hasTA {
		authorities = append(authorities, model.RoleTA)
	}
	if hasInstructor {
		authorities = append(authorities, model.RoleInstructor)
	}
	if hasAdmin {
		authorities = append(authorities, model.RoleAdmin)
	}
	return authorities
}
