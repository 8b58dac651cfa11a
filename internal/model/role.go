// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for tasks, messages, and roles.
package model

import "strings"

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role identifies the access level of the logged-in worker. The set is
// closed: any role string the backend hands us that we do not recognize
// collapses to RoleUser, the least privileged level.
type Role int

const (
	// RoleUser is the default role. Unknown or blank role strings map here.
	RoleUser Role = iota

	// RoleAssociate is a regular task participant.
	RoleAssociate

	// RoleTeamLead leads a task team but still validates access per task.
	RoleTeamLead

	// RoleDirector bypasses per-worker access validation and may open any
	// task room that exists.
	RoleDirector
)

// ParseRole converts a raw role string from the identity record into a Role.
// Matching is tolerant: any string containing "Director" grants the director
// role (titles like "Senior Director" appear in the wild), other known names
// match case-insensitively, and everything else falls back to RoleUser.
func ParseRole(raw string) Role {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return RoleUser
	}
	if strings.Contains(raw, "Director") {
		return RoleDirector
	}
	switch strings.ToLower(raw) {
	case "team lead", "teamlead", "manager":
		return RoleTeamLead
	case "associate", "worker":
		return RoleAssociate
	default:
		return RoleUser
	}
}

// String returns the canonical display name for the role.
func (r Role) String() string {
	switch r {
	case RoleDirector:
		return "Director"
	case RoleTeamLead:
		return "Team Lead"
	case RoleAssociate:
		return "Associate"
	default:
		return "User"
	}
}

// BypassesAccessCheck reports whether this role may enter any existing task
// room without a per-worker validation round trip.
func (r Role) BypassesAccessCheck() bool {
	return r == RoleDirector
}
