package model

import "strings"

// Role is the closed set of profile roles.
type Role string

const (
    RoleAdmin  Role = "admin"
    RoleDriver Role = "driver"
    RoleClient Role = "client"
)

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
    switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
    case RoleAdmin, RoleDriver, RoleClient:
        return r, true
    }
    return "", false
}

// SignupAllowed reports whether r may be chosen at public signup.
func (r Role) SignupAllowed() bool { return r == RoleClient || r == RoleDriver }

// Capability names an operation guarded by the authorization gate.
type Capability string

const (
    CapMissionUpdateStatus Capability = "mission:update_status"
    CapMissionList         Capability = "mission:list"
    CapMissionManage       Capability = "mission:manage"
    CapDashboardView       Capability = "dashboard:view"
    CapAttachmentRead      Capability = "attachment:read"
    CapQuoteManage         Capability = "quote:manage"
)

var capabilities = map[Capability][]Role{
    CapMissionUpdateStatus: {RoleAdmin, RoleDriver},
    CapMissionList:         {RoleAdmin, RoleDriver, RoleClient},
    CapMissionManage:       {RoleAdmin},
    CapDashboardView:       {RoleAdmin},
    CapAttachmentRead:      {RoleAdmin},
    CapQuoteManage:         {RoleAdmin},
}

// RolesFor returns the roles granted c.  Unknown capabilities grant nothing.
func RolesFor(c Capability) []Role {
    return append([]Role(nil), capabilities[c]...)
}

// Can reports whether r holds capability c.
func (r Role) Can(c Capability) bool {
    for _, allowed := range capabilities[c] {
        if allowed == r {
            return true
        }
    }
    return false
}
