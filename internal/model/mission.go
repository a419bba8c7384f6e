package model

import "time"

// MissionStatus is the lifecycle state of a mission.
type MissionStatus string

const (
    MissionPending    MissionStatus = "pending"
    MissionAssigned   MissionStatus = "assigned"
    MissionInProgress MissionStatus = "in_progress"
    MissionCompleted  MissionStatus = "completed"
    MissionCancelled  MissionStatus = "cancelled"
)

// MissionStatuses lists every status in lifecycle order.
var MissionStatuses = []MissionStatus{MissionPending, MissionAssigned, MissionInProgress, MissionCompleted, MissionCancelled}

// Valid reports whether s is a known status.
func (s MissionStatus) Valid() bool {
    for _, v := range MissionStatuses {
        if v == s {
            return true
        }
    }
    return false
}

// Terminal reports whether no transition may leave s.
func (s MissionStatus) Terminal() bool { return s == MissionCompleted || s == MissionCancelled }

// Active reports whether s counts as an active mission on the dashboard.
func (s MissionStatus) Active() bool { return s == MissionAssigned || s == MissionInProgress }

// MissionPriority ranks missions for dispatch.
type MissionPriority string

const (
    PriorityNormal  MissionPriority = "normal"
    PriorityUrgent  MissionPriority = "urgent"
    PriorityExpress MissionPriority = "express"
)

// Valid reports whether p is a known priority.
func (p MissionPriority) Valid() bool {
    return p == PriorityNormal || p == PriorityUrgent || p == PriorityExpress
}

// Mission mirrors the `missions` table.  MissionNumber is the immutable
// external tracking key.  DriverID and ClientID reference profiles.id.
type Mission struct {
    ID                  uint64
    ClientID            uint64
    DriverID            *uint64
    MissionNumber       string
    DepartureAddress    string
    DepartureCity       string
    DeparturePostalCode string
    ArrivalAddress      string
    ArrivalCity         string
    ArrivalPostalCode   string
    ScheduledDate       time.Time
    ScheduledTime       *string
    ActualStartTime     *time.Time
    ActualEndTime       *time.Time
    DistanceKm          *float64
    Price               *float64
    Status              MissionStatus
    Priority            MissionPriority
    Notes               *string
    CreatedAt           time.Time
    UpdatedAt           time.Time
}

// AssignedTo reports whether profileID is the mission's driver.
func (m Mission) AssignedTo(profileID uint64) bool {
    return m.DriverID != nil && *m.DriverID == profileID
}
