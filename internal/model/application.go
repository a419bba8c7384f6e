package model

import "time"

// ApplicationStatus tracks a recruitment submission.
type ApplicationStatus string

const (
    ApplicationNew      ApplicationStatus = "new"
    ApplicationInReview ApplicationStatus = "in_review"
    ApplicationApproved ApplicationStatus = "approved"
    ApplicationRejected ApplicationStatus = "rejected"
)

// DriverApplication mirrors the `driver_applications` table.  LicenseTypes
// and Regions are stored as JSON arrays.
type DriverApplication struct {
    ID              uint64
    FullName        string
    Email           string
    Phone           string
    YearsExperience int
    LicenseTypes    []string
    Regions         []string
    Availability    string
    HasOwnVehicle   bool
    HasCompany      bool
    Message         *string
    Status          ApplicationStatus
    CreatedAt       time.Time
    UpdatedAt       time.Time
}
