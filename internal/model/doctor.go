package model

import "fmt"

type AvailabilityStatus string

const (
	AvailabilityAvailable   AvailabilityStatus = "available"
	AvailabilityUnavailable AvailabilityStatus = "unavailable"
	AvailabilityOnLeave     AvailabilityStatus = "on_leave"
)

type Doctor struct {
	Base
	FirstName          string             `db:"first_name" json:"first_name"`
	LastName           string             `db:"last_name" json:"last_name"`
	FullName           string             `db:"full_name" json:"full_name"`
	Specialization     string             `db:"specialization" json:"specialization"`
	Email              string             `db:"email" json:"email"`
	PhoneNumber        string             `db:"phone_number" json:"phone_number"`
	YearsOfExperience  int                `db:"years_of_experience" json:"years_of_experience"`
	Bio                string             `db:"bio" json:"bio,omitempty"`
	AvailabilityStatus AvailabilityStatus `db:"availability_status" json:"availability_status"`
}

// DeriveFullName keeps full_name in sync with the name parts.
func (d *Doctor) DeriveFullName() {
	switch {
	case d.FirstName != "" && d.LastName != "":
		d.FullName = fmt.Sprintf("%s %s", d.FirstName, d.LastName)
	case d.FirstName != "":
		d.FullName = d.FirstName
	default:
		d.FullName = "Unknown"
	}
}

type CreateDoctorRequest struct {
	FirstName         string `json:"first_name" binding:"required"`
	LastName          string `json:"last_name" binding:"required"`
	Specialization    string `json:"specialization" binding:"required"`
	Email             string `json:"email" binding:"required,email"`
	PhoneNumber       string `json:"phone_number" binding:"required"`
	YearsOfExperience int    `json:"years_of_experience" binding:"omitempty,min=0"`
	Bio               string `json:"bio"`
}

type UpdateDoctorRequest struct {
	FirstName          *string             `json:"first_name"`
	LastName           *string             `json:"last_name"`
	Specialization     *string             `json:"specialization"`
	Email              *string             `json:"email" binding:"omitempty,email"`
	PhoneNumber        *string             `json:"phone_number"`
	YearsOfExperience  *int                `json:"years_of_experience" binding:"omitempty,min=0"`
	Bio                *string             `json:"bio"`
	AvailabilityStatus *AvailabilityStatus `json:"availability_status"`
}

type DoctorFilters struct {
	Specialization     string
	AvailabilityStatus AvailabilityStatus
}
