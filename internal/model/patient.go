package model

import (
	"fmt"
	"time"
)

type Patient struct {
	Base
	FirstName     string     `db:"first_name" json:"first_name"`
	LastName      string     `db:"last_name" json:"last_name"`
	FullName      string     `db:"full_name" json:"full_name"`
	DateOfBirth   *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Age           string     `db:"age" json:"age,omitempty"`
	Gender        string     `db:"gender" json:"gender,omitempty"`
	Email         string     `db:"email" json:"email"`
	Phone         string     `db:"phone" json:"phone,omitempty"`
	IDDocument    string     `db:"id_document" json:"id_document,omitempty"`
	InsuranceCard string     `db:"insurance_card" json:"insurance_card,omitempty"`
}

// PatientInfo is the subset embedded in appointment listings.
type PatientInfo struct {
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	Age       string `db:"age" json:"age,omitempty"`
	Gender    string `db:"gender" json:"gender,omitempty"`
	Email     string `db:"email" json:"email"`
}

// DeriveFullName keeps full_name in sync with the name parts.
func (p *Patient) DeriveFullName() {
	switch {
	case p.FirstName != "" && p.LastName != "":
		p.FullName = fmt.Sprintf("%s %s", p.FirstName, p.LastName)
	case p.FirstName != "":
		p.FullName = p.FirstName
	default:
		p.FullName = "Unknown"
	}
}

// DeriveAge computes the display age in whole years and months.
func (p *Patient) DeriveAge(now time.Time) {
	if p.DateOfBirth == nil {
		p.Age = ""
		return
	}

	dob := *p.DateOfBirth
	years := now.Year() - dob.Year()
	months := int(now.Month()) - int(dob.Month())
	days := now.Day() - dob.Day()

	if days < 0 {
		months--
	}
	if months < 0 {
		years--
		months += 12
	}

	p.Age = fmt.Sprintf("%d years, %d months", years, months)
}

type CreatePatientRequest struct {
	FirstName   string `json:"first_name" binding:"required"`
	LastName    string `json:"last_name" binding:"required"`
	DateOfBirth string `json:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	Gender      string `json:"gender"`
	Email       string `json:"email" binding:"required,email"`
	Phone       string `json:"phone"`
}

type UpdatePatientRequest struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	DateOfBirth *string `json:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	Gender      *string `json:"gender"`
	Email       *string `json:"email" binding:"omitempty,email"`
	Phone       *string `json:"phone"`
}

type UploadPatientFilesRequest struct {
	IDDocument    *string `json:"id_document"`
	InsuranceCard *string `json:"insurance_card"`
}
