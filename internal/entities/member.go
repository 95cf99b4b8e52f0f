// Package entities contains core business entities.
package entities

import (
	"strings"
	"time"
)

// Member is a person record of the membership dataset.
type Member struct {
	ID               string    `json:"id"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone,omitempty"`
	Mobile           string    `json:"mobile,omitempty"`
	CompanyID        string    `json:"company_id,omitempty"`
	CompanyName      string    `json:"company_name,omitempty"`
	StreetAddress    string    `json:"street_address,omitempty"`
	Suburb           string    `json:"suburb,omitempty"`
	Postcode         string    `json:"postcode,omitempty"`
	State            string    `json:"state,omitempty"`
	Country          string    `json:"country,omitempty"`
	MembershipStatus string    `json:"membership_status,omitempty"`
	MembershipType   string    `json:"membership_type,omitempty"`
	Bio              string    `json:"bio,omitempty"`
	CPDPointsTotal   float64   `json:"cpd_points_total"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Mergeable field names, as used in MergeConfig.FieldsToKeep.
const (
	FieldFirstName        = "first_name"
	FieldLastName         = "last_name"
	FieldEmail            = "email"
	FieldPhone            = "phone"
	FieldMobile           = "mobile"
	FieldCompanyID        = "company_id"
	FieldCompanyName      = "company_name"
	FieldStreetAddress    = "street_address"
	FieldSuburb           = "suburb"
	FieldPostcode         = "postcode"
	FieldState            = "state"
	FieldCountry          = "country"
	FieldMembershipStatus = "membership_status"
	FieldMembershipType   = "membership_type"
	FieldBio              = "bio"
)

var mergeableFields = []string{
	FieldFirstName,
	FieldLastName,
	FieldEmail,
	FieldPhone,
	FieldMobile,
	FieldCompanyID,
	FieldCompanyName,
	FieldStreetAddress,
	FieldSuburb,
	FieldPostcode,
	FieldState,
	FieldCountry,
	FieldMembershipStatus,
	FieldMembershipType,
	FieldBio,
}

// MergeableFields returns the ordered list of fields a merge may reconcile.
func MergeableFields() []string {
	cp := make([]string, len(mergeableFields))
	copy(cp, mergeableFields)
	return cp
}

// IsMergeableField reports whether name is a known mergeable field.
func IsMergeableField(name string) bool {
	_, ok := fieldRef(&Member{}, name)
	return ok
}

// Field returns the value of a mergeable field.
func (m Member) Field(name string) (string, bool) {
	ref, ok := fieldRef(&m, name)
	if !ok {
		return "", false
	}
	return *ref, true
}

// SetField overwrites a mergeable field. It returns false for unknown names.
func (m *Member) SetField(name, value string) bool {
	ref, ok := fieldRef(m, name)
	if !ok {
		return false
	}
	*ref = value
	return true
}

func fieldRef(m *Member, name string) (*string, bool) {
	switch name {
	case FieldFirstName:
		return &m.FirstName, true
	case FieldLastName:
		return &m.LastName, true
	case FieldEmail:
		return &m.Email, true
	case FieldPhone:
		return &m.Phone, true
	case FieldMobile:
		return &m.Mobile, true
	case FieldCompanyID:
		return &m.CompanyID, true
	case FieldCompanyName:
		return &m.CompanyName, true
	case FieldStreetAddress:
		return &m.StreetAddress, true
	case FieldSuburb:
		return &m.Suburb, true
	case FieldPostcode:
		return &m.Postcode, true
	case FieldState:
		return &m.State, true
	case FieldCountry:
		return &m.Country, true
	case FieldMembershipStatus:
		return &m.MembershipStatus, true
	case FieldMembershipType:
		return &m.MembershipType, true
	case FieldBio:
		return &m.Bio, true
	default:
		return nil, false
	}
}

// FullName joins first and last name.
func (m Member) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}
