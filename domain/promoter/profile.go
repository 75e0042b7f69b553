// Package promoter describes the publisher's sales representative who signs
// the follow-up emails.
package promoter

import "time"

// Profile is the single promoter profile of an installation
type Profile struct {
	ID        int64     `json:"id" db:"id"`
	FullName  string    `json:"full_name" db:"full_name" form:"full_name" validate:"required,max=200"`
	Phone     string    `json:"phone" db:"phone" form:"phone" validate:"omitempty,max=40"`
	Email     string    `json:"email" db:"email" form:"email" validate:"omitempty,email"`
	Territory string    `json:"territory" db:"territory" form:"territory" validate:"omitempty,max=200"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Signature is the closing block appended to emails
func (p Profile) Signature() string {
	sig := p.FullName
	if p.Territory != "" {
		sig += "\n" + p.Territory
	}
	if p.Phone != "" {
		sig += "\nTel. " + p.Phone
	}
	if p.Email != "" {
		sig += "\n" + p.Email
	}
	return sig
}
