package models

import "time"

// AttorneyProfile holds the firm/attorney contact block used to auto-fill
// profile variables (signature blocks, captions). One row per attorney;
// the firm's primary profile answers GetFirmProfile.
type AttorneyProfile struct {
	ID           string `gorm:"type:varchar(36);primaryKey" json:"id"`
	FirmID       string `gorm:"type:varchar(64);not null;uniqueIndex:idx_profiles_firm_bar,priority:1" json:"firm_id"`
	AttorneyName string `gorm:"not null" json:"attorney_name"`
	BarNumber    string `gorm:"type:varchar(32);not null;uniqueIndex:idx_profiles_firm_bar,priority:2" json:"bar_number"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Fax          string `json:"fax"`
	FirmName     string `json:"firm_name"`
	FirmAddress  string `json:"firm_address"`
	FirmCity     string `json:"firm_city"`
	FirmState    string `json:"firm_state"`
	FirmZip      string `json:"firm_zip"`
	IsPrimary    bool   `gorm:"default:false" json:"is_primary"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AttorneyProfile) TableName() string {
	return "attorney_profiles"
}

// ProfileValues maps the profile onto the variable names templates use.
// These variables are never asked of the user.
func (p *AttorneyProfile) ProfileValues() map[string]string {
	firmName := p.FirmName
	if firmName == "" {
		firmName = p.AttorneyName
	}
	values := map[string]string{
		"attorney_name":       p.AttorneyName,
		"attorney_bar":        p.BarNumber,
		"bar_number":          p.BarNumber,
		"attorney_bar_number": p.BarNumber,
		"attorney_email":      p.Email,
		"email":               p.Email,
		"phone":               p.Phone,
		"firm_name":           firmName,
		"firm_address":        p.FirmAddress,
		"firm_city_state_zip": p.FirmCity + ", " + p.FirmState + " " + p.FirmZip,
		"firm_phone":          p.Phone,
	}
	if p.Fax != "" {
		values["fax"] = p.Fax
		values["firm_fax"] = p.Fax
	}
	return values
}
