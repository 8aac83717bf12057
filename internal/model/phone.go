package model

import (
	"fmt"
	"strings"

	"github.com/ttacon/libphonenumber"
)

// ValidatePhoneNumber checks that phone is a valid number for the region
// (ISO 3166 code, e.g. "PK").
func ValidatePhoneNumber(phone, region string) error {
	p, err := libphonenumber.Parse(phone, region)
	if err != nil {
		return err
	}
	if !libphonenumber.IsValidNumber(p) {
		return fmt.Errorf("phone number is not valid")
	}
	return nil
}

// NormalizePhone returns phone in E.164 form when it is a valid number for
// region. Anything else is returned trimmed but otherwise untouched, since
// field data often carries extensions or partial numbers.
func NormalizePhone(phone, region string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" || region == "" {
		return phone
	}
	if err := ValidatePhoneNumber(phone, region); err != nil {
		return phone
	}
	p, err := libphonenumber.Parse(phone, region)
	if err != nil {
		return phone
	}
	return libphonenumber.Format(p, libphonenumber.E164)
}
