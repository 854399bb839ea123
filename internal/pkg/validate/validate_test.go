package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	To   string `validate:"required,email|e164"`
	Role string `validate:"required,subject_type"`
	OTP  string `validate:"omitempty,otp"`
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(&sample{To: "alice@example.com", Role: "doctor", OTP: "123456"}))
	assert.NoError(t, Struct(&sample{To: "+15551234567", Role: "LAB_ADMIN"}))
}

func TestStruct_ReportsFieldAndTag(t *testing.T) {
	err := Struct(&sample{To: "not-an-address", Role: "patient", OTP: "12ab"})
	assert.ErrorContains(t, err, "field 'To' failed 'email|e164'")
	assert.ErrorContains(t, err, "field 'Role' failed 'subject_type'")
	assert.ErrorContains(t, err, "field 'OTP' failed 'otp'")
}

func TestStruct_OTPTooLong(t *testing.T) {
	err := Struct(&sample{To: "a@b.com", Role: "doctor", OTP: "1234567"})
	assert.ErrorContains(t, err, "failed 'otp'")
}
