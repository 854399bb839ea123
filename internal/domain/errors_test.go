package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("validate: %w", E(KindTypeMismatch, "store.validate", "type differs", nil))
	assert.True(t, errors.Is(err, ErrTypeMismatch))
	assert.False(t, errors.Is(err, ErrBadSecret))
	assert.Equal(t, KindTypeMismatch, KindOf(err))
}

func TestError_UnwrapsCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := E(KindDeliveryFailed, "deliver", "attempts exhausted", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "deliver: attempts exhausted: dial tcp: connection refused", err.Error())
}

func TestError_PublicOmitsOpAndCause(t *testing.T) {
	err := fmt.Errorf("wrap: %w", E(KindValidationInput, "credential.validate", "field 'UserID' failed 'alphanum'", errors.New("inner")))
	assert.Equal(t, "field 'UserID' failed 'alphanum'", PublicMessage(err))
	assert.Equal(t, "not_found", E(KindNotFound, "store.validate", "", nil).Public())
	assert.Equal(t, "internal", PublicMessage(errors.New("boom")))
}

func TestKindOf_PlainErrorIsInternal(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestParseSubjectType(t *testing.T) {
	cases := map[string]SubjectType{
		"doctor":         SubjectDoctor,
		"DOCTOR":         SubjectDoctor,
		" Lab ":          SubjectLab,
		"lab_admin":      SubjectLab,
		"LAB_ADMIN":      SubjectLab,
		"hospital":       SubjectHospital,
		"hospital_admin": SubjectHospital,
	}
	for in, want := range cases {
		got, ok := ParseSubjectType(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "patient", "nurse", "labadmin"} {
		_, ok := ParseSubjectType(in)
		assert.False(t, ok, in)
	}
}

func TestSubjectType_Prefix(t *testing.T) {
	assert.Equal(t, "DOC", SubjectDoctor.Prefix())
	assert.Equal(t, "LAB", SubjectLab.Prefix())
	assert.Equal(t, "HOS", SubjectHospital.Prefix())
	assert.Equal(t, "", SubjectType("patient").Prefix())
	assert.False(t, SubjectType("patient").Valid())
}
