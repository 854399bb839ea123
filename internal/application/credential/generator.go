package credential

import (
	"fmt"

	"github.com/credential-relay/internal/domain"
	"github.com/credential-relay/internal/pkg/secret"
)

// maxIdentifierAttempts bounds regeneration when the drawn id is taken.
const maxIdentifierAttempts = 10

// OTPLength is the number of digits in a one-time code.
const OTPLength = 6

type reserver interface {
	Reserve(subjectID string) bool
}

// intn is swapped in tests to force collisions.
var intn = secret.Intn

// NewIdentifier draws <PREFIX><nnn> with nnn in [001,999] and reserves it in
// store. The caller must either Store or Release the returned id.
func NewIdentifier(store reserver, t domain.SubjectType) (string, error) {
	const op = "credential.new_identifier"
	if !t.Valid() {
		return "", domain.E(domain.KindValidationInput, op, "unknown subject type "+string(t), nil)
	}
	for i := 0; i < maxIdentifierAttempts; i++ {
		n, err := intn(999)
		if err != nil {
			return "", domain.E(domain.KindInternal, op, "random source", err)
		}
		id := fmt.Sprintf("%s%03d", t.Prefix(), n+1)
		if store.Reserve(id) {
			return id, nil
		}
	}
	return "", domain.E(domain.KindIdentifierExhausted, op,
		fmt.Sprintf("no free %s identifier after %d attempts", t, maxIdentifierAttempts), nil)
}

// NewSecret returns a password with at least one upper, lower, digit and symbol.
func NewSecret() (string, error) {
	return secret.Password(secret.DefaultPasswordLength)
}

// NewOTP returns a zero-padded numeric code of OTPLength digits.
func NewOTP() (string, error) {
	return secret.Digits(OTPLength)
}
