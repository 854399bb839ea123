package domain

import "time"

// OTPRequest asks for a one-time code to be delivered. When OTP is empty a
// fresh six-digit code is minted and returned in OTPResult.
type OTPRequest struct {
	To   string `json:"to" validate:"required,email|e164"`
	OTP  string `json:"otp" validate:"omitempty,otp"`
	Role string `json:"role" validate:"required,subject_type"`
}

type OTPResult struct {
	OTP        string `json:"-"`
	Suppressed bool   `json:"suppressed"`
}

// AccountRequest provisions a credential for a new doctor, lab or hospital
// account. Details carries the human-readable fields shown in the message.
type AccountRequest struct {
	To          string            `json:"to" validate:"required,email"`
	AccountType string            `json:"accountType" validate:"required,subject_type"`
	Details     map[string]string `json:"details" validate:"required"`
}

type AccountResult struct {
	SubjectID   string      `json:"id,omitempty"`
	Secret      string      `json:"password,omitempty"`
	SubjectType SubjectType `json:"type,omitempty"`
	Suppressed  bool        `json:"suppressed"`
}

type ValidateRequest struct {
	UserID   string `json:"userId" validate:"required,alphanum,min=4,max=16"`
	Password string `json:"password" validate:"required"`
	UserType string `json:"userType" validate:"required,subject_type"`
}

type ValidateResult struct {
	SubjectID   string        `json:"userId"`
	SubjectType SubjectType   `json:"userType"`
	Remaining   time.Duration `json:"-"`
}
