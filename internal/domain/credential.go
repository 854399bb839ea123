package domain

import (
	"strings"
	"time"
)

// SubjectType is the account kind a credential is issued for.
type SubjectType string

const (
	SubjectDoctor   SubjectType = "doctor"
	SubjectLab      SubjectType = "lab"
	SubjectHospital SubjectType = "hospital"
)

// SubjectTypes lists the closed set in a stable order.
var SubjectTypes = []SubjectType{SubjectDoctor, SubjectLab, SubjectHospital}

var subjectPrefixes = map[SubjectType]string{
	SubjectDoctor:   "DOC",
	SubjectLab:      "LAB",
	SubjectHospital: "HOS",
}

// ParseSubjectType normalizes raw case-insensitively, folding "lab_admin" into lab
// and "hospital_admin" into hospital. ok is false for anything outside the set.
func ParseSubjectType(raw string) (SubjectType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "doctor":
		return SubjectDoctor, true
	case "lab", "lab_admin":
		return SubjectLab, true
	case "hospital", "hospital_admin":
		return SubjectHospital, true
	}
	return "", false
}

// Prefix returns the identifier prefix for t ("" when t is not a known type).
func (t SubjectType) Prefix() string { return subjectPrefixes[t] }

// Valid reports whether t is one of the closed set.
func (t SubjectType) Valid() bool {
	_, ok := subjectPrefixes[t]
	return ok
}

// CredentialRecord is one issued credential held in memory until it expires.
// SecretHash is a bcrypt digest; the plaintext never reaches the store.
type CredentialRecord struct {
	SubjectID   string
	SecretHash  []byte
	SubjectType SubjectType
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// LiveAt reports whether the record is still valid at now.
func (r CredentialRecord) LiveAt(now time.Time) bool { return now.Before(r.ExpiresAt) }
