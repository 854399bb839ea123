package domain

import "time"

// Delivery purposes.
const (
	PurposeOTP         = "otp"
	PurposeCredentials = "credentials"
)

// Delivery outcomes.
const (
	DeliverySent       = "sent"
	DeliverySuppressed = "suppressed"
	DeliveryFailed     = "failed"
)

// Delivery is one audit entry for a dispatch decision. It never carries a secret.
// PK: delivery_id. ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type Delivery struct {
	DeliveryID string    `json:"id" dynamodbav:"delivery_id"`
	Recipient  string    `json:"recipient" dynamodbav:"recipient"`
	Purpose    string    `json:"purpose" dynamodbav:"purpose"`
	Role       string    `json:"role" dynamodbav:"role"`
	SubjectID  *string   `json:"subject_id,omitempty" dynamodbav:"subject_id,omitempty"`
	Status     string    `json:"status" dynamodbav:"status"`
	Reason     string    `json:"reason,omitempty" dynamodbav:"reason,omitempty"`
	CreatedAt  time.Time `json:"created" dynamodbav:"created_at"`
	ExpiresAt  int64     `json:"expires_at" dynamodbav:"expires_at"`
}

// Message is one rendered notification handed to a channel.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
	HTML    bool
}
