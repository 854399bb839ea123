package dynamo

// Attribute names of the delivery audit table.
const (
	fieldDeliveryID = "delivery_id"
	fieldRecipient  = "recipient"
	fieldCreatedAt  = "created_at"
	fieldExpiresAt  = "expires_at"

	recipientIndex = "recipient-created_at-index"
)
