package port

import "context"

// StatusNotice describes a review outcome the record owner is told about.
type StatusNotice struct {
	ToEmail string
	ToName  string
	// Subject names what changed, e.g. "NTN certificate" or "Tax filing 2024-2025".
	Subject string
	Status  string
	Reason  string
}

// EmailSender defines the contract for sending emails.
type EmailSender interface {
	SendDocumentStatusEmail(ctx context.Context, notice StatusNotice) error
	SendFilingStatusEmail(ctx context.Context, notice StatusNotice) error
}
