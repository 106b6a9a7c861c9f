// Package notification parses and classifies the SES delivery-status
// documents carried inside verified SNS envelopes.
package notification

import "encoding/json"

// Notification types SES emits. Anything outside this set is logged as
// possible protocol drift and rejected.
const (
	TypeBounce    = "Bounce"
	TypeComplaint = "Complaint"
	TypeDelivery  = "Delivery"
)

// Bounce classification strings for the known false-positive pattern.
// Some receiving providers (gmx among them) and autoresponders raise
// Transient/General bounces for mail that was actually accepted, so that
// exact combination is suppressed rather than acted on.
const (
	bounceTypeTransient  = "Transient"
	bounceSubTypeGeneral = "General"
)

// Notification is the inner SES document parsed from Envelope.Message.
type Notification struct {
	NotificationType string     `json:"notificationType"`
	Bounce           *Bounce    `json:"bounce,omitempty"`
	Complaint        *Complaint `json:"complaint,omitempty"`
	Mail             Mail       `json:"mail"`
}

// Bounce describes a rejected delivery.
type Bounce struct {
	BounceType        string      `json:"bounceType"`
	BounceSubType     string      `json:"bounceSubType"`
	BouncedRecipients []Recipient `json:"bouncedRecipients"`
	Timestamp         string      `json:"timestamp"`
	FeedbackID        string      `json:"feedbackId"`
}

// Complaint describes a recipient marking the message as spam.
type Complaint struct {
	ComplainedRecipients  []Recipient `json:"complainedRecipients"`
	ComplaintFeedbackType string      `json:"complaintFeedbackType"`
	Timestamp             string      `json:"timestamp"`
	FeedbackID            string      `json:"feedbackId"`
}

// Recipient is a single affected address within a bounce or complaint.
type Recipient struct {
	EmailAddress   string `json:"emailAddress"`
	Status         string `json:"status,omitempty"`
	DiagnosticCode string `json:"diagnosticCode,omitempty"`
}

// Mail describes the original outbound message the notification refers to.
type Mail struct {
	MessageID   string   `json:"messageId"`
	Source      string   `json:"source"`
	Destination []string `json:"destination"`
	Timestamp   string   `json:"timestamp"`
}

// Parse decodes the inner notification document.
func Parse(raw string) (*Notification, error) {
	var n Notification
	if err := json.Unmarshal([]byte(raw), &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// isTransientGeneral reports whether the bounce matches the suppressed
// false-positive pattern.
func (n *Notification) isTransientGeneral() bool {
	return n.Bounce != nil &&
		n.Bounce.BounceType == bounceTypeTransient &&
		n.Bounce.BounceSubType == bounceSubTypeGeneral
}
