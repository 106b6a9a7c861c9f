// Package sns implements parsing and cryptographic verification of inbound
// Amazon SNS envelopes. Every notification the webhook receives is wrapped
// in one of these signed envelopes; nothing in the payload is trusted until
// Verify has passed.
package sns

import "encoding/json"

// Envelope message types. SNS delivers exactly these strings in the
// envelope's Type field; anything else is treated as unhandled.
const (
	TypeSubscriptionConfirmation = "SubscriptionConfirmation"
	TypeUnsubscribeConfirmation  = "UnsubscribeConfirmation"
	TypeNotification             = "Notification"
)

// Envelope is the outer signed message posted by SNS. Field names match
// the JSON document SNS emits.
type Envelope struct {
	Type             string `json:"Type"`
	MessageID        string `json:"MessageId"`
	Token            string `json:"Token"`
	TopicArn         string `json:"TopicArn"`
	Subject          string `json:"Subject"`
	Message          string `json:"Message"`
	SubscribeURL     string `json:"SubscribeURL"`
	Timestamp        string `json:"Timestamp"`
	SignatureVersion string `json:"SignatureVersion"`
	Signature        string `json:"Signature"`
	SigningCertURL   string `json:"SigningCertURL"`
	UnsubscribeURL   string `json:"UnsubscribeURL"`
}

// Parse decodes a raw POST body into an Envelope.
func Parse(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// canonicalString rebuilds the exact byte sequence SNS signed: the signed
// key names in byte order, each followed by its value, one per line with a
// trailing newline. The signed-field set depends on the envelope type.
// Getting any of this wrong makes verification fail silently, which is the
// intended behavior for a tampered message.
func (e *Envelope) canonicalString() []byte {
	var pairs []struct{ k, v string }

	switch e.Type {
	case TypeSubscriptionConfirmation, TypeUnsubscribeConfirmation:
		pairs = []struct{ k, v string }{
			{"Message", e.Message},
			{"MessageId", e.MessageID},
			{"SubscribeURL", e.SubscribeURL},
			{"Timestamp", e.Timestamp},
			{"Token", e.Token},
			{"TopicArn", e.TopicArn},
			{"Type", e.Type},
		}
	default:
		// Notification. Subject is only signed when present.
		pairs = []struct{ k, v string }{
			{"Message", e.Message},
			{"MessageId", e.MessageID},
		}
		if e.Subject != "" {
			pairs = append(pairs, struct{ k, v string }{"Subject", e.Subject})
		}
		pairs = append(pairs,
			struct{ k, v string }{"Timestamp", e.Timestamp},
			struct{ k, v string }{"TopicArn", e.TopicArn},
			struct{ k, v string }{"Type", e.Type},
		)
	}

	var buf []byte
	for _, p := range pairs {
		buf = append(buf, p.k...)
		buf = append(buf, '\n')
		buf = append(buf, p.v...)
		buf = append(buf, '\n')
	}
	return buf
}
