package suppression

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/ignite/ses-bounce-handler/internal/domain"
)

type mockSESClient struct {
	inputs []*sesv2.PutSuppressedDestinationInput
	err    error
}

func (m *mockSESClient) PutSuppressedDestination(_ context.Context, params *sesv2.PutSuppressedDestinationInput, _ ...func(*sesv2.Options)) (*sesv2.PutSuppressedDestinationOutput, error) {
	m.inputs = append(m.inputs, params)
	if m.err != nil {
		return nil, m.err
	}
	return &sesv2.PutSuppressedDestinationOutput{}, nil
}

func TestSuppress_Bounce(t *testing.T) {
	client := &mockSESClient{}
	s := NewSyncerWithClient(client)

	if err := s.Suppress(context.Background(), domain.ReasonBounce, "a@x.com"); err != nil {
		t.Fatalf("Suppress: %v", err)
	}

	if len(client.inputs) != 1 {
		t.Fatalf("calls = %d, want 1", len(client.inputs))
	}
	in := client.inputs[0]
	if *in.EmailAddress != "a@x.com" {
		t.Errorf("email = %q, want a@x.com", *in.EmailAddress)
	}
	if in.Reason != types.SuppressionListReasonBounce {
		t.Errorf("reason = %q, want BOUNCE", in.Reason)
	}
}

func TestSuppress_Complaint(t *testing.T) {
	client := &mockSESClient{}
	s := NewSyncerWithClient(client)

	if err := s.Suppress(context.Background(), domain.ReasonComplaint, "b@x.com"); err != nil {
		t.Fatalf("Suppress: %v", err)
	}

	if client.inputs[0].Reason != types.SuppressionListReasonComplaint {
		t.Errorf("reason = %q, want COMPLAINT", client.inputs[0].Reason)
	}
}

func TestSuppress_PropagatesError(t *testing.T) {
	client := &mockSESClient{err: errors.New("throttled")}
	s := NewSyncerWithClient(client)

	if err := s.Suppress(context.Background(), domain.ReasonBounce, "a@x.com"); err == nil {
		t.Fatal("expected error")
	}
}
