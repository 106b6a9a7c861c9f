// Package suppression mirrors bounce and complaint addresses onto the SES
// account-level suppression list so SES itself stops accepting sends to
// them. The sync is best-effort: failures are reported to the caller for
// logging and never affect the webhook response.
package suppression

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/ignite/ses-bounce-handler/internal/domain"
)

// SESClientAPI defines the sesv2 client methods used by this package.
type SESClientAPI interface {
	PutSuppressedDestination(ctx context.Context, params *sesv2.PutSuppressedDestinationInput, optFns ...func(*sesv2.Options)) (*sesv2.PutSuppressedDestinationOutput, error)
}

// Syncer pushes addresses to the SES suppression list.
type Syncer struct {
	client SESClientAPI
}

// NewSyncer creates a Syncer with an AWS config resolved from the default
// credential chain for the given region.
func NewSyncer(ctx context.Context, region string) (*Syncer, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &Syncer{client: sesv2.NewFromConfig(awsCfg)}, nil
}

// NewSyncerWithClient creates a Syncer around an existing client (tests).
func NewSyncerWithClient(client SESClientAPI) *Syncer {
	return &Syncer{client: client}
}

// Suppress adds the address to the account-level suppression list.
// PutSuppressedDestination is idempotent on the SES side, so re-suppressing
// an address is harmless.
func (s *Syncer) Suppress(ctx context.Context, reason domain.SuppressionReason, email string) error {
	var sesReason types.SuppressionListReason
	switch reason {
	case domain.ReasonComplaint:
		sesReason = types.SuppressionListReasonComplaint
	default:
		sesReason = types.SuppressionListReasonBounce
	}

	_, err := s.client.PutSuppressedDestination(ctx, &sesv2.PutSuppressedDestinationInput{
		EmailAddress: aws.String(email),
		Reason:       sesReason,
	})
	if err != nil {
		return fmt.Errorf("put suppressed destination: %w", err)
	}
	return nil
}
