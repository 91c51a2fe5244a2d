package publishers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

const defaultMessageGroup = "assets"

// loadAWSConfig resolves region and credentials for an AWS-backed sink.
func loadAWSConfig(ctx context.Context, c AWSConfig) (aws.Config, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(c.Region)}
	if c.AccessKeyID != "" && c.SecretAccessKey != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, c.SessionToken),
		))
	}

	cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

// message is an Event rendered for a queue or topic.
type message struct {
	body  string
	attrs map[string]string
	// group and dedup are only sent to FIFO destinations.
	group string
	dedup string
}

func newMessage(evt Event) (message, error) {
	payload, err := evt.Encode()
	if err != nil {
		return message{}, fmt.Errorf("marshal event: %w", err)
	}

	attrs := make(map[string]string, 2)
	if evt.Kind != "" {
		attrs["asset_kind"] = evt.Kind
	}
	if evt.Path != "" {
		attrs["asset_path"] = evt.Path
	}

	group := evt.Kind
	if group == "" {
		group = defaultMessageGroup
	}
	sum := sha256.Sum256(payload)

	return message{
		body:  string(payload),
		attrs: attrs,
		group: group,
		dedup: hex.EncodeToString(sum[:]),
	}, nil
}

// isFIFO reports whether a queue URL or topic ARN names a FIFO destination.
func isFIFO(dest string) bool {
	return strings.HasSuffix(dest, ".fifo")
}
