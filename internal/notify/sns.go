package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSBroadcaster publishes broadcasts to an SNS topic.
type SNSBroadcaster struct {
	client   SNSAPI
	topicARN string
}

func NewSNSBroadcaster(ctx context.Context, region, topicARN string) (*SNSBroadcaster, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSNSBroadcasterWithClient(sns.NewFromConfig(cfg), topicARN), nil
}

func NewSNSBroadcasterWithClient(client SNSAPI, topicARN string) *SNSBroadcaster {
	return &SNSBroadcaster{client: client, topicARN: topicARN}
}

func (b *SNSBroadcaster) SendBroadcast(ctx context.Context, text string) error {
	_, err := b.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(b.topicARN),
		Subject:  aws.String("Interview autopilot"),
		Message:  aws.String(text),
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}
