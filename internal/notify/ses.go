package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESMailer sends plain-text email through Amazon SES.
type SESMailer struct {
	client SESAPI
	from   string
}

func NewSESMailer(ctx context.Context, region, from string) (*SESMailer, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSESMailerWithClient(ses.NewFromConfig(cfg), from), nil
}

func NewSESMailerWithClient(client SESAPI, from string) *SESMailer {
	return &SESMailer{client: client, from: from}
}

func (m *SESMailer) SendMessage(ctx context.Context, to, subject, body string) error {
	_, err := m.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(m.from),
		Destination: &types.Destination{ToAddresses: []string{to}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send to %s: %w", to, err)
	}
	return nil
}
