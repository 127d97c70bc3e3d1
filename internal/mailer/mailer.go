// Package mailer delivers credential emails over SES. The preferred path is a
// raw MIME message carrying the QR image; when the raw send fails the mailer
// degrades to a plain notice so the registrant still hears back.
package mailer

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"

	"github.com/marea-events/backend/config"
)

// AttachmentFilename is the name the QR image carries in the email.
const AttachmentFilename = "qr-code.png"

// Mailer sends credential emails via SES.
type Mailer struct {
	client *sesv2.Client
	email  config.EmailConfig
	logger *zap.Logger
}

// NewMailer creates an SES mailer using credentials from config or the
// default chain.
func NewMailer(ctx context.Context, awsCfg config.AWSConfig, email config.EmailConfig, logger *zap.Logger) (*Mailer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	accessKey := awsCfg.AccessKeyID
	secretKey := awsCfg.SecretAccessKey
	if accessKey == "" || secretKey == "" {
		accessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		secretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(awsCfg.Region),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey, secretKey, "",
		)))
	} else {
		logger.Warn("SES client using default credential chain")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Mailer{
		client: sesv2.NewFromConfig(cfg),
		email:  email,
		logger: logger,
	}, nil
}

// CredentialParams describe one credential email.
type CredentialParams struct {
	To         string
	FullName   string
	EventTitle string
	EventDate  string
	QRPNG      []byte
}

// CredentialSubject returns the subject line for a credential email.
func CredentialSubject(eventTitle string) string {
	return "Registration confirmed - " + eventTitle
}

// SendCredential delivers the credential email with the QR image attached.
// If the raw send fails, it falls back to a plain notice without the
// attachment; only when both sends fail is an error returned.
func (m *Mailer) SendCredential(ctx context.Context, p CredentialParams) error {
	subject := CredentialSubject(p.EventTitle)
	if len(p.QRPNG) == 0 {
		return m.sendSimple(ctx, p.To, subject, credentialHTML(p, false), credentialText(p, false))
	}
	html := credentialHTML(p, true)
	text := credentialText(p, true)

	raw, err := buildRawMessage(m.from(), p.To, subject, text, html, attachment{
		filename:    AttachmentFilename,
		contentType: "image/png",
		content:     p.QRPNG,
	})
	if err == nil {
		err = m.sendRaw(ctx, raw)
		if err == nil {
			return nil
		}
	}
	m.logger.Warn("raw credential send failed, falling back without attachment",
		zap.String("to", p.To), zap.Error(err))

	return m.sendSimple(ctx, p.To, subject, credentialHTML(p, false), credentialText(p, false))
}

func (m *Mailer) from() string {
	if m.email.FromName != "" {
		return fmt.Sprintf("%s <%s>", m.email.FromName, m.email.FromAddress)
	}
	return m.email.FromAddress
}

func (m *Mailer) sendRaw(ctx context.Context, raw []byte) error {
	_, err := m.client.SendEmail(ctx, &sesv2.SendEmailInput{
		Content: &types.EmailContent{
			Raw: &types.RawMessage{Data: raw},
		},
	})
	if err != nil {
		return fmt.Errorf("ses raw send: %w", err)
	}
	return nil
}

func (m *Mailer) sendSimple(ctx context.Context, to, subject, html, text string) error {
	_, err := m.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.from()),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(html), Charset: aws.String("UTF-8")},
					Text: &types.Content{Data: aws.String(text), Charset: aws.String("UTF-8")},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses simple send: %w", err)
	}
	return nil
}
