package service

import (
	"context"
	"fmt"
	"html"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client    *sesv2.Client
	fromEmail string
	fromName  string
	enabled   bool
	debug     bool
}

// NewEmailService creates a new email service
func NewEmailService(awsRegion, fromEmail, fromName string, debug bool) (*EmailService, error) {
	// If fromEmail is empty, create a disabled service
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		if debug {
			log.Println("[DEBUG] Email service will skip sending all emails")
		}
		return &EmailService{
			enabled: false,
			debug:   debug,
		}, nil
	}

	if debug {
		log.Printf("[DEBUG] Initializing email service with AWS SES")
		log.Printf("[DEBUG] AWS Region: %s", awsRegion)
		log.Printf("[DEBUG] From Email: %s", fromEmail)
		log.Printf("[DEBUG] From Name: %s", fromName)
	}

	// Load AWS configuration
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(awsRegion),
	)
	if err != nil {
		if debug {
			log.Printf("[DEBUG] Failed to load AWS config: %v", err)
		}
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if debug {
		log.Println("[DEBUG] AWS config loaded successfully")
	}

	// Create SES client
	client := sesv2.NewFromConfig(cfg)

	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)
	if debug {
		log.Println("[DEBUG] SES client created successfully")
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
		enabled:   true,
		debug:     debug,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendInviteEmail tells toEmail they were invited to a tree and links the
// invite acceptance page
func (s *EmailService) SendInviteEmail(ctx context.Context, toEmail, treeName, role, inviteURL string) error {
	if s.debug {
		log.Printf("[DEBUG] SendInviteEmail called: to=%s, tree=%s, role=%s", toEmail, treeName, role)
	}

	if !s.enabled {
		log.Printf("Skipping email send (service disabled): invite to %s", toEmail)
		return nil
	}

	subject := fmt.Sprintf("You're invited to the %s family tree", treeName)
	safeTree := html.EscapeString(treeName)
	safeRole := html.EscapeString(role)
	safeURL := html.EscapeString(inviteURL)
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #3d7a4f; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.button { display: inline-block; padding: 12px 30px; background-color: #3d7a4f; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>Family Tree Invitation</h1>
		</div>
		<div class="content">
			<p>Hi,</p>
			<p>You have been invited to join the <strong>%s</strong> family tree as <strong>%s</strong>.</p>
			<p style="text-align: center;">
				<a href="%s" class="button">Accept Invitation</a>
			</p>
			<p>Or copy and paste this link into your browser:</p>
			<p style="word-break: break-all; font-size: 12px; color: #666;">%s</p>
			<p><strong>This link will expire in 24 hours and can be used once.</strong></p>
		</div>
		<div class="footer">
			<p>This is an automated email from %s. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, safeTree, safeRole, safeURL, safeURL, html.EscapeString(s.fromName))

	textBody := fmt.Sprintf(`Hi,

You have been invited to join the %s family tree as %s.

Accept the invitation here:
%s

This link will expire in 24 hours and can be used once.

---
This is an automated email from %s. Please do not reply.
`, treeName, role, inviteURL, s.fromName)

	if s.debug {
		log.Printf("[DEBUG] Sending invite email: subject=%s, to=%s", subject, toEmail)
	}

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	if s.debug {
		log.Printf("[DEBUG] sendEmail called: to=%s, subject=%s", toEmail, subject)
	}

	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	if s.debug {
		log.Printf("[DEBUG] From address: %s", fromAddress)
		log.Printf("[DEBUG] To address: %s", toEmail)
		log.Printf("[DEBUG] Subject: %s", subject)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if s.debug {
		log.Printf("[DEBUG] Calling SES SendEmail API...")
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		if s.debug {
			log.Printf("[DEBUG] SES SendEmail failed: %v", err)
		}
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	if s.debug {
		log.Printf("[DEBUG] SES SendEmail succeeded")
		if result.MessageId != nil {
			log.Printf("[DEBUG] Message ID: %s", *result.MessageId)
		}
	}

	log.Printf("Email sent successfully: to=%s, subject=%s", toEmail, subject)
	return nil
}
