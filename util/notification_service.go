// api/util/notification_service.go

package util

import (
	"context"

	"go.uber.org/zap"

	logger "github.com/ccpo-cloud/atat/logging"
	"github.com/ccpo-cloud/atat/model"
)

// NotificationService delivers outbound mail. Delivery is best-effort and
// never transactionally linked to the state change that triggered it.
type NotificationService struct {
	// You might want to add dependencies here, such as a message queue client
}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

func (n *NotificationService) SendEmail(ctx context.Context, recipient, subject, body string) error {
	// Mock email sending
	logger.Info("Sending email",
		zap.String("recipient", recipient),
		zap.String("subject", subject))

	// Here you would implement the actual email sending logic
	// This could involve calling an email service API, using an SMTP client, etc.

	return nil
}

// SendInvitation mails the invite link to the invitee.
func (n *NotificationService) SendInvitation(ctx context.Context, invitation *model.Invitation, resourceName string) error {
	subject := "You've been invited to " + resourceName
	body := "Use this link to accept your invitation: /invitations/" + invitation.Token
	return n.SendEmail(ctx, invitation.Email, subject, body)
}

// NotifyPortfolioChange announces portfolio lifecycle changes.
func (n *NotificationService) NotifyPortfolioChange(ctx context.Context, changeType string, portfolio *model.Portfolio) error {
	logger.Info("Notifying portfolio change",
		zap.String("changeType", changeType),
		zap.String("portfolioID", portfolio.ID),
		zap.String("portfolioName", portfolio.Name))
	return nil
}

// NotifyApplicationChange announces application lifecycle changes.
func (n *NotificationService) NotifyApplicationChange(ctx context.Context, changeType string, application *model.Application) error {
	logger.Info("Notifying application change",
		zap.String("changeType", changeType),
		zap.String("applicationID", application.ID),
		zap.String("applicationName", application.Name))
	return nil
}

// NotifyMemberChange tells a member their access changed.
func (n *NotificationService) NotifyMemberChange(ctx context.Context, changeType, userEmail, resourceName string) error {
	logger.Info("Notifying member change",
		zap.String("changeType", changeType),
		zap.String("recipient", userEmail),
		zap.String("resourceName", resourceName))
	return nil
}
