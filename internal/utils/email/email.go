package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/jordan-wright/email"
	"github.com/movelend/lending-service/internal/config"
	"github.com/movelend/lending-service/internal/models"
	"github.com/movelend/lending-service/internal/riskengine"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendPaymentReminder sends a reminder for a scheduled loan payment. The
// wording follows the payment status: upcoming, in grace, or overdue.
func (s *Sender) SendPaymentReminder(reminder models.PaymentReminder, status riskengine.PaymentStatus) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{reminder.Email}

	dueDate := time.Unix(reminder.DueDate, 0).Format("2006-01-02")
	switch status {
	case riskengine.StatusOverdue:
		e.Subject = "Overdue Loan Payment Notification"
	case riskengine.StatusGrace:
		e.Subject = "Loan Payment Grace Period Notice"
	default:
		e.Subject = "Upcoming Loan Payment Reminder"
	}

	body := fmt.Sprintf("Dear %s,\n\n", reminder.Username)
	switch status {
	case riskengine.StatusOverdue:
		body += fmt.Sprintf(
			"Payment %d of %d tokens on loan %s was due on %s and is now overdue.\n"+
				"Continued non-payment may affect your reputation score and collateral.\n"+
				"Please make the payment as soon as possible.\n",
			reminder.PaymentNumber, reminder.TotalAmount, reminder.LoanID, dueDate,
		)
	case riskengine.StatusGrace:
		body += fmt.Sprintf(
			"Payment %d of %d tokens on loan %s was due on %s.\n"+
				"You are within the 7-day grace period; please pay before it ends to stay in good standing.\n",
			reminder.PaymentNumber, reminder.TotalAmount, reminder.LoanID, dueDate,
		)
	default:
		body += fmt.Sprintf(
			"This is a reminder that payment %d of %d tokens on loan %s is due on %s.\n"+
				"Please ensure sufficient funds are available in your wallet.\n",
			reminder.PaymentNumber, reminder.TotalAmount, reminder.LoanID, dueDate,
		)
	}
	body += "\nBest regards,\nLending Service"
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", reminder.Email, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", reminder.Email, e.Subject)
	return nil
}

// SendPaymentRequestReceipt notifies a recipient that a payment request
// they issued has been settled.
func (s *Sender) SendPaymentRequestReceipt(to, username string, req *models.PaymentRequest) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Payment Received"

	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"Payment request %s has been settled: %d tokens received.\n"+
			"Settlement time: %s\n",
		username, req.ID, req.AmountToken, time.Now().Format("2006-01-02 15:04:05"),
	)
	body += "\nBest regards,\nLending Service"
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send receipt to %s: %v", to, err)
		return fmt.Errorf("failed to send receipt: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
