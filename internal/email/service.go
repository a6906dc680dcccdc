package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/trimtime/booking-api/internal/model"
	"github.com/trimtime/booking-api/internal/repository"
	"github.com/trimtime/booking-api/pkg/logger"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Enabled  bool
}

// Service sends transactional booking email over SMTP. All sends are
// best-effort from the workflow's point of view.
type Service struct {
	dialer    *gomail.Dialer
	directory repository.DirectoryRepository
	config    Config
	logger    *logger.Logger
}

func NewService(config Config, directory repository.DirectoryRepository, logger *logger.Logger) *Service {
	return &Service{
		dialer:    gomail.NewDialer(config.Host, config.Port, config.Username, config.Password),
		directory: directory,
		config:    config,
		logger:    logger,
	}
}

// SendBookingConfirmation emails the customer once their payment has
// settled and the appointment is confirmed.
func (s *Service) SendBookingConfirmation(ctx context.Context, apt *model.Appointment) error {
	if !s.config.Enabled {
		return nil
	}

	customer, err := s.directory.GetCustomer(ctx, apt.CustomerID)
	if err != nil {
		return fmt.Errorf("failed to load customer for confirmation email: %w", err)
	}

	shop, err := s.directory.GetShop(ctx, apt.ShopID)
	if err != nil {
		return fmt.Errorf("failed to load shop for confirmation email: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.From)
	m.SetHeader("To", customer.Email)
	m.SetHeader("Subject", fmt.Sprintf("Booking confirmed at %s", shop.Name))
	m.SetBody("text/html", fmt.Sprintf(
		"<p>Hi %s,</p><p>Your appointment at <b>%s</b> on %s at %s is confirmed.</p><p>See you then!</p>",
		customer.Name, shop.Name, apt.SlotDate, apt.StartTime,
	))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send confirmation email: %w", err)
	}

	s.logger.Info("booking confirmation sent",
		"appointment_id", apt.ID.String(),
		"customer_id", customer.ID.String(),
	)
	return nil
}
