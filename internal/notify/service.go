package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/padel-booking/internal/events"
	"github.com/wolfman30/padel-booking/internal/formats"
	"github.com/wolfman30/padel-booking/internal/observability/metrics"
	"github.com/wolfman30/padel-booking/pkg/logging"
)

// Config controls who is told about new bookings.
type Config struct {
	OperatorEmail   string
	SendCustomerSMS bool
}

// Service fans booking events out to the operator inbox and the customer phone.
type Service struct {
	email   EmailSender
	sms     SMSSender
	cfg     Config
	metrics *metrics.BookingMetrics
	logger  *logging.Logger
}

// NewService creates a notification service. Either sender may be nil.
func NewService(email EmailSender, sms SMSSender, cfg Config, m *metrics.BookingMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, sms: sms, cfg: cfg, metrics: m, logger: logger}
}

// NotifyBookingCreated emails the operator and, when enabled, confirms by SMS.
// Both channels are attempted; their errors are joined.
func (s *Service) NotifyBookingCreated(ctx context.Context, evt events.BookingCreatedV1) error {
	var errs []error

	if s.email != nil && s.cfg.OperatorEmail != "" {
		err := s.email.Send(ctx, EmailMessage{
			To:      s.cfg.OperatorEmail,
			Subject: operatorSubject(evt),
			Body:    operatorBody(evt),
		})
		s.metrics.ObserveNotification("email", err)
		if err != nil {
			s.logger.Error("operator email failed", "error", err, "booking_id", evt.BookingID)
			errs = append(errs, err)
		}
	} else {
		s.logger.Debug("notify: operator email not configured", "booking_id", evt.BookingID)
	}

	if s.sms != nil && s.cfg.SendCustomerSMS && strings.TrimSpace(evt.Phone) != "" {
		err := s.sms.SendSMS(ctx, evt.Phone, customerSMS(evt))
		s.metrics.ObserveNotification("sms", err)
		if err != nil {
			s.logger.Error("customer sms failed", "error", err, "booking_id", evt.BookingID)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: booking %s: %w", evt.BookingID, errors.Join(errs...))
	}
	return nil
}

func formatLabel(value string) string {
	if opt, ok := formats.Lookup(value); ok {
		return opt.Label
	}
	return value
}

func operatorSubject(evt events.BookingCreatedV1) string {
	return fmt.Sprintf("New booking: %s %s, %s", evt.Date, evt.Time, formatLabel(evt.FormatType))
}

func operatorBody(evt events.BookingCreatedV1) string {
	var b strings.Builder
	b.WriteString("A new court booking was made.\n\n")
	fmt.Fprintf(&b, "Name: %s\n", evt.Name)
	fmt.Fprintf(&b, "Phone: %s\n", evt.Phone)
	fmt.Fprintf(&b, "Date: %s\n", evt.Date)
	fmt.Fprintf(&b, "Time: %s\n", evt.Time)
	fmt.Fprintf(&b, "Format: %s\n", formatLabel(evt.FormatType))
	if opt, ok := formats.Lookup(evt.FormatType); ok {
		fmt.Fprintf(&b, "Price: %s\n", opt.Price)
	}
	fmt.Fprintf(&b, "\nBooking ID: %s\n", evt.BookingID)
	return b.String()
}

func customerSMS(evt events.BookingCreatedV1) string {
	return fmt.Sprintf("Padel Center: %s, you're booked for %s on %s at %s. See you on the court!",
		evt.Name, formatLabel(evt.FormatType), evt.Date, evt.Time)
}
