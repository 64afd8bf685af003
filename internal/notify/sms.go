package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/wolfman30/padel-booking/pkg/logging"
)

// SMSSender delivers text messages.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

type twilioMessenger interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioConfig holds Twilio credentials and the sending number.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// TwilioSMSSender sends SMS through the Twilio REST API.
type TwilioSMSSender struct {
	api    twilioMessenger
	from   string
	logger *logging.Logger
}

// NewTwilioSMSSender creates a Twilio-backed sender.
func NewTwilioSMSSender(cfg TwilioConfig, logger *logging.Logger) (*TwilioSMSSender, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, errors.New("notify: twilio account sid and auth token are required")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return newTwilioSMSSender(client.Api, cfg.FromNumber, logger)
}

func newTwilioSMSSender(api twilioMessenger, from string, logger *logging.Logger) (*TwilioSMSSender, error) {
	if from == "" {
		return nil, errors.New("notify: twilio from number is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &TwilioSMSSender{api: api, from: from, logger: logger}, nil
}

// SendSMS sends body to the given phone number. The Twilio SDK call does not
// take a context, so cancellation is only checked up front.
func (s *TwilioSMSSender) SendSMS(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	msg, err := s.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("notify: twilio send: %w", err)
	}
	var sid string
	if msg != nil && msg.Sid != nil {
		sid = *msg.Sid
	}
	s.logger.Info("sms sent via twilio", "to", to, "sid", sid)
	return nil
}

// StubSMSSender logs instead of sending.
type StubSMSSender struct {
	logger *logging.Logger
}

// NewStubSMSSender creates a stub sms sender.
func NewStubSMSSender(logger *logging.Logger) *StubSMSSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubSMSSender{logger: logger}
}

func (s *StubSMSSender) SendSMS(_ context.Context, to, body string) error {
	s.logger.Info("stub sms sender: would send sms", "to", to, "chars", len([]rune(body)))
	return nil
}

var (
	_ SMSSender = (*TwilioSMSSender)(nil)
	_ SMSSender = (*StubSMSSender)(nil)
)
