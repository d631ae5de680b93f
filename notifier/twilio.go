package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"parking-finder/utils"
)

// acceptedStatuses are the message states Twilio reports for a send that
// has not failed.
var acceptedStatuses = map[string]bool{
	"queued":    true,
	"sending":   true,
	"sent":      true,
	"delivered": true,
}

type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// WhatsApp sends messages through the Twilio WhatsApp API.
type WhatsApp struct {
	api    messageCreator
	from   string
	to     string
	logger *utils.Logger
}

// NewWhatsApp creates a Twilio-backed WhatsApp notifier.
func NewWhatsApp(accountSID, authToken, from, to string, logger *utils.Logger) *WhatsApp {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &WhatsApp{
		api:    client.Api,
		from:   whatsAppAddress(from),
		to:     whatsAppAddress(to),
		logger: logger,
	}
}

func (w *WhatsApp) Name() string { return "whatsapp" }

// Send posts text as one WhatsApp message. A status other than queued,
// sending, sent or delivered is an error.
func (w *WhatsApp) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &openapi.CreateMessageParams{}
	params.SetFrom(w.from)
	params.SetTo(w.to)
	params.SetBody(text)

	msg, err := w.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("whatsapp: create message: %w", err)
	}

	sid, status := deref(msg.Sid), deref(msg.Status)
	if !acceptedStatuses[status] {
		code := 0
		if msg.ErrorCode != nil {
			code = *msg.ErrorCode
		}
		return fmt.Errorf("whatsapp: message %s has status %q (error code %d: %s)",
			sid, status, code, deref(msg.ErrorMessage))
	}

	w.logger.Debug("[whatsapp] notification sent, message sid: %s, status: %s", sid, status)
	return nil
}

func whatsAppAddress(number string) string {
	if number == "" || strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
