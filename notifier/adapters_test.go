package notifier

import (
	"context"
	"errors"
	"strings"
	"testing"

	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	tele "gopkg.in/telebot.v4"

	"parking-finder/utils"
)

type fakeCreator struct {
	params *openapi.CreateMessageParams
	status string
	err    error
}

func (f *fakeCreator) CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	sid, status := "SM1", f.status
	return &openapi.ApiV2010Message{Sid: &sid, Status: &status}, nil
}

func TestWhatsAppStatuses(t *testing.T) {
	tests := []struct {
		status  string
		wantErr bool
	}{
		{"queued", false},
		{"sending", false},
		{"sent", false},
		{"delivered", false},
		{"failed", true},
		{"undelivered", true},
		{"", true},
	}

	for _, tt := range tests {
		api := &fakeCreator{status: tt.status}
		w := &WhatsApp{api: api, from: "whatsapp:+1", to: "whatsapp:+2", logger: utils.Nop()}

		err := w.Send(context.Background(), "hej")
		if (err != nil) != tt.wantErr {
			t.Errorf("status %q: err = %v, wantErr %v", tt.status, err, tt.wantErr)
		}
		if *api.params.Body != "hej" || *api.params.To != "whatsapp:+2" {
			t.Errorf("status %q: unexpected params", tt.status)
		}
	}
}

func TestWhatsAppClientError(t *testing.T) {
	w := &WhatsApp{api: &fakeCreator{err: errors.New("401")}, logger: utils.Nop()}
	if err := w.Send(context.Background(), "hej"); err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("expected wrapped client error, got %v", err)
	}
}

func TestWhatsAppAddress(t *testing.T) {
	tests := map[string]string{
		"":                 "",
		"+46701234567":     "whatsapp:+46701234567",
		"whatsapp:+467012": "whatsapp:+467012",
	}
	for in, want := range tests {
		if got := whatsAppAddress(in); got != want {
			t.Errorf("whatsAppAddress(%q) = %q, want %q", in, got, want)
		}
	}
}

type fakeSender struct {
	calls     []*tele.SendOptions
	rejectMD  bool
	rejectAll bool
}

func (f *fakeSender) Send(_ tele.Recipient, _ interface{}, opts ...interface{}) (*tele.Message, error) {
	o := opts[0].(*tele.SendOptions)
	f.calls = append(f.calls, o)
	if f.rejectAll || (f.rejectMD && o.ParseMode == tele.ModeMarkdown) {
		return nil, errors.New("bad request: can't parse entities")
	}
	return &tele.Message{ID: len(f.calls)}, nil
}

func TestTelegramSend(t *testing.T) {
	s := &fakeSender{}
	tg := &Telegram{bot: s, chat: 42, logger: utils.Nop()}

	if err := tg.Send(context.Background(), "*RYD*"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(s.calls) != 1 || s.calls[0].ParseMode != tele.ModeMarkdown {
		t.Errorf("expected one markdown send, got %d", len(s.calls))
	}
}

func TestTelegramFallsBackToPlainText(t *testing.T) {
	s := &fakeSender{rejectMD: true}
	tg := &Telegram{bot: s, chat: 42, logger: utils.Nop()}

	if err := tg.Send(context.Background(), "under_score"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(s.calls) != 2 || s.calls[1].ParseMode != tele.ModeDefault {
		t.Errorf("expected a plain-text resend, got %d calls", len(s.calls))
	}

	s = &fakeSender{rejectAll: true}
	tg.bot = s
	if err := tg.Send(context.Background(), "x"); err == nil {
		t.Error("expected an error when both attempts fail")
	}
}
