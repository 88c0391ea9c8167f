package telegram

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"medicine_reminder/internal/domain/acknowledgement"
	"medicine_reminder/internal/domain/notification"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type sentMessage struct {
	chatID int64
	text   string
	opts   *telebot.SendOptions
}

type fakeClient struct {
	sent []sentMessage
	err  error
}

func (f *fakeClient) SendMessage(chatID int64, text string, opts *telebot.SendOptions) error {
	f.sent = append(f.sent, sentMessage{chatID, text, opts})
	return f.err
}

func TestSinkSendsActionButtons(t *testing.T) {
	client := &fakeClient{}
	sink := NewSink(client, 4242)
	msg := notification.Message{
		Title:      "Medicine Reminder",
		Body:       "Time to take Aspirin",
		ScheduleID: "aspirin",
		Actions:    notification.DefaultActions,
	}

	if err := sink.Notify(context.Background(), msg); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(client.sent) != 1 {
		t.Fatalf("sent %d messages", len(client.sent))
	}
	got := client.sent[0]
	if got.chatID != 4242 || !strings.Contains(got.text, "Time to take Aspirin") {
		t.Errorf("sent %+v", got)
	}
	rows := got.opts.ReplyMarkup.InlineKeyboard
	if len(rows) != 1 || len(rows[0]) != 2 {
		t.Fatalf("keyboard = %+v", rows)
	}
	if b := rows[0][0]; b.Unique != "take" || b.Data != "aspirin" || b.Text != "Take Now" {
		t.Errorf("first button = %+v", b)
	}
}

func TestSinkErrorAndPermission(t *testing.T) {
	sink := NewSink(&fakeClient{err: io.ErrUnexpectedEOF}, 1)
	if err := sink.Notify(context.Background(), notification.Message{}); err == nil {
		t.Error("expected send error")
	}
	if !sink.Granted(context.Background()) {
		t.Error("configured chat should be granted")
	}
	if NewSink(&fakeClient{}, 0).Granted(context.Background()) {
		t.Error("sink without chat should not be granted")
	}
}

type recordingActions struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingActions) Handle(_ context.Context, action, scheduleID string) (*acknowledgement.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, action+":"+scheduleID)
	return nil, nil
}

func TestActionButtonsRouteToService(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"ok":true,"result":true}`)
	}))
	defer api.Close()

	b, err := telebot.NewBot(telebot.Settings{Token: "test", URL: api.URL, Offline: true, Synchronous: true})
	if err != nil {
		t.Fatalf("NewBot: %v", err)
	}
	actions := &recordingActions{}
	RegisterActionHandlers(context.Background(), b, 4242, actions, testLogger())

	press := func(chatID int64, data string) {
		b.ProcessUpdate(telebot.Update{Callback: &telebot.Callback{
			ID:      "cb",
			Sender:  &telebot.User{ID: chatID},
			Message: &telebot.Message{Chat: &telebot.Chat{ID: chatID}},
			Data:    data,
		}})
	}
	press(4242, "\ftake|aspirin")
	press(4242, "\fsnooze|aspirin")
	press(1, "\ftake|aspirin")

	want := []string{"take:aspirin", "snooze:aspirin"}
	if len(actions.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", actions.calls, want)
	}
	for i := range want {
		if actions.calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, actions.calls[i], want[i])
		}
	}
}

func TestStartReply(t *testing.T) {
	if got := startReply(5, 5); !strings.Contains(got, "delivered to this chat") {
		t.Errorf("configured chat reply = %q", got)
	}
	if got := startReply(7, 5); !strings.Contains(got, "TELEGRAM_CHAT_ID=7") {
		t.Errorf("unknown chat reply = %q", got)
	}
}
