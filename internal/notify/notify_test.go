package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"tributo.band/site/internal/config"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []Message
	err  error
	gate chan struct{}
}

func (m *recordingMailer) Send(ctx context.Context, msg Message) error {
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}

var mailCfg = config.MailConfig{From: "noreply@banda.com", To: "admin@banda.com", Subject: "Nueva consulta de contratación"}

func TestContactMessageEscapesFields(t *testing.T) {
	t.Parallel()

	msg := ContactMessage("noreply@banda.com", "admin@banda.com", "Nueva consulta de contratación", Contact{
		Name:    `<script>alert("x")</script>`,
		Email:   "ana@example.com",
		Message: "Hola\nsegunda línea",
	})

	require.Equal(t, "admin@banda.com", msg.To)
	require.NotContains(t, msg.HTML, "<script>")
	require.Contains(t, msg.HTML, "&lt;script&gt;")
	require.Contains(t, msg.HTML, "<h2>Nueva consulta de contratación</h2>")
	require.Contains(t, msg.HTML, "<p><strong>Teléfono:</strong> No proporcionado</p>")
	require.Contains(t, msg.HTML, "Hola<br>segunda línea")
	require.True(t, strings.HasPrefix(msg.Text, `Nueva consulta de: <script>alert("x")</script> (ana@example.com)`))
	require.Contains(t, msg.Text, "Fecha del evento: No especificada")
}

func TestDispatcherDeliversAndDrainsOnClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	mailer := &recordingMailer{}
	d := NewDispatcher(mailer, mailCfg, nil)
	require.True(t, d.NotifyContact(context.Background(), Contact{DocumentID: "a", Name: "Ana"}))
	require.True(t, d.NotifyContact(context.Background(), Contact{DocumentID: "b", Name: "Beto"}))
	d.Close()

	sent := mailer.messages()
	require.Len(t, sent, 2)
	require.Equal(t, "Nueva consulta de contratación", sent[0].Subject)
	require.Contains(t, sent[1].Text, "Beto")

	require.False(t, d.NotifyContact(context.Background(), Contact{DocumentID: "c"}), "closed dispatcher drops")
	d.Close()
}

func TestDispatcherSwallowsSendErrors(t *testing.T) {
	defer goleak.VerifyNone(t)

	smtpErr := errors.New("connection refused")
	var mu sync.Mutex
	var got []error
	d := NewDispatcher(&recordingMailer{err: smtpErr}, mailCfg, nil, WithErrorHook(func(err error) {
		mu.Lock()
		got = append(got, err)
		mu.Unlock()
	}))
	require.True(t, d.NotifyContact(context.Background(), Contact{DocumentID: "doc-1"}))
	d.Close()

	require.Len(t, got, 1)
	var sideEffect *EmailSideEffectError
	require.ErrorAs(t, got[0], &sideEffect)
	require.Equal(t, "doc-1", sideEffect.DocumentID)
	require.ErrorIs(t, got[0], smtpErr)
}

func TestDispatcherDropsWhenQueueFull(t *testing.T) {
	defer goleak.VerifyNone(t)

	mailer := &recordingMailer{gate: make(chan struct{})}
	d := NewDispatcher(mailer, mailCfg, nil, WithQueueSize(1))

	// the worker holds the first contact at the gate; the second fills the queue
	require.True(t, d.NotifyContact(context.Background(), Contact{DocumentID: "1"}))
	require.Eventually(t, func() bool { return len(d.queue) == 0 }, time.Second, time.Millisecond)
	require.True(t, d.NotifyContact(context.Background(), Contact{DocumentID: "2"}))
	require.False(t, d.NotifyContact(context.Background(), Contact{DocumentID: "3"}))

	close(mailer.gate)
	d.Close()
	require.Len(t, mailer.messages(), 2)
}

func TestNewMailerWithoutHostLogs(t *testing.T) {
	t.Parallel()

	m, err := NewMailer(config.MailConfig{}, nil)
	require.NoError(t, err)
	require.IsType(t, &LogMailer{}, m)
	require.NoError(t, m.Send(context.Background(), Message{To: "admin@banda.com"}))

	_, err = NewSMTPMailer(config.MailConfig{})
	require.Error(t, err)
}
