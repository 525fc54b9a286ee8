package mailer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prod-dashboard/internal/config"
	"prod-dashboard/internal/service/alerting"
)

func TestNew_RequiresHostAndRecipients(t *testing.T) {
	_, err := New(config.SMTP{Port: 587}, []string{"a@example.com"})
	assert.Error(t, err)

	_, err = New(config.SMTP{Host: "smtp.example.com", Port: 587}, nil)
	assert.Error(t, err)
}

func TestMessage(t *testing.T) {
	s, err := New(config.SMTP{Host: "smtp.example.com", Port: 587, From: "erp@example.com"}, []string{"chef@example.com"})
	require.NoError(t, err)

	msg, err := s.message(alerting.Notification{
		Subject:  "[critical] OF en retard - F1",
		Severity: alerting.SeverityCritical,
		Text:     "OF F1 en retard de 3 jour(s)",
		HTML:     "<p>OF F1</p>",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)

	raw := buf.String()
	assert.Contains(t, raw, "chef@example.com")
	assert.Contains(t, raw, "erp@example.com")
	assert.Contains(t, raw, "text/html")
}

func TestNew_FromFallsBackToUser(t *testing.T) {
	s, err := New(config.SMTP{Host: "smtp.example.com", Port: 587, User: "bot@example.com", Password: "x"}, []string{"a@example.com"})
	require.NoError(t, err)

	assert.Equal(t, "bot@example.com", s.from)
}
