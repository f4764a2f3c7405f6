package mail

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	args := m.Called(params)
	resp, _ := args.Get(0).(*resend.SendEmailResponse)
	return resp, args.Error(1)
}

func TestRenderPasswordReset(t *testing.T) {
	html, err := NewRenderer().Render(TemplatePasswordReset, map[string]string{
		"Name":     "Alice",
		"ResetURL": "https://admin.example.com/reset?token=abc",
	})
	require.NoError(t, err)

	assert.Contains(t, html, "<h1>Reset your password</h1>")
	assert.Contains(t, html, "Hello Alice,")
	assert.Contains(t, html, `<a href="https://admin.example.com/reset?token=abc">Reset password</a>`)
	assert.Contains(t, html, "<!DOCTYPE html>")
}

func TestRenderNotificationWithoutURL(t *testing.T) {
	html, err := NewRenderer().Render(TemplateNotification, map[string]string{
		"Title":   "Doors open",
		"Message": "Registration starts at **9am**.",
	})
	require.NoError(t, err)

	assert.Contains(t, html, "<h1>Doors open</h1>")
	assert.Contains(t, html, "<strong>9am</strong>")
	assert.NotContains(t, html, "Open</a>")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := NewRenderer().Render(Template("missing"), nil)
	assert.Error(t, err)
}

func TestSend(t *testing.T) {
	emails := &mockSender{}
	c := NewClient("", "Portal <no-reply@example.com>", zerolog.Nop())
	c.emails = emails

	emails.On("SendWithContext", mock.MatchedBy(func(req *resend.SendEmailRequest) bool {
		return req.From == "Portal <no-reply@example.com>" &&
			len(req.To) == 1 && req.To[0] == "alice@example.com" &&
			req.Subject == "Hello" &&
			bytes.Contains([]byte(req.Html), []byte("<h1>Hi</h1>"))
	})).Return(&resend.SendEmailResponse{Id: "msg_1"}, nil)

	id, err := c.Send(context.Background(), "alice@example.com", "Hello", TemplateNotification, map[string]string{
		"Title":   "Hi",
		"Message": "body",
	})
	require.NoError(t, err)
	assert.Equal(t, "msg_1", id)
	emails.AssertExpectations(t)
}

func TestSendError(t *testing.T) {
	emails := &mockSender{}
	c := NewClient("", "from@example.com", zerolog.Nop())
	c.emails = emails
	emails.On("SendWithContext", mock.Anything).Return(nil, errors.New("rate limited"))

	_, err := c.SendHTML(context.Background(), "a@example.com", "s", "<p>x</p>")
	assert.EqualError(t, err, "failed to send email: rate limited")
}

func TestSendDisabled(t *testing.T) {
	var buf bytes.Buffer
	c := NewClient("", "from@example.com", zerolog.New(&buf))

	assert.False(t, c.Enabled())
	id, err := c.SendHTML(context.Background(), "a@example.com", "s", "<p>x</p>")
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Contains(t, buf.String(), "email delivery disabled")
}
