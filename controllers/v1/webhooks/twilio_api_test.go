package webhooksapi

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"io"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"farm-ops-backend/lib/conversation"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhookURL = "https://farm.example.com/webhooks/twilio/messages"

type conversationStub struct {
	messages []conversation.InboundMessage
	err      error
}

func (s *conversationStub) HandleInbound(ctx context.Context, msg conversation.InboundMessage) string {
	return ""
}

func (s *conversationStub) Process(ctx context.Context, msg conversation.InboundMessage) error {
	s.messages = append(s.messages, msg)
	return s.err
}

func sign(authToken, target string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for key := range form {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	payload := target
	for _, key := range keys {
		payload += key + form.Get(key)
	}
	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func post(t *testing.T, app *fiber.App, form url.Values, signature string) string {
	t.Helper()
	req := httptest.NewRequest("POST", "/twilio/messages", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if signature != "" {
		req.Header.Set(twilioSignatureHeader, signature)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestTwilioWebhook(t *testing.T) {
	stub := &conversationStub{}
	conversation.Instance = stub
	form := url.Values{
		"From":              {"whatsapp:+15551234567"},
		"Body":              {"show tasks"},
		"MediaUrl0":         {"https://api.twilio.com/media/1"},
		"MediaContentType0": {"image/jpeg"},
	}

	t.Run("without signature check", func(t *testing.T) {
		app := fiber.New()
		InitTwilioWebhookApiRouters(app, "", "")
		body := post(t, app, form, "")
		assert.Contains(t, body, `"status":"success"`)
		require.Len(t, stub.messages, 1)
		assert.Equal(t, conversation.InboundMessage{
			From:             "whatsapp:+15551234567",
			Body:             "show tasks",
			MediaURL:         "https://api.twilio.com/media/1",
			MediaContentType: "image/jpeg",
		}, stub.messages[0])
	})

	t.Run("send failure still answers 200", func(t *testing.T) {
		stub.err = errors.New("twilio is down")
		defer func() { stub.err = nil }()
		app := fiber.New()
		InitTwilioWebhookApiRouters(app, "", "")
		body := post(t, app, form, "")
		assert.Contains(t, body, `"status":"fail"`)
	})

	t.Run("signature", func(t *testing.T) {
		stub.messages = nil
		app := fiber.New()
		InitTwilioWebhookApiRouters(app, "secret", webhookURL)

		body := post(t, app, form, "bad")
		assert.Contains(t, body, "invalid signature")
		assert.Empty(t, stub.messages)

		body = post(t, app, form, sign("secret", webhookURL, form))
		assert.Contains(t, body, `"status":"success"`)
		assert.Len(t, stub.messages, 1)
	})
}
