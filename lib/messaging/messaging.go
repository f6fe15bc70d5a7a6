package messaging

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "farm-ops-backend/lib/utils/app-errors"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Provider шлюз мессенджера
type Provider interface {
	Send(ctx context.Context, recipient, text string) error
	// FetchMedia тело нужно закрыть вызывающему
	FetchMedia(ctx context.Context, url string) (body io.ReadCloser, contentType string, err error)
}

var Instance Provider

type Config struct {
	AccountSID   string
	AuthToken    string
	From         string
	SendTimeout  time.Duration
	MediaTimeout time.Duration
	MaxRetries   uint64
}

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

func NewHandler(cfg Config) {
	Instance = NewInstance(cfg)
}

func NewInstance(cfg Config) Provider {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return newInstance(cfg, client.Api, &http.Client{Timeout: cfg.MediaTimeout})
}

func newInstance(cfg Config, creator messageCreator, httpClient *http.Client) *impl {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if cfg.MediaTimeout <= 0 {
		cfg.MediaTimeout = 30 * time.Second
	}
	return &impl{
		cfg:        cfg,
		creator:    creator,
		httpClient: httpClient,
	}
}

type impl struct {
	cfg        Config
	creator    messageCreator
	httpClient *http.Client
}

// Address разбор адреса вида "whatsapp:+15550001"
type Address struct {
	Channel string
	Phone   string
}

func ParseAddress(from string) Address {
	from = strings.TrimSpace(from)
	if idx := strings.Index(from, ":"); idx >= 0 {
		return Address{Channel: from[:idx], Phone: from[idx+1:]}
	}
	return Address{Phone: from}
}

func (a Address) String() string {
	if a.Channel == "" {
		return a.Phone
	}
	return a.Channel + ":" + a.Phone
}

func (i impl) GetLogger(recipient string) *log.Entry {
	logger := log.WithField("recipient", recipient)
	return logger
}

func (i impl) Send(ctx context.Context, recipient, text string) error {
	ctx, cancel := context.WithTimeout(ctx, i.cfg.SendTimeout)
	defer cancel()

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(recipient)
	params.SetFrom(i.cfg.From)
	params.SetBody(text)

	attempt := 0
	operation := func() error {
		attempt++
		resp, err := i.creator.CreateMessage(params)
		if err != nil {
			if !isRetryable(err) {
				return backoff.Permanent(err)
			}
			i.GetLogger(recipient).
				WithError(err).
				Warnf("Ошибка отправки сообщения, попытка %d", attempt)
			return err
		}
		if resp != nil && resp.Sid != nil {
			i.GetLogger(recipient).
				WithField("sid", *resp.Sid).
				Debug("Сообщение отправлено")
		}
		return nil
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), i.cfg.MaxRetries),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		if isRetryable(err) || ctx.Err() != nil {
			return apperrors.NewTransientGatewayError("send", err)
		}
		return errors.Wrap(err, "сообщение не отправлено")
	}
	return nil
}

// isRetryable повторяем сетевые ошибки, 429 и 5xx
func isRetryable(err error) bool {
	var restErr *twilioclient.TwilioRestError
	if errors.As(err, &restErr) {
		return restErr.Status == http.StatusTooManyRequests || restErr.Status >= http.StatusInternalServerError
	}
	return true
}

func (i impl) FetchMedia(ctx context.Context, url string) (io.ReadCloser, string, error) {
	ctx, cancel := context.WithTimeout(ctx, i.cfg.MediaTimeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, "", errors.Wrap(err, "некорректный адрес вложения")
	}
	req.SetBasicAuth(i.cfg.AccountSID, i.cfg.AuthToken)
	resp, err := i.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, "", apperrors.NewTransientGatewayError("fetch media", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, "", apperrors.NewTransientGatewayError("fetch media", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	return cancelOnClose{ReadCloser: resp.Body, cancel: cancel}, resp.Header.Get("Content-Type"), nil
}

// cancelOnClose таймаут скачивания действует, пока тело не закрыто
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
