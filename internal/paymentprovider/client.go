// Package paymentprovider содержит HTTP-клиент платежного шлюза и
// проверку подписи webhook. Клиент не хранит состояния: ключи
// корреляции, которые он возвращает, сопоставляются с событиями webhook
// механизмом сверки.
package paymentprovider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/magabrotheeeer/marketplace-billing/internal/lib/errs"
)

type Client struct {
	secretKey  string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент платежного шлюза.
func NewClient(secretKey string) *Client {
	return &Client{
		secretKey:  secretKey,
		apiURL:     "https://api.paymongo.com/v1",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWithURL создаёт клиент с нестандартным адресом API (тесты).
func NewClientWithURL(secretKey, apiURL string) *Client {
	c := NewClient(secretKey)
	c.apiURL = apiURL
	return c
}

func (c *Client) newRequest(ctx context.Context, method, path string, attributes any) (*http.Request, error) {
	url := c.apiURL + path
	var buf bytes.Buffer
	if attributes != nil {
		body := map[string]any{
			"data": map[string]any{
				"attributes": attributes,
			},
		}
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	auth := base64.StdEncoding.EncodeToString([]byte(c.secretKey + ":"))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrExternal, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrExternal, err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		// Текст ошибки шлюза возвращаем без изменений.
		var apiErr apiError
		if err := json.Unmarshal(raw, &apiErr); err == nil && len(apiErr.Errors) > 0 {
			return fmt.Errorf("%w: %s", errs.ErrExternal, apiErr.Errors[0].Detail)
		}
		return fmt.Errorf("%w: unexpected status %s", errs.ErrExternal, resp.Status)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: %v", errs.ErrExternal, err)
		}
	}
	return nil
}

// CreatePaymentLink создает платежную ссылку. Идентификатор ссылки —
// ключ корреляции события link.payment.paid.
func (c *Client) CreatePaymentLink(ctx context.Context, reqParams CreatePaymentLinkRequest) (*PaymentLink, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/links", reqParams)
	if err != nil {
		return nil, err
	}

	var resp envelope[PaymentLink]
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	link := resp.Data.Attributes
	link.ID = resp.Data.ID
	return &link, nil
}

// CreatePaymentIntent создает платежное намерение.
func (c *Client) CreatePaymentIntent(ctx context.Context, reqParams CreatePaymentIntentRequest) (*PaymentIntent, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/payment_intents", reqParams)
	if err != nil {
		return nil, err
	}

	var resp envelope[PaymentIntent]
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	intent := resp.Data.Attributes
	intent.ID = resp.Data.ID
	return &intent, nil
}

// AttachPaymentIntent привязывает платежный метод к намерению.
func (c *Client) AttachPaymentIntent(ctx context.Context, intentID string, reqParams AttachPaymentIntentRequest) (*PaymentIntent, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/payment_intents/"+intentID+"/attach", reqParams)
	if err != nil {
		return nil, err
	}

	var resp envelope[PaymentIntent]
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	intent := resp.Data.Attributes
	intent.ID = resp.Data.ID
	return &intent, nil
}

// RetrievePaymentIntent возвращает текущее состояние намерения.
func (c *Client) RetrievePaymentIntent(ctx context.Context, intentID string) (*PaymentIntent, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/payment_intents/"+intentID, nil)
	if err != nil {
		return nil, err
	}

	var resp envelope[PaymentIntent]
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	intent := resp.Data.Attributes
	intent.ID = resp.Data.ID
	return &intent, nil
}
