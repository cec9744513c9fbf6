package paymentprovider

// Типы запросов и ответов шлюза. Шлюз оборачивает полезную нагрузку в
// конверт data/attributes; суммы передаются в сентаво.

// CreatePaymentLinkRequest представляет запрос на создание платежной ссылки.
type CreatePaymentLinkRequest struct {
	Amount      int64             `json:"amount"`      // сумма в сентаво
	Description string            `json:"description"` // назначение платежа
	Remarks     string            `json:"remarks,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"` // user_uid, tier и др.
}

// PaymentLink представляет созданную платежную ссылку.
type PaymentLink struct {
	ID          string            `json:"id"` // ключ корреляции для webhook
	CheckoutURL string            `json:"checkout_url"`
	Status      string            `json:"status"`
	Amount      int64             `json:"amount"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// CreatePaymentIntentRequest представляет запрос на создание платежного намерения.
type CreatePaymentIntentRequest struct {
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"` // например "PHP"
	Description    string            `json:"description,omitempty"`
	PaymentMethods []string          `json:"payment_method_allowed,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// PaymentIntent представляет платежное намерение на стороне шлюза.
type PaymentIntent struct {
	ID            string            `json:"id"`
	Status        string            `json:"status"` // например "awaiting_payment_method", "succeeded"
	Amount        int64             `json:"amount"`
	Currency      string            `json:"currency"`
	ClientKey     string            `json:"client_key,omitempty"`
	NextActionURL string            `json:"next_action_url,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// AttachPaymentIntentRequest привязывает платежный метод к намерению.
type AttachPaymentIntentRequest struct {
	PaymentMethodID string `json:"payment_method"`
	ReturnURL       string `json:"return_url,omitempty"`
}

// envelope конверт data/attributes, в котором шлюз передает все сущности.
type envelope[T any] struct {
	Data struct {
		ID         string `json:"id"`
		Attributes T      `json:"attributes"`
	} `json:"data"`
}

// apiError тело ошибки шлюза; Detail возвращается вызывающему без изменений.
type apiError struct {
	Errors []struct {
		Code   string `json:"code"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// Webhook-события, которые обрабатывает система. Остальные виды
// подтверждаются и игнорируются.
const (
	EventPaymentPaid     = "payment.paid"
	EventLinkPaymentPaid = "link.payment.paid"
	EventPaymentFailed   = "payment.failed"
)

// WebhookEvent разобранный конверт события webhook.
type WebhookEvent struct {
	Data struct {
		ID         string `json:"id"` // идентификатор события
		Attributes struct {
			Type string `json:"type"` // вид события
			Data struct {
				ID         string `json:"id"` // идентификатор платежа или ссылки
				Attributes struct {
					Amount   int64             `json:"amount"`
					Status   string            `json:"status"`
					Metadata map[string]string `json:"metadata"`
				} `json:"attributes"`
			} `json:"data"`
		} `json:"attributes"`
	} `json:"data"`
}

// Kind возвращает вид события.
func (e *WebhookEvent) Kind() string {
	return e.Data.Attributes.Type
}

// ProviderPaymentID возвращает ключ корреляции платежа или ссылки.
func (e *WebhookEvent) ProviderPaymentID() string {
	return e.Data.Attributes.Data.ID
}

// Metadata возвращает метаданные платежа из события.
func (e *WebhookEvent) Metadata() map[string]string {
	return e.Data.Attributes.Data.Attributes.Metadata
}
