package apiv1

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"sandbox-billing/internal/domain/model"
	"sandbox-billing/internal/usecase"
)

// PaymentMethod is the card block accepted by charge endpoints.
type PaymentMethod struct {
	CardNumber  string `json:"card_number" validate:"required,min=13,max=19"`
	ExpiryMonth string `json:"expiry_month" validate:"required,len=2"`
	ExpiryYear  string `json:"expiry_year" validate:"required,len=2"`
	CVV         string `json:"cvv" validate:"required,min=3,max=4"`
	CardHolder  string `json:"card_holder" validate:"required,max=255"`
}

func (p *PaymentMethod) card() usecase.CardDetails {
	return usecase.CardDetails{
		Number:      p.CardNumber,
		ExpiryMonth: p.ExpiryMonth,
		ExpiryYear:  p.ExpiryYear,
		CVV:         p.CVV,
		Holder:      p.CardHolder,
	}
}

type SubscribeRequest struct {
	PlanSlug       string                 `json:"plan_slug" validate:"required"`
	PaymentMethod  *PaymentMethod         `json:"payment_method" validate:"required"`
	BillingAddress map[string]interface{} `json:"billing_address"`
}

type ProcessPaymentRequest struct {
	Amount        *decimal.Decimal       `json:"amount" validate:"required"`
	Currency      string                 `json:"currency" validate:"omitempty,len=3"`
	Description   string                 `json:"description" validate:"max=500"`
	PaymentMethod *PaymentMethod         `json:"payment_method" validate:"required"`
	Metadata      map[string]interface{} `json:"metadata"`
}

type RefundRequest struct {
	Reason *string `json:"reason" validate:"omitempty,max=500"`
}

type WebhookRequest struct {
	EventType     string                 `json:"event_type" validate:"required"`
	TransactionID string                 `json:"transaction_id" validate:"required"`
	Payload       map[string]interface{} `json:"payload"`
}

type RevertPlanRequest struct {
	ToPlan *string `json:"to_plan"`
	Reason *string `json:"reason" validate:"omitempty,max=500"`
}

type SubscribeResponse struct {
	Payment *model.Payment `json:"payment"`
	Message string         `json:"message"`
}

type VerifyResponse struct {
	Payment       *model.Payment `json:"payment"`
	Verified      bool           `json:"verified"`
	GatewayStatus interface{}    `json:"gateway_status"`
}

// PaymentsPage mirrors the paginator shape clients already consume.
type PaymentsPage struct {
	CurrentPage int              `json:"current_page"`
	Data        []*model.Payment `json:"data"`
	From        *int             `json:"from"`
	To          *int             `json:"to"`
	LastPage    int              `json:"last_page"`
	PerPage     int              `json:"per_page"`
	Total       int              `json:"total"`
}

type LastPlanResponse struct {
	Plan    interface{}    `json:"plan"`
	Payment *model.Payment `json:"payment"`
}

type WebhookResponse struct {
	Received  bool   `json:"received"`
	EventType string `json:"event_type"`
}

type RevertPlanResponse struct {
	Payment *model.Payment `json:"payment"`
	User    *model.User    `json:"user"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func newPaymentsPage(p *usecase.PaymentPage) PaymentsPage {
	out := PaymentsPage{
		CurrentPage: p.Page,
		Data:        p.Items,
		LastPage:    p.LastPage,
		PerPage:     p.PerPage,
		Total:       p.Total,
	}
	if out.Data == nil {
		out.Data = []*model.Payment{}
	}
	if n := len(p.Items); n > 0 {
		from := (p.Page-1)*p.PerPage + 1
		to := from + n - 1
		out.From, out.To = &from, &to
	}
	return out
}
