package apiv1

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"sandbox-billing/internal/infra/api"
	"sandbox-billing/internal/infra/logging"
	"sandbox-billing/internal/usecase"
)

const (
	maxBodyBytes = 1 << 20

	subscribeNote = "Subscription payment processed — plan set on user account"
)

var _ ServerInterface = (*Server)(nil)

type Server struct {
	planUC          usecase.PlanUseCase
	payUC           usecase.PaymentUseCase
	validate        *validator.Validate
	signatureHeader string
	log             *zerolog.Logger
}

func NewServer(planUC usecase.PlanUseCase, payUC usecase.PaymentUseCase, signatureHeader string, logger *zerolog.Logger) *Server {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	if signatureHeader == "" {
		signatureHeader = "X-Webhook-Signature"
	}
	return &Server{
		planUC:          planUC,
		payUC:           payUC,
		validate:        newValidator(),
		signatureHeader: signatureHeader,
		log:             logger,
	}
}

// decode reads a JSON object into dst and runs struct validation. An empty
// body decodes to the zero value so required-field errors are reported.
func (s *Server) decode(body []byte, dst interface{}) error {
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, dst); err != nil {
			return &decodeError{err: err}
		}
	}
	return s.validate.Struct(dst)
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, &decodeError{err: err}
	}
	return b, nil
}

func (s *Server) decodeBody(r *http.Request, dst interface{}) error {
	body, err := readBody(r)
	if err != nil {
		return err
	}
	return s.decode(body, dst)
}

func (s *Server) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.planUC.ListActive(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, "Subscription plans retrieved", plans)
}

func (s *Server) GetPlan(w http.ResponseWriter, r *http.Request, slug string) {
	plan, err := s.planUC.GetBySlug(r.Context(), slug)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, "OK", plan)
}

func (s *Server) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	userID := api.UserIDFromContext(r.Context())
	p, err := s.payUC.Subscribe(r.Context(), userID, req.PlanSlug, req.PaymentMethod.card())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	api.Success(w, http.StatusCreated, "Payment processed successfully", SubscribeResponse{Payment: p, Message: subscribeNote})
}

func (s *Server) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req ProcessPaymentRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	userID := api.UserIDFromContext(r.Context())
	p, err := s.payUC.ProcessOneTime(r.Context(), userID, usecase.OneTimeInput{
		Amount:      *req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
		Metadata:    req.Metadata,
		Card:        req.PaymentMethod.card(),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	api.Success(w, http.StatusCreated, "Payment processed successfully", p)
}

func (s *Server) ListPayments(w http.ResponseWriter, r *http.Request, params ListPaymentsParams) {
	page := 1
	if params.Page != nil {
		page = *params.Page
	}
	res, err := s.payUC.List(r.Context(), api.UserIDFromContext(r.Context()), page)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, "OK", newPaymentsPage(res))
}

func (s *Server) LastPlan(w http.ResponseWriter, r *http.Request) {
	res, err := s.payUC.LastPlan(r.Context(), api.UserIDFromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if res.Payment == nil {
		api.Success(w, http.StatusOK, "No plan purchase found", LastPlanResponse{})
		return
	}
	out := LastPlanResponse{Payment: res.Payment}
	if res.Plan != nil {
		out.Plan = res.Plan
	} else {
		out.Plan = map[string]string{"slug": res.PlanSlug}
	}
	api.Success(w, http.StatusOK, "OK", out)
}

func (s *Server) GetPayment(w http.ResponseWriter, r *http.Request, transactionID string) {
	res, err := s.payUC.Verify(r.Context(), api.UserIDFromContext(r.Context()), transactionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, "OK", VerifyResponse{
		Payment:       res.Payment,
		Verified:      res.Verified,
		GatewayStatus: res.GatewayStatus,
	})
}

func (s *Server) RefundPayment(w http.ResponseWriter, r *http.Request, transactionID string) {
	var req RefundRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.payUC.Refund(r.Context(), api.UserIDFromContext(r.Context()), transactionID, req.Reason)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, "Refund processed successfully", p)
}

// HandleWebhook validates the body before the signature; the raw bytes are
// what the signature covers.
func (s *Server) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req WebhookRequest
	if err := s.decode(body, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	err = s.payUC.HandleWebhook(r.Context(), r.Header.Get(s.signatureHeader), body, req.EventType, req.TransactionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, "Webhook processed", WebhookResponse{Received: true, EventType: req.EventType})
}

func (s *Server) RevertPlan(w http.ResponseWriter, r *http.Request) {
	var req RevertPlanRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.payUC.RevertPlan(r.Context(), api.UserIDFromContext(r.Context()), req.ToPlan, req.Reason)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, "Plan reverted", RevertPlanResponse{Payment: res.Payment, User: res.User})
}

// HandleError is the ErrorHandlerFunc for parameter binding failures.
func (s *Server) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	l := logging.With(r.Context(), s.log)
	l.Debug().Err(err).Msg("request rejected")
	s.writeError(w, r, err)
}
