package apiv1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ListPaymentsParams defines parameters for ListPayments.
type ListPaymentsParams struct {
	Page *int `form:"page,omitempty" json:"page,omitempty"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (GET /api/subscription-plans)
	ListPlans(w http.ResponseWriter, r *http.Request)
	// (GET /api/subscription-plans/{slug})
	GetPlan(w http.ResponseWriter, r *http.Request, slug string)
	// (POST /api/subscriptions)
	Subscribe(w http.ResponseWriter, r *http.Request)
	// (POST /api/payments/process)
	ProcessPayment(w http.ResponseWriter, r *http.Request)
	// (GET /api/payments)
	ListPayments(w http.ResponseWriter, r *http.Request, params ListPaymentsParams)
	// (GET /api/payments/last-plan)
	LastPlan(w http.ResponseWriter, r *http.Request)
	// (GET /api/payments/{transaction_id})
	GetPayment(w http.ResponseWriter, r *http.Request, transactionID string)
	// (POST /api/payments/refund/{transaction_id})
	RefundPayment(w http.ResponseWriter, r *http.Request, transactionID string)
	// (POST /api/payments/webhook)
	HandleWebhook(w http.ResponseWriter, r *http.Request)
	// (POST /api/payments/revert-plan)
	RevertPlan(w http.ResponseWriter, r *http.Request)
}

// ServerInterfaceWrapper converts path and query parameters before calling
// the typed handler.
type ServerInterfaceWrapper struct {
	Handler          ServerInterface
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

func (siw *ServerInterfaceWrapper) pathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	var v string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &v,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: name, Err: err})
		return "", false
	}
	return v, true
}

func (siw *ServerInterfaceWrapper) GetPlan(w http.ResponseWriter, r *http.Request) {
	slug, ok := siw.pathParam(w, r, "slug")
	if !ok {
		return
	}
	siw.Handler.GetPlan(w, r, slug)
}

func (siw *ServerInterfaceWrapper) ListPayments(w http.ResponseWriter, r *http.Request) {
	var params ListPaymentsParams
	if err := runtime.BindQueryParameter("form", true, false, "page", r.URL.Query(), &params.Page); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "page", Err: err})
		return
	}
	siw.Handler.ListPayments(w, r, params)
}

func (siw *ServerInterfaceWrapper) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := siw.pathParam(w, r, "transaction_id")
	if !ok {
		return
	}
	siw.Handler.GetPayment(w, r, id)
}

func (siw *ServerInterfaceWrapper) RefundPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := siw.pathParam(w, r, "transaction_id")
	if !ok {
		return
	}
	siw.Handler.RefundPayment(w, r, id)
}

// RouteOptions carries the middleware applied to authenticated and
// state-changing routes.
type RouteOptions struct {
	RequireUser func(http.Handler) http.Handler
	Mutations   []func(http.Handler) http.Handler
}

// RegisterAPIV1 mounts every /api route on r.
func RegisterAPIV1(r chi.Router, si ServerInterface, errFn func(w http.ResponseWriter, r *http.Request, err error), opts RouteOptions) {
	w := &ServerInterfaceWrapper{Handler: si, ErrorHandlerFunc: errFn}

	r.Route("/api", func(r chi.Router) {
		r.Get("/subscription-plans", si.ListPlans)
		r.Get("/subscription-plans/{slug}", w.GetPlan)
		r.Post("/payments/webhook", si.HandleWebhook)

		r.Group(func(r chi.Router) {
			if opts.RequireUser != nil {
				r.Use(opts.RequireUser)
			}
			r.Get("/payments", w.ListPayments)
			r.Get("/payments/last-plan", si.LastPlan)
			r.Get("/payments/{transaction_id}", w.GetPayment)

			r.Group(func(r chi.Router) {
				r.Use(opts.Mutations...)
				r.Post("/subscriptions", si.Subscribe)
				r.Post("/payments/process", si.ProcessPayment)
				r.Post("/payments/refund/{transaction_id}", w.RefundPayment)
				r.Post("/payments/revert-plan", si.RevertPlan)
			})
		})
	})
}
