package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jcmexdev/storefront/internal/storefront/infra/httpx/middlewares"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachIdentity)
	r.Use(middlewares.AttachTracingMetadata)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", handler.Health)
	r.Get("/menu", handler.GetMenu)
	r.Get("/plans/weekly", handler.GetWeeklyPlan)

	r.Group(func(r chi.Router) {
		r.Use(middlewares.RequireDevice)

		r.Get("/cart", handler.GetCart)
		r.Delete("/cart", handler.ClearCart)
		r.Post("/cart/items", handler.AddCartItem)
		r.Put("/cart/items/{id}", handler.UpdateCartItem)
		r.Delete("/cart/items/{id}", handler.RemoveCartItem)

		r.Get("/checkout/details", handler.GetDetails)
		r.Put("/checkout/details", handler.PutDetails)
		r.Post("/checkout", handler.StartCheckout)
		r.Get("/checkout", handler.GetCheckout)
		r.Post("/checkout/cash-confirmation", handler.ConfirmCash)
		r.Post("/checkout/payment-result", handler.PaymentResult)
		r.Post("/checkout/acknowledge", handler.Acknowledge)
		r.Get("/checkout/attempts/{id}", handler.GetAttempt)

		r.Get("/orders", handler.GetOrders)
		r.Post("/orders/{id}/reorder", handler.Reorder)

		r.Get("/profile/defaults", handler.GetProfileDefaults)
		r.Put("/profile/defaults", handler.PutProfileDefaults)
		r.Delete("/profile/defaults", handler.DeleteProfileDefaults)

		r.Post("/auth/sign-out", handler.SignOut)
	})

	return otelhttp.NewHandler(r, "storefront")
}
