package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	threadlymw "github.com/Shashankesi/Threadly/internal/middleware"
)

func NewRouter(h *Handler, allowOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(threadlymw.CorrelationID)
	r.Use(threadlymw.CORS(allowOrigins))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/session", h.GetSession)
		r.Post("/session", h.SignIn)
		r.Delete("/session", h.SignOut)

		r.Get("/products", h.ListProducts)

		r.Get("/cart", h.GetCart)
		r.Delete("/cart", h.ClearCart)
		r.Post("/cart/items", h.AddItem)
		r.Put("/cart/items", h.SetQuantity)
		r.Delete("/cart/items", h.RemoveItem)

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", h.EnterCheckout)
			r.Get("/", h.GetCheckout)
			r.Post("/shipping", h.SubmitShipping)
			r.Post("/payment", h.SubmitPayment)
			r.Post("/coupon", h.ApplyCoupon)
			r.Post("/order", h.PlaceOrder)
			r.Post("/back", h.GoBack)
		})
	})

	return r
}
