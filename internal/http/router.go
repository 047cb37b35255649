package httpapi

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/boutiabderrahim-hash/shisha23mm/internal/config"
	"github.com/boutiabderrahim-hash/shisha23mm/internal/http/handlers"
	"github.com/boutiabderrahim-hash/shisha23mm/internal/middleware"
	"github.com/boutiabderrahim-hash/shisha23mm/internal/pos"
	"github.com/boutiabderrahim-hash/shisha23mm/internal/queue"
	"github.com/boutiabderrahim-hash/shisha23mm/internal/storage"
	"github.com/boutiabderrahim-hash/shisha23mm/internal/ws"
)

func NewRouter(session *pos.Session, logger *zap.Logger, cfg config.Config, events *queue.Events, wsServer *ws.Server, backups *storage.ObjectStore) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Telemetry(logger))

	if cfg.Env == "development" || len(cfg.CorsAllowedOrigins) > 0 {
		options := cors.Options{
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{
				"Accept",
				"Authorization",
				"Content-Type",
				"X-Requested-With",
				"Cache-Control",
				"Pragma",
			},
			AllowCredentials: true,
			MaxAge:           300,
		}

		if cfg.Env == "development" {
			options.AllowOriginFunc = func(_ *http.Request, origin string) bool {
				return true
			}
		} else {
			options.AllowedOrigins = cfg.CorsAllowedOrigins
		}

		r.Use(cors.Handler(options))
	}

	h := &handlers.Handler{
		Session: session,
		Logger:  logger,
		Config:  cfg,
		Events:  events,
		Feed:    wsServer,
		Backups: backups,
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.WaiterAuth(cfg.JWTSecret))

			r.Get("/auth/me", h.Me)

			r.Get("/waiters", h.Waiters)
			r.Get("/menu", h.MenuItems)
			r.Get("/categories", h.Categories)
			r.Get("/profile", h.Profile)
			r.Get("/inventory", h.Inventory)
			r.Get("/inventory/low-stock", h.LowStock)

			// in-progress order (builder)
			r.Route("/session/order", func(r chi.Router) {
				r.Post("/", h.StartOrder)
				r.Get("/", h.CurrentOrder)
				r.Delete("/", h.CancelCurrentOrder)
				r.Post("/items", h.AddItem)
				r.Put("/items/{lineID}/quantity", h.UpdateQuantity)
				r.Put("/items/{lineID}/discount", h.SetLineDiscount)
				r.Put("/items/{lineID}/price", h.SetLinePrice)
				r.Delete("/items/{lineID}", h.RemoveLine)
				r.Put("/notes", h.SetOrderNotes)
				r.Post("/hold", h.HoldOrder)
				r.Post("/draft", h.SaveDraft)
				r.Post("/edit/{orderID}", h.EditOrder)
			})

			r.Route("/held-orders", func(r chi.Router) {
				r.Get("/", h.HeldOrders)
				r.Post("/{heldID}/resume", h.ResumeHeld)
				r.Delete("/{heldID}", h.DiscardHeld)
			})

			// payment reconciliation
			r.Route("/session/payment", func(r chi.Router) {
				r.Post("/", h.BeginPayment)
				r.Get("/", h.PaymentState)
				r.Put("/discount", h.SetPaymentDiscount)
				r.Put("/split-mode", h.SetSplitMode)
				r.Post("/partials", h.AddPartialPayment)
				r.Delete("/partials", h.RemovePartialPayment)
				r.Post("/quick-split", h.QuickSplit)
				r.Post("/confirm", h.ConfirmFullPayment)
				r.Post("/confirm-split", h.ConfirmSplitPayment)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.Orders)
				r.Get("/credit", h.CreditOrders)
				r.Post("/defer-credit", h.DeferCredit)
				r.Get("/{orderID}", h.OrderDetail)
				r.Put("/{orderID}/status", h.UpdateOrderStatus)
				r.Delete("/{orderID}", h.CancelPlacedOrder)
				r.Post("/{orderID}/settle-credit", h.SettleCredit)
				r.Get("/{orderID}/receipt.pdf", h.OrderReceiptPDF)
			})

			r.Route("/shifts", func(r chi.Router) {
				r.Get("/", h.Shifts)
				r.Get("/active", h.ActiveShift)
				r.Post("/open", h.OpenDay)
				r.Post("/close", h.CloseDay)
				r.Post("/credit-and-close", h.CreditAndClose)
			})

			r.Get("/transactions", h.Transactions)
			r.Post("/manual-income", h.RecordManualIncome)
			r.Post("/drawer/open", h.OpenDrawer)

			// admin-only surfaces
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(pos.RoleAdmin))
				r.Get("/state/export", h.ExportState)
				r.Post("/state/backup", h.BackupState)
			})
		})
	})

	r.Get("/ws/terminal", wsServer.TerminalWS)

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

// Hijack is required for the websocket upgrade to pass through the logging
// middleware.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
