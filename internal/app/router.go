package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pharmadesk/pharmadesk/internal/analytics"
	"github.com/pharmadesk/pharmadesk/internal/catalog"
	"github.com/pharmadesk/pharmadesk/internal/inventory"
	"github.com/pharmadesk/pharmadesk/internal/observability"
	"github.com/pharmadesk/pharmadesk/internal/orders"
	"github.com/pharmadesk/pharmadesk/internal/purchase"
	"github.com/pharmadesk/pharmadesk/internal/receiving"
	"github.com/pharmadesk/pharmadesk/internal/shopauth"
	"github.com/pharmadesk/pharmadesk/internal/suppliers"
)

// RouterDeps aggregates the handlers mounted on the HTTP surface.
type RouterDeps struct {
	Logger    *slog.Logger
	Config    *Config
	Metrics   *observability.Metrics
	ShopAuth  *shopauth.Middleware
	Catalog   *catalog.Handler
	Suppliers *suppliers.Handler
	Receiving *receiving.Handler
	Purchase  *purchase.Handler
	Inventory *inventory.Handler
	Orders    *orders.Handler
	Analytics *analytics.Handler
	UploadDir string
}

// NewRouter assembles the chi router. Everything except health, metrics and
// the upload file server sits behind shop API key auth.
func NewRouter(deps RouterDeps) chi.Router {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  deps.Logger,
		Config:  deps.Config,
		Metrics: deps.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}
	if deps.UploadDir != "" {
		fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(deps.UploadDir)))
		r.Get("/uploads/*", fs.ServeHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(deps.ShopAuth.RequireShop)
		deps.Catalog.MountRoutes(r)
		deps.Suppliers.MountRoutes(r)
		deps.Receiving.MountRoutes(r)
		deps.Purchase.MountRoutes(r)
		deps.Inventory.MountRoutes(r)
		deps.Orders.MountRoutes(r)
		deps.Analytics.MountRoutes(r)
	})

	return r
}
