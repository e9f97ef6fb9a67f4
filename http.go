package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/goliatone/go-router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPOptions configures the server built by NewHTTPServer
type HTTPOptions struct {
	Debug      bool
	AccessLog  bool
	Logger     Logger
	Gatherer   prometheus.Gatherer
	Controller []AuthControllerOption
}

// NewHTTPServer returns a fiber backed router serving the credential routes,
// a health check and, when a gatherer is set, the metrics endpoint.
func NewHTTPServer(workflow *Workflow, opts HTTPOptions) router.Server[*fiber.App] {
	log := normalizeLogger(opts.Logger)

	srv := router.NewFiberAdapter(func(app *fiber.App) *fiber.App {
		app.Use(recover.New())
		app.Use(requestid.New())
		if opts.AccessLog {
			app.Use(logger.New(logger.Config{
				Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
			}))
		}
		return app
	})

	r := srv.Router()

	r.Get("/healthz", func(ctx router.Context) error {
		return ctx.SendString("ok")
	}).SetName("healthz")

	if opts.Gatherer != nil {
		srv.WrappedRouter().Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	controllerOpts := append([]AuthControllerOption{
		WithControllerWorkflow(workflow),
		WithControllerLogger(log),
		WithControllerDebug(opts.Debug),
	}, opts.Controller...)

	RegisterAuthRoutes(r, controllerOpts...)

	return srv
}
