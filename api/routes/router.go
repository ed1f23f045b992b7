package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/agridiary/api/controllers"
	"github.com/angelmondragon/agridiary/api/middleware"
	"github.com/angelmondragon/agridiary/api/requestctx"
	"github.com/angelmondragon/agridiary/api/responses"
	"github.com/angelmondragon/agridiary/internal/crops"
	"github.com/angelmondragon/agridiary/internal/fields"
	"github.com/angelmondragon/agridiary/internal/pesticides"
	"github.com/angelmondragon/agridiary/internal/soildiagnostics"
	"github.com/angelmondragon/agridiary/internal/workhistories"
	"github.com/angelmondragon/agridiary/pkg/auth/session"
	"github.com/angelmondragon/agridiary/pkg/config"
	pkgerrors "github.com/angelmondragon/agridiary/pkg/errors"
	"github.com/angelmondragon/agridiary/pkg/logger"
)

// Services are the domain services the pages call into.
type Services struct {
	Auth            Accounts
	Crops           *crops.Service
	Fields          *fields.Service
	SoilDiagnostics *soildiagnostics.Service
	WorkHistories   *workhistories.Service
	Pesticides      *pesticides.Service
}

// Infra are the shared clients the router needs besides the services.
type Infra struct {
	DB        controllers.Pinger
	Redis     RedisStore
	Responder *responses.Responder
	Cookies   session.Cookies
	Gatherer  prometheus.Gatherer
}

// Accounts signs visitors in and resolves their sessions.
type Accounts interface {
	controllers.AccountService
	middleware.SessionResolver
}

// RedisStore backs the login throttle and the readiness probe.
type RedisStore interface {
	controllers.Pinger
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

func NewRouter(cfg *config.Config, logg *logger.Logger, infra Infra, svc Services) http.Handler {
	rs := infra.Responder
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(rs, logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.ClientInfo,
		middleware.Locale,
		middleware.Flash,
		middleware.Site(requestctx.Site{
			GTMContainerID: cfg.GTM.ContainerID,
			TermsURL:       cfg.Legal.TermsURL,
			PrivacyURL:     cfg.Legal.PrivacyURL,
		}),
	)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rs.Error(w, r, pkgerrors.New(pkgerrors.CodeNotFound, "route not found"))
	})

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.App.CORSOrigins))
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    infra.DB,
			"redis": infra.Redis,
		}))
	})
	if infra.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(infra.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/", controllers.Home())
	r.Get("/lang/{code}", controllers.Language())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RedirectAuthenticated(svc.Auth, infra.Cookies, controllers.HomePath))
		r.Get("/login", controllers.AuthLoginPage(rs))
		r.With(middleware.AuthRateLimit(loginPolicy, infra.Redis, rs, logg)).
			Post("/login", controllers.AuthLogin(svc.Auth, infra.Cookies, rs))
		r.Get("/register", controllers.AuthRegisterPage(rs))
		r.Post("/register", controllers.AuthRegister(svc.Auth, infra.Cookies, rs))
	})
	r.Post("/logout", controllers.AuthLogout(svc.Auth, infra.Cookies, rs))
	r.Get("/forgot-password", controllers.AuthForgotPage(rs))
	r.Post("/forgot-password", controllers.AuthForgot(svc.Auth, rs))
	r.Get("/reset-password", controllers.AuthResetPage(svc.Auth, rs))
	r.Post("/reset-password", controllers.AuthReset(svc.Auth, rs))

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionGate(svc.Auth, infra.Cookies, rs, logg))

		mountRecords(r, controllers.NewCropResource(svc.Crops, rs), nil)
		mountRecords(r, controllers.NewFieldResource(svc.Fields, rs), nil)
		mountRecords(r, controllers.NewSoilDiagnosticResource(svc.SoilDiagnostics, rs), nil)
		mountRecords(r, controllers.NewWorkHistoryResource(svc.WorkHistories, rs), func(r chi.Router) {
			r.Get("/export", controllers.WorkHistoryExport(svc.WorkHistories, rs))
		})

		r.Route(controllers.PesticidesPath, func(r chi.Router) {
			r.Use(middleware.RequireAdmin(rs))
			r.Get("/", controllers.PesticideList(svc.Pesticides, rs))
			r.Get("/upload", controllers.PesticideUploadPage(rs))
			r.Post("/upload", controllers.PesticideUpload(svc.Pesticides, cfg.Pesticides.MaxUploadBytes(), rs))
			r.Post("/clear", controllers.PesticideClear(svc.Pesticides, rs))
		})
	})

	return r
}

// mountRecords registers the list, form and delete pages of res below its
// path. extra runs first so fixed paths win over {id}.
func mountRecords[E any, F any](r chi.Router, res *controllers.Resource[E, F], extra func(chi.Router)) {
	r.Route(res.Path, func(r chi.Router) {
		if extra != nil {
			extra(r)
		}
		r.Get("/", res.List())
		r.Get("/new", res.New())
		r.Post("/new", res.Create())
		r.Get("/{id}/edit", res.Edit())
		r.Post("/{id}/edit", res.Update())
		r.Post("/{id}/delete", res.Delete())
	})
}
