package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	modbilling "github.com/devdocs/payments/modules/billing"
	"github.com/devdocs/payments/pkg/analytics"
	"github.com/devdocs/payments/pkg/billing"
	"github.com/devdocs/payments/pkg/config"
	"github.com/devdocs/payments/pkg/email"
	"github.com/devdocs/payments/pkg/feature"
	"github.com/devdocs/payments/pkg/httpserver"
	"github.com/devdocs/payments/pkg/logger"
	"github.com/devdocs/payments/pkg/pg"
	redisconn "github.com/devdocs/payments/pkg/redis"
	"github.com/devdocs/payments/pkg/session"
	"github.com/devdocs/payments/svc/subscription"
	"github.com/devdocs/payments/svc/user"
)

type appConfig struct {
	AppEnv  string `env:"APP_ENV" envDefault:"development"` // development, staging or production
	SiteURL string `env:"SITE_URL" envDefault:"http://localhost:8080"`

	// SubscriptionEnabled is the boot state of the subscription feature flag.
	SubscriptionEnabled bool `env:"SUBSCRIPTION_ENABLED" envDefault:"false"`

	// PlansFile optionally points at a YAML plan catalog. When empty a single
	// monthly plan is built from ContributionAmountUSD and the provider's
	// configured price.
	PlansFile             string  `env:"PLANS_FILE"`
	ContributionAmountUSD float64 `env:"CONTRIBUTION_AMOUNT_USD" envDefault:"4.99"`
}

func main() {
	var (
		appCfg     appConfig
		pgCfg      pg.Config
		redisCfg   redisconn.Config
		httpCfg    httpserver.Config
		sessionCfg session.Config
		emailCfg   email.Config
		gaCfg      analytics.Config
		stripeCfg  billing.StripeConfig
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&pgCfg)
	config.MustLoad(&redisCfg)
	config.MustLoad(&httpCfg)
	config.MustLoad(&sessionCfg)
	config.MustLoad(&emailCfg)
	config.MustLoad(&gaCfg)
	config.MustLoad(&stripeCfg)

	log := logger.New(logger.WithEnvironment(appCfg.AppEnv, "payments"))
	logger.SetAsDefault(log)

	ctx := context.Background()

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		fatal(log, "database connection failed", err)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		fatal(log, "database migration failed", err)
	}

	redisClient, err := redisconn.Connect(ctx, redisCfg)
	if err != nil {
		fatal(log, "redis connection failed", err)
	}
	defer redisClient.Close()

	provider, err := billing.NewStripeProvider(stripeCfg)
	if err != nil {
		fatal(log, "stripe provider init failed", err)
	}

	plans, err := loadPlans(appCfg, stripeCfg)
	if err != nil {
		fatal(log, "plan catalog load failed", err)
	}

	flags, err := feature.NewMemoryProvider(&feature.Flag{
		Name:        subscription.FlagSubscription,
		Description: "gates the paid subscription feature",
		Enabled:     appCfg.SubscriptionEnabled,
	})
	if err != nil {
		fatal(log, "feature flag init failed", err)
	}

	var mailer email.EmailSender
	if emailCfg.PostmarkServerToken == "" {
		log.Warn("no postmark token configured, outbound email goes to the log")
		mailer = email.NewDevSender(log)
	} else {
		mailer, err = email.NewPostmarkClient(emailCfg)
		if err != nil {
			fatal(log, "postmark client init failed", err)
		}
	}

	users := user.NewPGStore(pool)
	records := subscription.NewPGStore(pool)
	sessions := session.NewManager(session.NewRedisStore(redisClient), sessionCfg)

	svc := subscription.NewService(subscription.Deps{
		Flags:     flags,
		Provider:  provider,
		Records:   records,
		Users:     users,
		Mailer:    mailer,
		Tracker:   analytics.New(gaCfg),
		Plans:     plans,
		Log:       log,
		ManageURL: appCfg.SiteURL + "/users/edit#subscription",
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Get("/health", httpserver.HealthCheckHandler(ctx, log,
		func(ctx context.Context) error { return pool.Ping(ctx) },
		func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	))
	r.Mount("/", modbilling.NewModule(svc, users, sessions, log).Handle())

	srv := httpserver.New(httpCfg,
		httpserver.WithLogger(log),
		httpserver.WithStartHook(func(l *slog.Logger) {
			l.Info("http server listening", slog.String("addr", httpCfg.Addr))
		}),
		httpserver.WithStopHook(func(l *slog.Logger) {
			l.Info("http server stopped")
		}),
	)
	if err := srv.Run(ctx, r); err != nil {
		fatal(log, "http server failed", err)
	}
}

func loadPlans(appCfg appConfig, stripeCfg billing.StripeConfig) (subscription.PlanSource, error) {
	if appCfg.PlansFile != "" {
		return subscription.LoadPlansFile(appCfg.PlansFile)
	}
	return subscription.NewStaticSource(subscription.Plan{
		ID:        "monthly",
		Name:      "Monthly supporter",
		PriceID:   stripeCfg.PriceID,
		AmountUSD: appCfg.ContributionAmountUSD,
		Interval:  "month",
	})
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, slog.Any("error", err))
	os.Exit(1)
}
