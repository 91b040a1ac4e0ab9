package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/expanders360/vendor-match-backend/config"
	analyticssvc "github.com/expanders360/vendor-match-backend/internal/analytics/service"
	countryrepo "github.com/expanders360/vendor-match-backend/internal/countries/repository"
	matchrepo "github.com/expanders360/vendor-match-backend/internal/matching/repository"
	matchsvc "github.com/expanders360/vendor-match-backend/internal/matching/service"
	"github.com/expanders360/vendor-match-backend/internal/notification"
	projectrepo "github.com/expanders360/vendor-match-backend/internal/projects/repository"
	schedrepo "github.com/expanders360/vendor-match-backend/internal/scheduler/repository"
	schedsvc "github.com/expanders360/vendor-match-backend/internal/scheduler/service"
	"github.com/expanders360/vendor-match-backend/internal/storage/postgres"
	vendorrepo "github.com/expanders360/vendor-match-backend/internal/vendors/repository"
)

// App wires the repositories and services both binaries share.
type App struct {
	Pool  *pgxpool.Pool
	SQLDB *sql.DB
	Redis *redis.Client

	Projects  *projectrepo.ProjectRepository
	Vendors   *vendorrepo.VendorRepository
	Countries *countryrepo.CountryRepository
	Matches   *matchrepo.MatchRepository
	Runs      *schedrepo.RunRepository

	Notifier  notification.Gateway
	Matching  *matchsvc.MatchingService
	Scheduler *schedsvc.SchedulerService
	Analytics *analyticssvc.AnalyticsService
}

// BuildApp opens the Postgres pool, the database/sql connection and the
// Redis client, then wires repositories and services. SMTP is optional:
// without a configured host, notifications are logged instead of
// mailed.
func BuildApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	pool, err := OpenDB(ctx, DBOptions{DSN: postgres.DSN(&cfg.Database)})
	if err != nil {
		return nil, err
	}

	sqlDB, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		pool.Close()
		return nil, err
	}

	rdb, err := OpenRedis(ctx, cfg.Redis)
	if err != nil {
		pool.Close()
		_ = sqlDB.Close()
		return nil, err
	}

	app := &App{
		Pool:  pool,
		SQLDB: sqlDB,
		Redis: rdb,
	}

	app.Projects = projectrepo.NewProjectRepository(sqlDB)
	app.Vendors = vendorrepo.NewVendorRepository(sqlDB)
	app.Countries = countryrepo.NewCountryRepository(sqlDB)
	app.Matches = matchrepo.NewMatchRepository(pool)
	app.Runs = schedrepo.NewRunRepository(rdb)

	if cfg.SMTP.Host != "" {
		gw, err := notification.NewSMTPGateway(cfg.SMTP, log)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("smtp gateway: %w", err)
		}
		app.Notifier = gw
	} else {
		log.Warn("SMTP not configured, notifications will be logged only")
		app.Notifier = notification.NewLogGateway(log)
	}

	app.Matching = matchsvc.NewMatchingService(app.Projects, app.Vendors, app.Matches, app.Notifier, log)
	app.Scheduler = schedsvc.NewSchedulerService(app.Projects, app.Vendors, app.Matching, app.Matches, app.Notifier, app.Runs, log)
	app.Analytics = analyticssvc.NewAnalyticsService(app.Countries, app.Vendors, app.Matches, log)

	return app, nil
}

// Close releases every connection the app holds.
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
	if a.SQLDB != nil {
		_ = a.SQLDB.Close()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
}
