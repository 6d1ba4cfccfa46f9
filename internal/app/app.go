package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Freeeeeet/interview_autopilot/internal/api"
	"github.com/Freeeeeet/interview_autopilot/internal/availability"
	"github.com/Freeeeeet/interview_autopilot/internal/calendar"
	"github.com/Freeeeeet/interview_autopilot/internal/config"
	"github.com/Freeeeeet/interview_autopilot/internal/lock"
	"github.com/Freeeeeet/interview_autopilot/internal/notify"
	"github.com/Freeeeeet/interview_autopilot/internal/repository"
	"github.com/Freeeeeet/interview_autopilot/internal/service"
	"github.com/Freeeeeet/interview_autopilot/internal/store"
	"github.com/Freeeeeet/interview_autopilot/internal/store/memstore"
	"github.com/Freeeeeet/interview_autopilot/internal/summary"
	"github.com/Freeeeeet/interview_autopilot/internal/token"
	"github.com/Freeeeeet/interview_autopilot/migrations"
)

const shutdownTimeout = 15 * time.Second

// App owns every long-lived resource of the process.
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	pool      *pgxpool.Pool
	redis     *redis.Client
	server    *http.Server
	scheduler *Scheduler
}

func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	st, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	if cfg.SeedOnStartup {
		if err := Seed(ctx, st, time.Now(), logger); err != nil {
			a.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	locker, err := a.newLocker(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	notifier, err := a.newNotifier(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	summarizer, err := a.newSummarizer()
	if err != nil {
		a.Close()
		return nil, err
	}

	var busySource service.BusySource
	if cfg.GoogleCredentialsFile != "" {
		google, err := calendar.NewGoogleFreeBusy(ctx, cfg.GoogleCredentialsFile)
		if err != nil {
			a.Close()
			return nil, err
		}
		busySource = google
	}

	codec, err := token.NewCodec(cfg.SecretKey, cfg.FeedbackTokenTTL)
	if err != nil {
		a.Close()
		return nil, err
	}

	loc := cfg.Location()
	engine := availability.NewEngine(cfg.SlotStep)
	logger.Info("Slot search configured",
		zap.Duration("step", engine.Step()),
		zap.String("location", loc.String()),
	)
	scheduling := service.NewSchedulingService(st, engine, locker, notifier,
		service.SchedulingConfig{BaseURL: cfg.BaseURL, MeetingBaseURL: cfg.MeetingBaseURL, Location: loc}, logger)
	lifecycle := service.NewLifecycleService(st, codec, notifier, service.LifecycleConfig{
		BaseURL:              cfg.BaseURL,
		Location:             loc,
		ReminderLead:         cfg.ReminderLead,
		FeedbackRequestDelay: cfg.FeedbackRequestDelay,
	}, logger)
	feedback := service.NewFeedbackService(st, codec, summarizer, notifier, service.FeedbackConfig{
		BaseURL:            cfg.BaseURL,
		Location:           loc,
		ConsolidationDelay: cfg.ConsolidationDelay,
	}, logger)
	calendarService := service.NewCalendarService(st, busySource, logger)
	orchestrator := service.NewOrchestrator(st, lifecycle, feedback, service.OrchestratorConfig{
		ReminderLead:         cfg.ReminderLead,
		FeedbackRequestDelay: cfg.FeedbackRequestDelay,
	}, logger)

	a.scheduler = NewScheduler(orchestrator, cfg.TickInterval, logger)
	a.server = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewServer(scheduling, feedback, calendarService, logger).Router(cfg.IsProduction()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

func (a *App) openStore(ctx context.Context) (store.Store, error) {
	if a.cfg.StorageDriver == config.StorageMemory {
		a.logger.Warn("Using in-memory storage, data is lost on restart")
		return memstore.New(), nil
	}

	pool, err := pgxpool.New(ctx, a.cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("create db pool: %w", err)
	}
	a.pool = pool
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	a.logger.Info("Connected to database")

	migrator, err := NewMigrator(pool, migrations.FS, a.logger)
	if err != nil {
		return nil, err
	}
	defer migrator.Close()
	if err := migrator.Run(ctx); err != nil {
		return nil, err
	}

	return repository.NewStore(pool), nil
}

func (a *App) newLocker(ctx context.Context) (lock.Locker, error) {
	if a.cfg.RedisAddr == "" {
		return lock.NewLocal(), nil
	}

	a.redis = redis.NewClient(&redis.Options{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	})
	if err := a.redis.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	a.logger.Info("Using Redis booking locks", zap.String("addr", a.cfg.RedisAddr))
	return lock.NewRedis(a.redis, a.cfg.LockTTL, a.logger), nil
}

func (a *App) newNotifier(ctx context.Context) (notify.Notifier, error) {
	if a.cfg.Notifier == config.ModeMock {
		return notify.NewMock(os.Stdout), nil
	}

	mailer, err := notify.NewSESMailer(ctx, a.cfg.AWSRegion, a.cfg.SESFrom)
	if err != nil {
		return nil, err
	}

	var broadcasters []notify.Broadcaster
	if a.cfg.TelegramToken != "" {
		tg, err := notify.NewTelegramBroadcaster(a.cfg.TelegramToken, a.cfg.TelegramChatID)
		if err != nil {
			return nil, err
		}
		broadcasters = append(broadcasters, tg)
	}
	if a.cfg.SNSTopicARN != "" {
		sns, err := notify.NewSNSBroadcaster(ctx, a.cfg.AWSRegion, a.cfg.SNSTopicARN)
		if err != nil {
			return nil, err
		}
		broadcasters = append(broadcasters, sns)
	}
	if len(broadcasters) == 0 {
		a.logger.Warn("No broadcast channel configured")
	}
	return notify.NewDispatcher(mailer, broadcasters...), nil
}

func (a *App) newSummarizer() (summary.Summarizer, error) {
	if a.cfg.Summarizer == config.SummarizerMock {
		return summary.NewMock(), nil
	}
	return summary.NewOpenAI(summary.OpenAIConfig{
		APIKey:  a.cfg.OpenAIAPIKey,
		Model:   a.cfg.OpenAIModel,
		BaseURL: a.cfg.OpenAIBaseURL,
		Timeout: a.cfg.SummarizerTimeout,
	})
}

// Run serves HTTP and runs the orchestration loop until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.scheduler.Start(ctx)
	defer a.scheduler.Stop()

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server listening", zap.String("addr", a.cfg.HTTPAddr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
