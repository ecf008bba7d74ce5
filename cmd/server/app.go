package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Beastie7/FlashLearn/internal/config"
	"github.com/Beastie7/FlashLearn/internal/domain/progress"
	"github.com/Beastie7/FlashLearn/internal/domain/session"
	"github.com/Beastie7/FlashLearn/internal/events"
	"github.com/Beastie7/FlashLearn/internal/generation"
	"github.com/Beastie7/FlashLearn/internal/platform/gemini"
	"github.com/Beastie7/FlashLearn/internal/platform/postgres"
	"github.com/Beastie7/FlashLearn/internal/service"
	"github.com/Beastie7/FlashLearn/internal/service/auth"
	"github.com/Beastie7/FlashLearn/internal/store"
	"github.com/Beastie7/FlashLearn/internal/task"
	"golang.org/x/crypto/bcrypt"
)

// application holds all shared dependencies for the server. It is built
// once in newApplication and passed to the router and background jobs.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores
	userStore     store.UserStore
	deckStore     store.DeckStore
	progressStore store.ProgressStore

	// Auth
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier

	// Background task infrastructure
	taskQueue  *task.TaskQueue
	workerPool *task.WorkerPool
	emitter    *events.InMemoryEventEmitter

	// Services
	userService     service.UserService
	deckService     service.DeckService
	studyService    service.StudyService
	progressService service.ProgressService

	jobs *jobScheduler
}

// newApplication wires up stores, services, and the background task
// pipeline. The Gemini generator is optional: when no API key is
// configured, deck generation endpoints report the feature as
// unavailable instead of failing at startup.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if db == nil {
		return nil, fmt.Errorf("database connection cannot be nil")
	}

	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	// Stores
	app.userStore = postgres.NewPostgresUserStore(db, logger, bcrypt.DefaultCost)
	app.deckStore = postgres.NewPostgresDeckStore(db, logger)
	app.progressStore = postgres.NewPostgresProgressStore(db, logger)

	// Auth components
	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}
	app.jwtService = jwtService
	app.passwordVerifier = auth.NewBcryptVerifier()

	// Deck generation pipeline. The generator is only constructed when
	// an API key is present; without it the emitter stays nil and the
	// deck service reports generation as unavailable.
	var generator generation.Generator
	if cfg.LLM.GeminiAPIKey != "" {
		g, err := gemini.NewGeminiGenerator(ctx, logger, cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("failed to create card generator: %w", err)
		}
		generator = g
	} else {
		logger.Warn("no Gemini API key configured, deck generation disabled")
	}

	var emitter events.EventEmitter
	if generator != nil {
		app.taskQueue = task.NewTaskQueue(cfg.Task.QueueSize, logger)
		app.workerPool = task.NewWorkerPool(app.taskQueue, task.WorkerPoolConfig{
			WorkerCount: cfg.Task.WorkerCount,
		}, logger)
		app.emitter = events.NewInMemoryEventEmitter(logger)
		emitter = app.emitter
	}

	// Services
	app.userService = service.NewUserService(app.userStore, app.passwordVerifier, db, logger)
	deckService := service.NewDeckService(
		app.deckStore,
		app.progressStore,
		emitter,
		db,
		generator != nil,
		logger,
	)
	app.deckService = deckService
	app.progressService = service.NewProgressService(app.deckStore, app.progressStore, db, logger)
	app.studyService = service.NewStudyService(
		app.deckStore,
		app.progressStore,
		db,
		progress.NewCalculator(time.Local),
		session.NewScheduler(),
		time.Duration(cfg.Study.RevealDelayMillis)*time.Millisecond,
		logger,
	)

	// The event handler closes the loop: generation requests emitted by
	// the deck service become queued tasks, and finished drafts are
	// persisted back through the deck service.
	if generator != nil {
		handler := task.NewDeckGenerationEventHandler(
			generator,
			deckService,
			app.taskQueue,
			logger,
		)
		app.emitter.RegisterHandler(handler)
		app.workerPool.Start()
	}

	app.jobs = newJobScheduler(app.studyService, cfg.Study, logger)

	return app, nil
}

// Run starts background jobs and the HTTP server, blocking until
// shutdown completes.
func (app *application) Run(ctx context.Context) error {
	app.jobs.Start()
	return app.startHTTPServer(ctx, app.setupRouter())
}

// cleanup releases resources in reverse dependency order. It is called
// after the HTTP server has drained its in-flight requests.
func (app *application) cleanup() {
	if app.jobs != nil {
		app.jobs.Stop()
	}

	if app.workerPool != nil {
		app.workerPool.Stop()
	}
	if app.taskQueue != nil {
		app.taskQueue.Close()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", "error", err)
		}
	}
}

// healthHandler reports liveness. It intentionally does not touch the
// database so load balancers can distinguish process health from
// dependency health.
func (app *application) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		app.logger.Error("failed to write health check response", "error", err)
	}
}
