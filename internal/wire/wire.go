// Package wire provides dependency injection for the logitrack application.
// It creates singleton services with lazy initialization.
package wire

import (
	"context"
	"database/sql"
	"io"
	"log"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/example/logitrack/internal/adapters/api"
	cliadapter "github.com/example/logitrack/internal/adapters/cli"
	"github.com/example/logitrack/internal/adapters/kafka"
	"github.com/example/logitrack/internal/adapters/mail"
	"github.com/example/logitrack/internal/adapters/phone"
	"github.com/example/logitrack/internal/adapters/push"
	"github.com/example/logitrack/internal/adapters/sqlite"
	"github.com/example/logitrack/internal/adapters/websocket"
	"github.com/example/logitrack/internal/app"
	"github.com/example/logitrack/internal/config"
	"github.com/example/logitrack/internal/db"
	"github.com/example/logitrack/internal/logging"
	"github.com/example/logitrack/internal/ports/primary"
	"github.com/example/logitrack/internal/ports/secondary"
)

var (
	configPath string

	cfg               *config.Config
	logger            *zap.Logger
	database          *sql.DB
	repos             secondary.Repositories
	hub               *websocket.Hub
	executor          *app.DefaultEffectExecutor
	escalationService primary.EscalationService
	contactService    primary.ContactService
	closers           []io.Closer
	once              sync.Once
)

// SetConfigPath selects the config file. It must be called before any accessor.
func SetConfigPath(path string) {
	configPath = path
}

// Config returns the loaded configuration.
func Config() *config.Config {
	once.Do(initServices)
	return cfg
}

// Logger returns the process logger.
func Logger() *zap.Logger {
	once.Do(initServices)
	return logger
}

// DB returns the shared database handle.
func DB() *sql.DB {
	once.Do(initServices)
	return database
}

// Users returns the user repository, used to resolve CLI actors.
func Users() secondary.UserRepository {
	once.Do(initServices)
	return repos.Users
}

// EscalationService returns the singleton EscalationService instance.
func EscalationService() primary.EscalationService {
	once.Do(initServices)
	return escalationService
}

// ContactService returns the singleton ContactService instance.
func ContactService() primary.ContactService {
	once.Do(initServices)
	return contactService
}

// Server builds the HTTP server over the singleton services.
func Server() *api.Server {
	once.Do(initServices)
	auth := api.NewAuthHandler(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	return api.NewServer(logger, cfg.Server, auth, api.Deps{
		Escalations: escalationService,
		Contacts:    contactService,
		Hub:         hub,
		Health:      database.PingContext,
	})
}

// AuthHandler returns a token handler configured from auth settings.
func AuthHandler() *api.AuthHandler {
	once.Do(initServices)
	return api.NewAuthHandler(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
}

// EscalationAdapter returns a new EscalationAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func EscalationAdapter() *cliadapter.EscalationAdapter {
	return EscalationAdapterWithOutput(os.Stdout)
}

// EscalationAdapterWithOutput returns a new EscalationAdapter writing to the given output.
func EscalationAdapterWithOutput(out io.Writer) *cliadapter.EscalationAdapter {
	once.Do(initServices)
	return cliadapter.NewEscalationAdapter(escalationService, out)
}

// ContactAdapter returns a new ContactAdapter writing to stdout.
func ContactAdapter() *cliadapter.ContactAdapter {
	return ContactAdapterWithOutput(os.Stdout)
}

// ContactAdapterWithOutput returns a new ContactAdapter writing to the given output.
func ContactAdapterWithOutput(out io.Writer) *cliadapter.ContactAdapter {
	once.Do(initServices)
	return cliadapter.NewContactAdapter(contactService, out)
}

// Shutdown waits for in-flight notifications, then releases sinks and the database.
// It is a no-op when nothing was initialized.
func Shutdown() {
	if executor != nil {
		executor.Wait()
	}
	for _, c := range closers {
		if err := c.Close(); err != nil && logger != nil {
			logger.Warn("failed to close sink", zap.Error(err))
		}
	}
	closers = nil
	if database != nil {
		_ = database.Close()
	}
	if logger != nil {
		_ = logger.Sync()
	}
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	var err error

	cfg, err = config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err = logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	database, err = db.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// Create repository adapters (secondary ports) - sqlite adapters with injected DB
	transactor := sqlite.NewTransactor(database)
	repos = sqlite.NewRepositories(database)

	hub = websocket.NewHub(logger, websocket.Options{
		PingInterval:   cfg.WebSocket.PingInterval,
		WriteTimeout:   cfg.WebSocket.WriteTimeout,
		SendBuffer:     cfg.WebSocket.SendBuffer,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	publishers, pagers := buildSinks()

	// Create effect executor over every configured sink
	executor = app.NewEffectExecutor(logger, cfg.Notify.Timeout, publishers, pagers)

	// Create services (primary ports implementation)
	escalationService = app.NewEscalationService(transactor, repos, executor, logger)
	contactService = app.NewContactService(transactor, repos, logger)
}

func buildSinks() ([]secondary.EventPublisher, []secondary.Pager) {
	publishers := []secondary.EventPublisher{hub}
	pagers := []secondary.Pager{phone.NewLogPager(logger)}

	if cfg.Kafka.Enabled {
		publisher, err := kafka.NewPublisher(kafka.Config{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			WriteTimeout: cfg.Kafka.WriteTimeout,
		}, logger)
		if err != nil {
			log.Fatalf("failed to initialize kafka publisher: %v", err)
		}
		publishers = append(publishers, publisher)
		closers = append(closers, publisher)
	}

	if cfg.Mail.Enabled {
		pagers = append(pagers, mail.NewPager(cfg.Mail, logger))
	}

	if cfg.Push.Enabled {
		pager, err := push.NewPager(context.Background(), cfg.Push, logger)
		if err != nil {
			log.Fatalf("failed to initialize push pager: %v", err)
		}
		pagers = append(pagers, pager)
	}

	return publishers, pagers
}
