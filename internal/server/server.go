package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/emrgen/lexicon/internal/auth"
	"github.com/emrgen/lexicon/internal/cache"
	"github.com/emrgen/lexicon/internal/compress"
	"github.com/emrgen/lexicon/internal/config"
	"github.com/emrgen/lexicon/internal/jobs"
	"github.com/emrgen/lexicon/internal/queue"
	"github.com/emrgen/lexicon/internal/service"
	"github.com/emrgen/lexicon/internal/store"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Server represents the server
type Server struct {
	cfg *config.Config
}

// NewServer creates a new server
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

// Start starts the server and blocks until it is interrupted.
func (s *Server) Start() {
	if err := Start(s.cfg); err != nil {
		logrus.Fatalf("error starting server: %v", err)
	}
}

// Deps is the wired moderation core.
type Deps struct {
	Store   *store.GormStore
	Service *service.ModerationService
	Audit   *jobs.InvariantAuditTask
	closers []func() error
}

// Close releases the cache and queue connections.
func (d *Deps) Close() {
	for _, c := range d.closers {
		if err := c(); err != nil {
			logrus.Warnf("close: %v", err)
		}
	}
}

// Wire opens the database and connects the optional redis cache and kafka
// queue. Redis and kafka are only used when their address is configured.
func Wire(ctx context.Context, cfg *config.Config) (*Deps, error) {
	db, err := config.OpenDB(cfg)
	if err != nil {
		return nil, err
	}

	st := store.NewGormStore(db)
	if err = st.Migrate(); err != nil {
		return nil, err
	}

	codec, err := compress.New(cfg.LedgerCompression)
	if err != nil {
		return nil, err
	}

	deps := &Deps{Store: st}

	var wordCache cache.WordCache = cache.Nop{}
	if cfg.RedisAddr != "" {
		redis := cache.NewRedisWordCache(cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
		})
		if err = redis.Ping(ctx); err != nil {
			_ = redis.Close()
			return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		deps.closers = append(deps.closers, redis.Close)
		wordCache = redis
	}

	var contributions queue.ContributionQueue = queue.Nop{}
	if cfg.KafkaBrokers != "" {
		kafka, err := queue.NewKafkaContributionQueue(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.closers = append(deps.closers, kafka.Close)
		contributions = kafka
	}

	deps.Service = service.NewModerationService(st, codec, wordCache, contributions)
	deps.Audit = jobs.NewInvariantAuditTask(st, cfg.AuditSchedule)

	return deps, nil
}

// Start serves the REST api and runs the invariant audit on its schedule.
func Start(cfg *config.Config) error {
	deps, err := Wire(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	httpPort := ":" + cfg.HTTPPort
	rl, err := net.Listen("tcp", httpPort)
	if err != nil {
		return err
	}

	executor := jobs.NewTaskExecutor(deps.Audit)
	if err = executor.Run(); err != nil {
		return err
	}
	defer executor.Stop()

	restServer := &http.Server{
		Addr:              httpPort,
		Handler:           NewRouter(deps.Service, auth.NewHeaderProvider(cfg.Moderators...)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// make sure to wait for the server to stop before exiting
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		logrus.Info("starting rest server on: ", httpPort)
		if err := restServer.Serve(rl); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logrus.Errorf("error starting rest server: %v", err)
			}
		}
		logrus.Infof("rest server stopped")
	}()

	logrus.Infof("Press Ctrl+C to stop the server")

	// listen for interrupt signal to gracefully shut down the server
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, unix.SIGTERM, unix.SIGINT, unix.SIGTSTP)
	<-sigs
	// clean Ctrl+C output
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = restServer.Shutdown(ctx); err != nil {
		logrus.Errorf("error stopping rest server: %v", err)
	}

	wg.Wait()

	return nil
}
