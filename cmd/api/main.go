package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/vmx-pso/lesson-service/internal/blob"
	"github.com/vmx-pso/lesson-service/internal/config"
	"github.com/vmx-pso/lesson-service/internal/data"
	"github.com/vmx-pso/lesson-service/internal/jsonlog"
	"github.com/vmx-pso/lesson-service/internal/mailer"

	_ "github.com/lib/pq"
)

const version = "0.1.0"

type mailSender interface {
	Send(recipient, templateFile string, data any) error
}

type limiterConfig struct {
	enabled bool
	rps     float64
	burst   int
}

type server struct {
	port           int
	env            string
	router         *httprouter.Router
	handler        http.Handler
	logger         *jsonlog.Logger
	db             *sql.DB
	models         *data.Models
	mailer         mailSender
	blobs          blob.Store
	limiter        limiterConfig
	trustedOrigins []string
	metrics        *metrics
	wg             sync.WaitGroup
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func main() {
	logger := jsonlog.New(os.Stdout, jsonlog.LevelInfo)
	if err := run(os.Args, os.Getenv, logger); err != nil {
		logger.PrintFatal(err, nil)
	}
}

func run(args []string, getenv func(string) string, logger *jsonlog.Logger) error {
	cfg, err := loadConfig(args, getenv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if lvl, ok := jsonlog.ParseLevel(cfg.Log.Level); ok && lvl != jsonlog.LevelInfo {
		logger = jsonlog.New(os.Stdout, lvl)
	}

	db, err := openDB(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.PrintInfo("database connection pool established", nil)

	blobs, err := blob.Open(context.Background(), blob.Config{
		Driver:          cfg.Blob.Driver,
		Bucket:          cfg.Blob.Bucket,
		Region:          cfg.Blob.Region,
		Endpoint:        cfg.Blob.Endpoint,
		AccessKeyID:     cfg.Blob.AccessKeyID,
		SecretAccessKey: cfg.Blob.SecretAccessKey,
		PathStyle:       cfg.Blob.PathStyle,
	})
	if err != nil {
		return err
	}
	logger.PrintInfo("blob store ready", map[string]string{"driver": blobs.Driver()})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, "lessons"),
	)

	srv := newServer(cfg, logger, data.NewModels(db), registry)
	srv.db = db
	srv.blobs = blobs
	srv.mailer = mailer.New(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Sender)

	return srv.serve()
}

func newServer(cfg *config.Config, logger *jsonlog.Logger, models *data.Models, registry *prometheus.Registry) *server {
	srv := &server{
		port:   cfg.Server.Port,
		env:    cfg.Server.Env,
		router: httprouter.New(),
		logger: logger,
		models: models,
		blobs:  blob.NewMemory(),
		limiter: limiterConfig{
			enabled: cfg.Limiter.Enabled,
			rps:     cfg.Limiter.RPS,
			burst:   cfg.Limiter.Burst,
		},
		trustedOrigins: cfg.Server.TrustedOrigins,
		metrics:        newMetrics(registry),
	}

	srv.router.NotFound = http.HandlerFunc(srv.notFoundResponse)
	srv.router.MethodNotAllowed = http.HandlerFunc(srv.methodNotAllowedResponse)

	srv.routes()

	return srv
}

// loadConfig layers defaults, the optional -config file, LESSONS_* variables and explicitly set flags.
func loadConfig(args []string, getenv func(string) string) (*config.Config, error) {
	flags := flag.NewFlagSet(args[0], flag.ContinueOnError)
	var (
		configPath   = flags.String("config", "", "path to a TOML configuration file")
		port         = flags.Int("port", 4000, "port to listen on")
		env          = flags.String("env", "development", "Environment (development|staging|production)")
		dsn          = flags.String("dsn", "", "PostgreSQL DSN")
		maxOpenConns = flags.Int("db-max-open-conns", 25, "PostgreSQL max open connections")
		maxIdleConns = flags.Int("db-max-idle-conns", 25, "PostgreSQL max idle connections")
		maxIdleTime  = flags.Duration("db-max-idle-time", 15*time.Minute, "PostgreSQL max connection idle time")
		limiterOn    = flags.Bool("limiter-enabled", true, "Enable rate limiter")
		limiterRPS   = flags.Float64("limiter-rps", 2, "Rate limiter maximum requests per second")
		limiterBurst = flags.Int("limiter-burst", 4, "Rate limiter maximum burst")
		origins      = flags.String("cors-trusted-origins", "", "Trusted CORS origins (space separated)")
		blobDriver   = flags.String("blob-driver", "", "Audio store driver (memory|s3)")
	)
	if err := flags.Parse(args[1:]); err != nil {
		return nil, err
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := cfg.ApplyEnv(getenv); err != nil {
		return nil, err
	}

	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Server.Port = *port
		case "env":
			cfg.Server.Env = *env
		case "dsn":
			cfg.Database.DSN = *dsn
		case "db-max-open-conns":
			cfg.Database.MaxOpenConns = *maxOpenConns
		case "db-max-idle-conns":
			cfg.Database.MaxIdleConns = *maxIdleConns
		case "db-max-idle-time":
			cfg.Database.MaxIdleTime.Duration = *maxIdleTime
		case "limiter-enabled":
			cfg.Limiter.Enabled = *limiterOn
		case "limiter-rps":
			cfg.Limiter.RPS = *limiterRPS
		case "limiter-burst":
			cfg.Limiter.Burst = *limiterBurst
		case "cors-trusted-origins":
			cfg.Server.TrustedOrigins = strings.Fields(*origins)
		case "blob-driver":
			cfg.Blob.Driver = *blobDriver
		}
	})

	return cfg, nil
}

func openDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxIdleTime(cfg.MaxIdleTime.Duration)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
