// Command accountsd exposes the accounts email flows over HTTP.
//
// All configuration comes from the environment, see config.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/lmittmann/tint"
	"github.com/verimail/accounts"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// config is read from the environment.
type config struct {
	Addr     string `env:"ADDR" envDefault:":8080"`
	MongoURI string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	DBName   string `env:"DB_NAME"`
	SiteURL  string `env:"SITE_URL"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	SMTPHost     string `env:"SMTP_HOST,required,notEmpty"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPTLS      bool   `env:"SMTP_TLS" envDefault:"true"`

	MailFrom string `env:"MAIL_FROM"`
	SiteName string `env:"SITE_NAME"`
}

// setupLogger configures the global slog logger.
func setupLogger(level, format string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = tint.NewHandler(os.Stdout, &tint.Options{Level: logLevel})
	}

	slog.SetDefault(slog.New(handler))
}

func main() {
	if err := run(); err != nil {
		slog.Error("accountsd failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}

	setupLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return fmt.Errorf("connecting to mongo: %w", err)
	}
	defer mongoClient.Disconnect(context.Background())
	if err := mongoClient.Ping(ctx, nil); err != nil {
		return fmt.Errorf("pinging mongo: %w", err)
	}

	mailer, err := accounts.NewSMTPMailer(accounts.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		TLS:      cfg.SMTPTLS,
	})
	if err != nil {
		return fmt.Errorf("creating mailer: %w", err)
	}

	accountsCfg := accounts.Config{
		DBName:  cfg.DBName,
		SiteURL: cfg.SiteURL,
	}
	if cfg.MailFrom != "" || cfg.SiteName != "" {
		siteName := cfg.SiteName
		if siteName == "" {
			siteName = cfg.SiteURL
		}
		templates := accounts.DefaultEmailTemplates(siteName)
		if cfg.MailFrom != "" {
			templates.From = cfg.MailFrom
		}
		accountsCfg.Templates = &templates
	}

	acc := accounts.New(mongoClient, mailer, accountsCfg)
	if err := acc.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensuring indexes: %w", err)
	}

	h := &handlers{accounts: acc, logger: slog.Default()}

	slog.Info("starting accountsd", "addr", cfg.Addr, "mongo", cfg.MongoURI)
	return http.ListenAndServe(cfg.Addr, h.routes())
}
