package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"career-copilot/internal/ai"
	"career-copilot/internal/api"
	"career-copilot/internal/auth"
	"career-copilot/internal/billing"
	"career-copilot/internal/copilot"
	"career-copilot/internal/hero"
	"career-copilot/internal/interview"
	"career-copilot/internal/notifier"
	"career-copilot/internal/storage"
	"career-copilot/internal/subscription"
)

// AppConfig 应用配置。
type AppConfig struct {
	Server   ServerConfig         `yaml:"server"`
	Database DatabaseConfig       `yaml:"database"`
	API      api.Config           `yaml:"api"`
	Auth     auth.Config          `yaml:"auth"`
	OAuth    auth.OAuthConfig     `yaml:"google_oauth"`
	Email    notifier.EmailConfig `yaml:"email"`
	AI       ai.Config            `yaml:"ai"`
	Billing  billing.Config       `yaml:"billing"`
	Quota    subscription.Config  `yaml:"quota"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Printf("load config error: %v", err)
		return
	}
	if cfg.Auth.JWTSecret == "" {
		log.Printf("auth.jwt_secret (or JWT_SECRET) is required")
		return
	}

	dsn := cfg.Database.DSN
	if dsn == "" {
		dsn = "career.db"
	}
	store, err := storage.NewStore(dsn)
	if err != nil {
		log.Printf("init store error: %v", err)
		return
	}
	defer store.Close()

	provider, err := ai.New(cfg.AI, &http.Client{Timeout: 60 * time.Second})
	if err != nil {
		log.Printf("init ai provider error: %v", err)
		return
	}

	issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret)
	authSvc := auth.NewService(store, issuer, buildSender(cfg.Email), cfg.Email, cfg.Auth)
	google := auth.NewGoogleOAuth(cfg.OAuth, authSvc)

	quota := subscription.NewService(store, cfg.Quota)
	copilotSvc := copilot.NewService(provider, store, quota)
	heroBuilder := hero.NewBuilder(provider, hero.NewCache(0), store)
	interviewSvc := interview.NewService(provider, store)

	billingClient := billing.NewClient(cfg.Billing, nil)
	webhook := billing.NewWebhookHandler(cfg.Billing.WebhookSecret, store, billingClient)

	server := api.NewServer(cfg.API, api.Deps{
		Store:     store,
		Auth:      authSvc,
		Issuer:    issuer,
		Google:    google,
		Quota:     quota,
		Copilot:   copilotSvc,
		Hero:      heroBuilder,
		Interview: interviewSvc,
		Provider:  provider,
		Billing:   billingClient,
		Webhook:   webhook,
	})

	addr := cfg.Server.Addr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{Addr: addr, Handler: server.Handler(cfg.API)}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("server error: %v", err)
	}
}

func loadConfig() (AppConfig, error) {
	// .env 可选，本地开发用。
	_ = godotenv.Load()

	var cfg AppConfig
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return AppConfig{}, err
		}
	} else if !os.IsNotExist(err) || os.Getenv("CONFIG_FILE") != "" {
		return AppConfig{}, err
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

// 密钥类配置只从环境变量读取，yaml 里留非敏感项。
func applyEnvOverrides(cfg *AppConfig) {
	setIfPresent(&cfg.Database.DSN, "DATABASE_URL")
	setIfPresent(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setIfPresent(&cfg.AI.OpenAI.APIKey, "OPENAI_API_KEY")
	setIfPresent(&cfg.Billing.SecretKey, "STRIPE_SECRET_KEY")
	setIfPresent(&cfg.Billing.WebhookSecret, "STRIPE_WEBHOOK_SECRET")
	setIfPresent(&cfg.OAuth.ClientID, "GOOGLE_CLIENT_ID")
	setIfPresent(&cfg.OAuth.ClientSecret, "GOOGLE_CLIENT_SECRET")
	setIfPresent(&cfg.OAuth.SessionSecret, "SESSION_SECRET")
}

func setIfPresent(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func buildSender(cfg notifier.EmailConfig) notifier.EmailSender {
	if cfg.Host == "" || cfg.Port == 0 || cfg.From == "" {
		log.Printf("smtp not configured, login links go to the log")
		return notifier.NewLogSender(nil)
	}
	return notifier.NewSMTPClient(cfg)
}
