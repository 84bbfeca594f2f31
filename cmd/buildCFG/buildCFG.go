package buildCFG

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"

	"gala/internal/mailer"
	"gala/internal/notify"
)

type ServerConfig struct {
	Port      string
	JWTSecret string
}

type RabbitConfig struct {
	Url      string
	Exchange string
	Queue    string
}

func BuildServerConfig(cfg *config.Config, log *zerolog.Logger) *ServerConfig {
	port := cfg.GetString("server.port")
	if port == "" {
		port = "8080"
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = cfg.GetString("server.jwt_secret")
	}
	if secret == "" {
		log.Fatal().Msg("JWT secret is not configured")
	}
	return &ServerConfig{Port: port, JWTSecret: secret}
}

func BuildDBConfig(cfg *config.Config, log *zerolog.Logger) (string, []string, *dbpg.Options, error) {
	masterDSN := os.Getenv("DATABASE_DSN")
	if masterDSN == "" {
		masterDSN = cfg.GetString("database.master_dsn")
	}
	if masterDSN == "" {
		return "", nil, nil, fmt.Errorf("database master DSN is not configured")
	}

	slaveDSNs := cfg.GetStringSlice("database.slave_dsns")

	opts := &dbpg.Options{
		MaxOpenConns:    cfg.GetInt("database.max_open_conns"),
		MaxIdleConns:    cfg.GetInt("database.max_idle_conns"),
		ConnMaxLifetime: time.Duration(cfg.GetInt("database.conn_max_lifetime_sec")) * time.Second,
	}
	log.Info().Int("slaves", len(slaveDSNs)).Msg("database config built")
	return masterDSN, slaveDSNs, opts, nil
}

func BuildRabbitConfig(cfg *config.Config, log *zerolog.Logger) (*RabbitConfig, error) {
	url := os.Getenv("RABBIT_URL")
	if url == "" {
		url = cfg.GetString("rabbit.url")
	}
	if url == "" {
		return nil, fmt.Errorf("rabbit URL is not configured")
	}
	rc := &RabbitConfig{
		Url:      url,
		Exchange: cfg.GetString("rabbit.exchange"),
		Queue:    cfg.GetString("rabbit.queue"),
	}
	if rc.Exchange == "" || rc.Queue == "" {
		return nil, fmt.Errorf("rabbit exchange/queue are not configured")
	}
	return rc, nil
}

func BuildMailConfig(cfg *config.Config, log *zerolog.Logger) (mailer.Config, error) {
	mc := mailer.Config{
		Host:     cfg.GetString("smtp.host"),
		Port:     cfg.GetString("smtp.port"),
		From:     cfg.GetString("smtp.from"),
		Password: os.Getenv("SMTP_PASSWORD"),
	}
	if mc.Host == "" || mc.From == "" {
		return mc, fmt.Errorf("smtp host/from are not configured")
	}
	if mc.Port == "" {
		mc.Port = "587"
	}
	return mc, nil
}

func BuildNotifyConfig(cfg *config.Config, log *zerolog.Logger) (notify.Config, error) {
	nc := notify.Config{
		InternalAddress: cfg.GetString("notify.internal_address"),
		GuestBaseURL:    cfg.GetString("notify.guest_base_url"),
	}
	if nc.InternalAddress == "" || nc.GuestBaseURL == "" {
		return nc, fmt.Errorf("notify internal_address/guest_base_url are not configured")
	}
	return nc, nil
}
