// Package buildCFG turns the loaded config file into the typed
// configs main wires the application with.
package buildCFG

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
)

type ServerConfig struct {
	Port   string
	Origin string
}

type RabbitConfig struct {
	Url      string
	Exchange string
	Queue    string
}

type StorageConfig struct {
	Dir     string
	BaseURL string
}

func BuildServerConfig(cfg *config.Config, log *zerolog.Logger) ServerConfig {
	port := cfg.GetString("server.port")
	if port == "" {
		port = "8080"
		log.Warn().Msg("server.port not set, defaulting to 8080")
	}

	origin := cfg.GetString("server.origin")
	if origin == "" {
		origin = "http://localhost:" + port
		log.Warn().Msgf("server.origin not set, defaulting to %s", origin)
	}

	return ServerConfig{Port: port, Origin: origin}
}

func BuildDBConfig(cfg *config.Config, log *zerolog.Logger) (string, []string, *dbpg.Options, error) {
	masterDSN := cfg.GetString("database.master_dsn")
	if masterDSN == "" {
		return "", nil, nil, fmt.Errorf("database.master_dsn is required")
	}

	slaveDSNs := cfg.GetStringSlice("database.slave_dsns")

	opts := &dbpg.Options{
		MaxOpenConns:    cfg.GetInt("database.max_open_conns"),
		MaxIdleConns:    cfg.GetInt("database.max_idle_conns"),
		ConnMaxLifetime: time.Duration(cfg.GetInt("database.conn_max_lifetime_minutes")) * time.Minute,
	}
	if opts.MaxOpenConns == 0 {
		opts.MaxOpenConns = 10
	}
	if opts.MaxIdleConns == 0 {
		opts.MaxIdleConns = 5
	}

	log.Info().Int("slaves", len(slaveDSNs)).Msg("database config built")
	return masterDSN, slaveDSNs, opts, nil
}

func BuildRabbitConfig(cfg *config.Config, log *zerolog.Logger) (RabbitConfig, error) {
	rc := RabbitConfig{
		Url:      cfg.GetString("rabbit.url"),
		Exchange: cfg.GetString("rabbit.exchange"),
		Queue:    cfg.GetString("rabbit.queue"),
	}
	if rc.Url == "" {
		return RabbitConfig{}, fmt.Errorf("rabbit.url is required")
	}
	if rc.Exchange == "" {
		rc.Exchange = "pass.expiry.delayed"
	}
	if rc.Queue == "" {
		rc.Queue = "pass.expiry"
	}

	log.Info().Str("exchange", rc.Exchange).Str("queue", rc.Queue).Msg("rabbit config built")
	return rc, nil
}

func BuildStorageConfig(cfg *config.Config, serverCfg ServerConfig) StorageConfig {
	sc := StorageConfig{
		Dir:     cfg.GetString("storage.dir"),
		BaseURL: cfg.GetString("storage.base_url"),
	}
	if sc.Dir == "" {
		sc.Dir = "./uploads"
	}
	if sc.BaseURL == "" {
		sc.BaseURL = serverCfg.Origin + "/uploads"
	}
	return sc
}
