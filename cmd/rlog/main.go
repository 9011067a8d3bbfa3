package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"rlog/internal/application/port"
	"rlog/internal/application/relay"
	"rlog/internal/infrastructure/config"
	"rlog/internal/infrastructure/logger"
	"rlog/internal/infrastructure/sink/board"
	"rlog/internal/infrastructure/sink/composite"
	"rlog/internal/infrastructure/sink/postgres"
	redissink "rlog/internal/infrastructure/sink/redis"
	"rlog/internal/infrastructure/sink/snapshot"
	"rlog/internal/infrastructure/sink/sqlite"
	"rlog/internal/interfaces/jsonl"
)

func main() {
	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	inputPath := flag.String("input", "-", "records file (JSON lines), - for stdin")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	logger.Setup(*verbose)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// sinks (infrastructure -> application port)
	var sinks []port.RecordSink
	if cfg.Snapshot.Enabled {
		s, err := snapshot.New(cfg.Snapshot.Dir)
		if err != nil {
			log.Fatal().Err(err).Str("dir", cfg.Snapshot.Dir).Msg("snapshot sink failed")
		}
		sinks = append(sinks, s)
	} else {
		log.Warn().Msg("snapshot sink disabled by config")
	}
	if cfg.Board.Enabled {
		s, err := board.Dial(ctx, cfg.Board.URL, time.Duration(cfg.Board.DialTimeoutSec)*time.Second)
		if err != nil {
			log.Fatal().Err(err).Str("url", cfg.Board.URL).Msg("board sink failed")
		}
		sinks = append(sinks, s)
	}
	if cfg.SQLite.Enabled {
		s, err := sqlite.New(cfg.SQLite.Path)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.SQLite.Path).Msg("sqlite sink failed")
		}
		sinks = append(sinks, s)
	}
	if cfg.Postgres.Enabled {
		s, err := postgres.New(cfg.Postgres.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres sink failed")
		}
		sinks = append(sinks, s)
	}
	if cfg.Redis.Enabled {
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.Redis.Addr})
		sinks = append(sinks, redissink.New(rdb, cfg.Redis.Prefix))
	}

	if len(sinks) == 0 {
		log.Fatal().Msg("no sinks enabled")
	}
	sink := composite.New(sinks...)
	defer func() {
		if err := sink.Close(); err != nil {
			log.Error().Err(err).Msg("sink close failed")
		}
	}()

	var in io.Reader = os.Stdin
	if *inputPath != "-" {
		f, err := os.Open(*inputPath)
		if err != nil {
			log.Fatal().Err(err).Str("input", *inputPath).Msg("open input failed")
		}
		defer f.Close()
		in = f
	}

	log.Info().
		Str("config", *configPath).
		Int("sinks", len(sinks)).
		Msg("rlog started")

	records, readErrs := jsonl.Read(ctx, in)

	stats, err := relay.NewService(sink).Run(ctx, records)
	if err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("relay exited")
	}
	if rerr := <-readErrs; rerr != nil && ctx.Err() == nil {
		log.Error().Err(rerr).Msg("input read failed")
	}

	log.Info().
		Int("received", stats.Received).
		Int("failed", stats.Failed).
		Msg("rlog finished")
}
