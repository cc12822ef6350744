// Package util contains setup shared by the commands.
package util

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/samber/lo"

	"github.com/mpapenbr/f1-telemetry-dashboard-go/log"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/config"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/model"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/source"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/source/fake"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/source/openf1"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/utils"
)

func ParseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

// SetupLogger creates the logger according to the log config values and
// installs it as default.
func SetupLogger() *log.Logger {
	var logger *log.Logger
	switch config.LogFormat {
	case "json":
		logger = log.New(
			os.Stderr,
			ParseLogLevel(config.LogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	default:
		logger = log.DevLogger(
			os.Stderr,
			ParseLogLevel(config.LogLevel, log.DebugLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	}
	if config.LogFilter != "" {
		filtered, err := logger.WithFilter(config.LogFilter)
		if err != nil {
			logger.Warn("ignoring invalid log filter",
				log.String("filter", config.LogFilter), log.ErrorField(err))
		} else {
			logger = filtered
		}
	}
	log.ResetDefault(logger)
	return logger
}

func SessionType() model.SessionType {
	st, err := model.ParseSessionType(config.SessionType)
	if err != nil {
		log.Warn("Invalid session type. Using Race", log.ErrorField(err))
		return model.SessionTypeRace
	}
	return st
}

// NewDataAccess creates the demo source or the OpenF1 client.
func NewDataAccess() source.DataAccess {
	if config.Demo {
		log.Info("Using demo data", log.Int("year", config.Year))
		return fake.Demo(config.Year, SessionType())
	}
	opts := []openf1.Option{
		openf1.WithTimeout(parseDuration(config.SourceTimeout, 30*time.Second)),
	}
	if config.SourceURL != "" {
		opts = append(opts, openf1.WithBaseURL(config.SourceURL))
	}
	if config.CircuitURL != "" {
		opts = append(opts, openf1.WithCircuitURL(config.CircuitURL))
	}
	return openf1.New(opts...)
}

func NewResolver(da source.DataAccess) *source.Resolver {
	return source.NewResolver(da,
		source.WithScheduleTTL(parseDuration(config.ScheduleTTL, time.Hour)),
		source.WithSessionType(SessionType()))
}

// WaitForRequiredServices blocks until the session source and the NATS
// server (if configured) are reachable. The demo source needs no network.
func WaitForRequiredServices(ctx context.Context) error {
	timeout := parseDuration(config.WaitForServices, 60*time.Second)
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	check := func(f func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f(); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}
	if !config.Demo {
		sourceURL := lo.Ternary(config.SourceURL != "", config.SourceURL, openf1.DefaultBaseURL)
		check(func() error { return utils.WaitForHTTPResponse(ctx, sourceURL, timeout) })
	}
	if addr := utils.ExtractFromNatsURL(config.NatsURL); addr != "" {
		check(func() error { return utils.WaitForTCP(addr, timeout) })
	}
	log.Debug("Waiting for connection checks to return")
	wg.Wait()
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	log.Debug("Required services are available")
	return nil
}

// ConnectNats connects to the NATS server.
// It returns nil if no NATS URL is configured.
func ConnectNats() (*nats.Conn, error) {
	if config.NatsURL == "" {
		return nil, nil
	}
	return nats.Connect(config.NatsURL, nats.Name("ftd"))
}

func parseDuration(s string, defaultVal time.Duration) time.Duration {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Warn("Invalid duration value. Using default",
			log.String("value", s), log.Duration("default", defaultVal))
		return defaultVal
	}
	return d
}
