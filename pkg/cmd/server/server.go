package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // by design
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/mpapenbr/f1-telemetry-dashboard-go/log"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/cmd/util"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/config"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/notify"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/server"
)

//nolint:funlen // by design
func NewServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "starts the dashboard server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&config.Addr,
		"addr",
		"a",
		"localhost:8080",
		"server listen address")
	cmd.Flags().BoolVar(&config.Demo,
		"demo",
		false,
		"use built-in demo data instead of OpenF1")
	cmd.Flags().StringVar(&config.NatsURL,
		"nats-url",
		"",
		"if set, session changes are published to this NATS server")
	cmd.Flags().StringVar(&config.ScheduleTTL,
		"schedule-ttl",
		"1h",
		"duration season schedules are cached")
	cmd.Flags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	cmd.Flags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data (empty: stdout)")
	cmd.Flags().IntVar(&config.ProfilingPort,
		"profiling-port",
		0,
		"port to use for providing profiling data")
	return cmd
}

//nolint:funlen // by design
func startServer(ctx context.Context) error {
	util.SetupLogger()
	log.Debug("Config:",
		log.String("addr", config.Addr),
		log.Int("year", config.Year),
		log.String("sessionType", config.SessionType),
		log.Bool("demo", config.Demo),
		log.String("source", config.SourceURL),
		log.String("nats", config.NatsURL),
	)

	if config.ProfilingPort > 0 {
		log.Info("Starting profiling server on port", log.Int("port", config.ProfilingPort))
		go func() {
			//nolint:gosec // by design
			err := http.ListenAndServe(
				fmt.Sprintf("localhost:%d", config.ProfilingPort),
				nil)
			if err != nil {
				log.Error("Profiling server stopped", log.ErrorField(err))
			}
		}()
	}

	var telemetry *config.Telemetry
	if config.EnableTelemetry {
		log.Info("Enabling telemetry")
		var err error
		if telemetry, err = config.SetupTelemetry(ctx); err != nil {
			log.Warn("Could not setup telemetry", log.ErrorField(err))
		}
		err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
		if err != nil {
			log.Warn("Could not start runtime metrics", log.ErrorField(err))
		}
	}

	if err := util.WaitForRequiredServices(ctx); err != nil {
		log.Error("required services not ready", log.ErrorField(err))
		return err
	}
	da := util.NewDataAccess()
	publisher := notify.LogPublisher(log.Default().Named("notify"))
	conn, err := util.ConnectNats()
	if err != nil {
		log.Error("could not connect to NATS", log.ErrorField(err))
		return err
	}
	if conn != nil {
		defer conn.Close()
		log.Info("Publishing session changes to NATS", log.String("url", config.NatsURL))
		publisher = notify.Multi(publisher, notify.NewNatsPublisher(conn))
	}

	srv := server.New(da, util.NewResolver(da),
		server.WithYear(config.Year),
		server.WithPublisher(publisher))

	//nolint:gosec // by design
	httpServer := &http.Server{
		Addr:    config.Addr,
		Handler: srv.Handler(),
	}
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting server", log.String("addr", config.Addr))
		errChan <- httpServer.ListenAndServe()
	}()
	setupGoRoutinesDump()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case v := <-sigChan:
		log.Debug("Got signal ", log.Any("signal", v))
	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server could not be started", log.ErrorField(err))
			return err
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown", log.ErrorField(err))
	}
	if telemetry != nil {
		telemetry.Shutdown()
	}
	log.Info("Server terminated")
	return nil
}

func setupGoRoutinesDump() {
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGQUIT)
		buf := make([]byte, 1<<20)
		for {
			<-sigs
			stacklen := runtime.Stack(buf, true)
			fmt.Printf("=== received SIGQUIT ===\n*** goroutine dump...\n%s\n*** end\n",
				buf[:stacklen])
		}
	}()
}
