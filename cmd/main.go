package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pulse_generator/internal/handlers"
	"pulse_generator/internal/logger"
	"pulse_generator/internal/models"
	"pulse_generator/internal/pulse"
	"pulse_generator/internal/repository"
	"pulse_generator/internal/repository/db"
	"pulse_generator/internal/server"
	"pulse_generator/internal/service"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix       = "PULSEGEN"
	driverSimulated = "simulated"
	driverSysfs     = "sysfs"
	shutdownTimeout = 10 * time.Second
)

// @title        Pulse Generator API
// @version      1.0
// @description  Dual-channel pulse generator: configure, start and stop the Myopacer and Generator pulse trains and read the activity log.
// @BasePath     /
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:           "pulsegen",
		Short:         "Dual-channel pulse generator with an HTTP control surface",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cfgFile); err != nil {
				fmt.Fprintln(os.Stderr, "error reading config:", err)
				return err
			}
			return run()
		},
	}
	cmd.Flags().StringVarP(&cfgFile, "config", "c", "", "config file (default configs/config.yml)")
	cmd.Flags().StringP("port", "p", "", "HTTP port (overrides config)")
	_ = viper.BindPFlag("port", cmd.Flags().Lookup("port"))
	return cmd
}

func setDefaults() {
	viper.SetDefault("port", "8080")
	viper.SetDefault("log.level", logger.InfoLevel)
	viper.SetDefault("log.encoding", logger.ConsoleEncoding)
	viper.SetDefault("db.path", db.MemoryPath)
	viper.SetDefault("events.retain", 1000)
	viper.SetDefault("pulse.width_ms", pulse.DefaultConfig.WidthMs)
	viper.SetDefault("pulse.period_ms", pulse.DefaultConfig.PeriodMs)
	viper.SetDefault("pulse.count", pulse.DefaultConfig.Count)
	viper.SetDefault("pulse.channel_delay_ms", pulse.DefaultConfig.ChannelDelayMs)
	viper.SetDefault("outputs.driver", driverSimulated)
	viper.SetDefault("outputs.sysfs_root", pulse.DefaultSysfsRoot)
	viper.SetDefault("outputs.primary_pin", pulse.DefaultPrimaryPin)
	viper.SetDefault("outputs.secondary_pin", pulse.DefaultSecondaryPin)
	viper.SetDefault("sequencer.max_runs", 2)
	viper.SetDefault("server.write_timeout", 10*time.Second)
	viper.SetDefault("server.idle_timeout", 60*time.Second)
}

// loadConfig layers compiled-in defaults, configs/config.yml (optional unless given
// explicitly), .env and PULSEGEN_* environment variables.
func loadConfig(cfgFile string) error {
	setDefaults()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		return viper.ReadInConfig()
	}
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	return nil
}

func run() error {
	log := logger.Get(viper.GetString("log.level"), viper.GetString("log.encoding"))
	defer func() { _ = log.Sync() }()

	conn, err := openDB(log)
	if err != nil {
		log.Errorw("failed to init sqlite", "err", err)
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	primary, secondary, err := openLines(log)
	if err != nil {
		log.Errorw("failed to open outputs", "err", err)
		return err
	}

	// wire dependencies
	repos := repository.NewRepository(conn, viper.GetInt("events.retain"))
	sink := pulse.NewLogSink(log.Named("activity"))
	ctrl, err := pulse.NewController(pulse.Options{
		Config: models.PulseConfig{
			WidthMs:        viper.GetInt("pulse.width_ms"),
			PeriodMs:       viper.GetInt("pulse.period_ms"),
			Count:          viper.GetInt("pulse.count"),
			ChannelDelayMs: viper.GetInt("pulse.channel_delay_ms"),
		},
		PrimaryLine:   primary,
		SecondaryLine: secondary,
		MaxRuns:       viper.GetInt("sequencer.max_runs"),
		Sink:          sink,
		Events:        repos.EventRepo,
		Log:           log.Named("pulse"),
	})
	if err != nil {
		_ = primary.Close()
		_ = secondary.Close()
		log.Errorw("invalid pulse config", "err", err)
		return err
	}
	services := service.NewService(repos, ctrl, sink)
	apiHandler := handlers.NewHandler(services, log.Named("http"))

	srv := server.New(viper.GetString("port"), apiHandler.InitRoutes(), server.Timeouts{
		Write: viper.GetDuration("server.write_timeout"),
		Idle:  viper.GetDuration("server.idle_timeout"),
	})
	serveErr := runHTTPServer(srv, log)
	sink.Appendf("HTTP server started.")

	// graceful shutdown
	return waitForShutdown(ctrl, srv, serveErr, log)
}

// openDB initializes the SQLite event store using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == db.MemoryPath {
		log.Infow("event history kept in memory", "db_path", dbPath)
	}
	return db.InitDB(dbPath)
}

// openLines builds the primary and secondary outputs for the configured driver.
func openLines(log *logger.Logger) (pulse.Line, pulse.Line, error) {
	pp, sp := viper.GetInt("outputs.primary_pin"), viper.GetInt("outputs.secondary_pin")
	switch driver := viper.GetString("outputs.driver"); driver {
	case driverSimulated, "":
		log.Infow("using simulated outputs", "primary_pin", pp, "secondary_pin", sp)
		return pulse.NewSimulatedLine(pp), pulse.NewSimulatedLine(sp), nil
	case driverSysfs:
		root := viper.GetString("outputs.sysfs_root")
		primary, err := pulse.OpenSysfsLine(root, pp)
		if err != nil {
			return nil, nil, err
		}
		secondary, err := pulse.OpenSysfsLine(root, sp)
		if err != nil {
			_ = primary.Close()
			return nil, nil, err
		}
		log.Infow("using sysfs gpio outputs", "root", root, "primary_pin", pp, "secondary_pin", sp)
		return primary, secondary, nil
	default:
		return nil, nil, fmt.Errorf("unknown outputs.driver %q", driver)
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine. The returned channel
// yields the serve error, if any.
func runHTTPServer(srv *server.Server, log *logger.Logger) <-chan error {
	errc := make(chan error, 1)
	go func() {
		log.Infow("http server listening", "addr", srv.Addr())
		if err := srv.Run(); err != nil {
			log.Errorw("error starting server", "err", err)
			errc <- err
		}
		close(errc)
	}()
	return errc
}

// waitForShutdown blocks until a termination signal or a server failure, then stops
// pulsing, waits for runs to drain and shuts the server down.
func waitForShutdown(ctrl *pulse.Controller, srv *server.Server, serveErr <-chan error, log *logger.Logger) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case sig := <-quit:
		log.Infow("shutting down server...", "signal", sig.String())
	case err, ok := <-serveErr:
		if ok {
			runErr = err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// stop pulsing first so both outputs settle LOW
	ctrl.StopAll(ctx)
	if err := ctrl.Wait(ctx); err != nil {
		log.Warnw("pulse runs did not finish before shutdown", "err", err)
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
	if err := ctrl.Close(); err != nil {
		log.Warnw("failed to release outputs", "err", err)
	}
	return runErr
}
