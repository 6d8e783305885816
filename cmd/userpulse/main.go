package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/umbralith/userpulse/internal/profile"
	"github.com/umbralith/userpulse/internal/version"
	"github.com/umbralith/userpulse/plugin/behavior"
	"github.com/umbralith/userpulse/plugin/behavior/trace"
	"github.com/umbralith/userpulse/server"
	"github.com/umbralith/userpulse/store"
	"github.com/umbralith/userpulse/store/db"
)

var rootCmd = &cobra.Command{
	Use:   "userpulse",
	Short: "A behavior tracking and prompt personalization service for conversational agents.",
	Run: func(_ *cobra.Command, _ []string) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		instanceProfile := &profile.Profile{
			Mode:        viper.GetString("mode"),
			Addr:        viper.GetString("addr"),
			Port:        viper.GetInt("port"),
			UNIXSock:    viper.GetString("unix-sock"),
			Data:        viper.GetString("data"),
			Driver:      viper.GetString("driver"),
			DSN:         viper.GetString("dsn"),
			InstanceURL: viper.GetString("instance-url"),
			Version:     version.GetCurrentVersion(viper.GetString("mode")),
		}
		instanceProfile.FromEnv()
		if err := instanceProfile.Validate(); err != nil {
			slog.Error("invalid profile", slog.String("error", err.Error()))
			return
		}
		if instanceProfile.IsDev() {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}

		storeInstance := newMirrorStore(ctx, instanceProfile)

		var mirror *behavior.Mirrorer
		if storeInstance != nil {
			mirror = behavior.NewMirrorer(storeInstance, behavior.MirrorConfig{
				Timeout: time.Duration(instanceProfile.MirrorTimeoutSec) * time.Second,
			})
		}

		var tracer trace.Tracer
		if instanceProfile.IsDev() {
			tracer = trace.NewSlogTracer(slog.Default())
		}
		tracker := behavior.NewTracker(mirror, tracer)

		s := server.NewServer(instanceProfile, storeInstance, tracker)

		if storeInstance != nil && instanceProfile.MirrorRetentionDays > 0 {
			go runRetention(ctx, storeInstance, instanceProfile.MirrorRetentionDays)
		}

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		go func() {
			sig := <-c
			slog.Info("signal received, shutting down", slog.String("signal", sig.String()))
			s.Shutdown(ctx)
			tracker.Close()
			if storeInstance != nil {
				if err := storeInstance.Close(); err != nil {
					slog.Error("failed to close store", slog.String("error", err.Error()))
				}
			}
			cancel()
		}()

		printGreetings(instanceProfile)

		if err := s.Start(ctx); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				slog.Error("failed to start server", slog.String("error", err.Error()))
				cancel()
			}
		}

		// Wait for CTRL-C.
		<-ctx.Done()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of userpulse",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(version.GetCurrentVersion(viper.GetString("mode")))
	},
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("addr", "")
	viper.SetDefault("port", 8230)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8230, "port of server")
	rootCmd.PersistentFlags().String("unix-sock", "", "path to the unix socket, overrides --addr and --port")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver")
	rootCmd.PersistentFlags().String("dsn", "", "database source name(aka. DSN)")
	rootCmd.PersistentFlags().String("instance-url", "", "the url of your userpulse instance")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}
	viper.SetEnvPrefix("userpulse")
	viper.AutomaticEnv()
	if err := viper.BindEnv("instance-url", "USERPULSE_INSTANCE_URL"); err != nil {
		panic(err)
	}
	if err := viper.BindEnv("unix-sock", "USERPULSE_UNIX_SOCK"); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(versionCmd)
}

// newMirrorStore opens and migrates the mirror store. Mirroring is
// best-effort: any failure here logs a warning and the process continues
// memory-only rather than refusing to start.
func newMirrorStore(ctx context.Context, instanceProfile *profile.Profile) *store.Store {
	if !instanceProfile.MirrorEnabled {
		slog.Info("mirroring disabled, keeping records in memory only")
		return nil
	}

	dbDriver, err := db.NewDBDriver(instanceProfile)
	if err != nil {
		slog.Warn("failed to create db driver, continuing memory-only", slog.String("error", err.Error()))
		return nil
	}
	storeInstance := store.New(dbDriver, instanceProfile)
	if err := storeInstance.Migrate(ctx); err != nil {
		slog.Warn("failed to migrate mirror store, continuing memory-only", slog.String("error", err.Error()))
		_ = storeInstance.Close()
		return nil
	}
	return storeInstance
}

// runRetention prunes mirrored rows older than the retention window, once at
// startup and then daily.
func runRetention(ctx context.Context, st *store.Store, days int) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		cutoff := time.Now().AddDate(0, 0, -days).Unix()
		if err := st.DeleteInteraction(ctx, &store.DeleteInteraction{CreatedTsBefore: &cutoff}); err != nil {
			slog.Warn("failed to prune old interactions", slog.String("error", err.Error()))
		}
		if err := st.DeleteLearningEvent(ctx, &store.DeleteLearningEvent{CreatedTsBefore: &cutoff}); err != nil {
			slog.Warn("failed to prune old learning events", slog.String("error", err.Error()))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func printGreetings(instanceProfile *profile.Profile) {
	if instanceProfile.IsDev() {
		println("Development mode is enabled")
		println("DSN: ", instanceProfile.DSN)
	}
	fmt.Printf(`---
Server profile
version: %s
data: %s
addr: %s
port: %d
mode: %s
driver: %s
---
`, instanceProfile.Version, instanceProfile.Data, instanceProfile.Addr, instanceProfile.Port, instanceProfile.Mode, instanceProfile.Driver)

	if len(instanceProfile.UNIXSock) == 0 {
		fmt.Printf("Version %s has been started on port %d\n", instanceProfile.Version, instanceProfile.Port)
	} else {
		fmt.Printf("Version %s has been started on unix socket %s\n", instanceProfile.Version, instanceProfile.UNIXSock)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
