package config_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/plateduel/plateduel/internal/config"
)

func clearConfigEnvVars() {
	for _, key := range []string{
		"PLATEDUEL_CONFIG",
		"PLATEDUEL_LOG_LEVEL",
		"PLATEDUEL_ADDR",
		"PLATEDUEL_DATABASE_URL",
		"PLATEDUEL_QUEUE_SIZE",
		"PLATEDUEL_WORKER_COUNT",
		"PLATEDUEL_BALLOT_CACHE_SIZE",
		"PLATEDUEL_MAX_LEADERBOARD_LIMIT",
	} {
		_ = os.Unsetenv(key)
	}
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	Convey("Given the config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		Convey("Defaults apply when nothing else is set", func() {
			cfg, err := config.Load(ctx)
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":9080")
			So(cfg.LogLevel, ShouldEqual, "info")
			So(cfg.DatabaseURL, ShouldBeEmpty)
			So(cfg.QueueSize, ShouldEqual, 100_000)
			So(cfg.WorkerCount, ShouldEqual, runtime.NumCPU())
			So(cfg.BallotCacheSize, ShouldEqual, 100_000)
			So(cfg.MaxLeaderboardLimit, ShouldEqual, 500)
		})

		Convey("Environment variables override defaults", func() {
			_ = os.Setenv("PLATEDUEL_ADDR", ":8080")
			_ = os.Setenv("PLATEDUEL_QUEUE_SIZE", "5000")
			_ = os.Setenv("PLATEDUEL_WORKER_COUNT", "6")
			_ = os.Setenv("PLATEDUEL_DATABASE_URL", "postgres://localhost/plateduel")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":8080")
			So(cfg.QueueSize, ShouldEqual, 5000)
			So(cfg.WorkerCount, ShouldEqual, 6)
			So(cfg.DatabaseURL, ShouldEqual, "postgres://localhost/plateduel")
		})

		Convey("A YAML file layers under environment variables", func() {
			path := writeTempConfig(t, `
addr: ":7070"
queue_size: 2048
max_leaderboard_limit: 25
seed_entities:
  - bistro
  - diner
`)
			_ = os.Setenv("PLATEDUEL_CONFIG", path)
			_ = os.Setenv("PLATEDUEL_QUEUE_SIZE", "4096")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":7070")
			So(cfg.QueueSize, ShouldEqual, 4096)
			So(cfg.MaxLeaderboardLimit, ShouldEqual, 25)
			So(cfg.SeedEntities, ShouldResemble, []string{"bistro", "diner"})
		})

		Convey("A missing config file is an error", func() {
			_ = os.Setenv("PLATEDUEL_CONFIG", "/nonexistent/config.yaml")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)
			So(err, ShouldWrap, config.ErrLoadConfig)
		})

		Convey("Invalid values are rejected", func() {
			_ = os.Setenv("PLATEDUEL_QUEUE_SIZE", "0")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)
			So(err, ShouldWrap, config.ErrInvalidConfig)
		})
	})
}
