package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/gigmatch/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		clearConfigEnvVars(t)
		t.Setenv("GIGMATCH_ENV_FILE", filepath.Join(dir, "missing.env"))

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Store, convey.ShouldEqual, config.StoreMemory)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			t.Setenv("GIGMATCH_ADDR", ":8080")
			t.Setenv("GIGMATCH_QUEUE_SIZE", "500")
			t.Setenv("GIGMATCH_WORKER_COUNT", "3")
			t.Setenv("GIGMATCH_MAX_WEIGHT", "2.5")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.MaxWeight, convey.ShouldEqual, 2.5)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			path := filepath.Join(dir, "gigmatch.yaml")
			yaml := `addr: ":7070"
parallel_threshold: 8
reference_aliases:
  skill:
    golang: go
  language:
    eng: en
`
			convey.So(os.WriteFile(path, []byte(yaml), 0o600), convey.ShouldBeNil)
			t.Setenv("GIGMATCH_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values and nested aliases should be applied", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.ParallelThreshold, convey.ShouldEqual, 8)
				convey.So(cfg.ReferenceAliases["skill"]["golang"], convey.ShouldEqual, "go")
				convey.So(cfg.ReferenceAliases["language"]["eng"], convey.ShouldEqual, "en")
			})
		})

		convey.Convey("When a .env file is present", func() {
			envFile := filepath.Join(dir, "test.env")
			convey.So(os.WriteFile(envFile, []byte("GIGMATCH_LOG_LEVEL=debug\n"), 0o600), convey.ShouldBeNil)
			t.Setenv("GIGMATCH_ENV_FILE", envFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then its values should be picked up", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
			})
		})

		convey.Convey("When the config file is missing", func() {
			t.Setenv("GIGMATCH_CONFIG", filepath.Join(dir, "nope.yaml"))

			_, err := config.Load(ctx)

			convey.Convey("Then it should fail with a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the environment produces an invalid config", func() {
			t.Setenv("GIGMATCH_STORE", "postgres")

			_, err := config.Load(ctx)

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// clearConfigEnvVars unsets every variable the loader reads; t.Setenv restores
// the previous values when the test ends.
func clearConfigEnvVars(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GIGMATCH_CONFIG", "GIGMATCH_ADDR", "GIGMATCH_QUEUE_SIZE", "GIGMATCH_WORKER_COUNT",
		"GIGMATCH_MAX_WEIGHT", "GIGMATCH_STORE", "GIGMATCH_LOG_LEVEL", "GIGMATCH_PARALLEL_THRESHOLD",
	} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
}
