package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackskhakis/gameyfin/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("GAMEYFIN_ADDR", ":9000")
			_ = os.Setenv("GAMEYFIN_BACKEND_URL", "https://games.example.org")
			_ = os.Setenv("GAMEYFIN_REQUEST_TIMEOUT_MS", "1500")
			_ = os.Setenv("GAMEYFIN_WIRE_LOG", "true")
			_ = os.Setenv("GAMEYFIN_SCAN_SCHEDULE", "@every 1h")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9000")
				convey.So(cfg.BackendURL, convey.ShouldEqual, "https://games.example.org")
				convey.So(cfg.RequestTimeoutMS, convey.ShouldEqual, 1500)
				convey.So(cfg.WireLog, convey.ShouldBeTrue)
				convey.So(cfg.ScanSchedule, convey.ShouldEqual, "@every 1h")
				convey.So(cfg.APIPath, convey.ShouldEqual, "/library")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
backend_url: "http://backend:8080"
api_path: "/api/library"
image_schedule: "0 3 * * *"
log_format: json
metrics_labels:
  site: lan
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("GAMEYFIN_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.BackendURL, convey.ShouldEqual, "http://backend:8080")
				convey.So(cfg.APIPath, convey.ShouldEqual, "/api/library")
				convey.So(cfg.ImageSchedule, convey.ShouldEqual, "0 3 * * *")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.MetricsLabels, convey.ShouldResemble, map[string]string{"site": "lan"})
				convey.So(cfg.RequestTimeoutMS, convey.ShouldEqual, 30_000)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
backend_url: "http://backend:8080"
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("GAMEYFIN_CONFIG", tmpFile)
			_ = os.Setenv("GAMEYFIN_ADDR", ":8088")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8088")                      // env
				convey.So(cfg.BackendURL, convey.ShouldEqual, "http://backend:8080") // file
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("GAMEYFIN_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("GAMEYFIN_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("GAMEYFIN_REQUEST_TIMEOUT_MS", "soon")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigValidation(t *testing.T) {
	convey.Convey("Given config values that fail validation", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		cases := []struct {
			name, key, value, want string
		}{
			{"empty addr", "GAMEYFIN_ADDR", "", "addr must not be empty"},
			{"relative backend", "GAMEYFIN_BACKEND_URL", "localhost:8080", "backend_url"},
			{"ftp backend", "GAMEYFIN_BACKEND_URL", "ftp://host", "backend_url"},
			{"relative api path", "GAMEYFIN_API_PATH", "library", "api_path"},
			{"zero timeout", "GAMEYFIN_REQUEST_TIMEOUT_MS", "0", "request_timeout_ms"},
			{"bad log format", "GAMEYFIN_LOG_FORMAT", "xml", "log_format"},
		}

		for _, tc := range cases {
			convey.Convey("When "+tc.name, func() {
				_ = os.Setenv(tc.key, tc.value)

				cfg, err := config.Load(ctx)

				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, tc.want)
			})
		}
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"GAMEYFIN_CONFIG",
		"GAMEYFIN_LOG_LEVEL",
		"GAMEYFIN_LOG_FORMAT",
		"GAMEYFIN_ADDR",
		"GAMEYFIN_BACKEND_URL",
		"GAMEYFIN_API_PATH",
		"GAMEYFIN_REQUEST_TIMEOUT_MS",
		"GAMEYFIN_WIRE_LOG",
		"GAMEYFIN_SCAN_SCHEDULE",
		"GAMEYFIN_IMAGE_SCHEDULE",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "gameyfin-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
