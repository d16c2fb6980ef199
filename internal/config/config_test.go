package config_test

import (
	"context"
	"runtime"
	"testing"

	"github.com/okian/attrition/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.ModelPath, convey.ShouldEqual, "models/model_hr.json")
			convey.So(cfg.DatabaseURL, convey.ShouldBeEmpty)
			convey.So(cfg.HistoryEnabled, convey.ShouldBeTrue)
			convey.So(cfg.HistoryWorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.MaxBatchSize, convey.ShouldEqual, 1000)
			convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"*"})
			convey.So(cfg.APIVersion, convey.ShouldEqual, "1.0.0")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("When the model path is blank", func() {
			cfg.ModelPath = "  "
			err := cfg.Validate()

			convey.Convey("Then validation fails with ErrInvalidConfig", func() {
				convey.So(err, convey.ShouldWrap, config.ErrInvalidConfig)
				convey.So(err.Error(), convey.ShouldContainSubstring, "model_path")
			})
		})

		convey.Convey("When the batch size is zero", func() {
			cfg.MaxBatchSize = 0
			convey.So(cfg.Validate(), convey.ShouldWrap, config.ErrInvalidConfig)
		})

		convey.Convey("When history is enabled with no queue", func() {
			cfg.HistoryQueueSize = 0
			convey.So(cfg.Validate(), convey.ShouldWrap, config.ErrInvalidConfig)

			convey.Convey("And history is then disabled", func() {
				cfg.HistoryEnabled = false
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the cache size is negative", func() {
			cfg.PredictionCacheSize = -1
			convey.So(cfg.Validate(), convey.ShouldWrap, config.ErrInvalidConfig)
		})
	})
}
