package logger_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/predictlink/verdict/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInitAndGet(t *testing.T) {
	Convey("Given an initialized logger", t, func() {
		So(logger.Init(), ShouldBeNil)

		Convey("Then the global logger is available", func() {
			So(logger.Get(), ShouldNotBeNil)
		})

		Convey("Then logging at every level does not panic", func() {
			ctx := context.Background()
			log := logger.Get()
			So(func() {
				log.Debug(ctx, "debug message", logger.String("k", "v"))
				log.Info(ctx, "info message", logger.Int("n", 1))
				log.Warn(ctx, "warn message", logger.Float64("f", 0.5))
				log.Error(ctx, "error message", logger.Error(errors.New("boom")), logger.Bool("b", true))
			}, ShouldNotPanic)
		})

		Convey("Then named loggers derive from the global one", func() {
			named := logger.Named("component")
			So(named, ShouldNotBeNil)
			So(func() { named.Info(context.Background(), "hello", logger.Any("x", []int{1})) }, ShouldNotPanic)
		})

		Convey("Then Sync is a no-op", func() {
			So(logger.Sync(), ShouldBeNil)
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given an initialized logger", t, func() {
		So(logger.Init(), ShouldBeNil)

		Convey("When setting known level names", func() {
			for _, level := range []string{"debug", "info", "warn", "warning", "error", "", "  INFO  "} {
				So(logger.SetLevelString(level), ShouldBeNil)
			}
		})

		Convey("When setting an unknown level name", func() {
			err := logger.SetLevelString("verbose")

			Convey("Then it is rejected", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When setting a slog level directly", func() {
			So(func() { logger.SetLevel(slog.LevelWarn) }, ShouldNotPanic)
		})
	})
}

func TestFieldConstructors(t *testing.T) {
	Convey("Given the field constructors", t, func() {
		Convey("Then each one carries its key and value", func() {
			So(logger.String("a", "b"), ShouldResemble, logger.Field{Key: "a", Value: "b"})
			So(logger.Int("n", 7), ShouldResemble, logger.Field{Key: "n", Value: 7})
			So(logger.Bool("ok", true), ShouldResemble, logger.Field{Key: "ok", Value: true})
			So(logger.Error(nil).Key, ShouldEqual, "error")
		})
	})
}
