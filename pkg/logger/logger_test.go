package logger_test

import (
	"context"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/hira-inspection/pkg/logger"
)

var _ = Describe("Logger", func() {
	It("parses levels with an info fallback", func() {
		Expect(logger.ParseLevel("debug")).To(Equal(slog.LevelDebug))
		Expect(logger.ParseLevel("WARN")).To(Equal(slog.LevelWarn))
		Expect(logger.ParseLevel("error")).To(Equal(slog.LevelError))
		Expect(logger.ParseLevel("verbose")).To(Equal(slog.LevelInfo))
	})

	It("falls back to the process logger when the context carries none", func() {
		Expect(logger.From(context.Background())).NotTo(BeNil())
	})

	It("stores a derived logger in the context", func() {
		ctx := logger.With(context.Background(), "trace_id", "abc")
		Expect(logger.From(ctx)).NotTo(BeIdenticalTo(logger.LoggerWrapper()))
	})
})
