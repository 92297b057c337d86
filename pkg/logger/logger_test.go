package logger_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/logger"
)

func TestWithCtx_FallsBackToBase(t *testing.T) {
	if logger.WithCtx(context.Background()) != logger.L {
		t.Error("expected base logger when none injected")
	}
}

func TestInjectLogger(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil)).With("request_id", "abc")

	ctx := logger.InjectLogger(context.Background(), l)
	logger.WithCtx(ctx).Info("hello")

	if !strings.Contains(buf.String(), "request_id=abc") {
		t.Errorf("expected request_id in output, got %q", buf.String())
	}
}

func TestMultiHandler_FansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := logger.NewMultiHandler(
		slog.NewTextHandler(&a, nil),
		slog.NewJSONHandler(&b, nil),
	)
	slog.New(h).With("k", "v").Info("fan")

	if !strings.Contains(a.String(), "k=v") {
		t.Errorf("text handler missed record: %q", a.String())
	}
	if !strings.Contains(b.String(), `"k":"v"`) {
		t.Errorf("json handler missed record: %q", b.String())
	}
}
