package logger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNew_WritesDailyFile(t *testing.T) {
	prev := zap.L()
	defer zap.ReplaceGlobals(prev)

	dir := filepath.Join(t.TempDir(), "logs")
	log, err := New(dir, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Infow("registration relayed", "ok", true)
	_ = log.Sync()

	name := filepath.Join(dir, time.Now().Format("2006-01-02")+".log")
	raw, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(raw), `"msg":"registration relayed"`) {
		t.Fatalf("log line missing:\n%s", raw)
	}
}

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext must fall back to the global logger")
	}
	l := zap.NewNop().Sugar()
	ctx := WithContext(context.Background(), l)
	if FromContext(ctx) != l {
		t.Fatal("FromContext did not return the stored logger")
	}
}
