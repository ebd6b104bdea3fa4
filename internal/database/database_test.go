package database

import (
	"context"
	"testing"
)

func TestOpen_BadDSN(t *testing.T) {
	if _, err := Open(context.Background(), "not a dsn"); err == nil {
		t.Fatal("expected parse error")
	}
}
