package run

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

func TestRun_ComponentErrorCancelsOthers(t *testing.T) {
	r := New(zap.NewNop())
	stopped := make(chan struct{})
	code := r.Run(context.Background(),
		func(ctx context.Context) error { return errors.New("bind failed") },
		func(ctx context.Context) error {
			<-ctx.Done()
			close(stopped)
			return nil
		},
	)
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	<-stopped
}

func TestRun_CancelledContextExitsCleanly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	code := New(zap.NewNop()).Run(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
}
