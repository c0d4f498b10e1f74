// Package receiver accepts OTLP log records over gRPC and HTTP and turns
// them into immediate alert events.
package receiver

import (
	"context"
	"fmt"

	"github.com/nixlim/mission-control/internal/config"
)

// Receiver runs the gRPC and HTTP listeners together.
type Receiver struct {
	GRPC *GRPCReceiver
	HTTP *HTTPReceiver
}

func New(cfg config.ReceiverConfig, reporter Reporter, opts ...Option) *Receiver {
	return &Receiver{
		GRPC: NewGRPCReceiver(cfg, reporter, opts...),
		HTTP: NewHTTPReceiver(cfg, reporter, opts...),
	}
}

// Start starts both listeners. If the second fails the first is stopped.
func (r *Receiver) Start(ctx context.Context) error {
	if err := r.GRPC.Start(ctx); err != nil {
		return fmt.Errorf("grpc receiver: %w", err)
	}
	if err := r.HTTP.Start(ctx); err != nil {
		r.GRPC.Stop()
		return fmt.Errorf("http receiver: %w", err)
	}
	return nil
}

func (r *Receiver) Stop() {
	r.HTTP.Stop()
	r.GRPC.Stop()
}
