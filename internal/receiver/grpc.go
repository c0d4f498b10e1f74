package receiver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"

	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	"google.golang.org/grpc"

	"github.com/nixlim/mission-control/internal/config"
)

// GRPCReceiver accepts OTLP log exports over gRPC.
type GRPCReceiver struct {
	collogspb.UnimplementedLogsServiceServer
	intake

	cfg      config.ReceiverConfig
	listener net.Listener
	server   *grpc.Server
}

func NewGRPCReceiver(cfg config.ReceiverConfig, reporter Reporter, opts ...Option) *GRPCReceiver {
	return &GRPCReceiver{
		cfg:    cfg,
		intake: newIntake(reporter, "receiver-grpc", opts),
	}
}

// Start binds the configured port and serves in the background.
func (r *GRPCReceiver) Start(ctx context.Context) error {
	addr := net.JoinHostPort(r.cfg.Bind, fmt.Sprint(r.cfg.GRPCPort))
	lis, err := listen(ctx, addr, r.cfg.GRPCPort)
	if err != nil {
		return err
	}
	r.listener = lis

	r.server = grpc.NewServer()
	collogspb.RegisterLogsServiceServer(r.server, r)

	go func() {
		if err := r.server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			r.log.Error().Err(err).Msg("grpc server stopped")
		}
	}()
	r.log.Info().Str("addr", lis.Addr().String()).Msg("grpc receiver listening")
	return nil
}

// Export implements the OTLP LogsService.
func (r *GRPCReceiver) Export(ctx context.Context, req *collogspb.ExportLogsServiceRequest) (*collogspb.ExportLogsServiceResponse, error) {
	r.process(ctx, "grpc", req.GetResourceLogs())
	return &collogspb.ExportLogsServiceResponse{}, nil
}

// Addr returns the bound address, or nil before Start.
func (r *GRPCReceiver) Addr() net.Addr {
	if r.listener == nil {
		return nil
	}
	return r.listener.Addr()
}

func (r *GRPCReceiver) Stop() {
	if r.server != nil {
		r.server.GracefulStop()
	}
}

// listen wraps net.Listen and reports address-in-use errors plainly.
func listen(ctx context.Context, addr string, port int) (net.Listener, error) {
	var lc net.ListenConfig
	lis, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return nil, fmt.Errorf("port %d already in use", port)
		}
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}
	return lis, nil
}
