package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/oggyb/daily-riddle/internal/config"
	svcErr "github.com/oggyb/daily-riddle/internal/errors"
)

// NewGRPCServer builds a gRPC server speaking the JSON codec and registers
// all provided services.
func NewGRPCServer(log *slog.Logger, registrars ...Registrar) *grpc.Server {
	grpcServer := grpc.NewServer(
		grpc.ForceServerCodec(JSONCodec{}),
		grpc.ChainUnaryInterceptor(ErrorInterceptor(log)),
	)

	// register all services
	for _, r := range registrars {
		r.Register(grpcServer)
	}
	return grpcServer
}

// StartGRPCServer listens on the configured address and serves until the
// server is stopped.
func StartGRPCServer(cfg *config.Config, grpcServer *grpc.Server) error {
	addr := fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return grpcServer.Serve(lis)
}

// ErrorInterceptor maps domain errors to status codes and logs each call.
func ErrorInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if err == nil {
			log.Debug("rpc ok", "method", info.FullMethod, "took", time.Since(start))
			return resp, nil
		}

		mapped := svcErr.Map(err)
		code := status.Code(mapped)
		if svcErr.HTTPStatus(err) >= 500 {
			log.Error("rpc failed", "method", info.FullMethod, "code", code.String(), "err", err)
		} else {
			log.Debug("rpc rejected", "method", info.FullMethod, "code", code.String(), "err", err)
		}
		return nil, mapped
	}
}
