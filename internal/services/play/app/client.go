package server

import (
	"context"
	"log"

	platformgrpc "github.com/openlms/ispring-play/internal/platform/grpc"
	"github.com/openlms/ispring-play/internal/platform/timeouts"
	"google.golang.org/grpc"
)

// Dial connects to a play server and waits for its health check to serve.
// Callers own the returned connection.
func Dial(ctx context.Context, addr string) (*grpc.ClientConn, error) {
	return platformgrpc.DialWithHealth(
		ctx,
		nil,
		addr,
		timeouts.GRPCDial,
		log.Printf,
		platformgrpc.DefaultClientDialOptions()...,
	)
}
