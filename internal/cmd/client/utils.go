package client

import (
	"encoding/json"
	"io"
	"os"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	transports "github.com/rzbill/ringlog/internal/cmd/client/transports"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

// grpcAddrFromEnv returns the gRPC server address from RINGLOG_GRPC or a default.
func grpcAddrFromEnv() string {
	if addr := os.Getenv("RINGLOG_GRPC"); addr != "" {
		return addr
	}
	return "127.0.0.1:50051"
}

// socketAddrFromEnv returns the TCP listener address from RINGLOG_SOCKET or a default.
func socketAddrFromEnv() string {
	if addr := os.Getenv("RINGLOG_SOCKET"); addr != "" {
		return addr
	}
	return "127.0.0.1:9000"
}

// dialGRPC creates a client for the ringlog gRPC endpoint with insecure
// transport for local/dev.
func dialGRPC() (*grpc.ClientConn, error) {
	return grpc.NewClient(grpcAddrFromEnv(), grpc.WithTransportCredentials(insecure.NewCredentials()))
}

func getTransport(baseURL BaseURLFunc) transports.LogTransport {
	return transports.NewHTTPTransport(baseURL, nil)
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
