package server

import (
	"context"
	"net"
	"testing"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/joseph-ayodele/invoice-autofill/internal/pipeline"
)

func dialBufconn(t *testing.T, svc InvoiceService) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer(svc, 0, nil)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestGRPCExtract(t *testing.T) {
	svc := newFakeService(okResult())
	conn := dialBufconn(t, svc)
	ctx := context.Background()

	var res pipeline.ExtractionResult
	err := conn.Invoke(ctx, "/"+ServiceName+"/Extract",
		&ExtractRequest{Filename: "a.pdf", PDF: []byte("%PDF")}, &res,
		grpc.CallContentSubtype(CodecName))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !res.OK || res.Data.ProviderName != "Magyar Telekom Nyrt." {
		t.Fatalf("result = %+v", res)
	}
	if len(svc.extracted) != 1 || svc.extracted[0].MimeType != "application/pdf" {
		t.Fatalf("extracted = %+v", svc.extracted)
	}

	err = conn.Invoke(ctx, "/"+ServiceName+"/Extract", &ExtractRequest{}, &res, grpc.CallContentSubtype(CodecName))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("empty pdf: %v", err)
	}
}

func TestGRPCGetJobNotFound(t *testing.T) {
	conn := dialBufconn(t, newFakeService(okResult()))
	var out map[string]any
	err := conn.Invoke(context.Background(), "/"+ServiceName+"/GetJob",
		&GetJobRequest{ID: uuid.NewString()}, &out, grpc.CallContentSubtype(CodecName))
	if status.Code(err) != codes.NotFound {
		t.Fatalf("err = %v", err)
	}
}

func TestGRPCHealth(t *testing.T) {
	conn := dialBufconn(t, newFakeService(okResult()))
	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status = %v", resp.GetStatus())
	}
}
