package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/invoice-autofill/constants"
	"github.com/joseph-ayodele/invoice-autofill/internal/common"
	"github.com/joseph-ayodele/invoice-autofill/internal/entity"
	"github.com/joseph-ayodele/invoice-autofill/internal/extract"
	"github.com/joseph-ayodele/invoice-autofill/internal/pipeline"
)

// ServiceName is the fully-qualified gRPC service. Messages are JSON encoded;
// clients select the codec with grpc.CallContentSubtype(CodecName).
const (
	ServiceName = "invoice.v1.InvoiceExtractor"
	CodecName   = "json"
)

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return CodecName }

type ExtractRequest struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	PDF      []byte `json:"pdf"`
}

type GetJobRequest struct {
	ID string `json:"id"`
}

// InvoiceExtractorServer is the gRPC surface.
type InvoiceExtractorServer interface {
	Extract(ctx context.Context, req *ExtractRequest) (*pipeline.ExtractionResult, error)
	GetJob(ctx context.Context, req *GetJobRequest) (*entity.ExtractionJob, error)
}

type extractorServer struct {
	svc    InvoiceService
	logger *slog.Logger
}

// Extract returns extraction failures inside the result; only a malformed
// request is a gRPC error.
func (s *extractorServer) Extract(ctx context.Context, req *ExtractRequest) (*pipeline.ExtractionResult, error) {
	if len(req.PDF) == 0 {
		return nil, common.InvalidArgumentError("pdf is required")
	}
	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = constants.MimePDF
	}
	res := s.svc.Extract(ctx, extract.RawDocument{Bytes: req.PDF, MimeType: mimeType, Filename: req.Filename})
	return &res, nil
}

func (s *extractorServer) GetJob(ctx context.Context, req *GetJobRequest) (*entity.ExtractionJob, error) {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, common.InvalidArgumentErrorf("invalid job id %q", req.ID)
	}
	job, err := s.svc.Job(ctx, id)
	if err != nil {
		return nil, common.GRPCError(err)
	}
	return job, nil
}

func extractHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ExtractRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InvoiceExtractorServer).Extract(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Extract"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InvoiceExtractorServer).Extract(ctx, req.(*ExtractRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getJobHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetJobRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InvoiceExtractorServer).GetJob(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/GetJob"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InvoiceExtractorServer).GetJob(ctx, req.(*GetJobRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InvoiceExtractorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Extract", Handler: extractHandler},
		{MethodName: "GetJob", Handler: getJobHandler},
	},
	Streams: []grpc.StreamDesc{},
}

// loggingInterceptor attaches a request id and logs each call.
func loggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		ctx, reqID := common.EnsureRequestID(ctx)
		resp, err := handler(ctx, req)
		logger.Info("grpc.request",
			"req_id", reqID,
			"method", info.FullMethod,
			"err", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}

// NewGRPCServer registers the extractor, the health service and reflection.
func NewGRPCServer(svc InvoiceService, maxMsgSize int, logger *slog.Logger) *grpc.Server {
	if logger == nil {
		logger = slog.Default()
	}
	if maxMsgSize <= 0 {
		maxMsgSize = 21 << 20
	}
	s := grpc.NewServer(
		grpc.MaxRecvMsgSize(maxMsgSize),
		grpc.ChainUnaryInterceptor(loggingInterceptor(logger)),
	)
	s.RegisterService(&serviceDesc, &extractorServer{svc: svc, logger: logger})

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	reflection.Register(s)
	return s
}
