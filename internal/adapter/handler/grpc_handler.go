package handler

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/rl1809/stock-transfer/internal/core/command"
	"github.com/rl1809/stock-transfer/internal/core/domain"
)

const (
	ServiceName = "stocktransfer.v1.TransferService"

	submitMethod   = "/" + ServiceName + "/Submit"
	snapshotMethod = "/" + ServiceName + "/Snapshot"

	// Trailer keys set on failed Submit calls.
	TrailerKind       = "stock-kind"
	TrailerCommandID  = "stock-command-id"
	TrailerRolledBack = "stock-rolled-back"
)

// JSONCodecName is the content subtype clients pass with grpc.CallContentSubtype.
const JSONCodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return JSONCodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type SubmitRequest struct {
	Command string `json:"command"`
}

type SubmitResponse struct {
	ID         string `json:"id"`
	Message    string `json:"message"`
	Phase      string `json:"phase"`
	RolledBack bool   `json:"rolled_back"`
}

type SnapshotRequest struct{}

type SnapshotResponse struct {
	Warehouse     map[string]int `json:"warehouse"`
	Shop          map[string]int `json:"shop"`
	WarehouseFree int            `json:"warehouse_free"`
	ShopFree      int            `json:"shop_free"`
}

// TransferServer is the server API of stocktransfer.v1.TransferService.
type TransferServer interface {
	Submit(ctx context.Context, req *SubmitRequest) (*SubmitResponse, error)
	Snapshot(ctx context.Context, req *SnapshotRequest) (*SnapshotResponse, error)
}

type GRPCHandler struct {
	submitter Submitter
	vocab     command.Vocabulary
	logger    *zap.Logger
}

func NewGRPCHandler(s Submitter, vocab command.Vocabulary, logger *zap.Logger) *GRPCHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GRPCHandler{submitter: s, vocab: vocab, logger: logger}
}

// Register adds the transfer service to srv.
func (h *GRPCHandler) Register(srv grpc.ServiceRegistrar) {
	srv.RegisterService(&transferServiceDesc, h)
}

// Submit runs one command. A failed command is returned as a status error
// whose code follows the failure kind; the kind itself is in the trailer.
func (h *GRPCHandler) Submit(ctx context.Context, req *SubmitRequest) (*SubmitResponse, error) {
	out, err := h.submitter.Submit(ctx, req.Command)
	if err != nil {
		return nil, dispatchStatus(err)
	}

	if !out.Success() {
		kind := out.Kind()
		if tErr := grpc.SetTrailer(ctx, metadata.Pairs(
			TrailerKind, string(kind),
			TrailerCommandID, out.ID,
			TrailerRolledBack, strconv.FormatBool(out.RolledBack),
		)); tErr != nil {
			h.logger.Debug("grpc_set_trailer_failed", zap.Error(tErr))
		}
		return nil, status.Error(grpcCode(kind), Describe(out, h.vocab))
	}

	return &SubmitResponse{
		ID:         out.ID,
		Message:    Describe(out, h.vocab),
		Phase:      string(out.Phase),
		RolledBack: out.RolledBack,
	}, nil
}

func (h *GRPCHandler) Snapshot(ctx context.Context, _ *SnapshotRequest) (*SnapshotResponse, error) {
	snap, err := h.submitter.Snapshot(ctx)
	if err != nil {
		if _, ok := domain.AsError(err); ok {
			h.logger.Error("stock_snapshot_failed", zap.Error(err))
			return nil, status.Error(grpcCode(domain.KindOf(err)), err.Error())
		}
		return nil, dispatchStatus(err)
	}
	return &SnapshotResponse{
		Warehouse:     snap.Warehouse,
		Shop:          snap.Shop,
		WarehouseFree: snap.WarehouseFree,
		ShopFree:      snap.ShopFree,
	}, nil
}

// dispatchStatus maps errors that kept a command from running at all.
func dispatchStatus(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}
	return status.Error(codes.Unavailable, err.Error())
}

func submitHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SubmitRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TransferServer).Submit(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: submitMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TransferServer).Submit(ctx, req.(*SubmitRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func snapshotHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SnapshotRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TransferServer).Snapshot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: snapshotMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TransferServer).Snapshot(ctx, req.(*SnapshotRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var transferServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TransferServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Submit", Handler: submitHandler},
		{MethodName: "Snapshot", Handler: snapshotHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "stocktransfer/v1/transfer.proto",
}

// TransferClient calls stocktransfer.v1.TransferService using the JSON codec.
type TransferClient struct {
	cc grpc.ClientConnInterface
}

func NewTransferClient(cc grpc.ClientConnInterface) *TransferClient {
	return &TransferClient{cc: cc}
}

func (c *TransferClient) Submit(ctx context.Context, req *SubmitRequest, opts ...grpc.CallOption) (*SubmitResponse, error) {
	out := new(SubmitResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(JSONCodecName)}, opts...)
	if err := c.cc.Invoke(ctx, submitMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TransferClient) Snapshot(ctx context.Context, req *SnapshotRequest, opts ...grpc.CallOption) (*SnapshotResponse, error) {
	out := new(SnapshotResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(JSONCodecName)}, opts...)
	if err := c.cc.Invoke(ctx, snapshotMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
