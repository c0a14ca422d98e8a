package classifier

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region server
// Server exposes a Classifier over the gRPC service.
type Server struct {
	impl   Classifier
	logger *slog.Logger
}

var _ ServiceServer = (*Server)(nil)

// NewServer wraps impl. logger may be nil.
func NewServer(impl Classifier, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{impl: impl, logger: logger}
}

// #endregion server

// #region handlers
// AddExample implements ServiceServer.
func (s *Server) AddExample(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	features, err := decodeFeatures(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	label := decodeLabel(in)
	if err := s.impl.AddExample(ctx, features, label); err != nil {
		return nil, toStatus(err)
	}
	s.logger.Debug("example added", "label", label, "features", len(features))
	return &structpb.Struct{}, nil
}

// Classify implements ServiceServer.
func (s *Server) Classify(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	features, err := decodeFeatures(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	result, err := s.impl.Classify(ctx, features)
	if err != nil {
		return nil, toStatus(err)
	}
	out, err := resultMessage(result)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// CountByLabel implements ServiceServer.
func (s *Server) CountByLabel(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	counts, err := s.impl.CountByLabel(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	out, err := countsMessage(counts)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// ClearLabel implements ServiceServer.
func (s *Server) ClearLabel(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	label := decodeLabel(in)
	if label == "" {
		return nil, status.Error(codes.InvalidArgument, "label is required")
	}
	n, err := s.impl.ClearLabel(ctx, label)
	if err != nil {
		return nil, toStatus(err)
	}
	s.logger.Info("label cleared", "label", label, "removed", n)
	out, err := removedMessage(n)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// #endregion handlers

// #region status-mapping
func toStatus(err error) error {
	switch {
	case errors.Is(err, ErrNoExamples):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, ErrDimensionMismatch):
		return status.Error(codes.OutOfRange, err.Error())
	case errors.Is(err, ErrEmptyFeatures), errors.Is(err, ErrMissingLabel):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// #endregion status-mapping
