package server

import (
	"context"

	pb "github.com/pixperk/lamlock/api/v1"
	"github.com/pixperk/lamlock/pkg/codec"
	"github.com/pixperk/lamlock/pkg/group"
	"github.com/pixperk/lamlock/pkg/types"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type Server struct {
	pb.UnimplementedGroupServer
	hub *group.Hub
	log *zap.Logger
}

// wraps the hub into a gRPC server
func NewServer(hub *group.Hub, logger *zap.Logger) *Server {
	return &Server{
		hub: hub,
		log: logger,
	}
}

func (s *Server) Join(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.UInt64Value, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "group name required")
	}

	id, err := s.hub.Join(req.GetValue())
	if err != nil {
		return nil, toGRPCError(err)
	}
	return wrapperspb.UInt64(uint64(id)), nil
}

func (s *Server) Bind(ctx context.Context, req *wrapperspb.UInt64Value) (*emptypb.Empty, error) {
	if err := s.hub.Bind(types.PeerID(req.GetValue())); err != nil {
		return nil, toGRPCError(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) Subgroup(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	ids, err := s.hub.Subgroup(req.GetValue())
	if err != nil {
		return nil, toGRPCError(err)
	}
	return wrapperspb.Bytes(codec.MarshalIDs(ids)), nil
}

func (s *Server) Send(ctx context.Context, req *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	env, targets, err := codec.UnmarshalEnvelope(req.GetValue())
	if err != nil {
		return nil, toGRPCError(err)
	}

	if err := s.hub.Send(env, targets); err != nil {
		return nil, toGRPCError(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) Heartbeat(ctx context.Context, req *wrapperspb.UInt64Value) (*emptypb.Empty, error) {
	if err := s.hub.Heartbeat(types.PeerID(req.GetValue())); err != nil {
		return nil, toGRPCError(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) Leave(ctx context.Context, req *wrapperspb.UInt64Value) (*emptypb.Empty, error) {
	if err := s.hub.Leave(types.PeerID(req.GetValue())); err != nil {
		return nil, toGRPCError(err)
	}
	return &emptypb.Empty{}, nil
}

// Subscribe streams the member's mailbox until the member leaves or the
// client goes away.
func (s *Server) Subscribe(req *wrapperspb.UInt64Value, stream pb.Group_SubscribeServer) error {
	id := types.PeerID(req.GetValue())
	inbox, done, err := s.hub.Mailbox(id)
	if err != nil {
		return toGRPCError(err)
	}

	s.log.Debug("subscriber attached", zap.Stringer("member", id))
	defer s.log.Debug("subscriber detached", zap.Stringer("member", id))

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-done:
			return nil
		case env := <-inbox:
			if err := stream.Send(wrapperspb.Bytes(codec.MarshalEnvelope(env, nil))); err != nil {
				return err
			}
		}
	}
}
