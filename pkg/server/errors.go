package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pixperk/lamlock/pkg/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// converts hub errors to gRPC status errors
func toGRPCError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, types.ErrNotMember), errors.Is(err, types.ErrUnknownGroup):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, types.ErrNotBound):
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.Is(err, types.ErrMalformedMessage), errors.Is(err, types.ErrUnknownKind):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, types.ErrGroupClosed):
		return status.Error(codes.Unavailable, err.Error())

	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// FromGRPCError maps a status error returned by the hub back to the
// matching sentinel, so callers can use errors.Is on both transports.
func FromGRPCError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	for _, sentinel := range []error{
		types.ErrNotMember,
		types.ErrUnknownGroup,
		types.ErrNotBound,
		types.ErrMalformedMessage,
		types.ErrUnknownKind,
		types.ErrGroupClosed,
	} {
		msg := st.Message()
		if msg == sentinel.Error() {
			return sentinel
		}
		if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
			return fmt.Errorf("%w: %s", sentinel, rest)
		}
	}
	return err
}
