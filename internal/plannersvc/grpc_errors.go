package plannersvc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/coverage-planner/core"
	"github.com/signalsfoundry/coverage-planner/export"
	"github.com/signalsfoundry/coverage-planner/kb"
	"github.com/signalsfoundry/coverage-planner/model"
)

// Code classifies err into the gRPC code used at the service edge.
func Code(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	if st, ok := status.FromError(err); ok {
		return st.Code()
	}

	switch {
	case errors.Is(err, kb.ErrMissionNotFound):
		return codes.NotFound

	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, core.ErrTooFewPoints),
		errors.Is(err, core.ErrPathTooLarge),
		errors.Is(err, model.ErrInvalidParameters),
		errors.Is(err, kb.ErrInvalidMission),
		errors.Is(err, export.ErrUnknownFormat):
		return codes.InvalidArgument

	case errors.Is(err, export.ErrEmptyPath):
		return codes.FailedPrecondition

	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded

	default:
		return codes.Internal
	}
}

// ToStatusError maps planner errors onto gRPC status errors.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(Code(err), err.Error())
}
