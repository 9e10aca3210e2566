package grpcapi

import (
	"fmt"
	"sort"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/example/blog-platform/internal/platform/apperr"
)

const errorDomain = "blog"

func codeFor(kind apperr.Kind) codes.Code {
	switch kind {
	case apperr.KindNotFound:
		return codes.NotFound
	case apperr.KindForbidden:
		return codes.PermissionDenied
	case apperr.KindUnauthorized:
		return codes.Unauthenticated
	case apperr.KindConflict:
		return codes.AlreadyExists
	case apperr.KindValidation:
		return codes.InvalidArgument
	default:
		return codes.Internal
	}
}

// toStatus converts a service error into a gRPC status carrying ErrorInfo,
// plus BadRequest field violations for validation failures. Internal causes
// are never exposed.
func toStatus(err error) error {
	e, ok := apperr.As(err)
	if !ok || e.Kind == apperr.KindInternal {
		return errInternal()
	}
	st := status.New(codeFor(e.Kind), e.Message)
	info := &errdetails.ErrorInfo{Reason: e.Code, Domain: errorDomain}

	if e.Kind != apperr.KindValidation || len(e.Details) == 0 {
		st2, err := st.WithDetails(info)
		if err != nil {
			return st.Err()
		}
		return st2.Err()
	}

	fields := make([]string, 0, len(e.Details))
	for f := range e.Details {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	bad := &errdetails.BadRequest{}
	for _, f := range fields {
		bad.FieldViolations = append(bad.FieldViolations, &errdetails.BadRequest_FieldViolation{
			Field:       f,
			Description: fmt.Sprint(e.Details[f]),
		})
	}
	st2, err := st.WithDetails(info, bad)
	if err != nil {
		return st.Err()
	}
	return st2.Err()
}

func errInternal() error {
	st := status.New(codes.Internal, "Internal server error")
	st2, err := st.WithDetails(&errdetails.ErrorInfo{Reason: "INTERNAL", Domain: errorDomain})
	if err != nil {
		return st.Err()
	}
	return st2.Err()
}
