package grpcapi

import (
	"math"
	"strconv"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// idField reads a positive integer id given either as a JSON number or a
// decimal string.
func idField(in *structpb.Struct, name string) (int64, error) {
	v, ok := in.GetFields()[name]
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	var id int64
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		f := k.NumberValue
		if f != math.Trunc(f) || f >= 1<<63 {
			return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", name)
		}
		id = int64(f)
	case *structpb.Value_StringValue:
		parsed, err := strconv.ParseInt(strings.TrimSpace(k.StringValue), 10, 64)
		if err != nil {
			return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", name)
		}
		id = parsed
	default:
		return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", name)
	}
	if id <= 0 {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be positive", name)
	}
	return id, nil
}

func stringField(in *structpb.Struct, name string) string {
	return in.GetFields()[name].GetStringValue()
}

func optionalString(in *structpb.Struct, name string) *string {
	v, ok := in.GetFields()[name]
	if !ok {
		return nil
	}
	if _, isStr := v.GetKind().(*structpb.Value_StringValue); !isStr {
		return nil
	}
	s := v.GetStringValue()
	return &s
}
