package llm

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/m4xw311/steward/errors"
	"github.com/openai/openai-go/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// classify maps a provider SDK error onto the transient/fatal taxonomy.
// Errors that fit neither class are wrapped with context and returned.
func classify(err error, format string, a ...interface{}) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Transient(err, format, a...)
	}
	if code, ok := grpcCode(err); ok {
		switch code {
		case codes.ResourceExhausted, codes.Unavailable, codes.DeadlineExceeded, codes.Aborted:
			return errors.Transient(err, format, a...)
		case codes.Unauthenticated, codes.PermissionDenied, codes.NotFound:
			return errors.Fatal(err, format, a...)
		}
	}
	return errors.ClassifyStatus(statusCode(err), err, format, a...)
}

func statusCode(err error) int {
	var oe *openai.Error
	if errors.As(err, &oe) {
		return oe.StatusCode
	}
	var ae *anthropic.Error
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	var ge *googleapi.Error
	if errors.As(err, &ge) {
		return ge.Code
	}
	// aws-sdk-go-v2 response errors
	var he interface{ HTTPStatusCode() int }
	if errors.As(err, &he) {
		return he.HTTPStatusCode()
	}
	return 0
}

func grpcCode(err error) (codes.Code, bool) {
	var se interface{ GRPCStatus() *status.Status }
	if errors.As(err, &se) {
		return se.GRPCStatus().Code(), true
	}
	return codes.OK, false
}
