package grpc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// callWith runs interceptor around a handler that records whether it ran
func callWith(t *testing.T, interceptor grpc.UnaryServerInterceptor, ctx context.Context) (bool, error) {
	t.Helper()
	reached := false
	resp, err := interceptor(ctx, "req", &grpc.UnaryServerInfo{FullMethod: methodListBills},
		func(ctx context.Context, req interface{}) (interface{}, error) {
			reached = true
			return "listed", nil
		})
	if err == nil {
		assert.Equal(t, "listed", resp)
	}
	return reached, err
}

func withAuthorization(values ...string) context.Context {
	md := metadata.MD{}
	for _, v := range values {
		md.Append("authorization", v)
	}
	return metadata.NewIncomingContext(context.Background(), md)
}

func TestAuthInterceptor_AcceptsBareAndBearerToken(t *testing.T) {
	interceptor := AuthInterceptor(testToken)

	for _, header := range []string{testToken, "Bearer " + testToken} {
		reached, err := callWith(t, interceptor, withAuthorization(header))
		assert.NoError(t, err, header)
		assert.True(t, reached, header)
	}
}

func TestAuthInterceptor_RejectsNearMisses(t *testing.T) {
	interceptor := AuthInterceptor(testToken)

	headers := map[string]string{
		"same length":          "test-token-124",
		"prefix of token":      testToken[:4],
		"token with suffix":    testToken + "5",
		"lowercase bearer":     "bearer " + testToken,
		"bearer without space": "Bearer" + testToken,
		"double space":         "Bearer  " + testToken,
		"bearer only":          "Bearer ",
		"empty":                "",
	}

	for name, header := range headers {
		t.Run(name, func(t *testing.T) {
			reached, err := callWith(t, interceptor, withAuthorization(header))
			assert.False(t, reached)
			assert.Equal(t, codes.Unauthenticated, status.Code(err))
			assert.Contains(t, status.Convert(err).Message(), "invalid token")
		})
	}
}

func TestAuthInterceptor_OnlyFirstHeaderCounts(t *testing.T) {
	interceptor := AuthInterceptor(testToken)

	reached, err := callWith(t, interceptor, withAuthorization("wrong", "Bearer "+testToken))
	assert.False(t, reached)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestAuthInterceptor_MissingCredentials(t *testing.T) {
	interceptor := AuthInterceptor(testToken)

	reached, err := callWith(t, interceptor, context.Background())
	assert.False(t, reached)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "missing metadata")

	other := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-request-id", "42"))
	reached, err = callWith(t, interceptor, other)
	assert.False(t, reached)
	assert.Contains(t, status.Convert(err).Message(), "missing authorization header")
}

func TestLoggingInterceptor(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	interceptor := LoggingInterceptor(zap.New(core))
	info := &grpc.UnaryServerInfo{FullMethod: methodGetBill}

	_, err := interceptor(context.Background(), "req", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return "ok", nil
	})
	assert.NoError(t, err)

	_, err = interceptor(context.Background(), "req", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.NotFound, "bill not found")
	})
	assert.Error(t, err)

	_, err = interceptor(context.Background(), "req", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, errors.New("boom")
	})
	assert.Error(t, err)

	entries := logs.All()
	if assert.Len(t, entries, 3) {
		assert.Equal(t, "admin call", entries[0].Message)
		assert.Equal(t, "OK", entries[0].ContextMap()["code"])
		assert.Equal(t, methodGetBill, entries[0].ContextMap()["method"])
		assert.Equal(t, "admin call failed", entries[1].Message)
		assert.Equal(t, "NotFound", entries[1].ContextMap()["code"])
		assert.Equal(t, "Unknown", entries[2].ContextMap()["code"])
	}
}
