package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/claude/healthbridge/internal/healthstore"
	"github.com/claude/healthbridge/internal/observability"
	"github.com/claude/healthbridge/internal/taxonomy"
)

var (
	// ErrMalformedRequest means a required argument is missing or invalid.
	ErrMalformedRequest = errors.New("malformed request")
	// ErrNotImplemented is returned by Call for unknown method names.
	ErrNotImplemented = errors.New("not implemented")
)

// Method names accepted by Call.
const (
	MethodUseHealthConnectIfAvailable       = "useHealthConnectIfAvailable"
	MethodUseAlternateBackendIfAvailable    = "useAlternateBackendIfAvailable"
	MethodHasPermissions                    = "hasPermissions"
	MethodRequestAuthorization              = "requestAuthorization"
	MethodGetData                           = "getData"
	MethodGetTotalStepsInInterval           = "getTotalStepsInInterval"
	MethodGetTotalStepAndCaloriesInInterval = "getTotalStepAndCaloriesInInterval"
)

// Methods lists the method names Call dispatches, in a stable order.
func Methods() []string {
	return []string{
		MethodUseHealthConnectIfAvailable,
		MethodHasPermissions,
		MethodRequestAuthorization,
		MethodGetData,
		MethodGetTotalStepsInInterval,
		MethodGetTotalStepAndCaloriesInInterval,
	}
}

// Call dispatches a method by name with its argument mapping. The result is
// JSON-serializable; a nil result encodes as null.
func (b *Bridge) Call(ctx context.Context, method string, args map[string]any) (any, error) {
	start := time.Now()
	result, err := b.call(ctx, method, args)

	outcome := observability.OutcomeOK
	switch {
	case err != nil:
		outcome = observability.OutcomeError
	case isNegative(method, result):
		outcome = observability.OutcomeNegative
	}
	if !errors.Is(err, ErrNotImplemented) {
		observability.RecordMethod(method, outcome, time.Since(start))
	}
	return result, err
}

func (b *Bridge) call(ctx context.Context, method string, args map[string]any) (any, error) {
	switch method {
	case MethodUseHealthConnectIfAvailable, MethodUseAlternateBackendIfAvailable:
		b.UseHealthConnectIfAvailable()
		return nil, nil

	case MethodHasPermissions:
		return b.HasPermissions(ctx), nil

	case MethodRequestAuthorization:
		return b.RequestAuthorization(ctx), nil

	case MethodGetData:
		key, err := stringArg(args, "dataTypeKey")
		if err != nil {
			return nil, err
		}
		window, err := windowArgs(args)
		if err != nil {
			return nil, err
		}
		records, err := b.GetData(ctx, taxonomy.MetricKey(key), window)
		if err != nil || records == nil {
			return nil, err
		}
		return records, nil

	case MethodGetTotalStepsInInterval:
		window, err := windowArgs(args)
		if err != nil {
			return nil, err
		}
		steps, err := b.GetTotalStepsInInterval(ctx, window)
		if err != nil || steps == nil {
			return nil, err
		}
		return *steps, nil

	case MethodGetTotalStepAndCaloriesInInterval:
		window, err := windowArgs(args)
		if err != nil {
			return nil, err
		}
		buckets, err := b.GetTotalStepAndCaloriesInInterval(ctx, window)
		if err != nil || buckets == nil {
			return nil, err
		}
		return buckets, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrNotImplemented, method)
	}
}

func windowArgs(args map[string]any) (healthstore.TimeRange, error) {
	start, err := millisArg(args, "startTime")
	if err != nil {
		return healthstore.TimeRange{}, err
	}
	end, err := millisArg(args, "endTime")
	if err != nil {
		return healthstore.TimeRange{}, err
	}
	return healthstore.BetweenMillis(start, end), nil
}

func stringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return "", fmt.Errorf("%w: missing %s", ErrMalformedRequest, name)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: %s must be a non-empty string", ErrMalformedRequest, name)
	}
	return s, nil
}

// millisArg reads an epoch-millisecond argument. JSON numbers decode as float64
// or json.Number depending on the decoder; both are accepted when integral.
func millisArg(args map[string]any, name string) (int64, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return 0, fmt.Errorf("%w: missing %s", ErrMalformedRequest, name)
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("%w: %s must be an integer, got %v", ErrMalformedRequest, name, n)
		}
		return int64(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be an integer: %w", ErrMalformedRequest, name, err)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%w: %s must be epoch milliseconds, got %T", ErrMalformedRequest, name, v)
	}
}

// isNegative reports a false or null answer. Selecting the backend has no
// payload and always counts as ok.
func isNegative(method string, result any) bool {
	switch method {
	case MethodUseHealthConnectIfAvailable, MethodUseAlternateBackendIfAvailable:
		return false
	}
	if ok, isBool := result.(bool); isBool {
		return !ok
	}
	return result == nil
}
