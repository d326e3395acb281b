// Package validation runs generated contracts through a protocol validator
// and tracks whether the latest result is still current.
package validation

import (
	"context"
	"errors"
	"strings"
	"time"

	"contractcreator/internal/logging"
	"contractcreator/internal/metrics"
	"contractcreator/internal/types"
	"contractcreator/internal/util/jsonutil"
)

// Validator checks contract JSON against the protocol rules. Findings are
// returned as data; a non-nil error means the validator itself failed.
type Validator interface {
	Validate(ctx context.Context, contractJSON string) ([]types.StructuredError, error)
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(ctx context.Context, contractJSON string) ([]types.StructuredError, error)

func (f ValidatorFunc) Validate(ctx context.Context, contractJSON string) ([]types.StructuredError, error) {
	return f(ctx, contractJSON)
}

const (
	itemsRequiredFragment = `"items" is a required property`

	// ByteArrayHint replaces the protocol's items error for arrays that were
	// not flagged as byte arrays.
	ByteArrayHint = `Array properties must specify "byteArray": true. In the dynamic form, just change the property from an array to a string and back to an array again, and resubmit.`

	emptyContractMessage = "Data contract must have at least one document type"
)

var ErrValidatorUnavailable = errors.New("validation: validator unavailable")

// EmptyContract is the finding reported for a contract without document types.
var EmptyContract = types.StructuredError{
	Message:  emptyContractMessage,
	Category: types.CategoryProtocol,
}

// Normalize rewrites the known "items" schema error into ByteArrayHint, keeping
// its path, and drops findings whose display message was already seen. Order of first
// occurrence is kept.
func Normalize(errs []types.StructuredError) []types.StructuredError {
	out := make([]types.StructuredError, 0, len(errs))
	seen := make(map[string]struct{}, len(errs))
	for _, e := range errs {
		if e.Category == types.CategoryJSONSchema && strings.Contains(e.DisplayMessage(), itemsRequiredFragment) {
			e.Message = ByteArrayHint
		}
		key := e.DisplayMessage()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out
}

// IsEmptyContract reports whether text is a JSON object without members.
func IsEmptyContract(text string) bool {
	v, err := jsonutil.DecodeOrdered([]byte(text))
	if err != nil {
		return false
	}
	obj, ok := v.(*jsonutil.Object)
	return ok && obj.Len() == 0
}

// Service is the validator boundary used by editor sessions: it
// short-circuits empty contracts, calls the configured Validator and
// normalizes its findings.
type Service struct {
	validator Validator
	metrics   *metrics.Metrics
	logger    logging.Logger
}

func NewService(v Validator, m *metrics.Metrics) *Service {
	return &Service{validator: v, metrics: m, logger: logging.New("validation")}
}

func (s *Service) Validate(ctx context.Context, contractJSON string) ([]types.StructuredError, error) {
	if IsEmptyContract(contractJSON) {
		s.metrics.AddValidation(metrics.ResultFailed, 0)
		return []types.StructuredError{EmptyContract}, nil
	}
	if s.validator == nil {
		return nil, ErrValidatorUnavailable
	}

	start := time.Now()
	errs, err := s.validator.Validate(ctx, contractJSON)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		s.metrics.AddValidation(metrics.ResultError, elapsed)
		s.logger.Warnf("validator failed after %.2fs: %v", elapsed, err)
		return nil, err
	}

	errs = Normalize(errs)
	result := metrics.ResultPassed
	if len(errs) > 0 {
		result = metrics.ResultFailed
	}
	s.metrics.AddValidation(result, elapsed)
	s.logger.Debugf("validation %s with %d finding(s)", result, len(errs))
	return errs, nil
}
