package knowledge

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/apperrors"
)

// ValidateCredentials checks that baseURL and apiKey are set and accepted by
// the API. Every failure wraps apperrors.ErrCredentialValidation.
func ValidateCredentials(ctx context.Context, baseURL, apiKey string, logger *zap.Logger) error {
	if baseURL == "" || apiKey == "" {
		return fmt.Errorf("%w: knowledge API URL and API key are required", apperrors.ErrCredentialValidation)
	}

	ok, err := NewClient(baseURL, apiKey, logger).ValidateAPIKey(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrCredentialValidation, err)
	}
	if !ok {
		return fmt.Errorf("%w: dataset listing returned no data", apperrors.ErrCredentialValidation)
	}
	return nil
}
