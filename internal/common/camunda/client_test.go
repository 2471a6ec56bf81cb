package camunda

import (
	"errors"
	"testing"

	apperrors "founder-bi-agent/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientWithConfig_MissingAddress(t *testing.T) {
	_, err := NewClientWithConfig(&ClientConfig{})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeConfigurationMissing, apperrors.CodeOf(err))
}

func TestMapZeebeError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantReason interface{}
	}{
		{"deadline", errors.New("rpc error: code = DeadlineExceeded desc = context deadline exceeded"), "timeout"},
		{"refused", errors.New("dial tcp 127.0.0.1:26500: connection refused"), "unavailable"},
		{"unavailable", errors.New("rpc error: code = Unavailable"), "unavailable"},
		{"other", errors.New("permission denied"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapZeebeError(tt.err, "localhost:26500")
			std := apperrors.AsStandardError(err)
			assert.Equal(t, apperrors.ErrCodeInternal, std.Code)
			assert.Equal(t, tt.wantReason, std.Metadata["reason"])
			assert.ErrorIs(t, err, tt.err)
		})
	}
}
