package errors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/agentstation/eventmap/pkg/errors"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{Resource: "provider", ID: "finnhub_mna"}
		assert.Equal(t, "provider with ID finnhub_mna not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("source", "news")
		wrapped := errors.Join(errors.New("failed"), base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := pkgerrors.NewValidationError("company", "", "cannot be empty")
		assert.Equal(t, "validation failed for field company: cannot be empty", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "invalid mapping"}
		assert.Equal(t, "validation failed: invalid mapping", err.Error())
	})
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		target      error
		retryable   bool
		matchTarget bool
	}{
		{"rate limited", 429, pkgerrors.ErrRateLimited, true, true},
		{"server error", 503, pkgerrors.ErrProviderUnavailable, true, true},
		{"unauthorized", 401, pkgerrors.ErrAPIKeyInvalid, false, true},
		{"bad request", 400, pkgerrors.ErrRateLimited, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pkgerrors.NewAPIError("finnhub", tt.status, "boom")
			assert.Equal(t, tt.matchTarget, errors.Is(err, tt.target))
			assert.Equal(t, tt.retryable, err.Retryable())
			assert.Contains(t, err.Error(), "finnhub")
		})
	}

	t.Run("unwrap", func(t *testing.T) {
		base := errors.New("connection reset")
		err := pkgerrors.WrapAPI("yahoo_finance", 0, base)
		assert.ErrorIs(t, err, base)
		assert.Equal(t, "API error from yahoo_finance: connection reset", err.Error())
	})
}

func TestSourceUnavailableError(t *testing.T) {
	base := pkgerrors.NewTimeoutError("fetch", "10s", "deadline exceeded")
	err := pkgerrors.NewSourceUnavailableError("llm", "openrouter:deepseek/deepseek-chat", base)

	assert.Equal(t, "source llm unavailable via openrouter:deepseek/deepseek-chat: operation fetch timed out after 10s: deadline exceeded", err.Error())
	assert.True(t, pkgerrors.IsSourceUnavailable(err))
	assert.True(t, pkgerrors.IsTimeout(err))

	bare := &pkgerrors.SourceUnavailableError{Source: "news"}
	assert.Equal(t, "source news unavailable", bare.Error())
}

func TestMalformedRecordError(t *testing.T) {
	err := pkgerrors.NewMalformedRecordError("openrouter", "unparseable date", "date")
	assert.Equal(t, "malformed record from openrouter (fields: date): unparseable date", err.Error())
	assert.True(t, pkgerrors.IsMalformedRecord(err))
	assert.False(t, pkgerrors.IsSourceUnavailable(err))
}

func TestParseError(t *testing.T) {
	t.Run("with line", func(t *testing.T) {
		err := &pkgerrors.ParseError{Format: "blocks", Line: 4, Message: "missing label"}
		assert.Equal(t, "blocks parse error at line 4: missing label", err.Error())
	})

	t.Run("wrap helper", func(t *testing.T) {
		base := errors.New("unexpected EOF")
		err := pkgerrors.WrapParse("json", "events.json", base)
		var parseErr *pkgerrors.ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Equal(t, "events.json", parseErr.File)
		assert.ErrorIs(t, err, base)
	})

	assert.NoError(t, pkgerrors.WrapParse("json", "", nil))
}

func TestIOError(t *testing.T) {
	base := errors.New("disk full")
	err := pkgerrors.WrapIO("write", "/out/Acme_events.csv", base)
	var ioErr *pkgerrors.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "write", ioErr.Operation)
	assert.Equal(t, base, ioErr.Unwrap())
}

func TestAuthenticationError(t *testing.T) {
	err := pkgerrors.NewAuthenticationError("gemini", "api_key", "GEMINI_API_KEY not set", nil)
	assert.True(t, pkgerrors.IsAPIKeyError(err))
	assert.Contains(t, err.Error(), "gemini")
}

func TestConfigError(t *testing.T) {
	base := errors.New("unknown provider")
	err := pkgerrors.NewConfigError("sources.news", "invalid chain", base)
	assert.Equal(t, "configuration error in sources.news: invalid chain", err.Error())
	assert.ErrorIs(t, err, base)
}
