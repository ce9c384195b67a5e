package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindFatal(t *testing.T) {
	fatal := []Kind{KindConfigNotFound, KindMissingInput, KindCredentialMissing}
	perItem := []Kind{KindParse, KindModel, KindFormat, KindWrite}

	for _, k := range fatal {
		assert.True(t, k.Fatal(), "%s should be fatal", k)
	}
	for _, k := range perItem {
		assert.False(t, k.Fatal(), "%s should not be fatal", k)
	}
}

func TestWrapKeepsCauseAndKind(t *testing.T) {
	cause := errors.New("quota exceeded")
	err := Wrap(cause, KindModel, "model request failed").WithItem("src/a.py")

	wrapped := fmt.Errorf("generating tests: %w", err)

	assert.ErrorIs(t, wrapped, cause)
	assert.ErrorIs(t, wrapped, ErrModel)
	assert.NotErrorIs(t, wrapped, ErrFormat)
	assert.Equal(t, KindModel, KindOf(wrapped))
	assert.False(t, IsFatal(wrapped))
	assert.Equal(t, "model request failed: quota exceeded", err.Error())
	assert.Equal(t, "src/a.py", err.Item)
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.False(t, IsFatal(errors.New("plain")))
	assert.True(t, IsFatal(New(KindMissingInput, "source path %q does not exist", "src")))
}
