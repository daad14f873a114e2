package archive

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"code only", &Error{Code: ErrCodeIO}, "io error"},
		{"field", &Error{Code: ErrCodeInvalidPath, Field: "path", Message: "must be absolute"}, "path: must be absolute"},
		{
			"full context",
			&Error{Code: ErrCodeFetch, Message: "cannot fetch", Path: "/opt/a.zip", Action: ActionCreate, Stage: StageFetching, Underlying: errors.New("eof")},
			"archive /opt/a.zip: create: fetching: cannot fetch: eof",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_IsMatchesCode(t *testing.T) {
	t.Parallel()

	underlying := errors.New("disk full")
	err := fmt.Errorf("wrapped: %w", &Error{Code: ErrCodeIO, Underlying: underlying})

	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, underlying)
	assert.NotErrorIs(t, err, ErrFetch)
	assert.True(t, IsCode(err, ErrCodeIO))
	assert.False(t, IsCode(errors.New("plain"), ErrCodeIO))
}

func TestValidationErrors_AsError(t *testing.T) {
	t.Parallel()

	list := &ValidationErrors{path: "/opt/a"}
	assert.NoError(t, list.AsError())
	assert.Empty(t, list.Error())

	list.Add(newFieldError(ErrCodeInvalidSource, "source", "bad"))
	assert.Error(t, list.AsError())
	assert.Equal(t, "archive /opt/a: source: bad", list.Error())
}
