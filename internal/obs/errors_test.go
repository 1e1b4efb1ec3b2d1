package obs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInput_BuildsInputKindWithoutCause(t *testing.T) {
	err := Input("missing field %s", "project")
	assert.Equal(t, KindInput, err.Kind)
	assert.Equal(t, "missing field project", err.Message)
	assert.Nil(t, err.Cause)
	assert.Equal(t, "input_error: missing field project", err.Error())
}

func TestNotFoundWithSuggestions_CarriesSuggestionList(t *testing.T) {
	err := NotFoundWithSuggestions([]string{"Widget", "Widgets"}, "symbol %q not found", "widget")
	assert.Equal(t, KindNotFound, err.Kind)
	assert.Equal(t, []string{"Widget", "Widgets"}, err.Suggestions)
}

func TestParseFailure_WrapsCauseAndUnwraps(t *testing.T) {
	cause := errors.New("unexpected token")
	err := ParseFailure(cause, "parsing %s", "foo.go")

	assert.Equal(t, KindParse, err.Kind)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "unexpected token")
}

func TestStorage_WrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Storage(cause, "writing symbols")
	assert.Equal(t, KindStorage, err.Kind)
	assert.ErrorIs(t, err, cause)
}

func TestStaleIndex_HasNoCause(t *testing.T) {
	err := StaleIndex("index is %d files behind", 3)
	assert.Equal(t, KindStaleIndex, err.Kind)
	assert.Nil(t, err.Cause)
}

func TestKind_HTTPStatusMapping(t *testing.T) {
	cases := map[Kind]int{
		KindInput:      400,
		KindNotFound:   404,
		KindStorage:    500,
		KindStaleIndex: 200,
		KindParse:      500,
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.HTTPStatus(), "kind %s", kind)
	}
}

func TestKind_CLIExitCodeMapping(t *testing.T) {
	cases := map[Kind]int{
		KindNotFound:   1,
		KindInput:      2,
		KindStorage:    3,
		KindParse:      3,
		KindStaleIndex: 3,
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.CLIExitCode(), "kind %s", kind)
	}
}

func TestError_UnwrapReturnsNilWhenNoCause(t *testing.T) {
	err := Input("bad input")
	assert.Nil(t, err.Unwrap())
}

func TestErrorsAs_ExtractsObsErrorFromWrappedChain(t *testing.T) {
	inner := NotFound("symbol %q not found", "Foo")
	wrapped := errors.New("boundary: " + inner.Error())

	var target *Error
	assert.False(t, errors.As(wrapped, &target), "a plain fmt-wrapped string should not satisfy errors.As")

	var direct *Error
	assert.True(t, errors.As(inner, &direct))
	assert.Equal(t, KindNotFound, direct.Kind)
}
