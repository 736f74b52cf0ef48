package fault

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindMapping(t *testing.T) {
	cases := []struct {
		err    error
		kind   Kind
		status int
		code   string
	}{
		{Validation("bad input"), KindValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
		{Conflict("locked"), KindConflict, http.StatusConflict, "CONFLICT"},
		{PreconditionFailed("stale"), KindPreconditionFailed, http.StatusPreconditionFailed, "PRECONDITION_FAILED"},
		{NotFound("gone"), KindNotFound, http.StatusNotFound, "NOT_FOUND"},
		{Internal(errors.New("boom"), "store failed"), KindInternal, http.StatusInternalServerError, "INTERNAL_ERROR"},
		{errors.New("untagged"), KindInternal, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		kind := KindOf(tc.err)
		assert.Equal(t, tc.kind, kind)
		assert.Equal(t, tc.status, kind.HTTPStatus())
		assert.Equal(t, tc.code, kind.Code())
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", Conflict("lock held"))
	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, IsTagged(err))
	assert.False(t, IsTagged(errors.New("plain")))
}

func TestMessageOfHidesInternalDetail(t *testing.T) {
	assert.Equal(t, "lock held", MessageOf(Conflict("lock held")))
	assert.Equal(t, "internal server error", MessageOf(Internal(errors.New("pg: connection refused"), "store failed")))
	assert.Equal(t, "internal server error", MessageOf(errors.New("raw detail")))
}
