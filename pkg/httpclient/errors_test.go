package httpclient

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
)

func fakeResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestParseResponseError_Unauthorized(t *testing.T) {
	err := ParseResponseError(fakeResponse(401, `{"message":"invalid personal access token"}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.Contains(t, err.Error(), "invalid personal access token")
}

func TestParseResponseError_UnauthorizedEmptyBody(t *testing.T) {
	err := ParseResponseError(fakeResponse(401, ``))
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.Contains(t, err.Error(), "access token")
}

func TestParseResponseError_BareMessage(t *testing.T) {
	err := ParseResponseError(fakeResponse(422, `{"message":"variant sold out"}`))
	assert.ErrorIs(t, err, apperrors.ErrAPI)
	assert.Contains(t, err.Error(), "variant sold out")
}

func TestParseResponseError_NestedEnvelope(t *testing.T) {
	err := ParseResponseError(fakeResponse(400, `{"error":{"code":"BAD_VARIANT","message":"unknown variant"}}`))
	assert.ErrorIs(t, err, apperrors.ErrAPI)
	assert.Contains(t, err.Error(), "unknown variant")
}

func TestParseResponseError_UnstructuredBody(t *testing.T) {
	err := ParseResponseError(fakeResponse(502, `<html>bad gateway</html>`))
	assert.ErrorIs(t, err, apperrors.ErrAPI)
	assert.Contains(t, err.Error(), "502")
}
