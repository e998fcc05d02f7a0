package transport

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeString(t *testing.T) {
	body, err := DecodeString().Materialize(io.NopCloser(strings.NewReader("hello")))
	require.NoError(t, err)
	assert.Equal(t, BodyText, body.Kind())
	assert.Equal(t, "hello", body.Text())
}

func TestDecodeBytes(t *testing.T) {
	body, err := DecodeBytes().Materialize(io.NopCloser(strings.NewReader("raw")))
	require.NoError(t, err)
	assert.Equal(t, BodyBytes, body.Kind())
	assert.Equal(t, []byte("raw"), body.Bytes())
}

func TestDecodeStreamTransfersOwnership(t *testing.T) {
	rc := io.NopCloser(strings.NewReader("streamed"))
	body, err := DecodeStream().Materialize(rc)
	require.NoError(t, err)
	assert.Equal(t, BodyStream, body.Kind())

	data, err := io.ReadAll(body.Stream())
	require.NoError(t, err)
	assert.Equal(t, "streamed", string(data))
	require.NoError(t, body.Stream().Close())
}

func TestDecodeFileSpoolsBody(t *testing.T) {
	dir := t.TempDir()
	body, err := DecodeFile(dir).Materialize(io.NopCloser(strings.NewReader("file contents")))
	require.NoError(t, err)
	assert.Equal(t, BodyFile, body.Kind())

	data, err := os.ReadFile(body.FilePath())
	require.NoError(t, err)
	assert.Equal(t, "file contents", string(data))
	assert.Contains(t, body.FilePath(), dir)
}

func TestBodyAccessorsForWrongKindReturnZeroValues(t *testing.T) {
	body, err := DecodeString().Materialize(io.NopCloser(strings.NewReader("x")))
	require.NoError(t, err)
	assert.Nil(t, body.Bytes())
	assert.Nil(t, body.Stream())
	assert.Empty(t, body.FilePath())
}
