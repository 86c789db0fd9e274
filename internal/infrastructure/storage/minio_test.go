package storage

import (
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	id := uuid.MustParse("6f1c1c1e-8f51-4a8e-9a57-3f1f2d0e8b11")
	assert.Equal(t, "knowledge/6f1c1c1e-8f51-4a8e-9a57-3f1f2d0e8b11.md", ObjectKey(id, "notion"))
	assert.Equal(t, "knowledge/6f1c1c1e-8f51-4a8e-9a57-3f1f2d0e8b11.html", ObjectKey(id, "web"))
	assert.Equal(t, "knowledge/6f1c1c1e-8f51-4a8e-9a57-3f1f2d0e8b11.txt", ObjectKey(id, "pdf"))
	assert.Equal(t, "text/markdown; charset=utf-8", ContentType(ObjectKey(id, "markdown")))
}

func TestRewriteHost(t *testing.T) {
	u, err := url.Parse("http://minio:9000/bucket/knowledge/a.md?X-Amz-Signature=abc")
	require.NoError(t, err)

	assert.Equal(t, u.String(), rewriteHost(u, ""))
	assert.Equal(t, "https://files.example.com/bucket/knowledge/a.md?X-Amz-Signature=abc", rewriteHost(u, "https://files.example.com"))
}
