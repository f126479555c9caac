package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3Archive_RequiresBucket(t *testing.T) {
	_, err := NewS3Archive(S3Config{})
	assert.Error(t, err)
}

func TestS3Archive_PutsObject(t *testing.T) {
	var (
		gotPath string
		gotBody string
		gotType string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotPath, gotBody, gotType = r.URL.Path, string(b), r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a, err := NewS3Archive(S3Config{
		Bucket:       "webhooks-archive",
		Region:       "us-east-1",
		AccessKey:    "test",
		SecretKey:    "test",
		Endpoint:     srv.URL,
		UsePathStyle: true,
	})
	require.NoError(t, err)

	err = a.Archive(context.Background(), "webhooks/mercadopago/2025/03/10/abc.json", []byte(`{"event":"billing.paid"}`))
	require.NoError(t, err)

	assert.Equal(t, "/webhooks-archive/webhooks/mercadopago/2025/03/10/abc.json", gotPath)
	assert.True(t, strings.Contains(gotBody, "billing.paid"))
	assert.Equal(t, "application/json", gotType)
}
