package storage

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPermissionDenied(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"access denied code", minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}, true},
		{"forbidden status", minio.ErrorResponse{Code: "Whatever", StatusCode: http.StatusForbidden}, true},
		{"rls text", errors.New("new row violates row-level security policy"), true},
		{"missing key", minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}, false},
		{"network", errors.New("connection refused"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsPermissionDenied(tc.err))
		})
	}
}

func TestPublicURL(t *testing.T) {
	s := &MinIOStore{baseURL: "https://cdn.example.com"}
	assert.Equal(t, "https://cdn.example.com/covers/1700000000000-abc.png", s.PublicURL("covers", "1700000000000-abc.png"))
	assert.Equal(t, "https://cdn.example.com/covers/a%20b/c.png", s.PublicURL("covers", "a b/c.png"))
}

func TestPublicReadPolicy(t *testing.T) {
	raw, err := PublicReadPolicy("covers")
	require.NoError(t, err)

	var policy struct {
		Version   string
		Statement []struct {
			Effect    string
			Principal map[string][]string
			Action    []string
			Resource  []string
		}
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &policy))
	assert.Equal(t, "2012-10-17", policy.Version)
	require.Len(t, policy.Statement, 1)
	st := policy.Statement[0]
	assert.Equal(t, "Allow", st.Effect)
	assert.Equal(t, map[string][]string{"AWS": {"*"}}, st.Principal)
	assert.Equal(t, []string{"s3:GetObject"}, st.Action)
	assert.Equal(t, []string{"arn:aws:s3:::covers/*"}, st.Resource)
	assert.NotContains(t, raw, "s3:ListBucket")
}
