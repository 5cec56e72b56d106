package utils

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient_Defaults(t *testing.T) {
	c := NewHTTPClient()
	assert.Equal(t, defaultClientTimeout, c.Timeout)

	tr, ok := c.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, defaultMaxConnsPerHost, tr.MaxConnsPerHost)
	assert.Equal(t, defaultMaxIdleConnsPerHost, tr.MaxIdleConnsPerHost)
	assert.Equal(t, defaultResponseHeaderTimeout, tr.ResponseHeaderTimeout)
	assert.NotNil(t, tr.Proxy)
}

func TestNewHTTPClient_Options(t *testing.T) {
	c := NewHTTPClient(WithClientTimeout(3*time.Second), WithMaxConnsPerHost(4))
	assert.Equal(t, 3*time.Second, c.Timeout)

	tr := c.Transport.(*http.Transport)
	assert.Equal(t, 4, tr.MaxConnsPerHost)
	assert.Equal(t, 4, tr.MaxIdleConnsPerHost)
}

func TestNewHTTPClient_NonPositiveOptionsFallBack(t *testing.T) {
	c := NewHTTPClient(WithClientTimeout(0), WithMaxConnsPerHost(-1))
	assert.Equal(t, defaultClientTimeout, c.Timeout)

	tr := c.Transport.(*http.Transport)
	assert.Equal(t, defaultMaxConnsPerHost, tr.MaxConnsPerHost)
	assert.Equal(t, defaultMaxIdleConnsPerHost, tr.MaxIdleConnsPerHost)
}
