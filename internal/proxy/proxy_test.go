package proxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/testgen/internal/domain"
)

func TestBind_RewritesEndpointAndBuildsHeader(t *testing.T) {
	endpoint := domain.NewServiceEndpoint("http://api.example.com")

	binding, err := Bind(endpoint, "proxy.local:9000")
	require.NoError(t, err)

	assert.Equal(t, "http://proxy.local:9000", endpoint.BaseURL())
	assert.Equal(t, "http://api.example.com", binding.OriginalHost)
	assert.Equal(t, "http://proxy.local:9000", binding.ProxyHost)
	assert.Equal(t, "Proxy-Redirect: http://api.example.com", binding.RoutingHeader)
}

func TestBind_HostWithoutPort(t *testing.T) {
	endpoint := domain.NewServiceEndpoint("https://petstore.swagger.io/v2")

	binding, err := Bind(endpoint, "restest-proxy")
	require.NoError(t, err)

	assert.Equal(t, "http://restest-proxy", endpoint.BaseURL())
	assert.Equal(t, "Proxy-Redirect: https://petstore.swagger.io/v2", binding.RoutingHeader)
}

func TestBind_InvalidHostLeavesEndpointUntouched(t *testing.T) {
	invalid := []string{
		"",
		"   ",
		"proxy.local/path",
		"user@proxy.local",
		"proxy.local:port",
		"proxy.local:70000",
		"proxy.local:",
		"proxy local",
		"proxy?x=1",
		":9000",
	}

	for _, host := range invalid {
		t.Run(host, func(t *testing.T) {
			endpoint := domain.NewServiceEndpoint("http://api.example.com")

			binding, err := Bind(endpoint, host)

			require.ErrorIs(t, err, ErrInvalidProxyHost)
			assert.Nil(t, binding)
			assert.Equal(t, "http://api.example.com", endpoint.BaseURL())
		})
	}
}

func TestBuildURL_IPv6(t *testing.T) {
	u, err := BuildURL("[::1]:8080")
	require.NoError(t, err)
	assert.Equal(t, "http://[::1]:8080", u)
}
