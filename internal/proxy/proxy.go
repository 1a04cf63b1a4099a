// Package proxy перенаправляет тестируемый сервис через прокси-пир.
//
// Bind вызывается один раз при старте, до первого цикла генерации:
// базовый URL endpoint'а заменяется на адрес прокси, а исходный URL
// сохраняется в заголовке Proxy-Redirect, чтобы прокси мог восстановить
// настоящий адрес назначения.
package proxy

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shaiso/testgen/internal/domain"
)

// Scheme — схема URL прокси.
const Scheme = "http"

// Endpoint — изменяемый базовый URL тестируемого сервиса.
type Endpoint interface {
	BaseURL() string
	SetBaseURL(u string)
}

// Bind перенаправляет endpoint на прокси proxyHostname ("host" или "host:port").
//
// Не потокобезопасен: вызывается до запуска планировщика.
func Bind(endpoint Endpoint, proxyHostname string) (*domain.ProxyBinding, error) {
	proxyURL, err := BuildURL(proxyHostname)
	if err != nil {
		return nil, err
	}

	original := endpoint.BaseURL()
	endpoint.SetBaseURL(proxyURL)

	return &domain.ProxyBinding{
		OriginalHost:  original,
		ProxyHost:     proxyURL,
		RoutingHeader: RoutingHeader(original),
	}, nil
}

// RoutingHeader возвращает заголовок "Proxy-Redirect: <originalHost>".
func RoutingHeader(originalHost string) string {
	return domain.ProxyRedirectHeader + ": " + originalHost
}

// BuildURL строит URL прокси из authority.
func BuildURL(proxyHostname string) (string, error) {
	authority := strings.TrimSpace(proxyHostname)
	if authority == "" {
		return "", fmt.Errorf("%w: empty hostname", ErrInvalidProxyHost)
	}
	if strings.ContainsAny(authority, "/?#@ ") {
		return "", fmt.Errorf("%w: %q is not a host[:port]", ErrInvalidProxyHost, proxyHostname)
	}

	u := url.URL{Scheme: Scheme, Host: authority}

	parsed, err := url.Parse(u.String())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidProxyHost, err)
	}
	if parsed.Host != authority || parsed.Hostname() == "" {
		return "", fmt.Errorf("%w: %q is not a host[:port]", ErrInvalidProxyHost, proxyHostname)
	}

	if port := parsed.Port(); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n <= 0 || n > 65535 {
			return "", fmt.Errorf("%w: invalid port %q", ErrInvalidProxyHost, port)
		}
	} else if strings.HasSuffix(authority, ":") {
		return "", fmt.Errorf("%w: empty port in %q", ErrInvalidProxyHost, proxyHostname)
	}

	return u.String(), nil
}
