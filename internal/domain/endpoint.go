package domain

import "strings"

// ServiceEndpoint — тестируемый API, идентифицируемый базовым URL.
//
// BaseURL меняется только при настройке прокси (один раз, до первого тика),
// после этого endpoint только читается.
type ServiceEndpoint struct {
	URL string `json:"url"`
}

// NewServiceEndpoint создаёт endpoint с указанным базовым URL.
func NewServiceEndpoint(baseURL string) *ServiceEndpoint {
	return &ServiceEndpoint{URL: baseURL}
}

// BaseURL возвращает текущий базовый URL.
func (e *ServiceEndpoint) BaseURL() string {
	return e.URL
}

// SetBaseURL заменяет базовый URL.
func (e *ServiceEndpoint) SetBaseURL(u string) {
	e.URL = u
}

// ProxyBinding — результат перенаправления endpoint через прокси-пир.
//
// Создаётся один раз при конфигурации и далее не меняется.
// Отсутствие ProxyBinding означает, что прокси не используется.
type ProxyBinding struct {
	// OriginalHost — URL сервиса до перенаправления.
	OriginalHost string `json:"original_host"`

	// ProxyHost — URL прокси, на который указывает endpoint.
	ProxyHost string `json:"proxy_host"`

	// RoutingHeader — заголовок "Proxy-Redirect: <OriginalHost>",
	// по которому прокси восстанавливает настоящий адрес.
	RoutingHeader string `json:"routing_header"`
}

// ProxyRedirectHeader — имя заголовка маршрутизации.
const ProxyRedirectHeader = "Proxy-Redirect"

// SameService сравнивает идентификаторы сервисов без учёта завершающего "/".
func SameService(a, b string) bool {
	return strings.TrimRight(a, "/") == strings.TrimRight(b, "/")
}
