package pause

import (
	"encoding/json"
	"fmt"

	"github.com/shaiso/testgen/internal/domain"
	"github.com/shaiso/testgen/internal/router"
)

// wireRequest различает отсутствующее поле и нулевое значение.
type wireRequest struct {
	Service *string `json:"service"`
	Until   *int64  `json:"until"`
}

// ParseRequest разбирает {"service": string, "until": epoch millis}.
// Оба поля обязательны; ошибка оборачивает router.ErrMalformedPayload.
func ParseRequest(payload json.RawMessage) (domain.PauseRequest, error) {
	var w wireRequest
	if err := router.DecodeStrict(payload, &w); err != nil {
		return domain.PauseRequest{}, err
	}
	if w.Service == nil {
		return domain.PauseRequest{}, fmt.Errorf("%w: missing \"service\"", router.ErrMalformedPayload)
	}
	if w.Until == nil {
		return domain.PauseRequest{}, fmt.Errorf("%w: missing \"until\"", router.ErrMalformedPayload)
	}

	return domain.PauseRequest{Service: *w.Service, Until: *w.Until}, nil
}
