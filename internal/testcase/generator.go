package testcase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/shaiso/testgen/internal/domain"
)

// HeaderSource — источник заголовков запросов (loader.Loader).
// Заголовки читаются на каждом цикле: прокси добавляет свой при старте.
type HeaderSource interface {
	Headers() []string
}

// NominalGenerator строит номинальные тест-кейсы по спецификации.
type NominalGenerator struct {
	doc     *openapi3.T
	headers HeaderSource
	perOp   int
}

// NewNominalGenerator создаёт генератор. perOp < 1 трактуется как 1.
func NewNominalGenerator(doc *openapi3.T, headers HeaderSource, perOp int) *NominalGenerator {
	if perOp < 1 {
		perOp = 1
	}
	return &NominalGenerator{doc: doc, headers: headers, perOp: perOp}
}

// NewGenerator выбирает генератор по типу из конфигурации.
func NewGenerator(kind string, doc *openapi3.T, headers HeaderSource, perOp int) (*NominalGenerator, error) {
	switch kind {
	case "", "nominal":
		return NewNominalGenerator(doc, headers, perOp), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownGenerator, kind)
	}
}

// Generate возвращает тест-кейсы в детерминированном порядке
// (путь, затем метод).
func (g *NominalGenerator) Generate(ctx context.Context) ([]domain.TestCase, error) {
	if g.doc == nil || g.doc.Paths == nil || g.doc.Paths.Len() == 0 {
		return nil, ErrNoOperations
	}

	var headers []string
	if g.headers != nil {
		headers = g.headers.Headers()
	}

	paths := g.doc.Paths.Map()
	keys := make([]string, 0, len(paths))
	for p := range paths {
		keys = append(keys, p)
	}
	sort.Strings(keys)

	var cases []domain.TestCase
	for _, path := range keys {
		item := paths[path]
		ops := item.Operations()

		methods := make([]string, 0, len(ops))
		for m := range ops {
			methods = append(methods, m)
		}
		sort.Strings(methods)

		for _, method := range methods {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			op := ops[method]
			params := append(openapi3.Parameters{}, item.Parameters...)
			params = append(params, op.Parameters...)

			for i := 0; i < g.perOp; i++ {
				cases = append(cases, buildCase(path, method, op, params, headers, i))
			}
		}
	}

	if len(cases) == 0 {
		return nil, ErrNoOperations
	}

	return cases, nil
}

func buildCase(path, method string, op *openapi3.Operation, params openapi3.Parameters, headers []string, i int) domain.TestCase {
	tc := domain.TestCase{
		ID:             fmt.Sprintf("%s_%d", operationName(op, method, path), i+1),
		OperationID:    op.OperationID,
		Method:         strings.ToUpper(method),
		Path:           path,
		ExpectedStatus: expectedStatus(op),
	}

	for _, ref := range params {
		if ref == nil || ref.Value == nil {
			continue
		}
		p := ref.Value
		value := paramValue(p, i)

		switch p.In {
		case openapi3.ParameterInPath:
			tc.Path = strings.ReplaceAll(tc.Path, "{"+p.Name+"}", value)
		case openapi3.ParameterInQuery:
			if tc.QueryParams == nil {
				tc.QueryParams = make(map[string]string)
			}
			tc.QueryParams[p.Name] = value
		case openapi3.ParameterInHeader:
			tc.Headers = append(tc.Headers, p.Name+": "+value)
		}
	}

	tc.Headers = append(tc.Headers, headers...)
	tc.Body = requestBody(op)

	return tc
}

func operationName(op *openapi3.Operation, method, path string) string {
	if op.OperationID != "" {
		return op.OperationID
	}
	var b strings.Builder
	b.WriteString(strings.ToLower(method))
	for _, r := range path {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// expectedStatus — наименьший 2xx код ответа операции, 0 если его нет.
func expectedStatus(op *openapi3.Operation) int {
	if op.Responses == nil {
		return 0
	}
	best := 0
	for code := range op.Responses.Map() {
		n, err := strconv.Atoi(code)
		if err != nil || n < http.StatusOK || n >= http.StatusMultipleChoices {
			continue
		}
		if best == 0 || n < best {
			best = n
		}
	}
	return best
}

// paramValue выбирает значение параметра: example параметра, example схемы,
// default, первый enum, иначе значение по типу с учётом номера кейса.
func paramValue(p *openapi3.Parameter, i int) string {
	if p.Example != nil {
		return fmt.Sprint(p.Example)
	}
	if p.Schema == nil || p.Schema.Value == nil {
		return "value" + strconv.Itoa(i+1)
	}

	s := p.Schema.Value
	switch {
	case s.Example != nil:
		return fmt.Sprint(s.Example)
	case s.Default != nil:
		return fmt.Sprint(s.Default)
	case len(s.Enum) > 0:
		return fmt.Sprint(s.Enum[i%len(s.Enum)])
	}

	switch {
	case s.Type.Is(openapi3.TypeInteger), s.Type.Is(openapi3.TypeNumber):
		return strconv.Itoa(i + 1)
	case s.Type.Is(openapi3.TypeBoolean):
		return strconv.FormatBool(i%2 == 0)
	default:
		return p.Name + strconv.Itoa(i+1)
	}
}

// requestBody возвращает JSON пример тела запроса, если он есть.
func requestBody(op *openapi3.Operation) string {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return ""
	}
	mt := op.RequestBody.Value.Content.Get("application/json")
	if mt == nil {
		return ""
	}

	example := mt.Example
	if example == nil && mt.Schema != nil && mt.Schema.Value != nil {
		example = mt.Schema.Value.Example
	}
	if example == nil {
		return ""
	}

	b, err := json.Marshal(example)
	if err != nil {
		return ""
	}
	return string(b)
}
