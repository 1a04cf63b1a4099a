package testcase

import (
	"bytes"
	"context"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/google/renameio/v2"

	"github.com/shaiso/testgen/internal/domain"
)

// WriteRequest — параметры записи тестового класса одного батча.
type WriteRequest struct {
	ClassName      string
	BatchID        domain.BatchID
	ExperimentName string
	TestCases      []domain.TestCase
}

// Target — адрес, по которому сгенерированные тесты шлют запросы
// (после настройки прокси это адрес прокси).
type Target interface {
	BaseURL() string
}

// GoTestWriter рендерит батч в Go тест-файл.
type GoTestWriter struct {
	dir    string
	pkg    string
	target Target
	tmpl   *template.Template
	perm   os.FileMode
}

// NewGoTestWriter создаёт writer, пишущий в каталог dir пакет pkg.
func NewGoTestWriter(dir, pkg string, target Target) *GoTestWriter {
	return &GoTestWriter{
		dir:    dir,
		pkg:    pkg,
		target: target,
		tmpl:   template.Must(template.New("testclass").Parse(testClassTemplate)),
		perm:   0o644,
	}
}

// Path возвращает путь файла тестового класса.
func (w *GoTestWriter) Path(className string) string {
	return filepath.Join(w.dir, className+"_test.go")
}

// Render возвращает отформатированный исходник тестового класса.
func (w *GoTestWriter) Render(req WriteRequest) ([]byte, error) {
	data := struct {
		Package        string
		ClassName      string
		BatchID        string
		ExperimentName string
		BaseURL        string
		Cases          []string
	}{
		Package:        w.pkg,
		ClassName:      req.ClassName,
		BatchID:        string(req.BatchID),
		ExperimentName: req.ExperimentName,
		BaseURL:        w.target.BaseURL(),
		Cases:          make([]string, 0, len(req.TestCases)),
	}
	for _, tc := range req.TestCases {
		data.Cases = append(data.Cases, caseLiteral(tc))
	}

	var buf bytes.Buffer
	if err := w.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render test class %s: %w", req.ClassName, err)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format test class %s: %w", req.ClassName, err)
	}
	return src, nil
}

// Write рендерит и атомарно записывает тестовый класс.
func (w *GoTestWriter) Write(ctx context.Context, req WriteRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, err := w.Render(req)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create test dir: %w", err)
	}

	if err := renameio.WriteFile(w.Path(req.ClassName), src, w.perm); err != nil {
		return fmt.Errorf("write test class %s: %w", req.ClassName, err)
	}
	return nil
}

// caseLiteral рендерит тест-кейс как элемент composite literal.
func caseLiteral(tc domain.TestCase) string {
	var b strings.Builder
	fmt.Fprintf(&b, "{id: %s, method: %s, path: %s",
		strconv.Quote(tc.ID), strconv.Quote(tc.Method), strconv.Quote(tc.Path))

	if len(tc.QueryParams) > 0 {
		keys := make([]string, 0, len(tc.QueryParams))
		for k := range tc.QueryParams {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString(", query: map[string]string{")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s: %s", strconv.Quote(k), strconv.Quote(tc.QueryParams[k]))
		}
		b.WriteString("}")
	}

	if len(tc.Headers) > 0 {
		quoted := make([]string, len(tc.Headers))
		for i, h := range tc.Headers {
			quoted[i] = strconv.Quote(h)
		}
		fmt.Fprintf(&b, ", headers: []string{%s}", strings.Join(quoted, ", "))
	}

	if tc.Body != "" {
		fmt.Fprintf(&b, ", body: %s", strconv.Quote(tc.Body))
	}
	if tc.ExpectedStatus != 0 {
		fmt.Fprintf(&b, ", status: %d", tc.ExpectedStatus)
	}

	b.WriteString("},")
	return b.String()
}

const testClassTemplate = `// Code generated by testgen. DO NOT EDIT.
// Experiment: {{.ExperimentName}}
// Batch: {{.BatchID}}

package {{.Package}}

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
)

func Test{{.ClassName}}(t *testing.T) {
	baseURL := {{printf "%q" .BaseURL}}

	cases := []struct {
		id      string
		method  string
		path    string
		query   map[string]string
		headers []string
		body    string
		status  int
	}{
{{- range .Cases}}
		{{.}}
{{- end}}
	}

	for _, tc := range cases {
		t.Run(tc.id, func(t *testing.T) {
			u, err := url.Parse(baseURL + tc.path)
			if err != nil {
				t.Fatalf("parse url: %v", err)
			}
			q := u.Query()
			for k, v := range tc.query {
				q.Set(k, v)
			}
			u.RawQuery = q.Encode()

			req, err := http.NewRequest(tc.method, u.String(), strings.NewReader(tc.body))
			if err != nil {
				t.Fatalf("build request: %v", err)
			}
			if tc.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			for _, h := range tc.headers {
				name, value, _ := strings.Cut(h, ":")
				req.Header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
			}

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			if tc.status != 0 && resp.StatusCode != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, resp.StatusCode)
			}
			if tc.status == 0 && resp.StatusCode >= http.StatusBadRequest {
				t.Errorf("unexpected status %d", resp.StatusCode)
			}
		})
	}
}
`
