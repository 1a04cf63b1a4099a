package testcase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/testgen/internal/domain"
)

type fixedTarget string

func (t fixedTarget) BaseURL() string { return string(t) }

func sampleRequest() WriteRequest {
	return WriteRequest{
		ClassName:      "PetstoreTest_2026_01_02T03_04_05",
		BatchID:        domain.BatchID("2026-01-02T03-04-05"),
		ExperimentName: "petstore",
		TestCases: []domain.TestCase{
			{
				ID:             "listPets_1",
				Method:         "GET",
				Path:           "/pets",
				QueryParams:    map[string]string{"limit": "10"},
				Headers:        []string{"X-Api-Key: secret"},
				ExpectedStatus: 200,
			},
			{
				ID:             "createPet_1",
				Method:         "POST",
				Path:           "/pets",
				Headers:        []string{"X-Api-Key: secret", "Proxy-Redirect: http://api.example.com"},
				Body:           `{"name":"rex"}`,
				ExpectedStatus: 201,
			},
			{
				ID:     "getPet_1",
				Method: "GET",
				Path:   "/pets/p1",
			},
		},
	}
}

func TestGoTestWriter_Render(t *testing.T) {
	w := NewGoTestWriter(t.TempDir(), "petstoretest", fixedTarget("http://localhost:8080"))

	src, err := w.Render(sampleRequest())
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "petstore_test_class", src)
}

func TestGoTestWriter_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	w := NewGoTestWriter(dir, "petstoretest", fixedTarget("http://localhost:8080"))
	req := sampleRequest()

	require.NoError(t, w.Write(context.Background(), req))

	path := filepath.Join(dir, req.ClassName+"_test.go")
	assert.Equal(t, path, w.Path(req.ClassName))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	want, err := w.Render(req)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func TestGoTestWriter_TargetReadOnEachWrite(t *testing.T) {
	target := &mutableTarget{url: "http://api.example.com"}
	w := NewGoTestWriter(t.TempDir(), "p", target)

	before, err := w.Render(sampleRequest())
	require.NoError(t, err)
	assert.Contains(t, string(before), `baseURL := "http://api.example.com"`)

	target.url = "http://proxy.local:9000"
	after, err := w.Render(sampleRequest())
	require.NoError(t, err)
	assert.Contains(t, string(after), `baseURL := "http://proxy.local:9000"`)
}

type mutableTarget struct{ url string }

func (t *mutableTarget) BaseURL() string { return t.url }

func TestGoTestWriter_WriteCancelled(t *testing.T) {
	dir := t.TempDir()
	w := NewGoTestWriter(dir, "p", fixedTarget("http://x"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, w.Write(ctx, sampleRequest()), context.Canceled)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCaseLiteral(t *testing.T) {
	got := caseLiteral(domain.TestCase{
		ID:          "q",
		Method:      "GET",
		Path:        "/a",
		QueryParams: map[string]string{"b": "2", "a": "1"},
	})
	assert.Equal(t, `{id: "q", method: "GET", path: "/a", query: map[string]string{"a": "1", "b": "2"}},`, got)
}
