package testcase

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/testgen/internal/domain"
)

type staticHeaders []string

func (h staticHeaders) Headers() []string { return h }

func loadPetstore(t *testing.T) *openapi3.T {
	t.Helper()
	doc, err := openapi3.NewLoader().LoadFromFile(filepath.Join("testdata", "petstore.yaml"))
	require.NoError(t, err)
	return doc
}

func TestNominalGenerator_Petstore(t *testing.T) {
	g := NewNominalGenerator(loadPetstore(t), staticHeaders{"X-Api-Key: secret"}, 1)

	cases, err := g.Generate(context.Background())
	require.NoError(t, err)

	want := []domain.TestCase{
		{
			ID:             "listPets_1",
			OperationID:    "listPets",
			Method:         "GET",
			Path:           "/pets",
			QueryParams:    map[string]string{"limit": "10"},
			Headers:        []string{"X-Api-Key: secret"},
			ExpectedStatus: 200,
		},
		{
			ID:             "createPet_1",
			OperationID:    "createPet",
			Method:         "POST",
			Path:           "/pets",
			Headers:        []string{"X-Api-Key: secret"},
			Body:           `{"name":"rex"}`,
			ExpectedStatus: 201,
		},
		{
			ID:             "getPet_1",
			OperationID:    "getPet",
			Method:         "GET",
			Path:           "/pets/p1",
			Headers:        []string{"X-Api-Key: secret"},
			ExpectedStatus: 200,
		},
	}
	if diff := cmp.Diff(want, cases); diff != "" {
		t.Errorf("Generate() mismatch (-want +got):\n%s", diff)
	}
}

func TestNominalGenerator_PerOperation(t *testing.T) {
	g := NewNominalGenerator(loadPetstore(t), nil, 2)

	cases, err := g.Generate(context.Background())
	require.NoError(t, err)
	require.Len(t, cases, 6)

	ids := make([]string, len(cases))
	for i, tc := range cases {
		ids[i] = tc.ID
	}
	assert.Equal(t, []string{
		"listPets_1", "listPets_2",
		"createPet_1", "createPet_2",
		"getPet_1", "getPet_2",
	}, ids)
}

func TestNominalGenerator_HeadersReadEachCycle(t *testing.T) {
	headers := &mutableHeaders{}
	g := NewNominalGenerator(loadPetstore(t), headers, 1)

	first, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, first[0].Headers)

	headers.list = []string{"Proxy-Redirect: http://api.example.com"}
	second, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Proxy-Redirect: http://api.example.com"}, second[0].Headers)
}

type mutableHeaders struct{ list []string }

func (h *mutableHeaders) Headers() []string { return h.list }

func TestNominalGenerator_NoOperations(t *testing.T) {
	g := NewNominalGenerator(&openapi3.T{Paths: openapi3.NewPaths()}, nil, 1)

	_, err := g.Generate(context.Background())
	assert.True(t, errors.Is(err, ErrNoOperations))
}

func TestNominalGenerator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewNominalGenerator(loadPetstore(t), nil, 1).Generate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewGenerator(t *testing.T) {
	doc := loadPetstore(t)

	g, err := NewGenerator("", doc, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, g.perOp)

	_, err = NewGenerator("fuzz", doc, nil, 1)
	assert.ErrorIs(t, err, ErrUnknownGenerator)
}

func TestParamValue(t *testing.T) {
	str := &openapi3.Schema{Type: &openapi3.Types{openapi3.TypeString}}
	integer := &openapi3.Schema{Type: &openapi3.Types{openapi3.TypeInteger}}
	withDefault := &openapi3.Schema{Type: &openapi3.Types{openapi3.TypeString}, Default: "d"}
	withEnum := &openapi3.Schema{Type: &openapi3.Types{openapi3.TypeString}, Enum: []any{"a", "b"}}

	tests := []struct {
		name  string
		param *openapi3.Parameter
		i     int
		want  string
	}{
		{"param example wins", &openapi3.Parameter{Name: "x", Example: "ex", Schema: openapi3.NewSchemaRef("", withDefault)}, 0, "ex"},
		{"default", &openapi3.Parameter{Name: "x", Schema: openapi3.NewSchemaRef("", withDefault)}, 0, "d"},
		{"enum rotates", &openapi3.Parameter{Name: "x", Schema: openapi3.NewSchemaRef("", withEnum)}, 1, "b"},
		{"integer", &openapi3.Parameter{Name: "x", Schema: openapi3.NewSchemaRef("", integer)}, 2, "3"},
		{"string", &openapi3.Parameter{Name: "name", Schema: openapi3.NewSchemaRef("", str)}, 0, "name1"},
		{"no schema", &openapi3.Parameter{Name: "x"}, 0, "value1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, paramValue(tt.param, tt.i))
		})
	}
}
