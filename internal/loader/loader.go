// Package loader загружает пользовательскую конфигурацию генератора.
//
// Loader — "configuration handle" бота: YAML файл с параметрами
// эксперимента и OpenAPI спецификация тестируемого API. Первый элемент
// servers спецификации — ServiceEndpoint; его URL может быть один раз
// переписан при настройке прокси.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// Значения по умолчанию.
const (
	DefaultTestClassName  = "GeneratedTest"
	DefaultTestPackage    = "generated"
	DefaultTargetDir      = "generated"
	DefaultGeneratorType  = "nominal"
	DefaultCasesPerOp     = 1
	defaultExperimentName = "experiment"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// UserConfig — содержимое YAML файла конфигурации.
type UserConfig struct {
	// ExperimentName — имя эксперимента (используется репортером).
	ExperimentName string `yaml:"experiment_name"`

	// OASPath — путь к OpenAPI спецификации.
	OASPath string `yaml:"oas_path"`

	// TestClassName — базовое имя тестового класса.
	TestClassName string `yaml:"test_class_name"`

	// TargetDir — каталог артефактов и тестовых классов.
	TargetDir string `yaml:"target_dir"`

	// TestPackage — Go пакет сгенерированных тестов.
	TestPackage string `yaml:"test_package"`

	// Headers — дополнительные заголовки запросов ("Name: value").
	Headers []string `yaml:"headers"`

	// Generator — параметры генератора.
	Generator GeneratorConfig `yaml:"generator"`
}

// GeneratorConfig — параметры генератора тест-кейсов.
type GeneratorConfig struct {
	Type                  string `yaml:"type"`
	TestCasesPerOperation int    `yaml:"test_cases_per_operation"`
}

// Loader — загруженная конфигурация.
type Loader struct {
	path     string
	cfg      UserConfig
	doc      *openapi3.T
	endpoint *ServerEndpoint

	mu      sync.RWMutex
	headers []string
}

// Load читает YAML конфигурацию по path и загружает OpenAPI спецификацию.
// Относительные пути разрешаются относительно каталога файла конфигурации.
func Load(ctx context.Context, path string) (*Loader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read user config: %w", err)
	}

	var cfg UserConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
	}

	baseDir := filepath.Dir(path)
	if err := cfg.normalize(baseDir); err != nil {
		return nil, err
	}

	doc, err := loadSpec(ctx, cfg.OASPath)
	if err != nil {
		return nil, err
	}

	if len(doc.Servers) == 0 || doc.Servers[0] == nil || doc.Servers[0].URL == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoServers, cfg.OASPath)
	}

	return &Loader{
		path:     path,
		cfg:      cfg,
		doc:      doc,
		endpoint: &ServerEndpoint{server: doc.Servers[0]},
		headers:  slices.Clone(cfg.Headers),
	}, nil
}

func (c *UserConfig) normalize(baseDir string) error {
	if c.OASPath == "" {
		return fmt.Errorf("%w: oas_path is required", ErrInvalidConfig)
	}
	c.OASPath = resolve(baseDir, c.OASPath)

	if c.TargetDir == "" {
		c.TargetDir = DefaultTargetDir
	}
	c.TargetDir = resolve(baseDir, c.TargetDir)

	if c.ExperimentName == "" {
		c.ExperimentName = defaultExperimentName
	}

	if c.TestClassName == "" {
		c.TestClassName = DefaultTestClassName
	}
	if !identRe.MatchString(c.TestClassName) {
		return fmt.Errorf("%w: test_class_name %q is not an identifier", ErrInvalidConfig, c.TestClassName)
	}

	if c.TestPackage == "" {
		c.TestPackage = DefaultTestPackage
	}
	if !identRe.MatchString(c.TestPackage) {
		return fmt.Errorf("%w: test_package %q is not an identifier", ErrInvalidConfig, c.TestPackage)
	}

	if c.Generator.Type == "" {
		c.Generator.Type = DefaultGeneratorType
	}
	if c.Generator.TestCasesPerOperation <= 0 {
		c.Generator.TestCasesPerOperation = DefaultCasesPerOp
	}

	return nil
}

func resolve(baseDir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

func loadSpec(ctx context.Context, path string) (*openapi3.T, error) {
	l := openapi3.NewLoader()
	l.Context = ctx

	doc, err := l.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %v", ErrInvalidSpec, path, err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("%w: validate %s: %v", ErrInvalidSpec, path, err)
	}

	return doc, nil
}

// Path возвращает путь к файлу конфигурации (configReference в событиях).
func (l *Loader) Path() string { return l.path }

// Spec возвращает загруженную OpenAPI спецификацию.
func (l *Loader) Spec() *openapi3.T { return l.doc }

// Endpoint возвращает ServiceEndpoint (первый server спецификации).
func (l *Loader) Endpoint() *ServerEndpoint { return l.endpoint }

// TestClassName возвращает базовое имя тестового класса.
func (l *Loader) TestClassName() string { return l.cfg.TestClassName }

// TargetDir возвращает каталог артефактов.
func (l *Loader) TargetDir() string { return l.cfg.TargetDir }

// TestPackage возвращает Go пакет тестовых классов.
func (l *Loader) TestPackage() string { return l.cfg.TestPackage }

// ExperimentName возвращает имя эксперимента.
func (l *Loader) ExperimentName() string { return l.cfg.ExperimentName }

// Generator возвращает параметры генератора.
func (l *Loader) Generator() GeneratorConfig { return l.cfg.Generator }

// Headers возвращает копию заголовков запросов.
func (l *Loader) Headers() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.headers)
}

// AddHeader добавляет заголовок к исходящим запросам генератора.
func (l *Loader) AddHeader(h string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.headers = append(l.headers, h)
}

// ServerEndpoint — изменяемый URL первого server спецификации.
type ServerEndpoint struct {
	server *openapi3.Server
}

// BaseURL возвращает текущий URL сервера.
func (e *ServerEndpoint) BaseURL() string { return e.server.URL }

// SetBaseURL заменяет URL сервера в спецификации.
func (e *ServerEndpoint) SetBaseURL(u string) { e.server.URL = u }
