package usecase

import (
	"context"
	"sync"
	"time"

	"report_bridge/internal/domain/report"
	"report_bridge/internal/usecase/repository"

	"github.com/sirupsen/logrus"
)

const definitionKeyPrefix = "report:"

// Catalog resolves report definitions from the backend through an optional shared cache.
type Catalog struct {
	source repository.ReportSource
	cache  repository.DefinitionCache
	ttl    time.Duration
	logger *logrus.Logger
}

// NewCatalog создает каталог отчетов. cache может быть nil.
func NewCatalog(source repository.ReportSource, cache repository.DefinitionCache, ttl time.Duration, logger *logrus.Logger) *Catalog {
	return &Catalog{source: source, cache: cache, ttl: ttl, logger: logger}
}

// NewScope returns a cache that lives for one request. Definitions fetched
// through the scope are reused until the scope is dropped.
func (c *Catalog) NewScope() *Scope {
	return &Scope{catalog: c, defs: make(map[string]report.Definition)}
}

func (c *Catalog) lookup(ctx context.Context, id string) (report.Definition, error) {
	key := definitionKeyPrefix + id
	if c.cache != nil {
		def, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			c.logger.WithError(err).WithField("report_id", id).Warn("Ошибка чтения кеша определений")
		} else if ok {
			return def, nil
		}
	}

	def, err := c.source.Get(ctx, id)
	if err != nil {
		return report.Definition{}, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, def, c.ttl); err != nil {
			c.logger.WithError(err).WithField("report_id", id).Warn("Ошибка записи в кеш определений")
		}
	}
	return def, nil
}

// Scope хранит кеш определений отчетов в пределах одного запроса.
type Scope struct {
	catalog *Catalog

	mu   sync.Mutex
	defs map[string]report.Definition
	list []report.Definition
}

// Definition returns the report definition with the given id.
func (s *Scope) Definition(ctx context.Context, id string) (report.Definition, error) {
	s.mu.Lock()
	def, ok := s.defs[id]
	s.mu.Unlock()
	if ok {
		return def, nil
	}

	def, err := s.catalog.lookup(ctx, id)
	if err != nil {
		return report.Definition{}, err
	}

	s.mu.Lock()
	s.defs[id] = def
	s.mu.Unlock()
	return def, nil
}

// List returns every definition known to the backend and remembers each of them in the scope.
func (s *Scope) List(ctx context.Context) ([]report.Definition, error) {
	s.mu.Lock()
	list := s.list
	s.mu.Unlock()
	if list != nil {
		return list, nil
	}

	list, err := s.catalog.source.List(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []report.Definition{}
	}

	s.mu.Lock()
	s.list = list
	for _, def := range list {
		s.defs[def.ID] = def
	}
	s.mu.Unlock()
	return list, nil
}
