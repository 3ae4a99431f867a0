// Package metadata turns the foreign keys found in search results into
// display labels.
package metadata

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/gemexbase/gemex/internal/searchconf"
	"github.com/gemexbase/gemex/pkg/model"
)

// Fetcher loads one record. backend.Service satisfies it.
type Fetcher interface {
	GetByID(ctx context.Context, entity string, id int64) (model.Record, error)
}

// Lookup holds the distinct ids referenced by one result field, in order of
// first appearance, and their labels at the same index. An id that could not
// be resolved has an empty label.
type Lookup struct {
	IDs    []int64  `json:"ids"`
	Values []string `json:"values"`
}

// Label returns the label resolved for id.
func (l Lookup) Label(id int64) (string, bool) {
	for i, v := range l.IDs {
		if v == id {
			return l.Values[i], true
		}
	}
	return "", false
}

// Table maps result field names to their lookups.
type Table map[string]Lookup

// Config configures a Resolver.
type Config struct {
	// Concurrency bounds the lookups in flight per field.
	Concurrency int         `yaml:"resolver_concurrency"`
	Cache       CacheConfig `yaml:"label_cache"`
}

// DefaultConfig returns the default resolver configuration.
func DefaultConfig() Config {
	return Config{
		Concurrency: 8,
		Cache:       DefaultCacheConfig(),
	}
}

// Resolver builds metadata lookup tables for search results.
type Resolver struct {
	registry    *searchconf.Registry
	cache       *LabelCache
	concurrency int
	logger      *slog.Logger
}

// NewResolver creates a Resolver fetching referenced records through fetcher.
func NewResolver(registry *searchconf.Registry, fetcher Fetcher, cfg Config, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConfig().Concurrency
	}
	r := &Resolver{
		registry:    registry,
		concurrency: cfg.Concurrency,
		logger:      logger.With("component", "metadata"),
	}
	r.cache = NewLabelCache(fetcher, r.Label, cfg.Cache)
	return r
}

// Cache returns the resolver's label cache.
func (r *Resolver) Cache() *LabelCache {
	return r.cache
}

// Resolve builds the lookup table of the result fields of entity that
// reference another entity type. Failed lookups leave an empty label and never
// stop the others; only cancellation of ctx is reported.
func (r *Resolver) Resolve(ctx context.Context, entity string, records []model.Record) (Table, error) {
	conf, err := r.registry.Entity(entity)
	if err != nil {
		return nil, err
	}

	table := make(Table, len(conf.ResultFields))
	for _, field := range conf.ResultFields {
		target, ok := searchconf.ReferencedEntity(conf.Params[field].Type)
		if !ok {
			continue
		}
		ids := CollectIDs(records, field)
		table[field] = Lookup{IDs: ids, Values: r.resolveAll(ctx, entity, field, target, ids)}
	}
	if ctx.Err() != nil {
		return nil, model.ErrCanceled
	}
	return table, nil
}

// resolveAll resolves ids concurrently into slots aligned with ids.
func (r *Resolver) resolveAll(ctx context.Context, entity, field, target string, ids []int64) []string {
	values := make([]string, len(ids))
	var g errgroup.Group
	g.SetLimit(r.concurrency)

	failures := make([]bool, len(ids))
	for i, id := range ids {
		g.Go(func() error {
			label, err := r.cache.Label(ctx, target, id)
			if err != nil {
				failures[i] = true
				r.logger.Debug("Label lookup failed",
					"entity", entity,
					"field", field,
					"target", target,
					"id", id,
					"error", err,
				)
				return nil
			}
			values[i] = label
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, f := range failures {
		if f {
			failed++
		}
	}
	if failed > 0 && ctx.Err() == nil {
		r.logger.Warn("Some labels could not be resolved",
			"entity", entity,
			"field", field,
			"target", target,
			"failed", failed,
			"total", len(ids),
		)
	}
	return values
}

// CollectIDs returns the distinct non-null ids referenced by field across
// records, in order of first appearance. List values are flattened.
func CollectIDs(records []model.Record, field string) []int64 {
	ids := make([]int64, 0, len(records))
	seen := make(map[int64]bool)
	add := func(v interface{}) {
		id, ok := model.IDOf(v)
		if !ok || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	}
	for _, rec := range records {
		switch v := rec[field].(type) {
		case nil:
		case []interface{}:
			for _, item := range v {
				add(item)
			}
		case []int64:
			for _, item := range v {
				add(item)
			}
		default:
			add(v)
		}
	}
	return ids
}

// Label builds the display label of a record of entity:
//
//	users                 first_name last_name
//	elements              nom – numero
//	unregistered types    nom
//	other types           their quick-search field, nom when they have none
func (r *Resolver) Label(entity string, rec model.Record) string {
	switch entity {
	case "users":
		return strings.TrimSpace(text(rec, "first_name") + " " + text(rec, "last_name"))
	case "elements":
		return text(rec, "nom") + " – " + text(rec, "numero")
	}
	conf, err := r.registry.Entity(entity)
	if err != nil || conf.DefaultSearchParam == "" {
		return text(rec, "nom")
	}
	return text(rec, conf.DefaultSearchParam)
}

func text(rec model.Record, key string) string {
	switch v := rec[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	}
	return ""
}
