package search

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"careindex/internal/core/apperror"
	"careindex/internal/core/tx"
	"careindex/internal/domain/filter"
	"careindex/pkg/logger"
)

var tracer = otel.Tracer("careindex/search")

// Request is a decoded filter request.
type Request struct {
	Params  map[string][]string
	Filters []byte

	Logic          string
	OrderBy        string
	OrderDirection string
	Limit          *int // nil means the configured default
	Offset         int
	Fields         []string
}

// ServiceConfig configures the search service.
type ServiceConfig struct {
	Catalog   *filter.Catalog
	Limits    filter.Limits
	Repo      Repository
	TxManager tx.ReadOnlyManager // Optional - defaults to tx.Nop
}

// Service is safe for concurrent use.
type Service struct {
	catalog   *filter.Catalog
	limits    filter.Limits
	parser    *filter.Parser
	compiler  *filter.Compiler
	repo      Repository
	txManager tx.ReadOnlyManager
}

// NewService creates a search service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Catalog == nil {
		cfg.Catalog = filter.DefaultCatalog()
	}
	if err := cfg.Limits.Validate(); err != nil {
		return nil, fmt.Errorf("search limits: %w", err)
	}
	if cfg.Repo == nil {
		return nil, fmt.Errorf("search repository is required")
	}
	if cfg.TxManager == nil {
		cfg.TxManager = tx.Nop{}
	}
	return &Service{
		catalog:   cfg.Catalog,
		limits:    cfg.Limits,
		parser:    filter.NewParser(cfg.Catalog, cfg.Limits),
		compiler:  filter.NewCompiler(cfg.Catalog, cfg.Limits),
		repo:      cfg.Repo,
		txManager: cfg.TxManager,
	}, nil
}

// Catalog returns the catalog the service validates against.
func (s *Service) Catalog() *filter.Catalog {
	return s.catalog
}

// Limits returns the configured request bounds.
func (s *Service) Limits() filter.Limits {
	return s.limits
}

// Compile parses and compiles a request without executing it.
func (s *Service) Compile(req Request) (filter.QuerySpec, error) {
	conds, err := s.parser.Parse(filter.RawInput{Params: req.Params, Filters: req.Filters})
	if err != nil {
		return filter.QuerySpec{}, err
	}

	limit := s.limits.DefaultLimit
	if req.Limit != nil {
		limit = *req.Limit
	}

	return s.compiler.Compile(conds, filter.Options{
		Logic:          req.Logic,
		OrderBy:        req.OrderBy,
		OrderDirection: req.OrderDirection,
		Limit:          limit,
		Offset:         req.Offset,
		Fields:         req.Fields,
	})
}

// Search runs the request. Count and page are read in one read-only unit
// of work so the pagination metadata describes the returned page.
func (s *Service) Search(ctx context.Context, req Request) (filter.Envelope, error) {
	ctx, span := tracer.Start(ctx, "search.Search")
	defer span.End()

	spec, err := s.Compile(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return filter.Envelope{}, err
	}

	span.SetAttributes(
		attribute.Int("filter.conditions", len(spec.Conditions)),
		attribute.String("filter.logic", string(spec.Logic)),
		attribute.Int("filter.limit", spec.Limit),
		attribute.Int("filter.offset", spec.Offset),
	)
	logger.Debug(ctx, "filter compiled",
		"conditions", len(spec.Conditions),
		"logic", spec.Logic,
		"order_by", spec.OrderBy.Name,
		"direction", spec.Direction,
		"limit", spec.Limit,
		"offset", spec.Offset,
	)

	var (
		total int64
		rows  []filter.Record
	)
	err = s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		total, err = s.repo.Count(ctx, spec)
		if err != nil {
			return fmt.Errorf("count: %w", err)
		}
		if total == 0 || int64(spec.Offset) >= total {
			return nil
		}
		rows, err = s.repo.Find(ctx, spec)
		if err != nil {
			return fmt.Errorf("find: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "execution failed")
		logger.Error(ctx, "filter execution failed", "error", err)
		if apperror.IsAppError(err) {
			return filter.Envelope{}, err
		}
		return filter.Envelope{}, apperror.NewDatabase(err)
	}

	span.AddEvent("assembled", trace.WithAttributes(
		attribute.Int64("filter.total", total),
		attribute.Int("filter.rows", len(rows)),
	))
	return filter.Assemble(rows, total, spec), nil
}

// Ping checks the underlying store when it supports health checks.
func (s *Service) Ping(ctx context.Context) error {
	if p, ok := s.repo.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
