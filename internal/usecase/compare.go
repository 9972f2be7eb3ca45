package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"FinScore/internal/domain/models"
	"FinScore/internal/services/compare"
	"FinScore/pkg/logger"
)

// Analyzer is the single-symbol analysis entry point.
type Analyzer interface {
	Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.Analysis, error)
}

// CompareService analyzes several symbols concurrently and ranks them.
type CompareService struct {
	analyzer Analyzer
	timeout  time.Duration
	logger   *logger.Logger
}

func NewCompareService(a Analyzer, timeout time.Duration, l *logger.Logger) *CompareService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CompareService{analyzer: a, timeout: timeout, logger: l}
}

// Compare analyzes every item. Per-symbol failures are reported in
// Comparison.Errors; fewer than two successes is an error.
func (s *CompareService) Compare(ctx context.Context, items []models.AnalyzeRequest) (models.Comparison, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		analysis *models.Analysis
		err      error
	}
	results := make([]result, len(items))

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item models.AnalyzeRequest) {
			defer wg.Done()
			// history stays untouched by comparisons
			item.SkipHistory = true
			a, err := s.analyzer.Analyze(ctx, item)
			results[i] = result{analysis: a, err: err}
		}(i, item)
	}
	wg.Wait()

	analyses := make([]models.Analysis, 0, len(items))
	errs := make(map[string]string)
	for i, r := range results {
		sym := normalizeSymbol(items[i].Symbol)
		if r.err != nil {
			errs[sym] = r.err.Error()
			continue
		}
		analyses = append(analyses, *r.analysis)
	}
	if ctx.Err() != nil && s.logger != nil {
		s.logger.Warn("comparison deadline reached", logger.Int("items", len(items)), logger.Error(ctx.Err()))
	}

	cmp, err := compare.Compare(analyses)
	if len(errs) > 0 {
		cmp.Errors = errs
	}
	if err != nil {
		return cmp, fmt.Errorf("compare: %w", err)
	}
	return cmp, nil
}
