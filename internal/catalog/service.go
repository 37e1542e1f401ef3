package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mcollection/storefront/internal/cache"
	"github.com/mcollection/storefront/internal/domain"
)

const featuredCacheKey = "featured_products"

// Service layers the featured-product cache over the repository. Cache
// errors degrade to a database read, never to a request failure.
type Service struct {
	repo   *ProductRepository
	cache  cache.ProductListCache
	sfg    singleflight.Group
	logger *slog.Logger
}

func NewService(repo *ProductRepository, cache cache.ProductListCache, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

func (s *Service) Featured(ctx context.Context) ([]domain.Product, error) {
	v, err, _ := s.sfg.Do(featuredCacheKey, func() (any, error) {
		products, err := s.cache.Get(ctx, featuredCacheKey)
		if err == nil {
			return products, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Error("featured cache get failed", "error", err)
		}

		products, err = s.repo.ListFeatured(ctx)
		if err != nil {
			return nil, err
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := s.cache.Set(ctx, featuredCacheKey, products); err != nil {
				s.logger.Error("featured cache set failed", "error", err)
			}
		}()

		return products, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]domain.Product), nil
}

func (s *Service) Create(ctx context.Context, p *domain.Product) error {
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}
	s.invalidateFeatured()
	return nil
}

func (s *Service) Update(ctx context.Context, id string, upd ProductUpdate) (*domain.Product, error) {
	p, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.invalidateFeatured()
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateFeatured()
	return nil
}

func (s *Service) ToggleFeatured(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.repo.ToggleFeatured(ctx, id)
	if err != nil {
		return nil, err
	}
	s.invalidateFeatured()
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) Search(ctx context.Context, q string, limit int) ([]domain.Product, error) {
	return s.repo.Search(ctx, q, limit)
}

func (s *Service) Suggestions(ctx context.Context, limit int) ([]domain.Product, error) {
	return s.repo.Suggestions(ctx, limit)
}

func (s *Service) invalidateFeatured() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, featuredCacheKey); err != nil {
		s.logger.Error("featured cache invalidate failed", "error", err)
	}
}
