package catalog

import (
	"context"
	"log/slog"
	"strings"

	"github.com/redsunink/veliankeeper/internal/domain"
	"github.com/redsunink/veliankeeper/internal/errors"
	"github.com/redsunink/veliankeeper/internal/repository/sqlite"
)

// ImageScraper resolves a thumbnail URL for a catalog entry name.
type ImageScraper interface {
	ScrapeImageURL(ctx context.Context, searchTerm string) (string, error)
}

// AddItemInput carries the fields for a new catalog item.
type AddItemInput struct {
	Name          string
	RawAliases    string
	FacilityName  string
	CanBeCrated   string
	CanBePalleted string
	CrateSize     int64
	PalletSize    int64
}

// AddFacilityInput carries the fields for a new production facility.
type AddFacilityInput struct {
	Name       string
	RawAliases string
	Type       string
}

// Service is the catalog knowledge base surface consumed by the task
// lifecycle: lookups resolve by exact name or alias, writes normalize the
// alias set and scrape thumbnails from the wiki.
type Service interface {
	FindItem(ctx context.Context, nameOrAlias string) (*domain.Item, error)
	AddItem(ctx context.Context, input AddItemInput) (*domain.Item, error)
	UpdateItem(ctx context.Context, item domain.Item) (*domain.Item, error)
	DeleteItem(ctx context.Context, nameOrAlias string) error

	FindFacility(ctx context.Context, nameOrAlias string) (*domain.Facility, error)
	AddFacility(ctx context.Context, input AddFacilityInput) (*domain.Facility, error)

	FindStockpile(ctx context.Context, name string) (*domain.Stockpile, error)
	AddStockpile(ctx context.Context, stockpile domain.Stockpile) (*domain.Stockpile, error)
	PurgeStockpiles(ctx context.Context) error
}

type serviceImpl struct {
	repo    sqlite.Repository
	scraper ImageScraper
	mapper  *domain.Mapper
	logger  *slog.Logger
}

// NewService creates a new catalog Service instance.
func NewService(repo sqlite.Repository, scraper ImageScraper, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &serviceImpl{
		repo:    repo,
		scraper: scraper,
		mapper:  domain.NewMapper(),
		logger:  logger,
	}
}

// FindItem resolves an item by exact name or case-sensitive alias match.
func (s *serviceImpl) FindItem(ctx context.Context, nameOrAlias string) (*domain.Item, error) {
	trimmed := strings.TrimSpace(nameOrAlias)
	if trimmed == "" {
		return nil, errors.NewValidationError("item name cannot be empty", nil)
	}
	dbItem, err := s.repo.GetItemByName(ctx, trimmed)
	if err != nil {
		return nil, err
	}
	item := s.mapper.Item.FromDatabase(*dbItem)
	return &item, nil
}

// AddItem stores a new catalog item, normalizing its alias set and
// scraping a thumbnail from the wiki. A failed scrape is logged and leaves
// the thumbnail empty rather than failing the whole addition.
func (s *serviceImpl) AddItem(ctx context.Context, input AddItemInput) (*domain.Item, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.NewValidationError("item name cannot be empty", nil)
	}

	facilities := ""
	if input.FacilityName != "" {
		facility, err := s.FindFacility(ctx, input.FacilityName)
		if err != nil {
			return nil, err
		}
		facilities = facility.Name
	}

	item := domain.Item{
		Name:          name,
		Aliases:       domain.NormalizeAliases(input.RawAliases),
		Facilities:    facilities,
		CanBeCrated:   input.CanBeCrated,
		CanBePalleted: input.CanBePalleted,
		CrateSize:     input.CrateSize,
		PalletSize:    input.PalletSize,
		ImageURL:      s.scrapeImage(ctx, name),
	}

	dbItem := s.mapper.Item.ToDatabase(item)
	if err := s.repo.CreateItem(ctx, &dbItem); err != nil {
		return nil, err
	}
	item.ID = dbItem.ID
	return &item, nil
}

// UpdateItem rewrites an existing catalog item.
func (s *serviceImpl) UpdateItem(ctx context.Context, item domain.Item) (*domain.Item, error) {
	if item.ID <= 0 {
		return nil, errors.NewValidationError("invalid item ID", nil)
	}
	if strings.TrimSpace(item.Name) == "" {
		return nil, errors.NewValidationError("item name cannot be empty", nil)
	}
	dbItem := s.mapper.Item.ToDatabase(item)
	if err := s.repo.UpdateItem(ctx, &dbItem); err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteItem removes an item resolved by name or alias.
func (s *serviceImpl) DeleteItem(ctx context.Context, nameOrAlias string) error {
	item, err := s.FindItem(ctx, nameOrAlias)
	if err != nil {
		return err
	}
	return s.repo.DeleteItem(ctx, item.ID)
}

// FindFacility resolves a facility by exact name or alias match.
func (s *serviceImpl) FindFacility(ctx context.Context, nameOrAlias string) (*domain.Facility, error) {
	trimmed := strings.TrimSpace(nameOrAlias)
	if trimmed == "" {
		return nil, errors.NewValidationError("facility name cannot be empty", nil)
	}
	dbFacility, err := s.repo.GetFacilityByName(ctx, trimmed)
	if err != nil {
		return nil, err
	}
	facility := s.mapper.Facility.FromDatabase(*dbFacility)
	return &facility, nil
}

// AddFacility stores a new production facility.
func (s *serviceImpl) AddFacility(ctx context.Context, input AddFacilityInput) (*domain.Facility, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.NewValidationError("facility name cannot be empty", nil)
	}

	facility := domain.Facility{
		Name:     name,
		Aliases:  domain.NormalizeAliases(input.RawAliases),
		Type:     input.Type,
		ImageURL: s.scrapeImage(ctx, name),
	}

	dbFacility := s.mapper.Facility.ToDatabase(facility)
	if err := s.repo.CreateFacility(ctx, &dbFacility); err != nil {
		return nil, err
	}
	facility.ID = dbFacility.ID
	return &facility, nil
}

// FindStockpile resolves a stockpile by exact name; stockpiles have no aliases.
func (s *serviceImpl) FindStockpile(ctx context.Context, name string) (*domain.Stockpile, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, errors.NewValidationError("stockpile name cannot be empty", nil)
	}
	dbStockpile, err := s.repo.GetStockpileByName(ctx, trimmed)
	if err != nil {
		return nil, err
	}
	stockpile := s.mapper.Stockpile.FromDatabase(*dbStockpile)
	return &stockpile, nil
}

// AddStockpile stores a new stockpile.
func (s *serviceImpl) AddStockpile(ctx context.Context, stockpile domain.Stockpile) (*domain.Stockpile, error) {
	if strings.TrimSpace(stockpile.Name) == "" {
		return nil, errors.NewValidationError("stockpile name cannot be empty", nil)
	}
	dbStockpile := s.mapper.Stockpile.ToDatabase(stockpile)
	if err := s.repo.CreateStockpile(ctx, &dbStockpile); err != nil {
		return nil, err
	}
	stockpile.ID = dbStockpile.ID
	return &stockpile, nil
}

// PurgeStockpiles deletes every stockpile.
func (s *serviceImpl) PurgeStockpiles(ctx context.Context) error {
	return s.repo.PurgeStockpiles(ctx)
}

func (s *serviceImpl) scrapeImage(ctx context.Context, name string) string {
	if s.scraper == nil {
		return ""
	}
	imageURL, err := s.scraper.ScrapeImageURL(ctx, name)
	if err != nil {
		s.logger.Warn("thumbnail scrape failed", "name", name, "error", err)
		return ""
	}
	return imageURL
}
