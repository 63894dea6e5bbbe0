package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redsunink/veliankeeper/internal/domain"
	"github.com/redsunink/veliankeeper/internal/errors"
	"github.com/redsunink/veliankeeper/internal/repository/sqlite"
)

type stubScraper struct {
	url string
	err error
}

func (s stubScraper) ScrapeImageURL(ctx context.Context, searchTerm string) (string, error) {
	return s.url, s.err
}

func setupCatalog(t *testing.T, scraper ImageScraper) Service {
	repo, err := sqlite.New(filepath.Join(t.TempDir(), "keeper.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return NewService(repo, scraper, nil)
}

func TestAddAndFindItem(t *testing.T) {
	svc := setupCatalog(t, stubScraper{url: "https://example.com/bmat.png"})
	ctx := context.Background()

	item, err := svc.AddItem(ctx, AddItemInput{
		Name:        "Basic Materials",
		RawAliases:  " bmat , bmats,",
		CanBeCrated: "yes",
		CrateSize:   100,
	})
	require.NoError(t, err)
	assert.Greater(t, item.ID, int64(0))
	assert.Equal(t, []string{"bmat", "bmats"}, item.Aliases)
	assert.Equal(t, "https://example.com/bmat.png", item.ImageURL)

	found, err := svc.FindItem(ctx, "bmats")
	require.NoError(t, err)
	assert.Equal(t, "Basic Materials", found.Name)

	_, err = svc.FindItem(ctx, "unknown")
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
}

func TestAddItemScrapeFailureNotFatal(t *testing.T) {
	svc := setupCatalog(t, stubScraper{err: errors.NewNotFoundError("wiki page", "Odd Item")})

	item, err := svc.AddItem(context.Background(), AddItemInput{Name: "Odd Item"})
	require.NoError(t, err)
	assert.Empty(t, item.ImageURL)
}

func TestAddItemResolvesFacility(t *testing.T) {
	svc := setupCatalog(t, stubScraper{})
	ctx := context.Background()

	_, err := svc.AddFacility(ctx, AddFacilityInput{Name: "Factory", RawAliases: "fac"})
	require.NoError(t, err)

	// Facility referenced by alias resolves to its catalog name
	item, err := svc.AddItem(ctx, AddItemInput{Name: "Basic Materials", FacilityName: "fac"})
	require.NoError(t, err)
	assert.Equal(t, "Factory", item.Facilities)

	_, err = svc.AddItem(ctx, AddItemInput{Name: "Other", FacilityName: "nowhere"})
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
}

func TestAddItemValidation(t *testing.T) {
	svc := setupCatalog(t, stubScraper{})

	_, err := svc.AddItem(context.Background(), AddItemInput{Name: "  "})
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeValidation))
}

func TestUpdateItem(t *testing.T) {
	svc := setupCatalog(t, stubScraper{})
	ctx := context.Background()

	item, err := svc.AddItem(ctx, AddItemInput{Name: "Basic Materials", RawAliases: "bmat"})
	require.NoError(t, err)

	item.Aliases = []string{"bmat", "bm"}
	item.CrateSize = 150
	_, err = svc.UpdateItem(ctx, *item)
	require.NoError(t, err)

	updated, err := svc.FindItem(ctx, "bm")
	require.NoError(t, err)
	assert.Equal(t, int64(150), updated.CrateSize)
}

func TestUpdateItemValidation(t *testing.T) {
	svc := setupCatalog(t, stubScraper{})
	ctx := context.Background()

	_, err := svc.UpdateItem(ctx, domain.Item{ID: 0, Name: "x"})
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeValidation))

	_, err = svc.UpdateItem(ctx, domain.Item{ID: 1, Name: ""})
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeValidation))

	_, err = svc.UpdateItem(ctx, domain.Item{ID: 999, Name: "ghost"})
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
}

func TestDeleteItem(t *testing.T) {
	svc := setupCatalog(t, stubScraper{})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, AddItemInput{Name: "Basic Materials", RawAliases: "bmat"})
	require.NoError(t, err)

	// Deletion resolves through aliases too
	require.NoError(t, svc.DeleteItem(ctx, "bmat"))

	_, err = svc.FindItem(ctx, "Basic Materials")
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))

	err = svc.DeleteItem(ctx, "bmat")
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
}

func TestStockpiles(t *testing.T) {
	svc := setupCatalog(t, stubScraper{})
	ctx := context.Background()

	stockpile, err := svc.AddStockpile(ctx, domain.Stockpile{
		Name:     "Westgate Depot",
		Location: "Westgate",
		Passcode: 123456,
	})
	require.NoError(t, err)
	assert.Greater(t, stockpile.ID, int64(0))

	found, err := svc.FindStockpile(ctx, "Westgate Depot")
	require.NoError(t, err)
	assert.Equal(t, int64(123456), found.Passcode)

	// Stockpile names are exact, there is no alias matching
	_, err = svc.FindStockpile(ctx, "westgate depot")
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))

	require.NoError(t, svc.PurgeStockpiles(ctx))
	_, err = svc.FindStockpile(ctx, "Westgate Depot")
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
}

func TestFindValidation(t *testing.T) {
	svc := setupCatalog(t, stubScraper{})
	ctx := context.Background()

	_, err := svc.FindItem(ctx, "")
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeValidation))

	_, err = svc.FindFacility(ctx, " ")
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeValidation))

	_, err = svc.FindStockpile(ctx, "")
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeValidation))
}
