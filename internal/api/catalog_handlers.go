package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/redsunink/veliankeeper/internal/catalog"
	"github.com/redsunink/veliankeeper/internal/domain"
	"github.com/redsunink/veliankeeper/internal/errors"
)

type itemRequest struct {
	Name          string `json:"name"`
	Aliases       string `json:"aliases"`
	Facility      string `json:"facility"`
	CanBeCrated   string `json:"can_be_crated"`
	CanBePalleted string `json:"can_be_palleted"`
	CrateSize     int64  `json:"crate_size"`
	PalletSize    int64  `json:"pallet_size"`
}

type facilityRequest struct {
	Name    string `json:"name"`
	Aliases string `json:"aliases"`
	Type    string `json:"type"`
}

type stockpileRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Passcode    int64  `json:"passcode"`
}

type itemResponse struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Aliases       []string `json:"aliases"`
	Facilities    string   `json:"facilities"`
	CanBeCrated   string   `json:"can_be_crated"`
	CanBePalleted string   `json:"can_be_palleted"`
	CrateSize     int64    `json:"crate_size"`
	PalletSize    int64    `json:"pallet_size"`
	ImageURL      string   `json:"image_url"`
}

func toItemResponse(item *domain.Item) itemResponse {
	return itemResponse{
		ID:            item.ID,
		Name:          item.Name,
		Aliases:       item.Aliases,
		Facilities:    item.Facilities,
		CanBeCrated:   item.CanBeCrated,
		CanBePalleted: item.CanBePalleted,
		CrateSize:     item.CrateSize,
		PalletSize:    item.PalletSize,
		ImageURL:      item.ImageURL,
	}
}

func (s *Server) handleAddItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.NewInvalidInputError("body", nil, "malformed JSON"))
		return
	}
	item, err := s.catalog.AddItem(c.Request.Context(), catalog.AddItemInput{
		Name:          req.Name,
		RawAliases:    req.Aliases,
		FacilityName:  req.Facility,
		CanBeCrated:   req.CanBeCrated,
		CanBePalleted: req.CanBePalleted,
		CrateSize:     req.CrateSize,
		PalletSize:    req.PalletSize,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toItemResponse(item))
}

func (s *Server) handleGetItem(c *gin.Context) {
	item, err := s.catalog.FindItem(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toItemResponse(item))
}

func (s *Server) handleUpdateItem(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, errors.NewInvalidInputError("id", c.Param("id"), "must be a positive integer"))
		return
	}
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.NewInvalidInputError("body", nil, "malformed JSON"))
		return
	}
	item, err := s.catalog.UpdateItem(c.Request.Context(), domain.Item{
		ID:            id,
		Name:          req.Name,
		Aliases:       domain.NormalizeAliases(req.Aliases),
		Facilities:    req.Facility,
		CanBeCrated:   req.CanBeCrated,
		CanBePalleted: req.CanBePalleted,
		CrateSize:     req.CrateSize,
		PalletSize:    req.PalletSize,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toItemResponse(item))
}

func (s *Server) handleDeleteItem(c *gin.Context) {
	if err := s.catalog.DeleteItem(c.Request.Context(), c.Param("name")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (s *Server) handleAddFacility(c *gin.Context) {
	var req facilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.NewInvalidInputError("body", nil, "malformed JSON"))
		return
	}
	facility, err := s.catalog.AddFacility(c.Request.Context(), catalog.AddFacilityInput{
		Name:       req.Name,
		RawAliases: req.Aliases,
		Type:       req.Type,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, facilityResponse(facility))
}

func (s *Server) handleGetFacility(c *gin.Context) {
	facility, err := s.catalog.FindFacility(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, facilityResponse(facility))
}

func facilityResponse(facility *domain.Facility) gin.H {
	return gin.H{
		"id":        facility.ID,
		"name":      facility.Name,
		"aliases":   facility.Aliases,
		"type":      facility.Type,
		"image_url": facility.ImageURL,
	}
}

func (s *Server) handleAddStockpile(c *gin.Context) {
	var req stockpileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.NewInvalidInputError("body", nil, "malformed JSON"))
		return
	}
	stockpile, err := s.catalog.AddStockpile(c.Request.Context(), domain.Stockpile{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		Passcode:    req.Passcode,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, stockpileResponse(stockpile))
}

func (s *Server) handleGetStockpile(c *gin.Context) {
	stockpile, err := s.catalog.FindStockpile(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stockpileResponse(stockpile))
}

func stockpileResponse(stockpile *domain.Stockpile) gin.H {
	return gin.H{
		"id":          stockpile.ID,
		"name":        stockpile.Name,
		"description": stockpile.Description,
		"location":    stockpile.Location,
		"passcode":    stockpile.Passcode,
	}
}

func (s *Server) handlePurgeStockpiles(c *gin.Context) {
	if err := s.catalog.PurgeStockpiles(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"purged": true})
}
