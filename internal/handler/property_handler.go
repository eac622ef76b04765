package handler

import (
	"errors"
	"net/http"
	"strconv"

	"nal/internal/domain"
	"nal/internal/middleware"
	"nal/internal/models"
	"nal/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PropertyHandler struct {
	propertyRepo *repository.PropertyRepository
}

func NewPropertyHandler(propertyRepo *repository.PropertyRepository) *PropertyHandler {
	return &PropertyHandler{propertyRepo: propertyRepo}
}

func (h *PropertyHandler) Create(c *gin.Context) {
	ownerID := middleware.GetUserID(c)
	var req struct {
		Title       string          `json:"title" binding:"required"`
		Description string          `json:"description"`
		Address     string          `json:"address" binding:"required"`
		City        string          `json:"city"`
		Price       decimal.Decimal `json:"price" binding:"required"`
		ListingType string          `json:"listing_type" binding:"required,oneof=SALE RENT"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, err.Error())
		return
	}
	p := &models.Property{
		UUID:        uuid.NewString(),
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		City:        req.City,
		Price:       req.Price,
		ListingType: req.ListingType,
		Status:      domain.ListingStatusActive,
	}
	if err := h.propertyRepo.Create(p); err != nil {
		respondServiceErr(c, err)
		return
	}
	respondOK(c, http.StatusCreated, p)
}

func (h *PropertyHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	props, err := h.propertyRepo.List(c.Query("city"), limit, offset)
	if err != nil {
		respondServiceErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, props)
}

func (h *PropertyHandler) Get(c *gin.Context) {
	p, err := h.propertyRepo.GetByUUID(c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondErr(c, http.StatusNotFound, "Property not found")
			return
		}
		respondServiceErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, p)
}
