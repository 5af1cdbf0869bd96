package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dormfix/dormfix-api/config"
	"github.com/dormfix/dormfix-api/models"
)

// CreateLocationRequest represents the request body for creating a location
type CreateLocationRequest struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Address string `json:"address"`
}

// GetLocations handles GET /api/locations - lists active locations sorted by name
func GetLocations(c *gin.Context) {
	db := config.GetDB()
	var locations []models.Location
	if err := db.Where("is_active = ?", true).Order("name ASC").Find(&locations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch locations",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"count":     len(locations),
		"locations": locations,
	})
}

// CreateLocation handles POST /api/locations - adds a building catalog entry
func CreateLocation(c *gin.Context) {
	var req CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Location name is required",
			},
		})
		return
	}

	locationType := req.Type
	if !models.ValidLocationType(locationType) {
		locationType = models.LocationTypeDorm
	}

	location := models.Location{
		Name:     req.Name,
		Type:     locationType,
		Address:  strings.TrimSpace(req.Address),
		IsActive: true,
	}

	db := config.GetDB()
	if err := db.Create(&location).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create location",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"location": location,
	})
}
