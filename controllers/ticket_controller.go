package controllers

import (
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dormfix/dormfix-api/config"
	"github.com/dormfix/dormfix-api/models"
	"github.com/dormfix/dormfix-api/services"
	"github.com/dormfix/dormfix-api/utils"
)

// maxTicketListSize caps how many tickets a single list request returns
const maxTicketListSize = 100

// UpdateStatusRequest represents the JSON body for a status update
type UpdateStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

// CreateTicket handles POST /api/tickets - creates a maintenance ticket
// from a multipart form carrying location metadata and 1..5 issue photos.
// Images are uploaded first and all must succeed; the AI classification is
// best-effort and falls back to defaults when the model is unavailable.
func CreateTicket(c *gin.Context) {
	building := strings.TrimSpace(c.PostForm("building"))
	room := strings.TrimSpace(c.PostForm("room"))
	locationNotes := strings.TrimSpace(c.PostForm("locationNotes"))
	userNote := strings.TrimSpace(c.PostForm("userNote"))
	reporterName := strings.TrimSpace(c.PostForm("reporterName"))

	if building == "" || room == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Building and room are required",
			},
		})
		return
	}

	form, err := c.MultipartForm()
	if err != nil || len(form.File["images"]) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "At least one image is required",
			},
		})
		return
	}

	files := form.File["images"]
	if err := utils.ValidateImageFiles(files); err != nil {
		uploadErr, ok := err.(*utils.FileUploadError)
		code := "VALIDATION_ERROR"
		if ok {
			code = uploadErr.Code
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	// Upload all images before anything else; any failure aborts creation
	imageService := services.GetImageService()
	imageURLs := make([]string, 0, len(files))
	for _, file := range files {
		url, err := imageService.UploadImage(file)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UPLOAD_ERROR",
					"message": "Failed to upload image",
					"details": err.Error(),
				},
			})
			return
		}
		imageURLs = append(imageURLs, url)
	}

	ticket := models.Ticket{
		Building:      building,
		Room:          room,
		LocationNotes: locationNotes,
		UserNote:      userNote,
		ReporterName:  reporterName,
		ImageURLs:     imageURLs,
	}
	ticket.AppendStatus(models.StatusNew, "Ticket created")

	// Classification is enrichment, not a dependency: on any classifier
	// error the ticket still gets the deterministic fallback values.
	classification, err := services.GetClassifier().Classify(imageURLs[0], building, room, userNote)
	if err != nil {
		log.Printf("Classifier error (proceeding with ticket): %v", err)
		classification = services.FallbackClassification(building, room, userNote)
	}
	applyClassification(&ticket, classification)

	db := config.GetDB()
	if err := db.Create(&ticket).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create ticket",
				"details": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"ticket":  ticket,
	})
}

// applyClassification copies a classification onto a ticket, substituting
// defaults for out-of-enum values so category and severity stay valid.
func applyClassification(ticket *models.Ticket, classification *services.Classification) {
	ticket.Category = classification.Category
	if !models.ValidCategory(ticket.Category) {
		ticket.Category = models.CategoryOther
	}
	ticket.Severity = classification.Severity
	if !models.ValidSeverity(ticket.Severity) {
		ticket.Severity = models.SeverityLow
	}
	ticket.AISummary = classification.Summary
	ticket.FacilitiesDescription = classification.FacilitiesDescription
	ticket.FollowUpQuestions = classification.FollowUpQuestions
	ticket.SafetyNotes = classification.SafetyNotes
	if ticket.FollowUpQuestions == nil {
		ticket.FollowUpQuestions = []string{}
	}
	if ticket.SafetyNotes == nil {
		ticket.SafetyNotes = []string{}
	}
}

// GetTickets handles GET /api/tickets - lists tickets with optional
// status/building/category filters, newest first, at most 100 rows.
func GetTickets(c *gin.Context) {
	db := config.GetDB()
	query := db.Model(&models.Ticket{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if building := c.Query("building"); building != "" {
		query = query.Where("building = ?", building)
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var tickets []models.Ticket
	if err := query.Order("created_at DESC").Limit(maxTicketListSize).Find(&tickets).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch tickets",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(tickets),
		"tickets": tickets,
	})
}

// GetTicketByID handles GET /api/tickets/:id
func GetTicketByID(c *gin.Context) {
	db := config.GetDB()
	var ticket models.Ticket
	if err := db.First(&ticket, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "TICKET_NOT_FOUND",
					"message": "Ticket not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch ticket",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"ticket":  ticket,
	})
}

// UpdateTicketStatus handles PATCH /api/tickets/:id/status. After-photos,
// when present, are uploaded and stored first. The status is appended to
// the history only when it is one of the four known values; a photo-only
// update intentionally leaves the timeline untouched.
func UpdateTicketStatus(c *gin.Context) {
	db := config.GetDB()
	var ticket models.Ticket
	if err := db.First(&ticket, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "TICKET_NOT_FOUND",
					"message": "Ticket not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch ticket",
			},
		})
		return
	}

	status, note, afterFiles, err := parseStatusUpdate(c)
	if err != nil {
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

	// The resolve route forces the transition regardless of request fields
	if forced, ok := c.Get("forced_status"); ok {
		status = forced.(string)
	}

	if len(afterFiles) > 0 {
		if err := utils.ValidateImageFiles(afterFiles); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": err.Error(),
				},
			})
			return
		}

		imageService := services.GetImageService()
		afterURLs := make([]string, 0, len(afterFiles))
		for _, file := range afterFiles {
			url, err := imageService.UploadImage(file)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "UPLOAD_ERROR",
						"message": "Failed to upload after image",
						"details": err.Error(),
					},
				})
				return
			}
			afterURLs = append(afterURLs, url)
		}
		ticket.AfterImageURLs = afterURLs
	}

	if models.ValidStatus(status) {
		ticket.AppendStatus(status, note)
	}

	if err := db.Save(&ticket).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update ticket",
				"details": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"ticket":  ticket,
	})
}

// parseStatusUpdate reads status, note, and after-photos from either a
// multipart form (resolve flow) or a JSON body (plain status update).
func parseStatusUpdate(c *gin.Context) (string, string, []*multipart.FileHeader, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		form, err := c.MultipartForm()
		if err != nil {
			return "", "", nil, err
		}
		return c.PostForm("status"), c.PostForm("note"), form.File["afterImages"], nil
	}

	if c.Request.ContentLength == 0 {
		return "", "", nil, nil
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return "", "", nil, err
	}
	return req.Status, req.Note, nil, nil
}

// ResolveTicket handles PATCH /api/tickets/:id/resolve - a status update
// with the status forced to RESOLVED, optionally carrying after-photos.
func ResolveTicket(c *gin.Context) {
	c.Set("forced_status", models.StatusResolved)
	UpdateTicketStatus(c)
}

// DeleteTicket handles DELETE /api/tickets/:id
func DeleteTicket(c *gin.Context) {
	db := config.GetDB()
	var ticket models.Ticket
	if err := db.First(&ticket, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "TICKET_NOT_FOUND",
					"message": "Ticket not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch ticket",
			},
		})
		return
	}

	if err := db.Delete(&ticket).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to delete ticket",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Ticket deleted",
	})
}
