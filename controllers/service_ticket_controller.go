package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/mechanic-shop-api/config"
	"github.com/kendall-kelly/mechanic-shop-api/models"
	"github.com/kendall-kelly/mechanic-shop-api/services"
	"gorm.io/gorm"
)

// CreateServiceTicketRequest represents the request body for creating a
// service ticket
type CreateServiceTicketRequest struct {
	ServiceDate string `json:"service_date" binding:"required,datetime=2006-01-02"`
	VIN         string `json:"vin" binding:"required,len=17"`
	ServiceDesc string `json:"service_desc" binding:"required"`
	CustomerID  uint   `json:"customer_id" binding:"required"`
}

// UpdateServiceTicketRequest represents the request body for updating a
// service ticket. All fields are optional; absent fields are left unchanged.
type UpdateServiceTicketRequest struct {
	ServiceDate string `json:"service_date" binding:"omitempty,datetime=2006-01-02"`
	VIN         string `json:"vin" binding:"omitempty,len=17"`
	ServiceDesc string `json:"service_desc" binding:"omitempty"`
	CustomerID  *uint  `json:"customer_id" binding:"omitempty"`
}

// CreateServiceTicket handles POST /api/v1/service-tickets (admin only)
func CreateServiceTicket(c *gin.Context) {
	var req CreateServiceTicketRequest
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

	ticket := models.ServiceTicket{
		ServiceDate: req.ServiceDate,
		VIN:         req.VIN,
		ServiceDesc: req.ServiceDesc,
		CustomerID:  req.CustomerID,
	}

	db := config.GetDB()
	err := db.Transaction(func(tx *gorm.DB) error {
		var customer models.Customer
		if err := tx.First(&customer, req.CustomerID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Invalid customer ID",
				},
			})
			return errHandled
		}

		var existing models.ServiceTicket
		if err := tx.Where("vin = ? AND service_date = ?", req.VIN, req.ServiceDate).
			First(&existing).Error; err == nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "CONFLICT",
					"message": "Service ticket already exists for this VIN on the specified date",
				},
			})
			return errHandled
		}

		return tx.Create(&ticket).Error
	})
	if err != nil {
		if err != errHandled {
			respondDatabaseError(c, "Failed to create service ticket")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    ticket,
	})
}

// GetServiceTickets handles GET /api/v1/service-tickets
func GetServiceTickets(c *gin.Context) {
	db := config.GetDB()

	var tickets []models.ServiceTicket
	if err := paginate(c, db.Preload("Mechanics").Preload("Parts")).Find(&tickets).Error; err != nil {
		respondDatabaseError(c, "Failed to list service tickets")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    tickets,
	})
}

// GetServiceTicket handles GET /api/v1/service-tickets/:ticket_id
func GetServiceTicket(c *gin.Context) {
	ticketID, ok := parseIDParam(c, "ticket_id")
	if !ok {
		return
	}

	db := config.GetDB()
	var ticket models.ServiceTicket
	if err := db.Preload("Customer").Preload("Mechanics").Preload("Parts").
		First(&ticket, ticketID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Invalid service ticket ID",
			},
		})
		return
	}

	attachPhotoURL(&ticket)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    ticket,
	})
}

// UpdateServiceTicket handles PUT /api/v1/service-tickets/:ticket_id (admin only)
func UpdateServiceTicket(c *gin.Context) {
	ticketID, ok := parseIDParam(c, "ticket_id")
	if !ok {
		return
	}

	var req UpdateServiceTicketRequest
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

	db := config.GetDB()
	var ticket models.ServiceTicket
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&ticket, ticketID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Invalid service ticket ID",
				},
			})
			return errHandled
		}

		// Effective VIN/date after the patch; the duplicate search excludes
		// the ticket itself so updating a ticket to its own values succeeds
		vin := ticket.VIN
		if req.VIN != "" {
			vin = req.VIN
		}
		serviceDate := ticket.ServiceDate
		if req.ServiceDate != "" {
			serviceDate = req.ServiceDate
		}

		var existing models.ServiceTicket
		if err := tx.Where("vin = ? AND service_date = ? AND id != ?", vin, serviceDate, ticketID).
			First(&existing).Error; err == nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "CONFLICT",
					"message": "Service ticket already exists for this VIN on the specified date",
				},
			})
			return errHandled
		}

		if req.CustomerID != nil {
			var customer models.Customer
			if err := tx.First(&customer, *req.CustomerID).Error; err != nil {
				c.JSON(http.StatusBadRequest, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "NOT_FOUND",
						"message": "Invalid customer ID",
					},
				})
				return errHandled
			}
		}

		updates := make(map[string]interface{})
		if req.VIN != "" {
			updates["vin"] = req.VIN
		}
		if req.ServiceDate != "" {
			updates["service_date"] = req.ServiceDate
		}
		if req.ServiceDesc != "" {
			updates["service_desc"] = req.ServiceDesc
		}
		if req.CustomerID != nil {
			updates["customer_id"] = *req.CustomerID
		}

		if len(updates) == 0 {
			return nil
		}

		return tx.Model(&ticket).Updates(updates).Error
	})
	if err != nil {
		if err != errHandled {
			respondDatabaseError(c, "Failed to update service ticket")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    ticket,
	})
}

// DeleteServiceTicket handles DELETE /api/v1/service-tickets/:ticket_id
// (admin only). Installed parts return to stock and mechanic associations are
// removed with the ticket.
func DeleteServiceTicket(c *gin.Context) {
	ticketID, ok := parseIDParam(c, "ticket_id")
	if !ok {
		return
	}

	db := config.GetDB()
	err := db.Transaction(func(tx *gorm.DB) error {
		var ticket models.ServiceTicket
		if err := tx.First(&ticket, ticketID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Invalid service ticket ID",
				},
			})
			return errHandled
		}

		if err := tx.Model(&ticket).Association("Mechanics").Clear(); err != nil {
			return err
		}

		if err := tx.Model(&models.SerializedPart{}).
			Where("ticket_id = ?", ticketID).
			Update("ticket_id", nil).Error; err != nil {
			return err
		}

		return tx.Delete(&ticket).Error
	})
	if err != nil {
		if err != errHandled {
			respondDatabaseError(c, "Failed to delete service ticket")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Service ticket deleted successfully",
	})
}

// AddMechanic handles PUT /api/v1/service-tickets/:ticket_id/add-mechanic/:mechanic_id
// (admin only). The mechanic set has set semantics: adding a mechanic already
// on the ticket is a conflict, not a silent no-op.
func AddMechanic(c *gin.Context) {
	ticketID, ok := parseIDParam(c, "ticket_id")
	if !ok {
		return
	}
	mechanicID, ok := parseIDParam(c, "mechanic_id")
	if !ok {
		return
	}

	db := config.GetDB()
	var ticket models.ServiceTicket
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Mechanics").First(&ticket, ticketID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Invalid service ticket or mechanic ID",
				},
			})
			return errHandled
		}

		var mechanic models.Mechanic
		if err := tx.First(&mechanic, mechanicID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Invalid service ticket or mechanic ID",
				},
			})
			return errHandled
		}

		for _, assigned := range ticket.Mechanics {
			if assigned.ID == mechanicID {
				c.JSON(http.StatusBadRequest, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "CONFLICT",
						"message": "Mechanic already assigned to this service ticket",
					},
				})
				return errHandled
			}
		}

		if err := tx.Model(&ticket).Association("Mechanics").Append(&mechanic); err != nil {
			return err
		}

		return tx.Preload("Mechanics").First(&ticket, ticketID).Error
	})
	if err != nil {
		if err != errHandled {
			respondDatabaseError(c, "Failed to assign mechanic")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"ticket":    ticket,
			"mechanics": ticket.Mechanics,
		},
	})
}

// RemoveMechanic handles DELETE /api/v1/service-tickets/:ticket_id/remove-mechanic/:mechanic_id
// (admin only). Removing a mechanic who is not on the ticket is a conflict.
func RemoveMechanic(c *gin.Context) {
	ticketID, ok := parseIDParam(c, "ticket_id")
	if !ok {
		return
	}
	mechanicID, ok := parseIDParam(c, "mechanic_id")
	if !ok {
		return
	}

	db := config.GetDB()
	var ticket models.ServiceTicket
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Mechanics").First(&ticket, ticketID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Invalid service ticket or mechanic ID",
				},
			})
			return errHandled
		}

		var mechanic models.Mechanic
		if err := tx.First(&mechanic, mechanicID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Invalid service ticket or mechanic ID",
				},
			})
			return errHandled
		}

		assigned := false
		for _, m := range ticket.Mechanics {
			if m.ID == mechanicID {
				assigned = true
				break
			}
		}
		if !assigned {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "CONFLICT",
					"message": "Mechanic is not assigned to this service ticket",
				},
			})
			return errHandled
		}

		if err := tx.Model(&ticket).Association("Mechanics").Delete(&mechanic); err != nil {
			return err
		}

		return tx.Preload("Mechanics").First(&ticket, ticketID).Error
	})
	if err != nil {
		if err != errHandled {
			respondDatabaseError(c, "Failed to unassign mechanic")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"ticket":    ticket,
			"mechanics": ticket.Mechanics,
		},
	})
}

// AddPart handles PUT /api/v1/service-tickets/:ticket_id/add-part/:part_id
// (admin only). A serialized part is a single-owner slot: it can only be
// installed while its ticket_id is null.
func AddPart(c *gin.Context) {
	ticketID, ok := parseIDParam(c, "ticket_id")
	if !ok {
		return
	}
	partID, ok := parseIDParam(c, "part_id")
	if !ok {
		return
	}

	db := config.GetDB()
	var ticket models.ServiceTicket
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&ticket, ticketID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Invalid service ticket or part ID",
				},
			})
			return errHandled
		}

		var part models.SerializedPart
		if err := tx.First(&part, partID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Invalid service ticket or part ID",
				},
			})
			return errHandled
		}

		if part.TicketID != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "CONFLICT",
					"message": "Part is already installed on a service ticket",
				},
			})
			return errHandled
		}

		if err := tx.Model(&part).Update("ticket_id", ticketID).Error; err != nil {
			return err
		}

		return tx.Preload("Parts").First(&ticket, ticketID).Error
	})
	if err != nil {
		if err != errHandled {
			respondDatabaseError(c, "Failed to install part")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"ticket": ticket,
			"parts":  ticket.Parts,
		},
	})
}

// RemovePart handles DELETE /api/v1/service-tickets/:ticket_id/remove-part/:part_id
// (admin only). The part must currently be installed on this very ticket;
// "never installed" and "installed elsewhere" are both conflicts.
func RemovePart(c *gin.Context) {
	ticketID, ok := parseIDParam(c, "ticket_id")
	if !ok {
		return
	}
	partID, ok := parseIDParam(c, "part_id")
	if !ok {
		return
	}

	db := config.GetDB()
	var ticket models.ServiceTicket
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&ticket, ticketID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Invalid service ticket or part ID",
				},
			})
			return errHandled
		}

		var part models.SerializedPart
		if err := tx.First(&part, partID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Invalid service ticket or part ID",
				},
			})
			return errHandled
		}

		if part.TicketID == nil || *part.TicketID != ticketID {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "CONFLICT",
					"message": "Part is not installed on this service ticket",
				},
			})
			return errHandled
		}

		if err := tx.Model(&part).Update("ticket_id", nil).Error; err != nil {
			return err
		}

		return tx.Preload("Parts").First(&ticket, ticketID).Error
	})
	if err != nil {
		if err != errHandled {
			respondDatabaseError(c, "Failed to remove part")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"ticket": ticket,
			"parts":  ticket.Parts,
		},
	})
}

// attachPhotoURL fills the computed PhotoURL field from the photo service
func attachPhotoURL(ticket *models.ServiceTicket) {
	if ticket.PhotoS3Key == nil {
		return
	}
	photoService := services.GetPhotoService()
	if photoService == nil {
		return
	}
	if url, err := photoService.GetPhotoURL(*ticket.PhotoS3Key); err == nil && url != "" {
		ticket.PhotoURL = &url
	}
}
