package controllers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/mechanic-shop-api/config"
	"github.com/kendall-kelly/mechanic-shop-api/models"
	"gorm.io/gorm"
)

// CreateCustomerRequest represents the request body for creating a customer
type CreateCustomerRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone" binding:"required"`
}

// UpdateCustomerRequest represents the request body for updating a customer.
// All fields are optional; absent fields are left unchanged.
type UpdateCustomerRequest struct {
	Name  string `json:"name" binding:"omitempty"`
	Email string `json:"email" binding:"omitempty,email"`
	Phone string `json:"phone" binding:"omitempty"`
}

// CreateCustomer handles POST /api/v1/customers
func CreateCustomer(c *gin.Context) {
	var req CreateCustomerRequest
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

	customer := models.Customer{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	}

	db := config.GetDB()
	err := db.Transaction(func(tx *gorm.DB) error {
		// The uniqueness check and the insert share one transaction so a
		// concurrent writer cannot slip a conflicting row in between
		var existing models.Customer
		if err := tx.Where("email = ?", req.Email).First(&existing).Error; err == nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "CONFLICT",
					"message": "Email already associated with another account",
				},
			})
			return errHandled
		}

		return tx.Create(&customer).Error
	})
	if err != nil {
		if err != errHandled {
			respondDatabaseError(c, "Failed to create customer")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    customer,
	})
}

// GetCustomers handles GET /api/v1/customers
func GetCustomers(c *gin.Context) {
	db := config.GetDB()

	var customers []models.Customer
	if err := paginate(c, db).Find(&customers).Error; err != nil {
		respondDatabaseError(c, "Failed to list customers")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    customers,
	})
}

// GetCustomer handles GET /api/v1/customers/:customer_id
func GetCustomer(c *gin.Context) {
	customerID, ok := parseIDParam(c, "customer_id")
	if !ok {
		return
	}

	db := config.GetDB()
	var customer models.Customer
	if err := db.Preload("Tickets").First(&customer, customerID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Invalid customer ID",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    customer,
	})
}

// UpdateCustomer handles PUT /api/v1/customers/:customer_id
func UpdateCustomer(c *gin.Context) {
	customerID, ok := parseIDParam(c, "customer_id")
	if !ok {
		return
	}

	var req UpdateCustomerRequest
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
	var customer models.Customer
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&customer, customerID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Invalid customer ID",
				},
			})
			return errHandled
		}

		// Re-validate email uniqueness, excluding the record being updated so
		// a no-op update does not conflict with itself
		if req.Email != "" {
			var existing models.Customer
			if err := tx.Where("email = ? AND id != ?", req.Email, customerID).First(&existing).Error; err == nil {
				c.JSON(http.StatusBadRequest, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "CONFLICT",
						"message": "Email already associated with another account",
					},
				})
				return errHandled
			}
		}

		updates := make(map[string]interface{})
		if req.Name != "" {
			updates["name"] = req.Name
		}
		if req.Email != "" {
			updates["email"] = req.Email
		}
		if req.Phone != "" {
			updates["phone"] = req.Phone
		}

		if len(updates) == 0 {
			return nil
		}

		return tx.Model(&customer).Updates(updates).Error
	})
	if err != nil {
		if err != errHandled {
			respondDatabaseError(c, "Failed to update customer")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    customer,
	})
}

// DeleteCustomer handles DELETE /api/v1/customers/:customer_id
// Deleting a customer cascades to its service tickets: assigned mechanics are
// unlinked and installed parts are returned to stock before the tickets go.
func DeleteCustomer(c *gin.Context) {
	customerID, ok := parseIDParam(c, "customer_id")
	if !ok {
		return
	}

	db := config.GetDB()
	err := db.Transaction(func(tx *gorm.DB) error {
		var customer models.Customer
		if err := tx.First(&customer, customerID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Invalid customer ID",
				},
			})
			return errHandled
		}

		var tickets []models.ServiceTicket
		if err := tx.Where("customer_id = ?", customerID).Find(&tickets).Error; err != nil {
			return err
		}

		for i := range tickets {
			if err := tx.Model(&tickets[i]).Association("Mechanics").Clear(); err != nil {
				return err
			}
			if err := tx.Model(&models.SerializedPart{}).
				Where("ticket_id = ?", tickets[i].ID).
				Update("ticket_id", nil).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("customer_id = ?", customerID).Delete(&models.ServiceTicket{}).Error; err != nil {
			return err
		}

		return tx.Delete(&customer).Error
	})
	if err != nil {
		if err != errHandled {
			respondDatabaseError(c, "Failed to delete customer")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Customer deleted successfully",
	})
}

// customerRanking pairs a customer with its ticket count for the ranking view
type customerRanking struct {
	models.Customer
	TicketCount int `json:"ticket_count"`
}

// GetMostValuableCustomers handles GET /api/v1/customers/most-valuable.
// Customers are sorted by ticket count descending; ties break on id ascending
// so the ordering is deterministic.
func GetMostValuableCustomers(c *gin.Context) {
	db := config.GetDB()

	var customers []models.Customer
	if err := db.Order("id ASC").Find(&customers).Error; err != nil {
		respondDatabaseError(c, "Failed to list customers")
		return
	}

	type countRow struct {
		CustomerID uint
		N          int
	}
	var counts []countRow
	if err := db.Model(&models.ServiceTicket{}).
		Select("customer_id, COUNT(*) AS n").
		Group("customer_id").
		Scan(&counts).Error; err != nil {
		respondDatabaseError(c, "Failed to count tickets")
		return
	}

	countByID := make(map[uint]int, len(counts))
	for _, row := range counts {
		countByID[row.CustomerID] = row.N
	}

	rankings := make([]customerRanking, 0, len(customers))
	for _, customer := range customers {
		rankings = append(rankings, customerRanking{
			Customer:    customer,
			TicketCount: countByID[customer.ID],
		})
	}

	// Stable sort over the id-ordered slice keeps ties deterministic
	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].TicketCount > rankings[j].TicketCount
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    rankings,
	})
}

// SearchCustomers handles GET /api/v1/customers/search?email= with substring
// matching on the email column
func SearchCustomers(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Query parameter 'email' is required",
			},
		})
		return
	}

	db := config.GetDB()
	var customers []models.Customer
	if err := db.Where("email LIKE ?", "%"+email+"%").Find(&customers).Error; err != nil {
		respondDatabaseError(c, "Failed to search customers")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    customers,
	})
}
