package controllers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/mechanic-shop-api/models"
	"github.com/stretchr/testify/assert"
)

func setupCustomerRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	customers := router.Group("/api/v1/customers")
	{
		customers.POST("", CreateCustomer)
		customers.GET("", GetCustomers)
		customers.GET("/most-valuable", GetMostValuableCustomers)
		customers.GET("/search", SearchCustomers)
		customers.GET("/:customer_id", GetCustomer)
		customers.PUT("/:customer_id", UpdateCustomer)
		customers.DELETE("/:customer_id", DeleteCustomer)
	}

	return router
}

func TestCreateCustomer(t *testing.T) {
	db := setupTestDB(t)
	router := setupCustomerRouter()

	existing := models.Customer{Name: "Existing", Email: "taken@example.com", Phone: "555-0000"}
	db.Create(&existing)

	tests := []struct {
		name           string
		requestBody    map[string]interface{}
		expectedStatus int
		expectedError  string
		checkResponse  func(t *testing.T, response map[string]interface{})
	}{
		{
			name: "Successfully create customer",
			requestBody: map[string]interface{}{
				"name":  "A",
				"email": "a@x.com",
				"phone": "555-0001",
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, response map[string]interface{}) {
				assert.True(t, response["success"].(bool))
				data := response["data"].(map[string]interface{})
				assert.Equal(t, "A", data["name"])
				assert.Equal(t, "a@x.com", data["email"])
				assert.NotZero(t, data["id"])
			},
		},
		{
			name: "Fail with duplicate email",
			requestBody: map[string]interface{}{
				"name":  "B",
				"email": "taken@example.com",
				"phone": "555-0002",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "CONFLICT",
		},
		{
			name: "Fail with missing email",
			requestBody: map[string]interface{}{
				"name":  "B",
				"phone": "555-0002",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name: "Fail with malformed email",
			requestBody: map[string]interface{}{
				"name":  "B",
				"email": "not-an-email",
				"phone": "555-0002",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(router, "POST", "/api/v1/customers", tt.requestBody, "")
			assert.Equal(t, tt.expectedStatus, w.Code)

			response := parseResponse(t, w)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, errorCode(response))
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, response)
			}
		})
	}

	// The rejected duplicate must not have written a row
	var count int64
	db.Model(&models.Customer{}).Where("email = ?", "taken@example.com").Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestGetCustomers(t *testing.T) {
	db := setupTestDB(t)
	router := setupCustomerRouter()

	for _, email := range []string{"one@x.com", "two@x.com", "three@x.com"} {
		db.Create(&models.Customer{Name: "C", Email: email, Phone: "555"})
	}

	t.Run("Full collection without pagination", func(t *testing.T) {
		w := performRequest(router, "GET", "/api/v1/customers", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)

		response := parseResponse(t, w)
		assert.Len(t, response["data"], 3)
	})

	t.Run("Paginated collection", func(t *testing.T) {
		w := performRequest(router, "GET", "/api/v1/customers?page=2&per_page=2", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)

		response := parseResponse(t, w)
		assert.Len(t, response["data"], 1)
	})

	t.Run("Invalid pagination falls back to full collection", func(t *testing.T) {
		w := performRequest(router, "GET", "/api/v1/customers?page=abc&per_page=2", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)

		response := parseResponse(t, w)
		assert.Len(t, response["data"], 3)
	})
}

func TestGetCustomer(t *testing.T) {
	db := setupTestDB(t)
	router := setupCustomerRouter()

	customer := models.Customer{Name: "C", Email: "c@x.com", Phone: "555"}
	db.Create(&customer)

	t.Run("Found", func(t *testing.T) {
		w := performRequest(router, "GET", "/api/v1/customers/1", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)

		response := parseResponse(t, w)
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "c@x.com", data["email"])
	})

	t.Run("Not found", func(t *testing.T) {
		w := performRequest(router, "GET", "/api/v1/customers/999", nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "NOT_FOUND", errorCode(parseResponse(t, w)))
	})
}

func TestUpdateCustomer(t *testing.T) {
	db := setupTestDB(t)
	router := setupCustomerRouter()

	first := models.Customer{Name: "First", Email: "first@x.com", Phone: "555-0001"}
	second := models.Customer{Name: "Second", Email: "second@x.com", Phone: "555-0002"}
	db.Create(&first)
	db.Create(&second)

	t.Run("Update own email to itself succeeds", func(t *testing.T) {
		w := performRequest(router, "PUT", "/api/v1/customers/1", map[string]interface{}{
			"email": "first@x.com",
		}, "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Update to another customer's email conflicts", func(t *testing.T) {
		w := performRequest(router, "PUT", "/api/v1/customers/1", map[string]interface{}{
			"email": "second@x.com",
		}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "CONFLICT", errorCode(parseResponse(t, w)))
	})

	t.Run("Partial update leaves other fields unchanged", func(t *testing.T) {
		w := performRequest(router, "PUT", "/api/v1/customers/1", map[string]interface{}{
			"name": "Renamed",
		}, "")
		assert.Equal(t, http.StatusOK, w.Code)

		var updated models.Customer
		db.First(&updated, first.ID)
		assert.Equal(t, "Renamed", updated.Name)
		assert.Equal(t, "first@x.com", updated.Email)
		assert.Equal(t, "555-0001", updated.Phone)
	})

	t.Run("Unknown id", func(t *testing.T) {
		w := performRequest(router, "PUT", "/api/v1/customers/999", map[string]interface{}{
			"name": "X",
		}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "NOT_FOUND", errorCode(parseResponse(t, w)))
	})
}

func TestDeleteCustomerCascades(t *testing.T) {
	db := setupTestDB(t)
	router := setupCustomerRouter()

	customer := models.Customer{Name: "C", Email: "c@x.com", Phone: "555"}
	db.Create(&customer)

	mechanic := models.Mechanic{Name: "M", Email: "m@x.com", Salary: 50000}
	mechanic.SetPassword("secret123")
	db.Create(&mechanic)

	ticket := models.ServiceTicket{
		ServiceDate: "2023-10-01",
		VIN:         "1HGCM82633A123456",
		ServiceDesc: "Brakes",
		CustomerID:  customer.ID,
	}
	db.Create(&ticket)
	db.Model(&ticket).Association("Mechanics").Append(&mechanic)

	description := models.PartDescription{PartName: "Brake pad", Brand: "Acme", Price: 30}
	db.Create(&description)
	ticketID := ticket.ID
	part := models.SerializedPart{DescID: description.ID, TicketID: &ticketID}
	db.Create(&part)

	w := performRequest(router, "DELETE", "/api/v1/customers/1", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	var ticketCount int64
	db.Model(&models.ServiceTicket{}).Count(&ticketCount)
	assert.Equal(t, int64(0), ticketCount, "Tickets should be deleted with their customer")

	// The mechanic survives, only the association is gone
	var mechanicCount int64
	db.Model(&models.Mechanic{}).Count(&mechanicCount)
	assert.Equal(t, int64(1), mechanicCount)

	// The installed part returns to stock
	var freed models.SerializedPart
	db.First(&freed, part.ID)
	assert.Nil(t, freed.TicketID)
}

func TestGetMostValuableCustomers(t *testing.T) {
	db := setupTestDB(t)
	router := setupCustomerRouter()

	quiet := models.Customer{Name: "Quiet", Email: "quiet@x.com", Phone: "555"}
	busy := models.Customer{Name: "Busy", Email: "busy@x.com", Phone: "555"}
	alsoQuiet := models.Customer{Name: "AlsoQuiet", Email: "also@x.com", Phone: "555"}
	db.Create(&quiet)
	db.Create(&busy)
	db.Create(&alsoQuiet)

	for _, date := range []string{"2023-01-01", "2023-02-01"} {
		db.Create(&models.ServiceTicket{
			ServiceDate: date,
			VIN:         "1HGCM82633A123456",
			ServiceDesc: "Service",
			CustomerID:  busy.ID,
		})
	}

	w := performRequest(router, "GET", "/api/v1/customers/most-valuable", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	response := parseResponse(t, w)
	data := response["data"].([]interface{})
	assert.Len(t, data, 3)

	top := data[0].(map[string]interface{})
	assert.Equal(t, "busy@x.com", top["email"])
	assert.Equal(t, float64(2), top["ticket_count"])

	// Tied customers keep id-ascending order
	second := data[1].(map[string]interface{})
	third := data[2].(map[string]interface{})
	assert.Equal(t, "quiet@x.com", second["email"])
	assert.Equal(t, "also@x.com", third["email"])
}

func TestSearchCustomers(t *testing.T) {
	db := setupTestDB(t)
	router := setupCustomerRouter()

	db.Create(&models.Customer{Name: "A", Email: "alice@shop.com", Phone: "555"})
	db.Create(&models.Customer{Name: "B", Email: "bob@shop.com", Phone: "555"})
	db.Create(&models.Customer{Name: "C", Email: "carol@other.net", Phone: "555"})

	t.Run("Substring match returns all hits", func(t *testing.T) {
		w := performRequest(router, "GET", "/api/v1/customers/search?email=shop.com", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)

		response := parseResponse(t, w)
		assert.Len(t, response["data"], 2)
	})

	t.Run("No matches returns empty list", func(t *testing.T) {
		w := performRequest(router, "GET", "/api/v1/customers/search?email=nobody", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)

		response := parseResponse(t, w)
		assert.Len(t, response["data"], 0)
	})

	t.Run("Missing email param", func(t *testing.T) {
		w := performRequest(router, "GET", "/api/v1/customers/search", nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(parseResponse(t, w)))
	})
}
