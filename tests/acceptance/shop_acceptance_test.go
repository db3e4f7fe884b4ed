package acceptance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/mechanic-shop-api/config"
	"github.com/kendall-kelly/mechanic-shop-api/controllers"
	"github.com/kendall-kelly/mechanic-shop-api/middleware"
	"github.com/kendall-kelly/mechanic-shop-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// ShopAcceptanceTestSuite drives the API through a real HTTP server the way a
// front desk client would use it
type ShopAcceptanceTestSuite struct {
	suite.Suite
	server *httptest.Server
	db     *gorm.DB
}

// SetupSuite runs once before all tests
func (suite *ShopAcceptanceTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	testutil.MustSetTestEnvironment(suite.T())

	config.SetConfig(&config.Config{
		DatabaseURL: "sqlite::memory:",
		GoEnv:       "test",
		JWTSecret:   testutil.TestJWTSecret,
	})

	suite.db = testutil.OpenTestDB(suite.T())
	suite.server = httptest.NewServer(suite.createRouter())
}

// TearDownSuite runs once after all tests
func (suite *ShopAcceptanceTestSuite) TearDownSuite() {
	suite.server.Close()
	if suite.db != nil {
		sqlDB, _ := suite.db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	}
}

// SetupTest runs before each test
func (suite *ShopAcceptanceTestSuite) SetupTest() {
	suite.db.Exec("DELETE FROM service_mechanics")
	suite.db.Exec("DELETE FROM serialized_parts")
	suite.db.Exec("DELETE FROM part_descriptions")
	suite.db.Exec("DELETE FROM service_tickets")
	suite.db.Exec("DELETE FROM mechanics")
	suite.db.Exec("DELETE FROM customers")
}

// createRouter builds the application routing table for acceptance testing
func (suite *ShopAcceptanceTestSuite) createRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	requireAuth := middleware.RequireAuth(testutil.TestJWTSecret)
	requireAdmin := middleware.RequireAdmin()

	v1 := router.Group("/api/v1")
	{
		v1.POST("/customers", controllers.CreateCustomer)
		v1.GET("/customers", controllers.GetCustomers)
		v1.GET("/customers/most-valuable", controllers.GetMostValuableCustomers)
		v1.GET("/customers/search", controllers.SearchCustomers)

		v1.POST("/mechanics", controllers.CreateMechanic)
		v1.POST("/mechanics/login", controllers.Login)

		tickets := v1.Group("/service-tickets")
		{
			tickets.POST("", requireAuth, requireAdmin, controllers.CreateServiceTicket)
			tickets.PUT("/:ticket_id/add-mechanic/:mechanic_id", requireAuth, requireAdmin, controllers.AddMechanic)
			tickets.DELETE("/:ticket_id/remove-mechanic/:mechanic_id", requireAuth, requireAdmin, controllers.RemoveMechanic)
		}
	}

	return router
}

// makeRequest performs a real HTTP request against the test server
func (suite *ShopAcceptanceTestSuite) makeRequest(method, path string, body interface{}, token string) (*http.Response, map[string]interface{}) {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}

	req, err := http.NewRequest(method, suite.server.URL+path, bytes.NewReader(payload))
	suite.NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	suite.NoError(err)

	var parsed map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&parsed)
	resp.Body.Close()
	return resp, parsed
}

func (suite *ShopAcceptanceTestSuite) errorCode(parsed map[string]interface{}) string {
	errObj, ok := parsed["error"].(map[string]interface{})
	if !ok {
		return ""
	}
	code, _ := errObj["code"].(string)
	return code
}

// dataID extracts data.id from a create response
func (suite *ShopAcceptanceTestSuite) dataID(parsed map[string]interface{}) int {
	data, ok := parsed["data"].(map[string]interface{})
	suite.True(ok, "Response should carry a data object")
	id, ok := data["id"].(float64)
	suite.True(ok, "Data object should carry an id")
	return int(id)
}

// registerMechanic creates a mechanic and logs in, returning id and token
func (suite *ShopAcceptanceTestSuite) registerMechanic(email string) (int, string) {
	resp, parsed := suite.makeRequest("POST", "/api/v1/mechanics", map[string]interface{}{
		"name":     "Wrench",
		"email":    email,
		"salary":   55000,
		"password": "torque123",
	}, "")
	suite.Equal(http.StatusCreated, resp.StatusCode)
	mechanicID := suite.dataID(parsed)

	resp, parsed = suite.makeRequest("POST", "/api/v1/mechanics/login", map[string]interface{}{
		"email":    email,
		"password": "torque123",
	}, "")
	suite.Equal(http.StatusOK, resp.StatusCode)

	data := parsed["data"].(map[string]interface{})
	token, _ := data["token"].(string)
	suite.NotEmpty(token)
	return mechanicID, token
}

// TestFrontDeskScenario walks the front desk flow from intake to assignment,
// including every rejection a client can trigger along the way
func (suite *ShopAcceptanceTestSuite) TestFrontDeskScenario() {
	t := suite.T()
	mechanicID, token := suite.registerMechanic("wrench@shop.com")

	// Register the customer; a repeat registration with the same email fails
	customer := map[string]interface{}{
		"name":  "Dana",
		"email": "dana@example.com",
		"phone": "555-0001",
	}
	resp, parsed := suite.makeRequest("POST", "/api/v1/customers", customer, "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	customerID := suite.dataID(parsed)

	resp, parsed = suite.makeRequest("POST", "/api/v1/customers", customer, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "CONFLICT", suite.errorCode(parsed))

	// Opening a ticket needs a mechanic token
	ticket := map[string]interface{}{
		"service_date": "2023-10-01",
		"vin":          "1HGCM82633A123456",
		"service_desc": "Brake overhaul",
		"customer_id":  customerID,
	}
	resp, _ = suite.makeRequest("POST", "/api/v1/service-tickets", ticket, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, parsed = suite.makeRequest("POST", "/api/v1/service-tickets", ticket, token)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	ticketID := suite.dataID(parsed)

	// Same vehicle on the same day is a double booking
	resp, parsed = suite.makeRequest("POST", "/api/v1/service-tickets", ticket, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "CONFLICT", suite.errorCode(parsed))

	// Assigning an unknown mechanic is rejected
	resp, parsed = suite.makeRequest("PUT", fmt.Sprintf("/api/v1/service-tickets/%d/add-mechanic/999999", ticketID), nil, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", suite.errorCode(parsed))

	// Assigning the registered mechanic works exactly once
	assignPath := fmt.Sprintf("/api/v1/service-tickets/%d/add-mechanic/%d", ticketID, mechanicID)
	resp, _ = suite.makeRequest("PUT", assignPath, nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, parsed = suite.makeRequest("PUT", assignPath, nil, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "CONFLICT", suite.errorCode(parsed))

	// Unassigning twice fails the second time
	unassignPath := fmt.Sprintf("/api/v1/service-tickets/%d/remove-mechanic/%d", ticketID, mechanicID)
	resp, _ = suite.makeRequest("DELETE", unassignPath, nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, parsed = suite.makeRequest("DELETE", unassignPath, nil, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "CONFLICT", suite.errorCode(parsed))
}

// TestReportingEndpoints covers the ranking and search views over real HTTP
func (suite *ShopAcceptanceTestSuite) TestReportingEndpoints() {
	t := suite.T()
	_, token := suite.registerMechanic("reports@shop.com")

	var busyID int
	for _, c := range []map[string]interface{}{
		{"name": "Quiet", "email": "quiet@example.com", "phone": "555-0001"},
		{"name": "Busy", "email": "busy@example.com", "phone": "555-0002"},
	} {
		resp, parsed := suite.makeRequest("POST", "/api/v1/customers", c, "")
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		busyID = suite.dataID(parsed)
	}

	for _, date := range []string{"2023-10-01", "2023-10-02"} {
		resp, _ := suite.makeRequest("POST", "/api/v1/service-tickets", map[string]interface{}{
			"service_date": date,
			"vin":          "5YJSA1E26MF123456",
			"service_desc": "Service",
			"customer_id":  busyID,
		}, token)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, parsed := suite.makeRequest("GET", "/api/v1/customers/most-valuable", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data := parsed["data"].([]interface{})
	top := data[0].(map[string]interface{})
	assert.Equal(t, "busy@example.com", top["email"])
	assert.Equal(t, float64(2), top["ticket_count"])

	resp, parsed = suite.makeRequest("GET", "/api/v1/customers/search?email=busy", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, parsed["data"], 1)
}

// TestShopAcceptanceTestSuite runs the test suite
func TestShopAcceptanceTestSuite(t *testing.T) {
	suite.Run(t, new(ShopAcceptanceTestSuite))
}
