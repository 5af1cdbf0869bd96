package acceptance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"

	"github.com/dormfix/dormfix-api/config"
	"github.com/dormfix/dormfix-api/controllers"
	"github.com/dormfix/dormfix-api/models"
	"github.com/dormfix/dormfix-api/services"
	"github.com/dormfix/dormfix-api/tests/testutil"
)

// TicketAcceptanceTestSuite exercises the reporting flow over real HTTP
type TicketAcceptanceTestSuite struct {
	suite.Suite
	server     *httptest.Server
	images     *services.MockImageService
	classifier *services.MockClassifier
}

// SetupSuite runs once before all tests
func (suite *TicketAcceptanceTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	os.Setenv("GO_ENV", "test")
	testutil.SetupTestConfig()

	router := suite.createRouter()
	suite.server = httptest.NewServer(router)
}

// TearDownSuite runs once after all tests
func (suite *TicketAcceptanceTestSuite) TearDownSuite() {
	suite.server.Close()
}

// SetupTest runs before each test with a fresh database and mocks
func (suite *TicketAcceptanceTestSuite) SetupTest() {
	testutil.SetupTestDB(suite.T())
	suite.images, suite.classifier = testutil.SetupMockServices()
}

// createRouter creates the test router with all routes
func (suite *TicketAcceptanceTestSuite) createRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api")
	{
		tickets := api.Group("/tickets")
		{
			tickets.POST("", controllers.CreateTicket)
			tickets.GET("", controllers.GetTickets)
			tickets.GET("/:id", controllers.GetTicketByID)
			tickets.PATCH("/:id/status", controllers.UpdateTicketStatus)
			tickets.PATCH("/:id/resolve", controllers.ResolveTicket)
		}
		locations := api.Group("/locations")
		{
			locations.GET("", controllers.GetLocations)
			locations.POST("", controllers.CreateLocation)
		}
	}
	return router
}

// postTicket submits a multipart ticket report with one jpeg attachment
func (suite *TicketAcceptanceTestSuite) postTicket(fields map[string]string) *http.Response {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		suite.NoError(writer.WriteField(key, value))
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="images"; filename="photo.jpg"`)
	header.Set("Content-Type", "image/jpeg")
	part, err := writer.CreatePart(header)
	suite.NoError(err)
	part.Write([]byte("jpeg-bytes"))
	suite.NoError(writer.Close())

	resp, err := http.Post(suite.server.URL+"/api/tickets", writer.FormDataContentType(), &buf)
	suite.NoError(err)
	return resp
}

func (suite *TicketAcceptanceTestSuite) decodeBody(resp *http.Response) map[string]interface{} {
	defer resp.Body.Close()
	var body map[string]interface{}
	suite.NoError(json.NewDecoder(resp.Body).Decode(&body))
	return body
}

// TestResidentReportsLeakingPipe covers the core scenario: a resident in
// Yates Hall room 305 photographs a leaking pipe, the vision model
// classifies it as high-severity plumbing, and the ticket comes back
// ready for the facilities queue.
func (suite *TicketAcceptanceTestSuite) TestResidentReportsLeakingPipe() {
	suite.classifier.ReturnClassification(&services.Classification{
		Category:              "Plumbing",
		Severity:              "High",
		Summary:               "Leaking pipe",
		FacilitiesDescription: "Active leak under the bathroom sink. Water pooling on tile floor.",
		FollowUpQuestions:     []string{"Is the leak constant or intermittent?"},
		SafetyNotes:           []string{"Water near electrical baseboard heater"},
	})

	resp := suite.postTicket(map[string]string{
		"building":     "Yates Hall",
		"room":         "305",
		"reporterName": "Sam",
	})
	suite.Equal(http.StatusCreated, resp.StatusCode)

	body := suite.decodeBody(resp)
	suite.True(body["success"].(bool))

	ticket := body["ticket"].(map[string]interface{})
	suite.Equal("Plumbing", ticket["category"])
	suite.Equal("High", ticket["severity"])
	suite.Equal("Leaking pipe", ticket["ai_summary"])
	suite.Equal("NEW", ticket["status"])
	suite.Equal("Sam", ticket["reporter_name"])
	suite.Len(ticket["image_urls"].([]interface{}), 1)
	suite.Len(ticket["safety_notes"].([]interface{}), 1)
	suite.Equal(1, suite.images.UploadCount())
}

// TestClassifierOutageStillAcceptsTicket verifies reporting keeps working
// when the vision model is unreachable
func (suite *TicketAcceptanceTestSuite) TestClassifierOutageStillAcceptsTicket() {
	suite.classifier.FailClassification()

	resp := suite.postTicket(map[string]string{
		"building": "Pearsons Hall",
		"room":     "112",
	})
	suite.Equal(http.StatusCreated, resp.StatusCode)

	ticket := suite.decodeBody(resp)["ticket"].(map[string]interface{})
	suite.Equal("Other", ticket["category"])
	suite.Equal("Low", ticket["severity"])
	suite.Equal("Maintenance issue reported. Manual review needed.", ticket["ai_summary"])
}

// TestTicketLifecycleOverHTTP walks a ticket from report to resolution
func (suite *TicketAcceptanceTestSuite) TestTicketLifecycleOverHTTP() {
	resp := suite.postTicket(map[string]string{
		"building": "Yates Hall",
		"room":     "305",
	})
	suite.Equal(http.StatusCreated, resp.StatusCode)
	ticket := suite.decodeBody(resp)["ticket"].(map[string]interface{})
	id := ticket["id"].(string)

	payload, _ := json.Marshal(map[string]string{"status": "IN_PROGRESS", "note": "Plumber dispatched"})
	req, _ := http.NewRequest("PATCH", suite.server.URL+"/api/tickets/"+id+"/status", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	suite.NoError(err)
	suite.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	req, _ = http.NewRequest("PATCH", suite.server.URL+"/api/tickets/"+id+"/resolve", nil)
	resp, err = http.DefaultClient.Do(req)
	suite.NoError(err)
	suite.Equal(http.StatusOK, resp.StatusCode)

	ticket = suite.decodeBody(resp)["ticket"].(map[string]interface{})
	suite.Equal("RESOLVED", ticket["status"])
	history := ticket["status_history"].([]interface{})
	suite.Len(history, 3)
	last := history[len(history)-1].(map[string]interface{})
	suite.Equal("RESOLVED", last["status"])
}

// TestBuildingPickerCatalog seeds the location catalog and verifies the
// client-facing listing: active entries only, alphabetical
func (suite *TicketAcceptanceTestSuite) TestBuildingPickerCatalog() {
	for _, name := range []string{"Yates Hall", "Anderson Gym", "Pearsons Hall"} {
		payload, _ := json.Marshal(map[string]string{"name": name})
		resp, err := http.Post(suite.server.URL+"/api/locations", "application/json", bytes.NewReader(payload))
		suite.NoError(err)
		suite.Equal(http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp, err := http.Get(suite.server.URL + "/api/locations")
	suite.NoError(err)
	suite.Equal(http.StatusOK, resp.StatusCode)

	body := suite.decodeBody(resp)
	locations := body["locations"].([]interface{})
	suite.Len(locations, 3)

	var names []string
	for _, l := range locations {
		names = append(names, l.(map[string]interface{})["name"].(string))
	}
	suite.Equal([]string{"Anderson Gym", "Pearsons Hall", "Yates Hall"}, names)
}

// TestListCapsAtOneHundred verifies the list endpoint never returns more
// than 100 tickets even when the store holds more
func (suite *TicketAcceptanceTestSuite) TestListCapsAtOneHundred() {
	db := config.GetDB()
	for i := 0; i < 105; i++ {
		ticket := models.Ticket{
			Building: "Yates Hall",
			Room:     fmt.Sprintf("room-%d", i),
			Category: models.CategoryOther,
			Severity: models.SeverityLow,
			Status:   models.StatusNew,
		}
		suite.NoError(db.Create(&ticket).Error)
	}

	resp, err := http.Get(suite.server.URL + "/api/tickets")
	suite.NoError(err)
	body := suite.decodeBody(resp)
	suite.Equal(float64(100), body["count"])
	suite.Len(body["tickets"].([]interface{}), 100)
}

// TestTicketAcceptanceSuite runs the acceptance test suite
func TestTicketAcceptanceSuite(t *testing.T) {
	suite.Run(t, new(TicketAcceptanceTestSuite))
}
