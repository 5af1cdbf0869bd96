package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestServerStartup is an acceptance test that verifies the router assembles
// This test uses the actual setupRouter function to ensure the full application works
func TestServerStartup(t *testing.T) {
	router := newTestRouter()
	assert.NotNil(t, router, "Router should be initialized")
}

// TestAPIHealthEndpointAcceptance is an end-to-end acceptance test
// It simulates a real HTTP request to verify the API works as expected
func TestAPIHealthEndpointAcceptance(t *testing.T) {
	router := newTestRouter()

	// Create a request as a real client would
	req, err := http.NewRequest("GET", "/api/health", nil)
	assert.NoError(t, err, "Should be able to create request")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	// Verify the response matches acceptance criteria
	assert.Equal(t, http.StatusOK, recorder.Code, "Health endpoint should return 200 OK")

	// Parse response
	var response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	err = json.Unmarshal(recorder.Body.Bytes(), &response)
	assert.NoError(t, err, "Response should be valid JSON")

	assert.True(t, response.Success, "Success field should be true")
	assert.Equal(t, "DormFix API is running", response.Message)
}

// TestHealthEndpointAvailability tests that the health endpoint is available immediately
func TestHealthEndpointAvailability(t *testing.T) {
	router := newTestRouter()

	// Make multiple requests to ensure consistency
	for i := 0; i < 5; i++ {
		req, _ := http.NewRequest("GET", "/api/health", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code,
			fmt.Sprintf("Request %d should succeed", i+1))

		// Verify consistent response
		var response map[string]interface{}
		json.Unmarshal(recorder.Body.Bytes(), &response)
		assert.Equal(t, true, response["success"],
			fmt.Sprintf("Request %d should have success=true", i+1))
	}
}

// TestHealthEndpointResponseTime tests that the endpoint responds quickly
func TestHealthEndpointResponseTime(t *testing.T) {
	router := newTestRouter()

	req, _ := http.NewRequest("GET", "/api/health", nil)
	recorder := httptest.NewRecorder()

	start := time.Now()
	router.ServeHTTP(recorder, req)
	duration := time.Since(start)

	// Health check should be very fast (under 100ms)
	assert.Less(t, duration, 100*time.Millisecond,
		"Health endpoint should respond in less than 100ms")
}
