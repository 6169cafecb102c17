package spacex

import (
	"fmt"
	"time"
)

// HTTPError represents a non-2xx response from the external API.
type HTTPError struct {
	StatusCode int
	Message    string
	URL        string
}

// Error returns the error message
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for URL %s: %s", e.StatusCode, e.URL, e.Message)
}

// NewHTTPError creates a new HTTP error
func NewHTTPError(statusCode int, url, message string) error {
	return &HTTPError{
		StatusCode: statusCode,
		URL:        url,
		Message:    message,
	}
}

// LaunchRecord mirrors one element of the /v5/launches response.
type LaunchRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	DateUTC   time.Time `json:"date_utc"`
	Success   *bool     `json:"success"`
	Details   string    `json:"details"`
	Rocket    string    `json:"rocket"`
	Launchpad string    `json:"launchpad"`
	Payloads  []string  `json:"payloads"`
}

// RocketRecord mirrors the /v4/rockets/{id} response.
type RocketRecord struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Active  bool   `json:"active"`
	Country string `json:"country"`
	Company string `json:"company"`
}

// LaunchPadRecord mirrors the /v4/launchpads/{id} response.
type LaunchPadRecord struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Locality  string   `json:"locality"`
	Region    string   `json:"region"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}
