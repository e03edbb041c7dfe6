package utils

import (
	"net/http"
	"time"
)

// HTTPClient is shared by everything that talks to the judge. The timeout
// caps a single request; the dispatcher's poll budget caps the whole grading
// call.
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}
