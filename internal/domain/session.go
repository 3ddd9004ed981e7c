package domain

// Session describes what the landing page bootstrap obtained
type Session struct {
	StatusCode int      `json:"status_code"`
	Title      string   `json:"title,omitempty"`
	Cookies    []string `json:"cookies"` // cookie names held by the jar for the API host
	Challenge  bool     `json:"challenge"`
}
