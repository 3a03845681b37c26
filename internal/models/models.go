package models

// LookupResult is the geolocation record returned by the provider
// Every field is optional: the page shows a placeholder for anything missing
type LookupResult struct {
	IP       string            `json:"ip,omitempty"`
	ISP      string            `json:"isp,omitempty"`
	Location Location          `json:"location"`
	AS       *AutonomousSystem `json:"as,omitempty"`
}

// Location holds the geographic part of a lookup
// Lat and Lng are pointers so "not present" is different from 0
type Location struct {
	Country    string   `json:"country,omitempty"`
	Region     string   `json:"region,omitempty"`
	City       string   `json:"city,omitempty"`
	Lat        *float64 `json:"lat,omitempty"`
	Lng        *float64 `json:"lng,omitempty"`
	PostalCode string   `json:"postalCode,omitempty"`
	Timezone   string   `json:"timezone,omitempty"`
	GeonameID  int64    `json:"geonameId,omitempty"`
}

// AutonomousSystem describes the network that announces the IP
type AutonomousSystem struct {
	ASN    int64  `json:"asn,omitempty"`
	Name   string `json:"name,omitempty"`
	Route  string `json:"route,omitempty"`
	Domain string `json:"domain,omitempty"`
	Type   string `json:"type,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are known
func (r *LookupResult) HasCoordinates() bool {
	return r != nil && r.Location.Lat != nil && r.Location.Lng != nil
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error string `json:"error"` // Error message
}
