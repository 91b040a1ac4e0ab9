package domain

import "time"

// ServiceType enumerates the services a project can need and a vendor
// can offer.
type ServiceType string

const (
	ServiceMarketResearch       ServiceType = "market_research"
	ServiceLegalServices        ServiceType = "legal_services"
	ServiceTaxConsulting        ServiceType = "tax_consulting"
	ServiceBusinessSetup        ServiceType = "business_setup"
	ServiceLocalPartnerships    ServiceType = "local_partnerships"
	ServiceRegulatoryCompliance ServiceType = "regulatory_compliance"
	ServiceTranslation          ServiceType = "translation"
	ServiceOfficeSetup          ServiceType = "office_setup"
)

// ProjectStatus constants
type ProjectStatus string

const (
	StatusPending   ProjectStatus = "pending"
	StatusActive    ProjectStatus = "active"
	StatusCompleted ProjectStatus = "completed"
	StatusCancelled ProjectStatus = "cancelled"
)

// Project is a client's request for services in a target country.
type Project struct {
	ID             int64         `json:"id"`
	ClientID       int64         `json:"client_id"`
	CountryID      int64         `json:"country_id"`
	NeededServices []ServiceType `json:"needed_services"`
	Budget         float64       `json:"budget"`
	Status         ProjectStatus `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
}

// Vendor is a service provider with a country footprint, an offered
// service set, a rating and a response SLA commitment.
type Vendor struct {
	ID                 int64         `json:"id"`
	Name               string        `json:"name"`
	OfferedServices    []ServiceType `json:"offered_services"`
	Rating             float64       `json:"rating"`
	ResponseSlaHours   int           `json:"response_sla_hours"`
	SupportedCountries []int64       `json:"supported_countries,omitempty"`
}

// Match is a scored pairing of one project and one vendor. At most one
// match exists per (project, vendor); the ledger's unique index
// enforces it.
type Match struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	VendorID  int64     `json:"vendor_id"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"created_at"`

	// Context attached by ledger reads for downstream consumers.
	Vendor  *Vendor  `json:"vendor,omitempty"`
	Project *Project `json:"project,omitempty"`
}

// Country is a target market referenced by projects and vendor
// footprints.
type Country struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RebuildResult is returned by a match rebuild for one project.
type RebuildResult struct {
	Message      string  `json:"message"`
	Matches      []Match `json:"matches"`
	TotalMatches int     `json:"total_matches"`
}

// SlaViolation records one overdue match flagged by the SLA monitor.
// Elapsed hours are rounded for reporting only; the comparison against
// the vendor's SLA uses the real-valued elapsed time.
type SlaViolation struct {
	Vendor       Vendor
	Match        Match
	ElapsedHours int
}
