package models

// DefaultService describes an asset's primary connection endpoint.
type DefaultService struct {
	Port     int    `json:"port"`
	IsSecure bool   `json:"is_secure"`
	Domain   string `json:"domain,omitempty"`
}

// Asset is a read-only projection from the external inventory service
// (spec §3). OpsConductor never writes assets; it only reads them through
// the Asset façade.
type Asset struct {
	ID             string           `json:"id"`
	Hostname       string           `json:"hostname"`
	IP             string           `json:"ip"`
	OSType         string           `json:"os_type"`
	OSVersion      string           `json:"os_version,omitempty"`
	Tags           []string         `json:"tags,omitempty"`
	DefaultService *DefaultService  `json:"default_service,omitempty"`
}

// ConnectionProfile is the normalized view of an asset returned by
// Asset.connection_profile (spec §4.4).
type ConnectionProfile struct {
	Found          bool            `json:"found"`
	OS             string          `json:"os,omitempty"`
	Platform       Platform        `json:"platform,omitempty"`
	DefaultService *DefaultService `json:"default_service,omitempty"`
}

// AssetFilters is the recognized filter set for count_assets/search_assets
// (spec §4.4).
type AssetFilters struct {
	OS          string
	Hostname    string
	IP          string
	Status      string
	Environment string
	Tag         string
}
