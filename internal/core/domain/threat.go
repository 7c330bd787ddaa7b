package domain

import "time"

// ProductKind classifies what an affected product entry describes.
type ProductKind string

const (
	ProductKindOperatingSystem ProductKind = "operating_system"
	ProductKindApplication     ProductKind = "application"
)

// ThreatProduct is a product/version pair a threat claims to affect.
// Value object: compared only by content, never mutated after creation.
type ThreatProduct struct {
	Name    string      `json:"name"`              // e.g. "Microsoft SQL Server"
	Version string      `json:"version,omitempty"` // e.g. "2019", "7.0.x", ">= 6.5" (empty = all versions)
	Kind    ProductKind `json:"kind,omitempty"`
}

// Threat represents a vulnerability/threat record ingested from an external feed.
type Threat struct {
	ID            string          `json:"id"`
	CVEID         string          `json:"cve_id,omitempty"` // e.g. "CVE-2023-23397"
	Title         string          `json:"title,omitempty"`
	Description   string          `json:"description,omitempty"`
	ThreatType    string          `json:"threat_type,omitempty"` // e.g. "rce", "privilege-escalation"
	SourceFeed    string          `json:"source_feed,omitempty"` // e.g. "CISA KEV", "NVD"
	CVSSBaseScore *float64        `json:"cvss_base_score,omitempty"`
	CVSSVector    string          `json:"cvss_vector,omitempty"` // e.g. "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H"
	KnownExploited bool           `json:"known_exploited,omitempty"`
	Products      []ThreatProduct `json:"products,omitempty"`
	PublishedDate time.Time       `json:"published_date,omitempty"`
	LastModified  time.Time       `json:"last_modified,omitempty"`
	References    []string        `json:"references,omitempty"`
}
