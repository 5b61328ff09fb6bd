package discovery

import "time"

const (
	DefaultLLMModel       = "claude-sonnet-4-5-20250929"
	DefaultMaxConcurrency = 4
	DefaultCallTimeout    = 90 * time.Second

	// MaxBatchCompanies bounds a single batch; larger inputs are rejected at
	// parse time before any extraction work starts.
	MaxBatchCompanies = 50
)

type EntityKind string

const (
	KindPerson     EntityKind = "person"
	KindFirm       EntityKind = "firm"
	KindCompany    EntityKind = "company"
	KindGovernment EntityKind = "government"
)

// RelationshipCategories is the fixed vocabulary for relationship tags.
// Extraction output using any other tag is dropped at the adapter boundary.
var RelationshipCategories = map[string]struct{}{
	"shareholder": {},
	"auditor":     {},
	"director":    {},
	"executive":   {},
	"broker":      {},
	"advisor":     {},
	"competitor":  {},
	"pe_firm":     {},
	"lender":      {},
	"government":  {},
	"registry":    {},
	"supplier":    {},
	"customer":    {},
}

// Company is one batch input row. Ticker is the stable join key for the
// whole pipeline; rows sharing a ticker are merged during parsing.
type Company struct {
	Name         string `json:"name"`
	Ticker       string `json:"ticker"`
	Exchange     string `json:"exchange,omitempty"`
	StressSignal string `json:"stress_signal,omitempty"`
}

// RawMention is an entity mention exactly as emitted by an extraction
// backend: arbitrary casing and suffixes, not yet canonicalized. Produced
// and consumed within a single pipeline run.
type RawMention struct {
	Name         string     `json:"name"`
	Kind         EntityKind `json:"kind"`
	Category     string     `json:"category"`
	Details      string     `json:"details,omitempty"`
	SourceTicker string     `json:"source_ticker"`
}

// Relationship is a canonicalized mention scoped to one company.
type Relationship struct {
	EntityName string     `json:"entity_name"`
	EntityKind EntityKind `json:"entity_kind"`
	Category   string     `json:"category"`
	Details    string     `json:"details,omitempty"`
}

type CompanyResult struct {
	Company
	Relationships []Relationship `json:"relationships"`
}

type ExposureDetail struct {
	Ticker   string `json:"ticker"`
	Category string `json:"category"`
}

// WhoCaresEntity is one multi-exposure entity: a person, firm, company or
// government body connected to two or more companies in the batch.
// ExposedCompanies is ordered by first encounter and always satisfies
// ExposureCount == len(ExposedCompanies) == len(ExposureDetails).
type WhoCaresEntity struct {
	EntityName       string           `json:"entity_name"`
	EntityKind       EntityKind       `json:"entity_kind"`
	PrimaryCategory  string           `json:"primary_category"`
	ExposureCount    int              `json:"exposure_count"`
	ExposedCompanies []string         `json:"exposed_companies"`
	ExposureDetails  []ExposureDetail `json:"exposure_details"`
}

type BatchStats struct {
	TotalCompanies        int   `json:"total_companies"`
	TotalRelationships    int   `json:"total_relationships"`
	MultiExposureEntities int   `json:"multi_exposure_entities"`
	DegradedExtractions   int   `json:"degraded_extractions"`
	ProcessingTimeMs      int64 `json:"processing_time_ms"`
}

type BatchResult struct {
	Companies []CompanyResult  `json:"companies"`
	WhoCares  []WhoCaresEntity `json:"who_cares"`
	Stats     BatchStats       `json:"stats"`
}

// NarrativeSummary is the human-readable brief. Generated is false when the
// deterministic templated fallback produced it.
type NarrativeSummary struct {
	Headline        string   `json:"headline"`
	Findings        []string `json:"findings"`
	OutreachTargets []string `json:"outreach_targets"`
	Generated       bool     `json:"generated"`
}
