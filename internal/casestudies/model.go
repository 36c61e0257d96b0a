package casestudies

import "time"

const (
	AvailabilityPublic           = "Public"
	AvailabilityNonReferenceable = "Non-Referenceable"
)

// Column names shared by every store adapter.
const (
	FieldID             = "id"
	FieldHeading        = "heading"
	FieldClientName     = "client_name"
	FieldAccountOwner   = "account_owner"
	FieldMRR            = "mrr"
	FieldIndustry       = "industry"
	FieldSubIndustry    = "sub_industry"
	FieldCity           = "city"
	FieldAWSServices    = "aws_services"
	FieldUseCase        = "use_case"
	FieldAccountSegment = "account_segment"
	FieldAvailability   = "availability"
	FieldContent        = "content"
	FieldCreatedAt      = "created_at"
)

var (
	DefaultUseCases            = []string{"Migration", "New Product Development", "SAP", "AI-ML", "GenAI", "VMware"}
	DefaultAccountSegments     = []string{"Scale", "Focus", "Deep", "Startups"}
	DefaultAvailabilityOptions = []string{AvailabilityPublic, AvailabilityNonReferenceable}
)

type CaseStudy struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	Heading        string    `bson:"heading" json:"heading"`
	ClientName     string    `bson:"client_name" json:"client_name"`
	AccountOwner   string    `bson:"account_owner" json:"account_owner"`
	MRR            *float64  `bson:"mrr,omitempty" json:"mrr"`
	Industry       string    `bson:"industry,omitempty" json:"industry,omitempty"`
	SubIndustry    string    `bson:"sub_industry,omitempty" json:"sub_industry,omitempty"`
	City           string    `bson:"city,omitempty" json:"city,omitempty"`
	UseCase        string    `bson:"use_case,omitempty" json:"use_case,omitempty"`
	AccountSegment string    `bson:"account_segment,omitempty" json:"account_segment,omitempty"`
	Availability   string    `bson:"availability,omitempty" json:"availability,omitempty"`
	AWSServices    []string  `bson:"aws_services" json:"aws_services"`
	Content        string    `bson:"content" json:"content"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}

// CreateRequest is the payload of the creation form.
type CreateRequest struct {
	ClientName     string   `json:"client_name" validate:"required"`
	Heading        string   `json:"heading" validate:"required"`
	AccountOwner   string   `json:"account_owner" validate:"required"`
	Content        string   `json:"content" validate:"required"`
	MRR            *float64 `json:"mrr" validate:"omitempty,gte=0"`
	Industry       string   `json:"industry" validate:"required"`
	SubIndustry    string   `json:"sub_industry" validate:"required"`
	City           string   `json:"city" validate:"required"`
	UseCase        string   `json:"use_case" validate:"required"`
	AccountSegment string   `json:"account_segment" validate:"required"`
	Availability   string   `json:"availability" validate:"required,availability"`
	AWSServices    []string `json:"aws_services" validate:"required,min=1"`
}

// fieldLabels are the human labels used in per-field validation messages.
var fieldLabels = map[string]string{
	FieldClientName:     "Client Name",
	FieldHeading:        "Heading",
	FieldAccountOwner:   "Account Owner",
	FieldContent:        "Content",
	FieldIndustry:       "Industry",
	FieldSubIndustry:    "Sub-Industry",
	FieldCity:           "City",
	FieldUseCase:        "Use Case",
	FieldAccountSegment: "Account Segmentation",
	FieldAvailability:   "Availability",
	FieldMRR:            "Monthly Recurring Revenue",
}
