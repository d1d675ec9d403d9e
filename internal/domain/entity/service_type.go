package entity

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ServiceType is one of the fixed consultation categories.
type ServiceType string

const (
	ServiceGeneralMedicine ServiceType = "General Medicine"
	ServicePediatrics      ServiceType = "Pediatrics"
	ServiceDermatology     ServiceType = "Dermatology"
	ServiceNeurology       ServiceType = "Neurology"
	ServiceOphthalmology   ServiceType = "Ophthalmology"
	ServiceUrology         ServiceType = "Urology"
)

// Currency is the ISO code all catalog prices are expressed in.
const Currency = "PHP"

// ServiceInfo is the catalog entry for a consultation category.
type ServiceInfo struct {
	Type            ServiceType
	Slug            string
	Description     string
	Audience        string
	Expectations    []string
	DurationMinutes int
	// Price is in minor units (centavos).
	Price int64
}

// Amount returns the catalog price in whole currency units.
func (s ServiceInfo) Amount() decimal.Decimal {
	return MinorToAmount(s.Price)
}

var serviceOrder = []ServiceType{
	ServiceGeneralMedicine,
	ServicePediatrics,
	ServiceDermatology,
	ServiceNeurology,
	ServiceOphthalmology,
	ServiceUrology,
}

var serviceCatalog = map[ServiceType]ServiceInfo{
	ServiceGeneralMedicine: {
		Type:            ServiceGeneralMedicine,
		Slug:            "general-medicine",
		Description:     "Primary care consultation for common illnesses, check-ups and health advice.",
		Audience:        "Adults and children who need a routine check-up or care for everyday health concerns.",
		Expectations:    []string{"30 mins consultation", "Licensed Expert", "Receive a Care Plan"},
		DurationMinutes: 30,
		Price:           85000,
	},
	ServicePediatrics: {
		Type:            ServicePediatrics,
		Slug:            "pediatrics",
		Description:     "Consultation for infants, children and adolescents with a pediatrician.",
		Audience:        "Parents and guardians seeking care for children from birth to adolescence.",
		Expectations:    []string{"30 mins consultation", "Licensed Expert", "Receive a Growth & Development Plan"},
		DurationMinutes: 30,
		Price:           85000,
	},
	ServiceDermatology: {
		Type:            ServiceDermatology,
		Slug:            "dermatology",
		Description:     "Assessment and treatment of skin, hair and nail conditions.",
		Audience:        "Anyone with acne, rashes, allergies or other skin concerns.",
		Expectations:    []string{"30 mins consultation", "Licensed Expert", "Receive a Skin Care Plan"},
		DurationMinutes: 30,
		Price:           100000,
	},
	ServiceNeurology: {
		Type:            ServiceNeurology,
		Slug:            "neurology",
		Description:     "Evaluation of disorders of the brain, spine and nerves.",
		Audience:        "Patients with headaches, seizures, numbness or memory concerns.",
		Expectations:    []string{"45 mins consultation", "Licensed Expert", "Receive a Neurological Assessment"},
		DurationMinutes: 45,
		Price:           150000,
	},
	ServiceOphthalmology: {
		Type:            ServiceOphthalmology,
		Slug:            "ophthalmology",
		Description:     "Comprehensive eye care from a licensed ophthalmologist.",
		Audience:        "Individuals of all ages with vision problems, a family history of eye conditions, or due for a routine eye exam.",
		Expectations:    []string{"30 mins consultation", "Licensed Expert", "Receive a Detailed Eye Health Report & Care Plan"},
		DurationMinutes: 30,
		Price:           120000,
	},
	ServiceUrology: {
		Type:            ServiceUrology,
		Slug:            "urology",
		Description:     "Consultation for urinary tract and male reproductive health.",
		Audience:        "Patients with urinary symptoms, kidney stones or prostate concerns.",
		Expectations:    []string{"30 mins consultation", "Licensed Expert", "Receive a Treatment Plan"},
		DurationMinutes: 30,
		Price:           110000,
	},
}

// Info returns the catalog entry for t.
func (t ServiceType) Info() (ServiceInfo, bool) {
	info, ok := serviceCatalog[t]
	return info, ok
}

// IsValid reports whether t is in the fixed enumeration.
func (t ServiceType) IsValid() bool {
	_, ok := serviceCatalog[t]
	return ok
}

// ParseServiceType accepts a display name or slug, case-insensitively.
func ParseServiceType(s string) (ServiceType, bool) {
	s = strings.TrimSpace(s)
	for _, t := range serviceOrder {
		info := serviceCatalog[t]
		if strings.EqualFold(s, string(t)) || strings.EqualFold(s, info.Slug) {
			return t, true
		}
	}
	return "", false
}

// Services returns the catalog in display order.
func Services() []ServiceInfo {
	out := make([]ServiceInfo, 0, len(serviceOrder))
	for _, t := range serviceOrder {
		out = append(out, serviceCatalog[t])
	}
	return out
}

// MinorToAmount converts minor units to a whole-unit decimal.
func MinorToAmount(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
