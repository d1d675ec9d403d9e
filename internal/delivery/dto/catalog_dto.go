package dto

import "github.com/shopspring/decimal"

type ServiceResponse struct {
	Type            string          `json:"type"`
	Slug            string          `json:"slug"`
	Description     string          `json:"description"`
	Audience        string          `json:"audience"`
	Expectations    []string        `json:"expectations"`
	DurationMinutes int             `json:"duration_minutes"`
	Price           int64           `json:"price"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
}

type ServiceListResponse struct {
	Services []ServiceResponse `json:"services"`
	Total    int               `json:"total"`
}
