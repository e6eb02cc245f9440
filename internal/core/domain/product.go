package domain

// Product is a purchasable subscription plan (FREE, BASIC, PRO, ...).
type Product struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	MonthsDuration int     `json:"months_duration"`
	IsActive       bool    `json:"is_active"`
	AuditStamps
}
