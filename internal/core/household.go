package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Household planning records. These are plain CRUD data with no business
// rules beyond display grouping.
type (
	Room struct {
		ID    string
		Name  string
		Icon  string
		Color string
	}

	HomeItem struct {
		ID        string
		RoomID    string
		Name      string
		Price     decimal.Decimal
		Link      string
		Bought    bool
		CreatedAt time.Time
	}

	Property struct {
		ID          string
		Title       string
		Address     string
		Price       decimal.Decimal
		CondoFee    decimal.Decimal
		Rooms       int
		Bathrooms   int
		HasGarage   bool
		HasPool     bool
		IsPenthouse bool
		ForRent     bool
		Link        string
		Visited     bool
		CreatedAt   time.Time
	}

	TravelComment struct {
		By   string    `json:"by"`
		Text string    `json:"text"`
		Date time.Time `json:"date"`
	}

	Travel struct {
		ID          string
		Title       string
		Destination string
		Budget      decimal.Decimal
		StartDate   time.Time
		EndDate     time.Time
		Visited     bool
		Comments    []TravelComment
		CreatedAt   time.Time
	}
)
