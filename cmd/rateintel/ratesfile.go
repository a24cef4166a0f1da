package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ignite/rate-intel/internal/domain"
)

// rateRow is the import file representation of a rate record.
type rateRow struct {
	ID             string          `json:"id"`
	PropertyID     string          `json:"property_id" validate:"required"`
	RoomTypeID     string          `json:"room_type_id" validate:"required"`
	RoomTypeCode   string          `json:"room_type_code" validate:"required"`
	RatePlanID     string          `json:"rate_plan_id" validate:"required"`
	Date           string          `json:"date" validate:"required,datetime=2006-01-02"`
	Rate           decimal.Decimal `json:"rate"`
	Currency       string          `json:"currency" validate:"omitempty,len=3"`
	RoomsAvailable int             `json:"rooms_available" validate:"gte=0"`
	RoomsSold      int             `json:"rooms_sold" validate:"gte=0"`
}

var validate = validator.New()

func readRatesFile(path string) ([]domain.RateRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseRates(data)
}

func parseRates(data []byte) ([]domain.RateRecord, error) {
	var rows []rateRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse rate records: %w", err)
	}

	out := make([]domain.RateRecord, 0, len(rows))
	for i, row := range rows {
		if err := validate.Struct(row); err != nil {
			return nil, fmt.Errorf("rate record %d: %w", i, err)
		}
		if row.Rate.IsNegative() {
			return nil, fmt.Errorf("rate record %d: negative rate %s", i, row.Rate)
		}
		day, _ := time.Parse(domain.DateLayout, row.Date)
		out = append(out, domain.RateRecord{
			ID:             row.ID,
			PropertyID:     row.PropertyID,
			RoomTypeID:     row.RoomTypeID,
			RoomTypeCode:   strings.ToUpper(row.RoomTypeCode),
			RatePlanID:     row.RatePlanID,
			Date:           day,
			Rate:           row.Rate,
			Currency:       strings.ToUpper(row.Currency),
			RoomsAvailable: row.RoomsAvailable,
			RoomsSold:      row.RoomsSold,
		})
	}
	return out, nil
}
