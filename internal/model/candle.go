package model

import (
	"encoding/json"
	"fmt"
)

// Candle is one historical OHLCV bar from the upstream candle endpoint.
// The wire format is a positional array: [ts, open, high, low, close, volume, turnover].
// Candles are read-only inputs once decoded.
type Candle struct {
	Timestamp string  `json:"ts"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	Turnover  float64 `json:"turnover"`
}

// UnmarshalJSON decodes the positional array form.
// The timestamp arrives either as a string or as an epoch number.
func (c *Candle) UnmarshalJSON(data []byte) error {
	var row []json.RawMessage
	if err := json.Unmarshal(data, &row); err != nil {
		return fmt.Errorf("candle: not an array: %w", err)
	}
	if len(row) < 6 {
		return fmt.Errorf("candle: expected at least 6 fields, got %d", len(row))
	}

	if err := json.Unmarshal(row[0], &c.Timestamp); err != nil {
		var epoch float64
		if err2 := json.Unmarshal(row[0], &epoch); err2 != nil {
			return fmt.Errorf("candle: bad timestamp: %w", err)
		}
		c.Timestamp = fmt.Sprintf("%.0f", epoch)
	}

	dst := []*float64{&c.Open, &c.High, &c.Low, &c.Close, &c.Volume}
	for i, d := range dst {
		if err := json.Unmarshal(row[i+1], d); err != nil {
			return fmt.Errorf("candle: bad field %d: %w", i+1, err)
		}
	}
	if len(row) > 6 {
		if err := json.Unmarshal(row[6], &c.Turnover); err != nil {
			return fmt.Errorf("candle: bad turnover: %w", err)
		}
	}
	return nil
}

// MarshalJSON encodes back to the positional array form.
func (c Candle) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{c.Timestamp, c.Open, c.High, c.Low, c.Close, c.Volume, c.Turnover})
}

// Candle intervals accepted by the upstream candle endpoint.
const (
	Interval5Min  = "5minute"
	Interval15Min = "15minute"
	Interval30Min = "30minute"
	Interval1Hour = "1hour"
	Interval4Hour = "4hour"
)

// CandleResponse is the upstream historical/candles envelope.
type CandleResponse struct {
	Status  string `json:"status"`
	Payload struct {
		Candles           []Candle `json:"candles"`
		StartTime         string   `json:"start_time"`
		EndTime           string   `json:"end_time"`
		IntervalInMinutes int      `json:"interval_in_minutes"`
	} `json:"payload"`
}
