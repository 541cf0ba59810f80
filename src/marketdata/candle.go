package marketdata

import (
	"time"
)

type ICandle interface {
	GetTimestamp() time.Time
	GetOpen() float64
	GetHigh() float64
	GetLow() float64
	GetClose() float64
	GetVolume() float64
}

type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

func (c Candle) GetTimestamp() time.Time {
	return c.Timestamp
}

func (c Candle) GetOpen() float64 {
	return c.Open
}

func (c Candle) GetHigh() float64 {
	return c.High
}

func (c Candle) GetLow() float64 {
	return c.Low
}

func (c Candle) GetClose() float64 {
	return c.Close
}

func (c Candle) GetVolume() float64 {
	return c.Volume
}

func NewCandleFrom(c ICandle) Candle {
	return Candle{
		Timestamp: c.GetTimestamp(),
		Open:      c.GetOpen(),
		High:      c.GetHigh(),
		Low:       c.GetLow(),
		Close:     c.GetClose(),
		Volume:    c.GetVolume(),
	}
}
