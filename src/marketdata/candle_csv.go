package marketdata

import (
	"fmt"
	"os"
	"time"

	"github.com/gocarina/gocsv"
)

type CandleDTO struct {
	Timestamp string  `csv:"time"`
	Open      float64 `csv:"open"`
	High      float64 `csv:"high"`
	Low       float64 `csv:"low"`
	Close     float64 `csv:"close"`
	Volume    float64 `csv:"volume"`
}

func (dto *CandleDTO) ToModel() (Candle, error) {
	t, err := time.Parse(time.RFC3339, dto.Timestamp)
	if err != nil {
		t, err = time.Parse("2006-01-02", dto.Timestamp)
		if err != nil {
			return Candle{}, fmt.Errorf("error parsing time %q: %v", dto.Timestamp, err)
		}
	}

	return Candle{
		Timestamp: t.UTC(),
		Open:      dto.Open,
		High:      dto.High,
		Low:       dto.Low,
		Close:     dto.Close,
		Volume:    dto.Volume,
	}, nil
}

func NewCandleDTO(c Candle) *CandleDTO {
	return &CandleDTO{
		Timestamp: c.Timestamp.UTC().Format(time.RFC3339),
		Open:      c.Open,
		High:      c.High,
		Low:       c.Low,
		Close:     c.Close,
		Volume:    c.Volume,
	}
}

// LoadCandlesCSV reads bars from a csv file with time/open/high/low/close/volume
// columns. Bars are returned in file order; series construction enforces ordering.
func LoadCandlesCSV(inFile string) ([]Candle, error) {
	file, err := os.Open(inFile)
	if err != nil {
		return nil, fmt.Errorf("error opening csv file: %v", err)
	}

	defer file.Close()

	var dtos []*CandleDTO
	if err := gocsv.UnmarshalFile(file, &dtos); err != nil {
		return nil, fmt.Errorf("error unmarshalling csv file %s: %v", inFile, err)
	}

	candles := make([]Candle, 0, len(dtos))
	for i, dto := range dtos {
		c, err := dto.ToModel()
		if err != nil {
			return nil, fmt.Errorf("error converting row %d: %v", i, err)
		}

		candles = append(candles, c)
	}

	return candles, nil
}

func SaveCandlesCSV(outFile string, candles []Candle) error {
	file, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("error creating csv file: %v", err)
	}

	defer file.Close()

	dtos := make([]*CandleDTO, 0, len(candles))
	for _, c := range candles {
		dtos = append(dtos, NewCandleDTO(c))
	}

	if err := gocsv.MarshalFile(&dtos, file); err != nil {
		return fmt.Errorf("error marshalling csv file %s: %v", outFile, err)
	}

	return nil
}
