package registry

import (
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/jiaming2012/strategy-lab/src/logger"
)

// EntryRecord is the persisted shape of an Entry.
type EntryRecord struct {
	gorm.Model
	GraphID        string  `gorm:"column:graph_id;type:text;uniqueIndex;not null"`
	BestFitness    float64 `gorm:"column:best_fitness;type:numeric;not null"`
	EvalCount      int     `gorm:"column:eval_count;not null"`
	LastGeneration int     `gorm:"column:last_generation;not null"`
}

func (r *EntryRecord) ToEntry() Entry {
	return Entry{
		GraphID:        r.GraphID,
		BestFitness:    r.BestFitness,
		EvalCount:      r.EvalCount,
		LastGeneration: r.LastGeneration,
	}
}

// GormStore persists entries in Postgres, so registries on different hosts
// can share one evaluation history.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&EntryRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &GormStore{db: db}, nil
}

func NewGormStoreWithUrl(url string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(url), &gorm.Config{
		Logger: logger.NewLogrusLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return NewGormStore(db)
}

func (s *GormStore) Get(id string) (Entry, bool, error) {
	var record EntryRecord

	if err := s.db.Where("graph_id = ?", id).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Entry{}, false, nil
		}

		return Entry{}, false, fmt.Errorf("failed to query registry entry: %w", err)
	}

	return record.ToEntry(), true, nil
}

func (s *GormStore) Put(entry Entry) error {
	var record EntryRecord

	err := s.db.Where("graph_id = ?", entry.GraphID).First(&record).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to query registry entry: %w", err)
		}

		record = EntryRecord{
			GraphID:        entry.GraphID,
			BestFitness:    entry.BestFitness,
			EvalCount:      entry.EvalCount,
			LastGeneration: entry.LastGeneration,
		}

		if err := s.db.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to create registry entry: %w", err)
		}

		return nil
	}

	record.BestFitness = entry.BestFitness
	record.EvalCount = entry.EvalCount
	record.LastGeneration = entry.LastGeneration

	if err := s.db.Save(&record).Error; err != nil {
		return fmt.Errorf("failed to update registry entry: %w", err)
	}

	return nil
}

func (s *GormStore) List() ([]Entry, error) {
	var records []EntryRecord

	if err := s.db.Order("graph_id asc").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list registry entries: %w", err)
	}

	entries := make([]Entry, 0, len(records))
	for _, record := range records {
		entries = append(entries, record.ToEntry())
	}

	return entries, nil
}
