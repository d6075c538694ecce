// Package store caches gateway lookup results in Postgres so repeated
// contract and historical-bar requests can skip the round trip.
package store

import (
	"encoding/json"
	"time"

	"github.com/yanun0323/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"main/internal/schema"
	"main/pkg/conn"
)

// ContractRow caches one contract-details lookup as JSON.
type ContractRow struct {
	Key       string `gorm:"primaryKey;size:512"`
	Payload   []byte
	UpdatedAt time.Time
}

// TableName sets the contract cache table.
func (ContractRow) TableName() string { return "contract_cache" }

// BarRow caches one historical bar.
type BarRow struct {
	Key     string    `gorm:"primaryKey;size:512"`
	BarTime time.Time `gorm:"primaryKey"`
	Payload []byte
}

// TableName sets the bar cache table.
func (BarRow) TableName() string { return "bar_cache" }

// Store is the Postgres-backed lookup cache.
type Store struct {
	pg *conn.Client
}

// Open connects to Postgres and migrates the cache tables.
func Open(opt conn.Option) (*Store, error) {
	pg, err := conn.New(opt)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	if err := pg.DB().AutoMigrate(&ContractRow{}, &BarRow{}); err != nil {
		_ = pg.Close()
		return nil, errors.Wrap(err, "migrate cache tables")
	}
	return &Store{pg: pg}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.pg.Close()
}

// SaveContractDetails upserts a details lookup under key.
func (s *Store) SaveContractDetails(key string, details []schema.ContractDetails) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return errors.Wrap(err, "marshal contract details")
	}
	row := ContractRow{Key: key, Payload: payload, UpdatedAt: time.Now().UTC()}
	return s.pg.DB().Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

// LoadContractDetails returns the cached lookup for key, if present and
// younger than maxAge (0 disables the age check).
func (s *Store) LoadContractDetails(key string, maxAge time.Duration) ([]schema.ContractDetails, bool, error) {
	var row ContractRow
	err := s.pg.DB().First(&row, "key = ?", key).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if maxAge > 0 && time.Since(row.UpdatedAt) > maxAge {
		return nil, false, nil
	}
	var details []schema.ContractDetails
	if err := json.Unmarshal(row.Payload, &details); err != nil {
		return nil, false, errors.Wrap(err, "unmarshal contract details")
	}
	return details, true, nil
}

// SaveBars upserts bars under key, one row per bar time.
func (s *Store) SaveBars(key string, bars []schema.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	rows := make([]BarRow, 0, len(bars))
	for _, bar := range bars {
		payload, err := json.Marshal(bar)
		if err != nil {
			return errors.Wrap(err, "marshal bar")
		}
		rows = append(rows, BarRow{Key: key, BarTime: bar.Time.UTC(), Payload: payload})
	}
	return s.pg.DB().
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(rows, 500).Error
}

// LoadBars returns the cached bars for key within [from, to), oldest
// first. Zero bounds are open.
func (s *Store) LoadBars(key string, from, to time.Time) ([]schema.Bar, error) {
	q := s.pg.DB().Where("key = ?", key)
	if !from.IsZero() {
		q = q.Where("bar_time >= ?", from.UTC())
	}
	if !to.IsZero() {
		q = q.Where("bar_time < ?", to.UTC())
	}
	var rows []BarRow
	if err := q.Order("bar_time asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	bars := make([]schema.Bar, 0, len(rows))
	for _, row := range rows {
		var bar schema.Bar
		if err := json.Unmarshal(row.Payload, &bar); err != nil {
			return nil, errors.Wrap(err, "unmarshal bar")
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// BarsKey builds the cache key for a bar series.
func BarsKey(contract schema.Contract, size schema.BarSize, show schema.WhatToShow) string {
	return schema.CacheKey(
		schema.ContractKey{Contract: contract},
		schema.BarSizeKey{Size: size},
		schema.ShowKey{Show: show},
	)
}

// ContractsKey builds the cache key for a contract-details lookup.
func ContractsKey(contract schema.Contract) string {
	return schema.CacheKey(schema.ContractKey{Contract: contract})
}
