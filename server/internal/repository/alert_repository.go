package repository

import (
	"github.com/navid-fn/listing-radar/server/internal/model"
	"gorm.io/gorm"
)

type AlertRepository interface {
	GetLatestAlerts(exchange string, limit int) ([]model.ListingAlert, error)
	GetAlertCountGroupByExchange() (map[string]int, error)
}

type gormAlertRepository struct {
	db *gorm.DB
}

func NewGormAlertRepository(db *gorm.DB) AlertRepository {
	return &gormAlertRepository{db: db}
}

func (gar *gormAlertRepository) GetLatestAlerts(exchange string, limit int) ([]model.ListingAlert, error) {
	var alerts []model.ListingAlert
	query := gar.db.Model(&model.ListingAlert{})
	if exchange != "" {
		query = query.Where("exchange = ?", exchange)
	}
	err := query.Order("date_added desc, inserted_at desc").Limit(limit).Find(&alerts).Error
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

func (gar *gormAlertRepository) GetAlertCountGroupByExchange() (map[string]int, error) {
	type ExchangeCount struct {
		Exchange string
		Count    int
	}
	var rows []ExchangeCount
	err := gar.db.Model(&model.ListingAlert{}).
		Select("exchange, uniqExact(coin, ticker) as count").
		Group("exchange").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make(map[string]int, len(rows))
	for _, r := range rows {
		result[r.Exchange] = r.Count
	}
	return result, nil
}
