package location

import (
	"database/sql"

	"MedFieldCRM/internal/serviceiface"
)

type LocationService struct {
	config map[string]interface{}
	db     *sql.DB
}

func NewLocationService(cfg map[string]interface{}, db *sql.DB) serviceiface.Service {
	return &LocationService{config: cfg, db: db}
}

func (s *LocationService) Name() string {
	return "location"
}

func (s *LocationService) Start() error {
	go StartLocationService(s.db)
	return nil
}

func (s *LocationService) Stop() error {
	return nil
}
