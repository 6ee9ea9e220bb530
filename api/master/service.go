package master

import (
	"MedFieldCRM/internal/serviceiface"

	"github.com/jackc/pgx/v5/pgxpool"
)

type MasterService struct {
	config  map[string]interface{}
	pgxPool *pgxpool.Pool
}

func NewMasterService(cfg map[string]interface{}, pool *pgxpool.Pool) serviceiface.Service {
	return &MasterService{config: cfg, pgxPool: pool}
}

func (s *MasterService) Name() string {
	return "master"
}

func (s *MasterService) Start() error {
	go StartMasterService(s.pgxPool)
	return nil
}

func (s *MasterService) Stop() error {
	return nil
}
