package app

import (
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/go-overtime-admin/go-overtime-admin/internal/config"
	"github.com/go-overtime-admin/go-overtime-admin/internal/db/dsn"
	"github.com/go-overtime-admin/go-overtime-admin/internal/logger"
)

// setupCLI reads the configuration, initializes console logging and opens
// the database for the operator commands (initdb, user, group).
func setupCLI() (*gorm.DB, error) {
	if cfg, err = config.ReadConfig(configPath); err != nil {
		return nil, err
	}

	logCfg := cfg.Log
	logCfg.Console.Enabled = true

	if err = logger.Init(logCfg); err != nil {
		return nil, err
	}

	return gorm.Open(gormmysql.Open(dsn.Create(&cfg)), &gorm.Config{})
}
