package db

import (
	"errors"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var Instance *gorm.DB

// Open connects to MySQL if mysqlDSN is set, otherwise to the SQLite file
func Open(mysqlDSN, sqliteFile string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if mysqlDSN != "" {
		dialector = mysql.Open(mysqlDSN)
	} else if sqliteFile != "" {
		dialector = sqlite.Open(sqliteFile)
	} else {
		return nil, errors.New("neither MySQL DSN nor SQLite file configured")
	}
	return gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		Logger:                 logger.Default.LogMode(logger.Warn),
	})
}

func Init(mysqlDSN, sqliteFile string) {
	db, err := Open(mysqlDSN, sqliteFile)
	if err != nil || db == nil {
		panic(err)
	}
	Instance = db
}
