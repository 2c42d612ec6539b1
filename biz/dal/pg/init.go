package pg

import (
	"context"
	"fmt"

	"horizon-finance/biz/model"
	"horizon-finance/conf"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var PostgresClient *pgxpool.Pool
var GormDB *gorm.DB

func Init() {
	pgConf := conf.GetConf().Postgres
	pool, err := pgxpool.New(context.Background(), pgConf.DSN)
	if err != nil {
		panic(fmt.Sprintf("failed to connect to postgres: %v", err))
	}
	if err := pool.Ping(context.Background()); err != nil {
		panic(fmt.Sprintf("failed to ping postgres: %v", err))
	}
	PostgresClient = pool

	if err := InitGorm(); err != nil {
		panic(fmt.Sprintf("failed to init gorm: %v", err))
	}
	// 自动迁移表结构
	if err := AutoMigrate(GormDB); err != nil {
		panic(fmt.Sprintf("failed to auto migrate: %v", err))
	}
	hlog.Infof("postgres ready")
}

func InitGorm() error {
	dsn := conf.GetConf().Postgres.DSN
	level := logger.Warn
	if conf.GetEnv() != "online" {
		level = logger.Info
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return err
	}
	GormDB = db
	return nil
}

func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return gorm.ErrInvalidDB
	}
	return db.AutoMigrate(
		&model.User{},
		&model.Portfolio{},
		&model.Asset{},
		&model.Position{},
		&model.Transaction{},
	)
}

// Ping 检查连接池是否可用
func Ping(ctx context.Context) error {
	if PostgresClient == nil {
		return fmt.Errorf("postgres pool not initialized")
	}
	return PostgresClient.Ping(ctx)
}

func Close() {
	if PostgresClient != nil {
		PostgresClient.Close()
	}
	if GormDB != nil {
		if sqlDB, err := GormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
