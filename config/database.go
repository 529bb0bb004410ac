package config

import (
	"context"
	"fmt"
	"time"

	"aula-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Database struct {
	PG          *gorm.DB
	Mongo       *mongo.Database
	mongoClient *mongo.Client
}

func ConnectDB(ctx context.Context, cfg *Config) (*Database, error) {
	// 1. PostgreSQL Connection
	gormCfg := &gorm.Config{TranslateError: true}
	if cfg.IsProduction() {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Warn)
	}
	pgDB, err := gorm.Open(postgres.Open(cfg.Postgres.DSN()), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	// 2. MongoDB Connection
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := mongoClient.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Database{
		PG:          pgDB,
		Mongo:       mongoClient.Database(cfg.Mongo.Database),
		mongoClient: mongoClient,
	}, nil
}

func (d *Database) Close(ctx context.Context) error {
	if sqlDB, err := d.PG.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return d.mongoClient.Disconnect(ctx)
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Diploma{},
	)
}

// EnsureIndexes creates the unique indexes the enrollment and attempt
// invariants rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		"enrollments": {
			{Keys: bson.D{{Key: "usuario", Value: 1}, {Key: "curso", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "curso", Value: 1}}},
		},
		"exam_attempts": {
			{Keys: bson.D{{Key: "usuario", Value: 1}, {Key: "examen", Value: 1}, {Key: "intento", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "usuario", Value: 1}, {Key: "curso", Value: 1}}},
		},
		"notifications": {
			{Keys: bson.D{{Key: "usuario", Value: 1}, {Key: "fechaCreacion", Value: -1}}},
		},
		"courses": {
			{Keys: bson.D{{Key: "activo", Value: 1}}},
		},
	}
	for coll, models := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("indexes on %s: %w", coll, err)
		}
	}
	return nil
}
