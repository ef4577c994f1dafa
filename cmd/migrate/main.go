package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Applies the schema files matched by migrations.source, in name order,
// against migrations.dsn (DATABASE_DSN overrides). Plain and idempotent:
// every file is expected to be written with IF NOT EXISTS guards.

func loadFiles() ([]string, error) {
	patterns := viper.GetStringSlice("migrations.source")
	if len(patterns) == 0 {
		return nil, errors.New("has no migrations.source in config")
	}
	files := make([]string, 0)
	for _, pattern := range patterns {
		f, err := filepath.Glob(pattern)
		if err != nil {
			return nil, errors.Wrap(err, "get file glob")
		}
		files = append(files, f...)
	}
	sort.Strings(files)
	return files, nil
}

func apply(ctx context.Context, conn *pgx.Conn, file string) error {
	content, err := os.ReadFile(file)
	if err != nil {
		return errors.Wrap(err, "read migration")
	}
	if _, err := conn.Exec(ctx, string(content)); err != nil {
		return errors.Wrap(err, "exec migration")
	}
	return nil
}

func main() {
	viper.SetConfigName(".migrate")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	dsn := viper.GetString("migrations.dsn")
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		dsn = v
	}
	if dsn == "" {
		panic("has no migrations.dsn in config and DATABASE_DSN is empty")
	}

	files, err := loadFiles()
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		panic(errors.Wrap(err, "connect"))
	}
	defer func() {
		_ = conn.Close(ctx)
	}()

	for _, file := range files {
		if err := apply(ctx, conn, file); err != nil {
			panic(errors.Wrap(err, file))
		}
		fmt.Printf("%s file complete\n", file)
	}
	fmt.Println("done")
}
