package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/noah-isme/induction-api/internal/config"
	"github.com/noah-isme/induction-api/internal/database"
	"github.com/noah-isme/induction-api/internal/repository"
)

func main() {
	cfg, err := config.Load()
	errAndDie(err)

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	errAndDie(err)
	errAndDie(database.Migrate(db))

	sqlDB, err := db.DB()
	errAndDie(err)
	defer sqlDB.Close()

	cli := commandLine{
		users: repository.NewUserRepository(db),
		out:   color.Output,
	}
	if err := cli.run(os.Args); err != nil {
		if !errors.Is(err, errHelp) {
			fmt.Fprintln(color.Error, color.RedString("error: %s", err))
		}
		sqlDB.Close()
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		fmt.Fprintln(color.Error, color.RedString("fatal: %s", err))
		os.Exit(1)
	}
}
