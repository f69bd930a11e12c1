package models

import (
	"log"

	"bitbucket.org/mmdatafocus/scrub_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&User{},
		&ScrubReport{}, &ScrubMatch{}, &ScrubDiscrepancy{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
