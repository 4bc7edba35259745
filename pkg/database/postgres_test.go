package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-timetable-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "sma", Password: "secret", Name: "timetable"})
	assert.Equal(t, "host=db port=5432 user=sma password=secret dbname=timetable sslmode=disable", dsn)

	dsn = DSN(config.DatabaseConfig{Host: "db", Port: 5433, User: "sma", Name: "timetable", SSLMode: "require"})
	assert.Contains(t, dsn, "sslmode=require")
	assert.Contains(t, dsn, "port=5433")
}
