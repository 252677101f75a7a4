package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phenrril/shopapi/internal/config"
)

func TestDSN(t *testing.T) {
	t.Parallel()

	cfg := config.Config{
		DBHost: "db", DBPort: "5433", DBUser: "shop",
		DBPassword: "secret", DBName: "shopapi", DBSSLMode: "disable",
	}
	assert.Equal(t,
		"host=db user=shop password=secret dbname=shopapi port=5433 sslmode=disable",
		cfg.DSN())

	cfg.DBDSN = "postgres://explicit"
	assert.Equal(t, "postgres://explicit", cfg.DSN())
}

func TestStaffAllowed(t *testing.T) {
	t.Parallel()

	cfg := config.Config{StaffEmails: []string{"Admin@Example.com", " ops@example.com "}}
	assert.True(t, cfg.StaffAllowed("admin@example.com"))
	assert.True(t, cfg.StaffAllowed("OPS@example.com"))
	assert.False(t, cfg.StaffAllowed("stranger@example.com"))
	assert.False(t, cfg.StaffAllowed(""))
}
