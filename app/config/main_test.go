package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultEptServer(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		expected string
	}{
		{"https host", "https://asdc.cloud.edu.au", "https://ept.asdc.cloud.edu.au"},
		{"http with port", "http://localhost:8000", "http://ept.localhost:8000"},
		{"no host", "not a url", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, defaultEptServer(tt.base))
		})
	}
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 3*time.Second, parseDuration("X", "3s", time.Second))
	assert.Equal(t, time.Second, parseDuration("X", "bogus", time.Second))
	assert.Equal(t, time.Second, parseDuration("X", "-2s", time.Second))
}

func TestFanoutLimit(t *testing.T) {
	orig := FANOUT_LIMIT
	defer func() { FANOUT_LIMIT = orig }()

	FANOUT_LIMIT = "4"
	assert.Equal(t, 4, FanoutLimit())

	FANOUT_LIMIT = "0"
	assert.Equal(t, 8, FanoutLimit())
}

func TestPublicationRetention(t *testing.T) {
	orig := PUBLICATION_RETENTION
	defer func() { PUBLICATION_RETENTION = orig }()

	PUBLICATION_RETENTION = "0"
	assert.Zero(t, PublicationRetention())

	PUBLICATION_RETENTION = "48h"
	assert.Equal(t, 48*time.Hour, PublicationRetention())

	PUBLICATION_RETENTION = "soon"
	assert.Equal(t, 90*24*time.Hour, PublicationRetention())
}

func TestPublicCatalogTimeout(t *testing.T) {
	orig := PUBLIC_CATALOG_TIMEOUT
	defer func() { PUBLIC_CATALOG_TIMEOUT = orig }()

	PUBLIC_CATALOG_TIMEOUT = "45s"
	assert.Equal(t, 45*time.Second, PublicCatalogTimeout())

	PUBLIC_CATALOG_TIMEOUT = "soon"
	assert.Equal(t, 30*time.Second, PublicCatalogTimeout())
}
