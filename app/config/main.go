// Expose env var config vars, with defaults

package config

import (
	"cmp"
	"log"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var dotenvOnce sync.Once

// getenv reads an env var, loading an optional .env file first.
// Values already set in the environment always win over the file.
func getenv(key string) string {
	dotenvOnce.Do(func() {
		if err := godotenv.Load(); err == nil {
			log.Println("Loaded environment from .env")
		}
	})
	return os.Getenv(key)
}

// Base URL of the WebODM instance (without the /api suffix)
var WEBODM_URL = cmp.Or(
	getenv("WEBODM_URL"),
	"https://asdc.cloud.edu.au",
)

// Entwine point cloud tileset server, defaults to the ept. subdomain of WEBODM_URL
var EPT_SERVER_URL = cmp.Or(
	getenv("EPT_SERVER_URL"),
	defaultEptServer(WEBODM_URL),
)

// Elevation lookup service (open-elevation compatible).
// Leave empty to frame layers against the bare ellipsoid.
var TERRAIN_URL = cmp.Or(
	getenv("TERRAIN_URL"),
	"",
)

var WEBODM_TIMEOUT = cmp.Or(
	getenv("WEBODM_TIMEOUT"),
	"10s",
)
var TERRAIN_TIMEOUT = cmp.Or(
	getenv("TERRAIN_TIMEOUT"),
	"10s",
)

// Max concurrent upstream calls per pipeline stage
var FANOUT_LIMIT = cmp.Or(
	getenv("FANOUT_LIMIT"),
	"8",
)

// Optional, enables the publication ledger
var ODMCATALOG_DATABASE_URL = cmp.Or(
	getenv("ODMCATALOG_DATABASE_URL"),
	"",
)

// How long the publication ledger keeps entries, 0 keeps them forever
var PUBLICATION_RETENTION = cmp.Or(
	getenv("PUBLICATION_RETENTION"),
	"2160h",
)

// Third party catalogs offered by /publicCatalogs.json
var NATIONALMAP_CATALOG_URL = cmp.Or(
	getenv("NATIONALMAP_CATALOG_URL"),
	"https://terria-catalogs-public.storage.googleapis.com/nationalmap/prod.json",
)
var DEA_CATALOG_URL = cmp.Or(
	getenv("DEA_CATALOG_URL"),
	"https://raw.githubusercontent.com/GeoscienceAustralia/dea-config/master/dev/terria/dea-maps-v8.json",
)
var WATER_REGULATIONS_CATALOG_URL = cmp.Or(
	getenv("WATER_REGULATIONS_CATALOG_URL"),
	"https://terria-catalogs-public.storage.googleapis.com/de-australia/water-regulations-data/prod.json",
)

// Digital twin viewers, their Magda registries live under /api/v0/registry
var NSW_DIGITAL_TWIN_URL = cmp.Or(
	getenv("NSW_DIGITAL_TWIN_URL"),
	"https://nsw.digitaltwin.terria.io",
)
var VIC_DIGITAL_TWIN_URL = cmp.Or(
	getenv("VIC_DIGITAL_TWIN_URL"),
	"https://vic.digitaltwin.terria.io",
)

var PUBLIC_CATALOG_TIMEOUT = cmp.Or(
	getenv("PUBLIC_CATALOG_TIMEOUT"),
	"30s",
)

func defaultEptServer(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://ept." + u.Host
}

// WebODMTimeout is the per-call timeout for backend requests
func WebODMTimeout() time.Duration {
	return parseDuration("WEBODM_TIMEOUT", WEBODM_TIMEOUT, 10*time.Second)
}

// TerrainTimeout is the per-call timeout for elevation lookups
func TerrainTimeout() time.Duration {
	return parseDuration("TERRAIN_TIMEOUT", TERRAIN_TIMEOUT, 10*time.Second)
}

// PublicCatalogTimeout is the per-call timeout for third party catalogs
func PublicCatalogTimeout() time.Duration {
	return parseDuration("PUBLIC_CATALOG_TIMEOUT", PUBLIC_CATALOG_TIMEOUT, 30*time.Second)
}

// PublicationRetention is 0 when ledger entries are never pruned
func PublicationRetention() time.Duration {
	if PUBLICATION_RETENTION == "0" {
		return 0
	}
	return parseDuration("PUBLICATION_RETENTION", PUBLICATION_RETENTION, 90*24*time.Hour)
}

func FanoutLimit() int {
	n, err := strconv.Atoi(FANOUT_LIMIT)
	if err != nil || n < 1 {
		log.Printf("Warning: invalid FANOUT_LIMIT=%q, using 8", FANOUT_LIMIT)
		return 8
	}
	return n
}

func parseDuration(name, val string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid %s=%q, using %s", name, val, def)
		return def
	}
	return d
}

func ValidateEnv() {
	required := []struct {
		val  string
		name string
	}{
		{WEBODM_URL, "WEBODM_URL"},
		{EPT_SERVER_URL, "EPT_SERVER_URL"},
	}

	for _, envVar := range required {
		if envVar.val == "" {
			log.Fatalf("%s is required", envVar.name)
		}
	}

	if _, err := url.Parse(WEBODM_URL); err != nil {
		log.Fatalf("WEBODM_URL is not a valid URL: %v", err)
	}

	// Optional pieces degrade rather than fail
	if TERRAIN_URL == "" {
		log.Println("Warning: TERRAIN_URL not set. Layers will be framed against the WGS84 ellipsoid (height 0).")
	}
	if ODMCATALOG_DATABASE_URL == "" {
		log.Println("Warning: ODMCATALOG_DATABASE_URL not set. Task publications will not be recorded.")
	}
}
