package federation

import "strings"

// Catalog is a TerriaJS catalog file published by a third party.
// Its top level catalog array becomes the members of one group.
type Catalog struct {
	Name        string
	Description string
	URL         string
}

// Twin is a digital twin viewer backed by a Magda registry
type Twin struct {
	Name        string
	Description string
	// Viewer root, relative dataset urls resolve against it
	Root string
	// Upstreams only reachable through the viewer's proxy
	Proxied []ProxyRule
	// Terria item types that do not work outside the viewer
	HiddenTypes []string
}

// ProxyRule routes urls starting with Prefix through {Root}/{Via}/
type ProxyRule struct {
	Prefix string
	Via    string
}

type Sources struct {
	Catalogs []Catalog
	Twins    []Twin
}

// Config holds the upstream locations, see app/config
type Config struct {
	NationalMapURL      string
	DigitalEarthURL     string
	WaterRegulationsURL string
	NSWTwinURL          string
	VICTwinURL          string
}

const (
	nationalMapTerms  = "Please note that data from the NationalMap Catalog is subject to Terms & Conditions: https://nationalmap.gov.au/about.html#data-attribution"
	digitalEarthTerms = "Please note that data from the Digital Earth Catalog is subject to Terms & Conditions: https://maps.dea.ga.gov.au/about#data-attribution"
	nswTerms          = "Please note that data from the NSW Spatial Digital Twin Catalog is subject to Terms & Conditions: https://nsw.digitaltwin.terria.io/about.html#data-attribution"
	vicTerms          = "Please note that data from the Digital Twin Victoria Catalog is subject to Terms & Conditions: https://www.land.vic.gov.au/maps-and-spatial/digital-twin-victoria/dtv-platform/data-and-terms#heading-4"
)

// DefaultSources lists the public Australian catalogs offered next to
// WebODM outputs, in display order
func DefaultSources(cfg Config) Sources {
	return Sources{
		Catalogs: []Catalog{
			{Name: "NationalMap Catalog", Description: nationalMapTerms, URL: cfg.NationalMapURL},
			{Name: "Digital Earth Catalog", Description: digitalEarthTerms, URL: cfg.DigitalEarthURL},
			{Name: "Digital Earth Catalog", Description: digitalEarthTerms, URL: cfg.WaterRegulationsURL},
		},
		Twins: []Twin{
			{
				Name:        "NSW Spatial Digital Twin Catalog",
				Description: nswTerms,
				Root:        strings.TrimSuffix(cfg.NSWTwinURL, "/"),
				Proxied: []ProxyRule{
					{Prefix: "https://api.transport.nsw.gov.au", Via: "proxy"},
					{Prefix: "https://nsw-digital-twin-data.terria.io/geoserver/ows", Via: "proxy"},
				},
				HiddenTypes: []string{"nsw-fuel-price", "air-quality-json", "nsw-rfs", "nsw-traffic"},
			},
			{
				Name:        "Digital Twin Victoria Catalog",
				Description: vicTerms,
				Root:        strings.TrimSuffix(cfg.VICTwinURL, "/"),
				Proxied: []ProxyRule{
					{Prefix: "https://map.aurin.org.au/geoserver/ows", Via: "proxy/_1d"},
				},
			},
		},
	}
}

// rewriteURL makes a dataset url usable from outside the twin viewer
func (t Twin) rewriteURL(u string) string {
	if strings.HasPrefix(u, "/") {
		return t.Root + u
	}
	for _, rule := range t.Proxied {
		if strings.HasPrefix(u, rule.Prefix) {
			return t.Root + "/" + rule.Via + "/" + u
		}
	}
	return u
}

func (t Twin) hides(itemType string) bool {
	for _, h := range t.HiddenTypes {
		if h == itemType {
			return true
		}
	}
	return false
}
