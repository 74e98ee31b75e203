// General schemas not specific to a router

package api

import (
	"encoding/json"

	"github.com/hotosm/odmcatalog/app/catalog"
	"github.com/hotosm/odmcatalog/app/federation"
	"github.com/hotosm/odmcatalog/app/meta"
)

// General

type HealthResponse struct {
	Body struct {
		HealthStatus string `json:"status" example:"healthy"`
		Timestamp    string `json:"timestamp" example:"2025-04-05T12:00:00Z"`
	}
}

type PingResponse struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// Catalog

type CatalogResponse struct {
	AllowOrigin      string `header:"Access-Control-Allow-Origin"`
	AllowCredentials string `header:"Access-Control-Allow-Credentials"`
	Body             *catalog.Document
}

type InitDocumentResponse struct {
	AllowOrigin      string `header:"Access-Control-Allow-Origin"`
	AllowCredentials string `header:"Access-Control-Allow-Credentials"`
	Body             *catalog.InitDocument
}

type PublicCatalogsResponse struct {
	AllowOrigin      string `header:"Access-Control-Allow-Origin"`
	AllowCredentials string `header:"Access-Control-Allow-Credentials"`
	Body             *federation.Document
}

// Publication

type PublishResponse struct {
	Body json.RawMessage
}

type PublicationListResponse struct {
	Body struct {
		Publications []*meta.Publication `json:"publications"`
		Total        int                 `json:"total"`
	}
}

type PublicationResponse struct {
	Body *meta.Publication
}
