package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/hotosm/odmcatalog/app/catalog"
	"github.com/hotosm/odmcatalog/app/webodm"
)

// registerCatalogRoutes registers the TerriaJS catalog routes
func (a *API) registerCatalogRoutes() {

	// GET /terriaCatalog.json - Every project of the caller
	huma.Register(a.api, huma.Operation{
		OperationID: "catalog-all-projects",
		Method:      http.MethodGet,
		Path:        "/terriaCatalog.json",
		Summary:     "Catalog of all projects",
		Description: "One group per project, one group per task, one layer per task output.",
		Tags:        []string{"catalog"},
	}, func(ctx context.Context, input *struct {
		Cookie string `header:"Cookie" doc:"WebODM session cookies"`
		Origin string `header:"Origin" doc:"Echoed back for credentialed CORS requests"`
	}) (*CatalogResponse, error) {
		log.Printf("GET /terriaCatalog.json: credential_provided=%t", input.Cookie != "")
		doc, err := a.pipeline.AllProjects(ctx, webodm.Credential(input.Cookie))
		if err != nil {
			return nil, toHTTPError(err)
		}
		return catalogResponse(doc, input.Origin), nil
	})

	// GET /terriaCatalog/projects - Project references
	huma.Register(a.api, huma.Operation{
		OperationID: "catalog-project-references",
		Method:      http.MethodGet,
		Path:        "/terriaCatalog/projects",
		Summary:     "List projects as catalog references",
		Description: "Each project is a lazily loaded group pointing at its own catalog.",
		Tags:        []string{"catalog"},
	}, func(ctx context.Context, input *struct {
		Cookie string `header:"Cookie" doc:"WebODM session cookies"`
		Origin string `header:"Origin" doc:"Echoed back for credentialed CORS requests"`
	}) (*CatalogResponse, error) {
		log.Printf("GET /terriaCatalog/projects: credential_provided=%t", input.Cookie != "")
		doc, err := a.pipeline.ProjectReferences(ctx, webodm.Credential(input.Cookie))
		if err != nil {
			return nil, toHTTPError(err)
		}
		return catalogResponse(doc, input.Origin), nil
	})

	// GET /terriaCatalog/projects/{projectId} - Single project
	huma.Register(a.api, huma.Operation{
		OperationID: "catalog-project",
		Method:      http.MethodGet,
		Path:        "/terriaCatalog/projects/{projectId}",
		Summary:     "Catalog of a project",
		Description: "One group per task with outputs.",
		Tags:        []string{"catalog"},
	}, func(ctx context.Context, input *struct {
		ProjectID int    `path:"projectId" doc:"WebODM project id"`
		Cookie    string `header:"Cookie" doc:"WebODM session cookies"`
		Origin    string `header:"Origin" doc:"Echoed back for credentialed CORS requests"`
	}) (*CatalogResponse, error) {
		log.Printf("GET /terriaCatalog/projects/%d: credential_provided=%t", input.ProjectID, input.Cookie != "")
		doc, err := a.pipeline.Project(ctx, webodm.Credential(input.Cookie), input.ProjectID)
		if err != nil {
			return nil, toHTTPError(err)
		}
		return catalogResponse(doc, input.Origin), nil
	})

	// GET /terriaCatalog/projects/{projectId}/references - Task references
	huma.Register(a.api, huma.Operation{
		OperationID: "catalog-task-references",
		Method:      http.MethodGet,
		Path:        "/terriaCatalog/projects/{projectId}/references",
		Summary:     "List tasks of a project as catalog references",
		Tags:        []string{"catalog"},
	}, func(ctx context.Context, input *struct {
		ProjectID int    `path:"projectId" doc:"WebODM project id"`
		Cookie    string `header:"Cookie" doc:"WebODM session cookies"`
		Origin    string `header:"Origin" doc:"Echoed back for credentialed CORS requests"`
	}) (*CatalogResponse, error) {
		log.Printf("GET /terriaCatalog/projects/%d/references: credential_provided=%t", input.ProjectID, input.Cookie != "")
		doc, err := a.pipeline.TaskReferences(ctx, webodm.Credential(input.Cookie), input.ProjectID)
		if err != nil {
			return nil, toHTTPError(err)
		}
		return catalogResponse(doc, input.Origin), nil
	})

	// GET /terriaCatalog/projects/{projectId}/tasks/{taskId} - Single task
	huma.Register(a.api, huma.Operation{
		OperationID: "catalog-task",
		Method:      http.MethodGet,
		Path:        "/terriaCatalog/projects/{projectId}/tasks/{taskId}",
		Summary:     "Catalog of a task",
		Description: "The layers of a single task, ungrouped.",
		Tags:        []string{"catalog"},
	}, func(ctx context.Context, input *struct {
		ProjectID int    `path:"projectId" doc:"WebODM project id"`
		TaskID    string `path:"taskId" doc:"WebODM task id"`
		Cookie    string `header:"Cookie" doc:"WebODM session cookies"`
		Origin    string `header:"Origin" doc:"Echoed back for credentialed CORS requests"`
	}) (*CatalogResponse, error) {
		if !validTaskID(input.TaskID) {
			log.Printf("GET /terriaCatalog/projects/%d/tasks/%q: invalid task id", input.ProjectID, input.TaskID)
			return nil, huma.Error404NotFound("No tasks were found")
		}
		log.Printf("GET /terriaCatalog/projects/%d/tasks/%s: credential_provided=%t", input.ProjectID, input.TaskID, input.Cookie != "")
		doc, err := a.pipeline.Task(ctx, webodm.Credential(input.Cookie), input.ProjectID, input.TaskID)
		if err != nil {
			return nil, toHTTPError(err)
		}
		return catalogResponse(doc, input.Origin), nil
	})

	// GET /terria/publictask/{taskId}.json - Init file for a shared task
	huma.Register(a.api, huma.Operation{
		OperationID: "catalog-public-task",
		Method:      http.MethodGet,
		Path:        "/terria/publictask/{taskFile}",
		Summary:     "TerriaJS init file of a public task",
		Description: "taskFile is the task id followed by .json",
		Tags:        []string{"catalog"},
	}, func(ctx context.Context, input *struct {
		TaskFile string `path:"taskFile" doc:"Task id with a .json suffix" example:"6f2d7c1e-8a4b-4c55-9d1e-2f3a4b5c6d7e.json"`
		Cookie   string `header:"Cookie" doc:"WebODM session cookies"`
		Origin   string `header:"Origin" doc:"Echoed back for credentialed CORS requests"`
	}) (*InitDocumentResponse, error) {
		taskID, ok := strings.CutSuffix(input.TaskFile, ".json")
		if !ok || !validTaskID(taskID) {
			return nil, huma.Error404NotFound("No init file " + input.TaskFile)
		}
		log.Printf("GET /terria/publictask/%s.json", taskID)

		doc, err := a.pipeline.PublicTask(ctx, webodm.Credential(input.Cookie), taskID)
		if err != nil {
			return nil, toHTTPError(err)
		}
		resp := &InitDocumentResponse{Body: doc}
		resp.AllowOrigin, resp.AllowCredentials = corsHeaders(input.Origin)
		return resp, nil
	})

	if a.public == nil {
		return
	}

	// GET /publicCatalogs.json - Third party catalogs
	huma.Register(a.api, huma.Operation{
		OperationID: "catalog-public-catalogs",
		Method:      http.MethodGet,
		Path:        "/publicCatalogs.json",
		Summary:     "Public Australian catalogs",
		Description: "NationalMap, Digital Earth and the NSW and Victorian digital twins, one group each.",
		Tags:        []string{"catalog"},
	}, func(ctx context.Context, input *struct {
		Origin string `header:"Origin" doc:"Echoed back for credentialed CORS requests"`
	}) (*PublicCatalogsResponse, error) {
		log.Printf("GET /publicCatalogs.json")
		doc, err := a.public.Build(ctx)
		if err != nil {
			log.Printf("GET /publicCatalogs.json: %v", err)
			return nil, huma.Error502BadGateway("An error occurred while loading public catalogs")
		}
		resp := &PublicCatalogsResponse{Body: doc}
		resp.AllowOrigin, resp.AllowCredentials = corsHeaders(input.Origin)
		return resp, nil
	})
}

// validTaskID accepts WebODM task ids, which are UUIDs in canonical form
func validTaskID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

func catalogResponse(doc *catalog.Document, origin string) *CatalogResponse {
	resp := &CatalogResponse{Body: doc}
	resp.AllowOrigin, resp.AllowCredentials = corsHeaders(origin)
	return resp
}

// corsHeaders allows credentialed requests from the calling viewer
func corsHeaders(origin string) (allowOrigin, allowCredentials string) {
	if origin == "" {
		return "", ""
	}
	return origin, "true"
}

// toHTTPError turns a pipeline failure into a huma error with its status
func toHTTPError(err error) error {
	var catErr *catalog.Error
	if errors.As(err, &catErr) {
		return huma.NewError(catErr.Status, catErr.Message)
	}
	return huma.Error500InternalServerError("An error occurred while building the catalog")
}
