package api

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/hotosm/odmcatalog/app/meta"
	"github.com/hotosm/odmcatalog/app/webodm"
)

// registerPublishRoutes registers task publication and its ledger
func (a *API) registerPublishRoutes() {

	// PATCH /makeWebODMTaskPublic/{project}/{taskID} - Share a task
	huma.Register(a.api, huma.Operation{
		OperationID: "task-make-public",
		Method:      http.MethodPatch,
		Path:        "/makeWebODMTaskPublic/{project}/{taskID}",
		Summary:     "Make a WebODM task public",
		Description: "Flags the task as public in WebODM on behalf of the caller and returns the updated task.",
		Tags:        []string{"publication"},
	}, func(ctx context.Context, input *struct {
		Project int    `path:"project" doc:"WebODM project id"`
		TaskID  string `path:"taskID" doc:"WebODM task id"`
		Cookie  string `header:"Cookie" doc:"WebODM session cookies, must include csrftoken"`
	}) (*PublishResponse, error) {
		if input.Cookie == "" {
			log.Printf("PATCH /makeWebODMTaskPublic/%d/%s: no credential", input.Project, input.TaskID)
			return nil, huma.Error401Unauthorized("Unauthorized")
		}

		if !validTaskID(input.TaskID) {
			log.Printf("PATCH /makeWebODMTaskPublic/%d/%q: invalid task id", input.Project, input.TaskID)
			return nil, huma.Error404NotFound("Not Found")
		}

		task, err := a.backend.SetTaskPublic(ctx, webodm.Credential(input.Cookie), input.Project, input.TaskID)
		if err != nil {
			var upErr *webodm.UpstreamError
			if errors.As(err, &upErr) {
				log.Printf("PATCH /makeWebODMTaskPublic/%d/%s: webodm returned status=%d", input.Project, input.TaskID, upErr.StatusCode)
				return nil, huma.NewError(upErr.StatusCode, http.StatusText(upErr.StatusCode))
			}
			log.Printf("PATCH /makeWebODMTaskPublic/%d/%s: %v", input.Project, input.TaskID, err)
			return nil, huma.Error500InternalServerError("Error")
		}

		a.recordPublication(ctx, input.Project, input.TaskID, task)
		log.Printf("PATCH /makeWebODMTaskPublic/%d/%s: task is public", input.Project, input.TaskID)
		return &PublishResponse{Body: task}, nil
	})

	if a.ledger == nil {
		return
	}

	// GET /publications - Ledger of published tasks
	huma.Register(a.api, huma.Operation{
		OperationID: "publications-list",
		Method:      http.MethodGet,
		Path:        "/publications",
		Summary:     "List tasks published through this service",
		Tags:        []string{"publication"},
	}, func(ctx context.Context, input *struct {
		Project int `query:"project" doc:"Only this WebODM project (optional)"`
		Limit   int `query:"limit" default:"50" minimum:"0" maximum:"500" doc:"Max entries, 0 for all"`
	}) (*PublicationListResponse, error) {
		log.Printf("GET /publications: project=%d limit=%d", input.Project, input.Limit)
		publications, err := a.ledger.ListPublications(ctx, input.Project, input.Limit)
		if err != nil {
			log.Printf("GET /publications: failed to list publications: %v", err)
			return nil, huma.Error500InternalServerError("Failed to list publications")
		}

		resp := &PublicationListResponse{}
		resp.Body.Publications = publications
		resp.Body.Total = len(publications)
		return resp, nil
	})

	// GET /publications/{project}/{taskID} - Latest publication of a task
	huma.Register(a.api, huma.Operation{
		OperationID: "publications-latest",
		Method:      http.MethodGet,
		Path:        "/publications/{project}/{taskID}",
		Summary:     "Latest publication of a task",
		Tags:        []string{"publication"},
	}, func(ctx context.Context, input *struct {
		Project int    `path:"project" doc:"WebODM project id"`
		TaskID  string `path:"taskID" doc:"WebODM task id"`
	}) (*PublicationResponse, error) {
		if !validTaskID(input.TaskID) {
			return nil, huma.Error404NotFound("Task was never published")
		}
		log.Printf("GET /publications/%d/%s", input.Project, input.TaskID)

		publication, err := a.ledger.LatestPublication(ctx, input.Project, input.TaskID)
		if err != nil {
			log.Printf("GET /publications/%d/%s: failed to get publication: %v", input.Project, input.TaskID, err)
			return nil, huma.Error500InternalServerError("Failed to get publication")
		}
		if publication == nil {
			return nil, huma.Error404NotFound("Task was never published")
		}
		return &PublicationResponse{Body: publication}, nil
	})
}

// recordPublication stores the publication when a ledger is configured.
// A failure is logged only, the task is already public upstream.
func (a *API) recordPublication(ctx context.Context, projectID int, taskID string, task []byte) {
	if a.ledger == nil {
		return
	}
	_, err := a.ledger.RecordPublication(ctx, meta.Publication{
		ProjectID:      projectID,
		TaskID:         taskID,
		RunID:          uuid.NewString(),
		UpstreamStatus: http.StatusOK,
		TaskSnapshot:   task,
	})
	if err != nil {
		log.Printf("Warning: Failed to record publication of task %s: %v", taskID, err)
	}
}
