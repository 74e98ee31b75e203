package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/hotosm/odmcatalog/app/catalog"
	"github.com/hotosm/odmcatalog/app/meta"
	"github.com/hotosm/odmcatalog/app/terrain"
	"github.com/hotosm/odmcatalog/app/webodm"
	"github.com/hotosm/odmcatalog/testutil"
)

const testSession = "sessionid=abc123; csrftoken=tok42"

const (
	surveyTaskID = "7c2f1a9e-4b3d-4e6a-9f21-0d5c8e3b6a14"
	queuedTaskID = "e8a41b2c-5d6f-4a7b-8c9d-1e2f3a4b5c6d"
)

type mockLedger struct {
	mock.Mock
}

var _ PublicationLedger = (*mockLedger)(nil)

func (m *mockLedger) RecordPublication(ctx context.Context, p meta.Publication) (*meta.Publication, error) {
	args := m.Called(ctx, p)
	saved, _ := args.Get(0).(*meta.Publication)
	return saved, args.Error(1)
}

func (m *mockLedger) ListPublications(ctx context.Context, projectID int, limit int) ([]*meta.Publication, error) {
	args := m.Called(ctx, projectID, limit)
	list, _ := args.Get(0).([]*meta.Publication)
	return list, args.Error(1)
}

func (m *mockLedger) LatestPublication(ctx context.Context, projectID int, taskID string) (*meta.Publication, error) {
	args := m.Called(ctx, projectID, taskID)
	p, _ := args.Get(0).(*meta.Publication)
	return p, args.Error(1)
}

func (m *mockLedger) HealthCheck(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// testAPI wires the API to a fake WebODM. ledger may be nil.
func testAPI(t *testing.T, ledger PublicationLedger) (*testutil.FakeWebODM, http.Handler) {
	t.Helper()

	fake := testutil.NewFakeWebODM(t)
	client := webodm.NewClient(fake.URL, 5*time.Second)
	pipeline := catalog.NewPipeline(client, terrain.EllipsoidSampler{}, catalog.Options{
		Source: catalog.LayerSource{
			BaseURL:      fake.URL,
			EptServerURL: "http://ept.webodm.test",
		},
		FanoutLimit: 4,
	})

	_, handler := NewAPI(pipeline, client, ledger, nil)
	return fake, handler
}

// seedProject serves project 1 with a task holding a point cloud and an
// orthophoto, and a queued task without outputs
func seedProject(t *testing.T, fake *testutil.FakeWebODM) {
	t.Helper()

	fake.HandleJSON(t, http.MethodGet, "/api/projects/?ordering=-created_at", []map[string]any{
		{"id": 1, "name": "Alpha", "permissions": []string{"view", "change"}},
	})

	survey := map[string]any{
		"id":               surveyTaskID,
		"name":             "Survey",
		"public":           false,
		"project":          1,
		"available_assets": []string{"georeferenced_model.laz", "orthophoto.tif", "all.zip"},
	}
	fake.HandleJSON(t, http.MethodGet, "/api/projects/1/tasks/?ordering=-created_at", []map[string]any{
		survey,
		{"id": queuedTaskID, "name": "Queued", "project": 1, "available_assets": []string{}},
	})
	fake.HandleJSON(t, http.MethodGet, "/api/projects/1/tasks/" + surveyTaskID + "/", survey)

	fake.Handle(http.MethodGet, "/api/projects/1/tasks/" + surveyTaskID + "/assets/entwine_pointcloud/ept.json", http.StatusOK,
		`{"schema":[{"name":"X","type":"signed","size":4},{"name":"Red","type":"unsigned","size":2,"maximum":65535},{"name":"Green","type":"unsigned","size":2},{"name":"Blue","type":"unsigned","size":2}]}`)
	fake.Handle(http.MethodGet, "/api/projects/1/tasks/" + surveyTaskID + "/orthophoto/metadata", http.StatusOK,
		`{"bounds":{"value":[100,-30,101,-29]},"maxzoom":21,"minzoom":14,"statistics":{"1":{"min":3,"max":250}},"center":[100.5,-29.5,18]}`)
}

func do(handler http.Handler, method, path, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}
