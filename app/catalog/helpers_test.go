package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/hotosm/odmcatalog/app/geo"
	"github.com/hotosm/odmcatalog/app/terrain"
	"github.com/hotosm/odmcatalog/app/webodm"
)

const (
	testBaseURL = "http://webodm.test"
	testEptURL  = "http://ept.webodm.test"
)

var testSource = LayerSource{BaseURL: testBaseURL, EptServerURL: testEptURL}

// fakeBackend serves canned WebODM answers and records calls
type fakeBackend struct {
	mu    sync.Mutex
	calls []string

	projects    []webodm.Project
	projectsErr error
	tasks       map[int][]webodm.Task
	tasksErr    map[int]error
	publicTasks map[string]*webodm.Task

	// keyed by task id
	pointClouds map[string]*webodm.PointCloudMetadata
	// keyed by "task/endpoint"
	rasters map[string]*webodm.RasterMetadata
	// keyed by "task/endpoint", "task/pointcloud" for point clouds
	metadataErr map[string]error
}

var _ webodm.Backend = (*fakeBackend)(nil)

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		tasks:       map[int][]webodm.Task{},
		tasksErr:    map[int]error{},
		publicTasks: map[string]*webodm.Task{},
		pointClouds: map[string]*webodm.PointCloudMetadata{},
		rasters:     map[string]*webodm.RasterMetadata{},
		metadataErr: map[string]error{},
	}
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) ListProjects(ctx context.Context, cred webodm.Credential) ([]webodm.Project, error) {
	f.record("ListProjects")
	if f.projectsErr != nil {
		return nil, f.projectsErr
	}
	return f.projects, nil
}

func (f *fakeBackend) ListTasks(ctx context.Context, cred webodm.Credential, projectID int) ([]webodm.Task, error) {
	f.record(fmt.Sprintf("ListTasks %d", projectID))
	if err := f.tasksErr[projectID]; err != nil {
		return nil, err
	}
	return f.tasks[projectID], nil
}

func (f *fakeBackend) GetTask(ctx context.Context, cred webodm.Credential, projectID int, taskID string) (*webodm.Task, error) {
	f.record(fmt.Sprintf("GetTask %d/%s", projectID, taskID))
	if err := f.tasksErr[projectID]; err != nil {
		return nil, err
	}
	for _, t := range f.tasks[projectID] {
		if t.ID == taskID {
			return &t, nil
		}
	}
	return nil, notFound()
}

func (f *fakeBackend) GetPublicTask(ctx context.Context, taskID string) (*webodm.Task, error) {
	f.record("GetPublicTask " + taskID)
	t, ok := f.publicTasks[taskID]
	if !ok {
		return nil, notFound()
	}
	copied := *t
	return &copied, nil
}

func (f *fakeBackend) GetPointCloudMetadata(ctx context.Context, cred webodm.Credential, projectID int, taskID string) (*webodm.PointCloudMetadata, error) {
	f.record("GetPointCloudMetadata " + taskID)
	if err := f.metadataErr[taskID+"/pointcloud"]; err != nil {
		return nil, err
	}
	md, ok := f.pointClouds[taskID]
	if !ok {
		return nil, notFound()
	}
	return md, nil
}

func (f *fakeBackend) GetRasterMetadata(ctx context.Context, cred webodm.Credential, projectID int, taskID, asset string) (*webodm.RasterMetadata, error) {
	key := taskID + "/" + asset
	f.record("GetRasterMetadata " + key)
	if err := f.metadataErr[key]; err != nil {
		return nil, err
	}
	md, ok := f.rasters[key]
	if !ok {
		return nil, notFound()
	}
	return md, nil
}

func (f *fakeBackend) SetTaskPublic(ctx context.Context, cred webodm.Credential, projectID int, taskID string) (json.RawMessage, error) {
	f.record(fmt.Sprintf("SetTaskPublic %d/%s", projectID, taskID))
	return json.RawMessage(`{"public":true}`), nil
}

func notFound() error {
	return &webodm.UpstreamError{StatusCode: http.StatusNotFound, Status: "404 Not Found"}
}

func ptr(f float64) *float64 {
	return &f
}

func rgbSchema(max *float64) *webodm.PointCloudMetadata {
	return &webodm.PointCloudMetadata{Schema: []webodm.SchemaEntry{
		{Name: "X"}, {Name: "Y"}, {Name: "Z"},
		{Name: "Red", Maximum: max},
		{Name: "Green", Maximum: max},
		{Name: "Blue", Maximum: max},
	}}
}

// rasterMetadata describes a raster covering bounds, centred in it
func rasterMetadata(west, south, east, north float64) *webodm.RasterMetadata {
	return &webodm.RasterMetadata{
		Bounds:     webodm.Bounds{Value: []float64{west, south, east, north}},
		MaxZoom:    21,
		Statistics: webodm.BandStatistics{1: {Min: 0, Max: 255}},
		Center:     []float64{(west + east) / 2, (south + north) / 2, 18},
	}
}

// terrainFunc adapts a function to terrain.Sampler
type terrainFunc func(points []geo.Cartographic) ([]geo.Cartographic, error)

func (f terrainFunc) SampleHeights(_ context.Context, points []geo.Cartographic) ([]geo.Cartographic, error) {
	return f(points)
}

// slopedTerrain rises with longitude so every rectangle frames differently
var slopedTerrain = terrainFunc(func(points []geo.Cartographic) ([]geo.Cartographic, error) {
	out := make([]geo.Cartographic, len(points))
	for i, p := range points {
		out[i] = geo.Cartographic{Longitude: p.Longitude, Latitude: p.Latitude, Height: 10 * (p.Longitude + p.Latitude)}
	}
	return out, nil
})

type mockSampler struct {
	mock.Mock
}

var _ terrain.Sampler = (*mockSampler)(nil)

func (m *mockSampler) SampleHeights(ctx context.Context, points []geo.Cartographic) ([]geo.Cartographic, error) {
	args := m.Called(ctx, points)
	var out []geo.Cartographic
	if v := args.Get(0); v != nil {
		out = v.([]geo.Cartographic)
	}
	return out, args.Error(1)
}
