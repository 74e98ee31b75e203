package webodm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 5*time.Second)
}

func TestListProjects_ForwardsCredential(t *testing.T) {
	client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/projects/", r.URL.Path)
		assert.Equal(t, "-created_at", r.URL.Query().Get("ordering"))
		assert.Equal(t, "sessionid=abc; csrftoken=xyz", r.Header.Get("Cookie"))
		w.Write([]byte(`[{"id": 2, "name": "Newer"}, {"id": 1, "name": "Older"}]`))
	})

	projects, err := client.ListProjects(context.Background(), "sessionid=abc; csrftoken=xyz")
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, 2, projects[0].ID)
	assert.Equal(t, "Older", projects[1].Name)
}

func TestGetTask_FillsProject(t *testing.T) {
	client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/projects/7/tasks/abc-123/", r.URL.Path)
		w.Write([]byte(`{"id": "abc-123", "name": "Survey", "public": true, "available_assets": ["orthophoto.tif"]}`))
	})

	task, err := client.GetTask(context.Background(), "", 7, "abc-123")
	require.NoError(t, err)
	assert.Equal(t, 7, task.Project)
	assert.True(t, task.Public)
	assert.True(t, task.HasAsset("orthophoto.tif"))
	assert.False(t, task.HasAsset("dsm.tif"))
}

func TestTaskIDIsEscaped(t *testing.T) {
	var uris []string
	client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		uris = append(uris, r.URL.RequestURI())
		w.Write([]byte(`{"id": "x"}`))
	})
	ctx := context.Background()

	_, err := client.GetTask(ctx, "", 1, "abc/../../../users")
	require.NoError(t, err)
	_, err = client.GetTask(ctx, "", 1, "abc?evil=1")
	require.NoError(t, err)
	_, err = client.GetPublicTask(ctx, "../admin")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/api/projects/1/tasks/abc%2F..%2F..%2F..%2Fusers/",
		"/api/projects/1/tasks/abc%3Fevil=1/",
		"/public/task/..%2Fadmin/json",
	}, uris)
	assert.Equal(t, "/api/projects/1/tasks/a%2Fb/assets/entwine_pointcloud/ept.json", PointCloudMetadataPath(1, "a/b"))
}

func TestGetPublicTask_NoCredential(t *testing.T) {
	client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/public/task/abc/json", r.URL.Path)
		assert.Empty(t, r.Header.Get("Cookie"))
		w.Write([]byte(`{"id": "abc", "name": "Shared", "project": 3, "available_assets": []}`))
	})

	task, err := client.GetPublicTask(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, 3, task.Project)
}

func TestUpstreamError(t *testing.T) {
	client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail": "Not found."}`))
	})

	_, err := client.ListTasks(context.Background(), "", 99)
	require.Error(t, err)

	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusNotFound, upErr.StatusCode)
	assert.Contains(t, upErr.Body, "Not found")
	assert.True(t, IsNotFound(err))
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	client := NewClient(srv.URL, time.Second)
	srv.Close()

	_, err := client.ListProjects(context.Background(), "")
	require.Error(t, err)

	var trErr *TransportError
	assert.True(t, errors.As(err, &trErr))
	assert.False(t, IsNotFound(err))
}

func TestDecodeFailureIsTransportError(t *testing.T) {
	client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>login</html>`))
	})

	_, err := client.ListProjects(context.Background(), "")
	var trErr *TransportError
	assert.True(t, errors.As(err, &trErr))
}

func TestRasterMetadata(t *testing.T) {
	client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/projects/1/tasks/t1/dsm/metadata", r.URL.Path)
		w.Write([]byte(`{
			"bounds": {"value": [100, -30, 101, -29]},
			"maxzoom": 21,
			"statistics": {"1": {"min": 12.5, "max": 80.25}},
			"center": [100.5, -29.5, 18]
		}`))
	})

	md, err := client.GetRasterMetadata(context.Background(), "", 1, "t1", "dsm")
	require.NoError(t, err)
	assert.Equal(t, []float64{100, -30, 101, -29}, md.Bounds.Value)
	assert.Equal(t, 21, md.MaxZoom)
	assert.Equal(t, BandStats{Min: 12.5, Max: 80.25}, md.Statistics[1])
	assert.Equal(t, []float64{100.5, -29.5, 18}, md.Center)
}

func TestPointCloudMetadata(t *testing.T) {
	client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/projects/1/tasks/t1/assets/entwine_pointcloud/ept.json", r.URL.Path)
		w.Write([]byte(`{"schema": [{"name": "X", "type": "signed", "size": 4}, {"name": "Red", "type": "unsigned", "size": 2, "minimum": 0, "maximum": 255}]}`))
	})

	md, err := client.GetPointCloudMetadata(context.Background(), "", 1, "t1")
	require.NoError(t, err)
	require.Len(t, md.Schema, 2)
	assert.Nil(t, md.Schema[0].Maximum)
	require.NotNil(t, md.Schema[1].Maximum)
	assert.Equal(t, 255.0, *md.Schema[1].Maximum)
}

func TestSetTaskPublic(t *testing.T) {
	client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/projects/4/tasks/t9/", r.URL.Path)
		assert.Equal(t, "tok123", r.Header.Get("X-CSRFToken"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("Referer"))

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"public": true}`, string(body))
		w.Write([]byte(`{"id": "t9", "public": true}`))
	})

	raw, err := client.SetTaskPublic(context.Background(), "sessionid=s; csrftoken=tok123", 4, "t9")
	require.NoError(t, err)

	var task Task
	require.NoError(t, json.Unmarshal(raw, &task))
	assert.True(t, task.Public)
}

func TestCSRFToken(t *testing.T) {
	tests := []struct {
		name     string
		cred     Credential
		expected string
	}{
		{"present", "sessionid=a; csrftoken=b", "b"},
		{"absent", "sessionid=a", ""},
		{"empty", "", ""},
		{"lenient", "bad cookie; csrftoken=c", "c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, csrfToken(tt.cred))
		})
	}
}

func TestBandStatistics(t *testing.T) {
	tests := []struct {
		name  string
		input string
		bands []int
	}{
		{"object", `{"1": {"min": 0, "max": 255}, "2": {"min": 1, "max": 2}}`, []int{1, 2}},
		{"array", `[{"min": 0, "max": 1}, {"min": 0, "max": 255}]`, []int{0, 1}},
		{"single band array", `[{"min": 0, "max": 1}]`, []int{0}},
		{"empty", `{}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stats BandStatistics
			require.NoError(t, json.Unmarshal([]byte(tt.input), &stats))
			assert.Len(t, stats, len(tt.bands))
			for _, b := range tt.bands {
				assert.Contains(t, stats, b)
			}
		})
	}
}
