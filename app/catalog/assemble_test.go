package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hotosm/odmcatalog/app/webodm"
)

func sampleRoots() []ProjectLayers {
	ortho := rasterLayer("t1", Orthophoto, 100, -30)
	ortho.Name = "First - Orthophoto"
	pc := pointCloudLayer("t1")
	pc.Name = "First - Point Cloud"
	dsm := rasterLayer("t2", DSM, 120, -20)
	dsm.Name = "Second - DSM"

	return []ProjectLayers{
		{
			Project: webodm.Project{ID: 1, Name: "Alpha"},
			Tasks: []TaskLayers{
				{Task: webodm.Task{ID: "t1", Name: "First"}, Layers: []Layer{pc, ortho}},
				{Task: webodm.Task{ID: "t0", Name: "Nothing usable"}},
				{Task: webodm.Task{ID: "t2", Name: "Second"}, Layers: []Layer{dsm}},
			},
		},
		{
			Project: webodm.Project{ID: 2, Name: "Empty"},
			Tasks:   []TaskLayers{{Task: webodm.Task{ID: "t3", Name: "Failed"}}},
		},
	}
}

func TestAssemble_Task(t *testing.T) {
	roots := sampleRoots()
	framings := map[LayerKey]CameraFraming{
		roots[0].Tasks[0].Layers[1].Key: {TargetLongitude: 1, Range: 5},
	}

	nodes := Assemble(ModeTask, roots[:1], framings)
	require.Len(t, nodes, 3)

	assert.Equal(t, NodeType3DTiles, nodes[0].Type)
	assert.Nil(t, nodes[0].IdealZoom)
	assert.Nil(t, nodes[0].Rectangle)

	assert.Equal(t, NodeTypeImagery, nodes[1].Type)
	require.NotNil(t, nodes[1].IdealZoom)
	assert.Equal(t, 5.0, nodes[1].IdealZoom.LookAt.Range)
	require.Len(t, nodes[1].Info, 1)
	assert.Equal(t, "webODM Properties", nodes[1].Info[0].Name)

	// No framing was computed for the DSM
	assert.Nil(t, nodes[2].IdealZoom)
}

func TestAssemble_ProjectOmitsEmptyTasks(t *testing.T) {
	nodes := Assemble(ModeProject, sampleRoots()[:1], nil)
	require.Len(t, nodes, 2)
	assert.Equal(t, "First", nodes[0].Name)
	assert.Equal(t, NodeTypeGroup, nodes[0].Type)
	assert.Len(t, nodes[0].Members, 2)
	assert.Equal(t, "Second", nodes[1].Name)
}

func TestAssemble_AllProjectsOmitsEmptyProjects(t *testing.T) {
	nodes := Assemble(ModeAllProjects, sampleRoots(), nil)
	require.Len(t, nodes, 1)

	root := nodes[0]
	assert.Equal(t, RootGroupName, root.Name)
	require.Len(t, root.Members, 1)
	assert.Equal(t, "Alpha", root.Members[0].Name)
	assert.Len(t, root.Members[0].Members, 2)
}

func TestAssemble_EmptyCatalogIsNotNull(t *testing.T) {
	nodes := Assemble(ModeProject, nil, nil)
	assert.NotNil(t, nodes)
	assert.Empty(t, nodes)
}
