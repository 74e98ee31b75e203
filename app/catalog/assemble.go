package catalog

import (
	"github.com/hotosm/odmcatalog/app/webodm"
)

// Mode selects how layers are grouped
type Mode int

const (
	// ModeTask lists the layers of a task without grouping
	ModeTask Mode = iota
	// ModeProject puts the layers of each task in a group named after it
	ModeProject
	// ModeAllProjects nests task groups in project groups under one root
	ModeAllProjects
)

// RootGroupName names the root group of ModeAllProjects
const RootGroupName = "WebODM Projects"

// TaskLayers is a task and the layers built for it, in AssetKinds order
type TaskLayers struct {
	Task   webodm.Task
	Layers []Layer
}

type ProjectLayers struct {
	Project webodm.Project
	Tasks   []TaskLayers
}

// Assemble builds the catalog tree. Order follows roots and, inside a task,
// the layer order. Tasks without layers and projects without tasks left are
// omitted from groups.
func Assemble(mode Mode, roots []ProjectLayers, framings map[LayerKey]CameraFraming) []Node {
	nodes := []Node{}

	switch mode {
	case ModeTask:
		for _, p := range roots {
			for _, t := range p.Tasks {
				nodes = append(nodes, layerNodes(t.Layers, framings)...)
			}
		}

	case ModeProject:
		for _, p := range roots {
			nodes = append(nodes, taskGroups(p.Tasks, framings)...)
		}

	case ModeAllProjects:
		root := Node{Type: NodeTypeGroup, Name: RootGroupName}
		for _, p := range roots {
			members := taskGroups(p.Tasks, framings)
			if len(members) == 0 {
				continue
			}
			root.Members = append(root.Members, Node{
				Type:    NodeTypeGroup,
				Name:    p.Project.Name,
				Members: members,
			})
		}
		nodes = append(nodes, root)
	}

	return nodes
}

func taskGroups(tasks []TaskLayers, framings map[LayerKey]CameraFraming) []Node {
	var groups []Node
	for _, t := range tasks {
		if len(t.Layers) == 0 {
			continue
		}
		groups = append(groups, Node{
			Type:    NodeTypeGroup,
			Name:    t.Task.Name,
			Members: layerNodes(t.Layers, framings),
		})
	}
	return groups
}

func layerNodes(layers []Layer, framings map[LayerKey]CameraFraming) []Node {
	nodes := make([]Node, 0, len(layers))
	for _, l := range layers {
		nodes = append(nodes, layerNode(l, framings))
	}
	return nodes
}

func layerNode(l Layer, framings map[LayerKey]CameraFraming) Node {
	info := []InfoSection{{
		Name:            "webODM Properties",
		ContentAsObject: TaskVisibility{Public: l.Public},
	}}

	if !l.Kind().IsRaster() {
		return Node{
			Type: NodeType3DTiles,
			Name: l.Name,
			URL:  l.URL,
			Info: info,
		}
	}

	maxLevel := l.MaximumLevel
	rect := l.Rectangle
	node := Node{
		Type:         NodeTypeImagery,
		Name:         l.Name,
		URL:          l.URL,
		MaximumLevel: &maxLevel,
		Rectangle:    &rect,
		Info:         info,
	}
	if framing, ok := framings[l.Key]; ok {
		node.IdealZoom = &IdealZoom{LookAt: framing}
	}
	return node
}
