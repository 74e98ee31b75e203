package catalog

import (
	"cmp"
	"context"
	"fmt"
	"log"
	"net/url"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hotosm/odmcatalog/app/terrain"
	"github.com/hotosm/odmcatalog/app/webodm"
)

const defaultFanoutLimit = 8

// Init file defaults for shared tasks
var (
	DefaultHomeCamera = HomeCamera{North: -8, East: 158, South: -45, West: 109}
	DefaultBaseMapID  = "basemap-bing-aerial-with-labels"
)

type Options struct {
	Source LayerSource
	// Max concurrent upstream calls per stage, defaults to 8
	FanoutLimit int
}

// Pipeline discovers WebODM outputs and assembles TerriaJS catalogs.
// It keeps no state between calls and is safe for concurrent use.
type Pipeline struct {
	backend webodm.Backend
	sampler terrain.Sampler
	source  LayerSource
	limit   int
}

func NewPipeline(backend webodm.Backend, sampler terrain.Sampler, opts Options) *Pipeline {
	return &Pipeline{
		backend: backend,
		sampler: sampler,
		source:  opts.Source,
		limit:   cmp.Or(opts.FanoutLimit, defaultFanoutLimit),
	}
}

// Task returns the layers of a single task, ungrouped
func (p *Pipeline) Task(ctx context.Context, cred webodm.Credential, projectID int, taskID string) (*Document, error) {
	runID := uuid.NewString()
	task, err := p.backend.GetTask(ctx, cred, projectID, taskID)
	if err != nil {
		return nil, p.fail(runID, discoveryError("tasks", err))
	}
	task.Project = projectID

	roots := []ProjectLayers{{
		Project: webodm.Project{ID: projectID},
		Tasks:   []TaskLayers{{Task: *task}},
	}}
	nodes, err := p.run(ctx, runID, cred, ModeTask, roots)
	if err != nil {
		return nil, err
	}
	return &Document{Catalog: nodes}, nil
}

// Project returns one group per task of the project
func (p *Pipeline) Project(ctx context.Context, cred webodm.Credential, projectID int) (*Document, error) {
	runID := uuid.NewString()
	tasks, err := p.listTasks(ctx, cred, projectID)
	if err != nil {
		return nil, p.fail(runID, discoveryError("tasks", err))
	}

	roots := []ProjectLayers{{Project: webodm.Project{ID: projectID}, Tasks: tasks}}
	nodes, err := p.run(ctx, runID, cred, ModeProject, roots)
	if err != nil {
		return nil, err
	}
	return &Document{Catalog: nodes}, nil
}

// AllProjects returns every project of the caller under one root group
func (p *Pipeline) AllProjects(ctx context.Context, cred webodm.Credential) (*Document, error) {
	runID := uuid.NewString()
	projects, err := p.backend.ListProjects(ctx, cred)
	if err != nil {
		return nil, p.fail(runID, discoveryError("projects", err))
	}

	roots := make([]ProjectLayers, len(projects))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.limit)
	for i, project := range projects {
		roots[i].Project = project
		g.Go(func() error {
			tasks, err := p.listTasks(gctx, cred, project.ID)
			if err != nil {
				return err
			}
			roots[i].Tasks = tasks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, p.fail(runID, discoveryError("tasks", err))
	}

	nodes, err := p.run(ctx, runID, cred, ModeAllProjects, roots)
	if err != nil {
		return nil, err
	}
	return &Document{Catalog: nodes}, nil
}

// PublicTask returns a TerriaJS init file showing a publicly shared task
func (p *Pipeline) PublicTask(ctx context.Context, cred webodm.Credential, taskID string) (*InitDocument, error) {
	runID := uuid.NewString()
	task, err := p.backend.GetPublicTask(ctx, taskID)
	if err != nil {
		return nil, p.fail(runID, discoveryError("tasks", err))
	}
	if task.ID == "" {
		task.ID = taskID
	}

	roots := []ProjectLayers{{
		Project: webodm.Project{ID: task.Project},
		Tasks:   []TaskLayers{{Task: *task}},
	}}
	members, err := p.run(ctx, runID, cred, ModeTask, roots)
	if err != nil {
		return nil, err
	}

	return &InitDocument{
		HomeCamera: DefaultHomeCamera,
		Catalog: []Node{{
			Type:    NodeTypeGroup,
			Name:    cmp.Or(task.Name, "None"),
			Members: members,
		}},
		BaseMaps: BaseMaps{DefaultBaseMapID: DefaultBaseMapID},
	}, nil
}

// ProjectReferences lists the caller's projects as lazily loaded groups
func (p *Pipeline) ProjectReferences(ctx context.Context, cred webodm.Credential) (*Document, error) {
	runID := uuid.NewString()
	projects, err := p.backend.ListProjects(ctx, cred)
	if err != nil {
		return nil, p.fail(runID, discoveryError("projects", err))
	}

	nodes := make([]Node, 0, len(projects))
	for _, project := range projects {
		nodes = append(nodes, Node{
			Type:           NodeTypeReference,
			Name:           project.Name,
			IsGroup:        true,
			URL:            fmt.Sprintf("/terriaCatalog/projects/%d", project.ID),
			ItemProperties: &ItemProperties{Permissions: project.Permissions},
		})
	}
	return &Document{Catalog: nodes}, nil
}

// TaskReferences lists the tasks of a project that have outputs as lazily
// loaded groups
func (p *Pipeline) TaskReferences(ctx context.Context, cred webodm.Credential, projectID int) (*Document, error) {
	runID := uuid.NewString()
	tasks, err := p.listTasks(ctx, cred, projectID)
	if err != nil {
		return nil, p.fail(runID, discoveryError("tasks", err))
	}

	nodes := make([]Node, 0, len(tasks))
	for _, t := range tasks {
		nodes = append(nodes, Node{
			Type:    NodeTypeReference,
			Name:    t.Task.Name,
			IsGroup: true,
			URL:     fmt.Sprintf("/terriaCatalog/projects/%d/tasks/%s", projectID, url.PathEscape(t.Task.ID)),
		})
	}
	return &Document{Catalog: nodes}, nil
}

// listTasks returns the tasks of a project that list at least one asset
func (p *Pipeline) listTasks(ctx context.Context, cred webodm.Credential, projectID int) ([]TaskLayers, error) {
	tasks, err := p.backend.ListTasks(ctx, cred, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks of project %d: %w", projectID, err)
	}

	var out []TaskLayers
	for _, t := range tasks {
		if len(t.AvailableAssets) == 0 {
			continue
		}
		t.Project = projectID
		out = append(out, TaskLayers{Task: t})
	}
	return out, nil
}

type taskRef struct {
	projectID int
	taskID    string
}

// run takes discovered tasks through metadata, layers and framing, then
// assembles them in the given mode
func (p *Pipeline) run(ctx context.Context, runID string, cred webodm.Credential, mode Mode, roots []ProjectLayers) ([]Node, error) {
	var tasks []webodm.Task
	for _, r := range roots {
		for _, t := range r.Tasks {
			tasks = append(tasks, t.Task)
		}
	}

	slots := FetchMetadata(ctx, p.backend, cred, tasks, p.limit)

	taskByRef := make(map[taskRef]*webodm.Task, len(tasks))
	for i := range tasks {
		taskByRef[taskRef{tasks[i].Project, tasks[i].ID}] = &tasks[i]
	}

	var layers []Layer
	layersByTask := make(map[taskRef][]Layer)
	for _, slot := range slots {
		ref := taskRef{slot.Key.ProjectID, slot.Key.TaskID}
		layer, ok := p.source.Build(taskByRef[ref], slot)
		if !ok {
			if slot.Err != nil {
				log.Printf("[Pipeline run=%s] skipping %s of task %s: %v", runID, slot.Key.Kind, slot.Key.TaskID, slot.Err)
			} else {
				log.Printf("[Pipeline run=%s] skipping %s of task %s: unusable metadata", runID, slot.Key.Kind, slot.Key.TaskID)
			}
			continue
		}
		layers = append(layers, layer)
		layersByTask[ref] = append(layersByTask[ref], layer)
	}

	framings, err := SampleFraming(ctx, p.sampler, layers, p.limit)
	if err != nil {
		return nil, p.fail(runID, framingError(err))
	}

	for i := range roots {
		for j := range roots[i].Tasks {
			t := &roots[i].Tasks[j]
			t.Layers = layersByTask[taskRef{t.Task.Project, t.Task.ID}]
		}
	}

	nodes := Assemble(mode, roots, framings)
	log.Printf("[Pipeline run=%s] assembled tasks=%d slots=%d layers=%d framings=%d",
		runID, len(tasks), len(slots), len(layers), len(framings))
	return nodes, nil
}

func (p *Pipeline) fail(runID string, err *Error) *Error {
	if IsCanceled(err) {
		log.Printf("[Pipeline run=%s] canceled by caller: %v", runID, err)
	} else {
		log.Printf("[Pipeline run=%s] %s (status %d): %v", runID, err.Kind, err.Status, err)
	}
	return err
}
