package catalog

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/hotosm/odmcatalog/app/webodm"
)

// MetadataSlot is the outcome of one metadata request.
// Exactly one of PointCloud, Raster or Err is set.
type MetadataSlot struct {
	Key        LayerKey
	PointCloud *webodm.PointCloudMetadata
	Raster     *webodm.RasterMetadata
	Err        error
}

// FetchMetadata requests the metadata of every available asset of every
// task, at most limit at a time. Slots come back ordered by task, then by
// AssetKinds; kinds a task does not list get no slot. A failed request only
// marks its own slot.
func FetchMetadata(ctx context.Context, backend webodm.Backend, cred webodm.Credential, tasks []webodm.Task, limit int) []MetadataSlot {
	var slots []MetadataSlot
	for _, task := range tasks {
		for _, kind := range AssetKinds {
			if !task.HasAsset(kind.Asset()) {
				continue
			}
			slots = append(slots, MetadataSlot{
				Key: LayerKey{ProjectID: task.Project, TaskID: task.ID, Kind: kind},
			})
		}
	}
	if len(slots) == 0 {
		return nil
	}

	// Plain group, no shared context: one failure must not cancel siblings
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := range slots {
		slot := &slots[i]
		g.Go(func() error {
			fetchSlot(ctx, backend, cred, slot)
			return nil
		})
	}
	g.Wait()

	return slots
}

func fetchSlot(ctx context.Context, backend webodm.Backend, cred webodm.Credential, slot *MetadataSlot) {
	key := slot.Key
	if key.Kind == PointCloud {
		md, err := backend.GetPointCloudMetadata(ctx, cred, key.ProjectID, key.TaskID)
		if err != nil {
			slot.Err = err
			return
		}
		slot.PointCloud = md
		return
	}

	md, err := backend.GetRasterMetadata(ctx, cred, key.ProjectID, key.TaskID, key.Kind.Endpoint())
	if err != nil {
		slot.Err = err
		return
	}
	slot.Raster = md
}
