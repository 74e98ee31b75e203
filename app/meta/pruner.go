package meta

import (
	"context"
	"log"
	"time"
)

// Pruner drops ledger entries past their retention
type Pruner struct {
	store     *Store
	retention time.Duration
}

func NewPruner(s *Store, retention time.Duration) *Pruner {
	return &Pruner{store: s, retention: retention}
}

// Start prunes once per interval until ctx is done
func (p *Pruner) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[Pruner] Stopping publication pruning loop")
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *Pruner) prune(ctx context.Context) {
	deleted, err := p.store.PrunePublications(ctx, time.Now().Add(-p.retention))
	if err != nil {
		log.Printf("[Pruner] Failed to prune publications: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("[Pruner] Removed %d publications older than %s", deleted, p.retention)
	}
}
