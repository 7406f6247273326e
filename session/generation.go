// Copyright 2026 The Greenroom Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"sort"

	"github.com/greenroom-live/greenroom/wire"
)

// Batch is the tracked state of one asset-generation batch.
type Batch struct {
	ID       string
	Status   wire.BatchStatus
	Progress float64
}

// generationTracker folds GenerationEvent streams into per-batch
// state. Progress never regresses while a batch is running, and a
// terminal status absorbs every later event for that batch until it
// is evicted.
type generationTracker struct {
	batches map[string]*Batch
}

func newGenerationTracker() *generationTracker {
	return &generationTracker{batches: make(map[string]*Batch)}
}

// apply folds one event in. Reports whether observable state
// changed.
func (g *generationTracker) apply(ev wire.GenerationEvent) bool {
	b, ok := g.batches[ev.BatchID]
	if !ok {
		p := clampProgress(ev.Progress)
		if ev.Status == wire.BatchCompleted {
			p = 1
		}
		b = &Batch{ID: ev.BatchID, Status: ev.Status, Progress: p}
		g.batches[ev.BatchID] = b
		return true
	}
	if b.Status.Terminal() {
		return false
	}
	changed := false
	if ev.Status != b.Status {
		b.Status = ev.Status
		changed = true
	}
	p := clampProgress(ev.Progress)
	if b.Status == wire.BatchCompleted {
		p = 1
	}
	if p > b.Progress {
		b.Progress = p
		changed = true
	}
	return changed
}

// evict forgets a batch. Safe for unknown IDs.
func (g *generationTracker) evict(batchID string) bool {
	if _, ok := g.batches[batchID]; !ok {
		return false
	}
	delete(g.batches, batchID)
	return true
}

// snapshot returns the tracked batches sorted by ID.
func (g *generationTracker) snapshot() []Batch {
	if len(g.batches) == 0 {
		return nil
	}
	out := make([]Batch, 0, len(g.batches))
	for _, b := range g.batches {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (g *generationTracker) reset() {
	g.batches = make(map[string]*Batch)
}

func clampProgress(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
