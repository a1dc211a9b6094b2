// Package planner converts a free-text goal into an executable task graph by
// backward decomposition: milestones are produced from the final outcome back
// to the first prerequisite, then expanded forward into dependency-chained
// task batches.
package planner

import (
	"time"

	"github.com/google/uuid"

	"github.com/aiqueue/aiq/pkg/models"
)

// Planner expands goals into task batches using injected rules.
type Planner struct {
	rules Rules
	// now is injectable for tests.
	now func() time.Time
}

// New creates a Planner with the given rules. Nil rules default to the
// content pipeline.
func New(rules Rules) *Planner {
	if rules == nil {
		rules = ContentPipelineRules{}
	}
	return &Planner{rules: rules, now: time.Now}
}

// Plan produces a forward-executable task list for the goal:
//  1. decompose the goal into milestones, most-future first
//  2. walk the milestones in reverse, i.e. execution order, expanding each
//     into a task batch
//  3. chain every task of a batch onto every id of the previous batch, so no
//     task becomes eligible before the whole preceding milestone is done
//
// The first batch carries no dependencies. A milestone the rules cannot
// expand yields a single back-burner placeholder so nothing is dropped.
func (p *Planner) Plan(goal string) []*models.Task {
	milestones := p.rules.Decompose(goal)

	var all []*models.Task
	var lastBatchIDs []string

	for i := len(milestones) - 1; i >= 0; i-- {
		milestone := milestones[i]
		batch := p.rules.Expand(milestone, goal)
		if len(batch) == 0 {
			batch = []*models.Task{p.placeholder(milestone)}
		}

		batchIDs := make([]string, 0, len(batch))
		for _, t := range batch {
			t.ID = uuid.New().String()
			t.Status = models.TaskStatusPending
			t.CreatedAt = p.now()
			if !t.Lane.Valid() {
				t.Lane = models.LaneBackBurner
			}
			t.DependsOn = append(t.DependsOn, lastBatchIDs...)
			batchIDs = append(batchIDs, t.ID)
		}

		all = append(all, batch...)
		lastBatchIDs = batchIDs
	}

	return all
}

// placeholder builds the fallback task for a milestone the rules do not map.
func (p *Planner) placeholder(milestone string) *models.Task {
	return &models.Task{
		Title: "Unmapped milestone: " + milestone,
		Lane:  models.LaneBackBurner,
	}
}
