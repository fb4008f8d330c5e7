// Package scheduler implements the two-stage defense scheduling pipeline:
// panel assignment followed by slot scheduling, with greedy room allocation
// and infeasibility diagnostics. Both stages formulate binary integer
// programs over the solver.Engine contract.
package scheduler

import (
	"sort"

	"github.com/acadops/defense-scheduler-api/internal/models"
)

// BuildTopicGroups maps each topic to the panelists holding expertise in it.
// Panelists appear in input order; topics within one panelist's row are
// visited alphabetically so the result is deterministic.
func BuildTopicGroups(panelists []models.Panelist, expertise models.ExpertiseMatrix) models.TopicGroups {
	groups := make(models.TopicGroups)
	for _, panelist := range panelists {
		row := expertise[panelist.ID]
		if len(row) == 0 {
			continue
		}
		topics := make([]string, 0, len(row))
		for topic, has := range row {
			if has {
				topics = append(topics, topic)
			}
		}
		sort.Strings(topics)
		for _, topic := range topics {
			groups[topic] = append(groups[topic], panelist.ID)
		}
	}
	return groups
}
