package scheduler

import (
	"fmt"

	"github.com/acadops/defense-scheduler-api/internal/models"
)

// AssignRooms allocates rooms greedily: entries sharing a (date, time) bucket
// get R1, R2, ... in input order, so concurrent defenses never collide. The
// returned count is the peak number of rooms in use at any one time, which is
// the room inventory the schedule demands.
func AssignRooms(entries []models.ScheduleEntry) ([]models.ScheduleEntry, int) {
	type bucket struct {
		date string
		time string
	}

	allocated := make([]models.ScheduleEntry, len(entries))
	occupancy := make(map[bucket]int)
	maxConcurrent := 0
	for i, entry := range entries {
		key := bucket{date: entry.DefenseDate, time: entry.TimeRange}
		occupancy[key]++
		entry.Room = fmt.Sprintf("R%d", occupancy[key])
		allocated[i] = entry
		if occupancy[key] > maxConcurrent {
			maxConcurrent = occupancy[key]
		}
	}
	return allocated, maxConcurrent
}
