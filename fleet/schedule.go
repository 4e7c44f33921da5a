package fleet

import (
	"sort"
	"time"

	"github.com/snofleet/fleet-rental-api/models"
)

// WithScheduleOverride applies the read-time status projection: a scheduled
// entry for today whose window contains now, or (when upcomingSameDay is on)
// starts later today, forces the vehicle's displayed status to reserved,
// annotated with the entry's driver and window. The input slices are not
// modified and nothing is stored; callers run this on every list fetch.
//
// Date and time fields are fixed-format strings ("2006-01-02", "15:04:05"),
// so plain string comparison gives chronological order.
func WithScheduleOverride(vehicles []models.Vehicle, entries []models.ScheduleEntry, now time.Time, upcomingSameDay bool) []models.Vehicle {
	today := now.Format("2006-01-02")
	clock := now.Format("15:04:05")

	byPlate := make(map[string][]models.ScheduleEntry)
	for _, e := range entries {
		if e.Status != models.ScheduleScheduled || e.Date != today || e.VehicleAssigned == "" {
			continue
		}
		byPlate[e.VehicleAssigned] = append(byPlate[e.VehicleAssigned], e)
	}
	for plate := range byPlate {
		sort.Slice(byPlate[plate], func(i, j int) bool {
			return byPlate[plate][i].StartTime < byPlate[plate][j].StartTime
		})
	}

	out := make([]models.Vehicle, len(vehicles))
	for i, v := range vehicles {
		out[i] = v
		entry, ok := activeEntry(byPlate[v.PlateNumber], clock, upcomingSameDay)
		if !ok {
			continue
		}
		out[i].Status = models.StatusReserved
		out[i].ReservedBy = entry.DriverName
		if from, err := time.ParseInLocation("2006-01-02 15:04:05", entry.Date+" "+entry.StartTime, now.Location()); err == nil {
			out[i].ReservedFrom = &from
		}
		if to, err := time.ParseInLocation("2006-01-02 15:04:05", entry.Date+" "+entry.EndTime, now.Location()); err == nil {
			out[i].ReservedTo = &to
		}
	}
	return out
}

// activeEntry picks the entry governing the projection: an entry whose window
// contains the clock wins; otherwise the earliest upcoming entry, if the
// same-day policy allows it.
func activeEntry(entries []models.ScheduleEntry, clock string, upcomingSameDay bool) (models.ScheduleEntry, bool) {
	for _, e := range entries {
		if e.StartTime <= clock && clock <= e.EndTime {
			return e, true
		}
	}
	if upcomingSameDay {
		for _, e := range entries {
			if clock < e.StartTime {
				return e, true
			}
		}
	}
	return models.ScheduleEntry{}, false
}
