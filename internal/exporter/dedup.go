package exporter

import "calexport/internal/models"

// Deduplicate keeps the first occurrence of every (ID, STARTDATE, TITLE)
// combination, in input order. The myevents endpoint may return repeats.
func Deduplicate(events []models.Event) []models.Event {
	seen := make(map[models.Key]struct{}, len(events))
	unique := make([]models.Event, 0, len(events))
	for _, e := range events {
		k := e.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, e)
	}
	return unique
}
