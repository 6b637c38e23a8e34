// Package aggregate derives timelines, focus scores, and activity forecasts
// from recorded events.
package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/thebtf/lifelog/pkg/models"
)

// HourBucket summarizes one hour of activity.
type HourBucket struct {
	Hour     int      `json:"hour"`
	Count    int      `json:"count"`
	Switches int      `json:"switches"`
	Focus    int      `json:"focus"`
	Apps     []string `json:"apps"`
}

// AppCount is the number of events attributed to one application.
type AppCount struct {
	App   string `json:"app"`
	Count int    `json:"count"`
}

// Timeline is the per-hour view of a day's activity.
type Timeline struct {
	Hours       []HourBucket `json:"hours"`
	TopApps     []AppCount   `json:"top_apps"`
	FocusScore  int          `json:"focus_score"`
	TotalEvents int          `json:"total_events"`
}

// BuildTimeline groups records into hour buckets. Records are processed in
// chronological order regardless of input order. Only hours with activity
// appear in the result.
func BuildTimeline(records []*models.ActivityRecord) Timeline {
	sorted := make([]*models.ActivityRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAtEpoch < sorted[j].CreatedAtEpoch
	})

	byHour := make(map[int][]*models.ActivityRecord)
	appTotals := make(map[string]int)
	for _, rec := range sorted {
		hour := time.UnixMilli(rec.CreatedAtEpoch).Local().Hour()
		byHour[hour] = append(byHour[hour], rec)
		appTotals[rec.AppIdentity()]++
	}

	hours := make([]int, 0, len(byHour))
	for h := range byHour {
		hours = append(hours, h)
	}
	sort.Ints(hours)

	tl := Timeline{
		FocusScore:  FocusScore(sorted),
		TotalEvents: len(sorted),
	}
	for _, h := range hours {
		recs := byHour[h]
		bucket := HourBucket{
			Hour:     h,
			Count:    len(recs),
			Switches: switches(recs),
			Apps:     distinctApps(recs),
		}
		bucket.Focus = focusOf(bucket.Count, bucket.Switches)
		tl.Hours = append(tl.Hours, bucket)
	}

	tl.TopApps = rankApps(appTotals)
	return tl
}

// FocusScore measures how steady attention was over the given records as a
// percentage. Fewer app switches relative to event count scores higher. No
// records scores zero. Only records carrying an app name participate in the
// switch count, so interleaved file edits do not break a focus streak.
func FocusScore(records []*models.ActivityRecord) int {
	if len(records) == 0 {
		return 0
	}
	return focusOf(len(records), appSwitches(records))
}

// focusOf applies the switch-ratio formula. A bucket with no events counts
// as fully focused.
func focusOf(count, switchCount int) int {
	if count == 0 {
		return 100
	}
	return int(math.Round((1 - float64(switchCount)/float64(count)) * 100))
}

// appSwitches counts day-level transitions between named apps. Records
// without an app name do not advance the comparison.
func appSwitches(records []*models.ActivityRecord) int {
	var n int
	var last string
	for _, rec := range records {
		if !rec.AppName.Valid || rec.AppName.String == "" {
			continue
		}
		if last != "" && rec.AppName.String != last {
			n++
		}
		last = rec.AppName.String
	}
	return n
}

// switches counts transitions between different apps in consecutive records.
// Hour buckets fall back to the record kind as an identity.
func switches(records []*models.ActivityRecord) int {
	var n int
	for i := 1; i < len(records); i++ {
		if records[i].AppIdentity() != records[i-1].AppIdentity() {
			n++
		}
	}
	return n
}

func distinctApps(records []*models.ActivityRecord) []string {
	seen := make(map[string]bool)
	var apps []string
	for _, rec := range records {
		app := rec.AppIdentity()
		if !seen[app] {
			seen[app] = true
			apps = append(apps, app)
		}
	}
	return apps
}

func rankApps(totals map[string]int) []AppCount {
	ranked := make([]AppCount, 0, len(totals))
	for app, count := range totals {
		ranked = append(ranked, AppCount{App: app, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].App < ranked[j].App
	})
	return ranked
}
