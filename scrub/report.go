package scrub

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Reconcile runs one full scrub: normalize both sources, pair by business
// key, detect discrepancies, aggregate statistics. Pure function; safe to
// call concurrently for independent runs.
//
// If any row of either source fails normalization the run aborts with a
// *NormalizeError listing every bad row. A partial report is never
// returned.
func Reconcile(jobBossOrders, customerOrders []RawOrderRow, jobBossFileName, customerFileName, customerName, requestedBy string) (*ScrubReport, error) {
	jbRecords, jbErr := NormalizeRows(jobBossOrders)
	custRecords, custErr := NormalizeRows(customerOrders)
	if jbErr != nil || custErr != nil {
		merged := &NormalizeError{}
		var ne *NormalizeError
		if errors.As(jbErr, &ne) {
			merged.Fields = append(merged.Fields, ne.Fields...)
		}
		if errors.As(custErr, &ne) {
			merged.Fields = append(merged.Fields, ne.Fields...)
		}
		return nil, merged
	}

	pairs := Match(jbRecords, custRecords)
	for i := range pairs {
		pairs[i].Discrepancies = DetectDiscrepancies(&pairs[i])
	}

	report := &ScrubReport{
		ReportNumber:     uuid.NewString(),
		JobBossFileName:  jobBossFileName,
		CustomerFileName: customerFileName,
		CustomerName:     customerName,
		RequestedBy:      requestedBy,
		Pairs:            pairs,
		Statistics:       aggregate(pairs),
		CreatedAt:        time.Now().UTC(),
	}
	return report, nil
}

// aggregate classifies every pair once, worst discrepancy wins. The
// counters always sum back to Total.
func aggregate(pairs []MatchedPair) ScrubStatistics {
	var stats ScrubStatistics
	for i := range pairs {
		stats.Total++
		switch pairs[i].MatchType() {
		case MatchTypePerfect:
			stats.PerfectMatches++
		case MatchTypeCritical:
			stats.CriticalIssues++
		case MatchTypeHigh:
			stats.HighIssues++
		case MatchTypeMedium:
			stats.MediumIssues++
		case MatchTypeMissingFromCustomer:
			stats.MissingFromCustomer++
		case MatchTypeMissingFromJobBoss:
			stats.MissingFromJobBoss++
		}
	}
	return stats
}
