package discovery

import (
	"fmt"
	"strings"

	"github.com/scholarscout/discovery-cli/internal/model"
)

// minConfidence is the acceptance threshold for extractions. Outcomes with
// no confidence at all are treated as 0 and rejected.
const minConfidence = 0.4

// priorityRecheckDays is the recheck cadence applied to expired recurring
// opportunities so the next cycle is picked up quickly.
const priorityRecheckDays = 3

// rankingMarkers flag listicle and ranking articles, which describe many
// opportunities at once and never extract into a usable single record.
var rankingMarkers = []string{"best ", "top ", "ranking", "list of"}

// Decision is the outcome of acceptance filtering for one extraction.
type Decision struct {
	Accept bool
	Reason string
	Record *model.OpportunityRecord
}

// Decide applies the acceptance rules to an extraction outcome. Accepted
// decisions carry the record, possibly mutated with a priority recheck
// for expired recurring opportunities.
func Decide(outcome *model.ExtractionOutcome) Decision {
	if !outcome.Success {
		return reject(fmt.Sprintf("Extraction failed: %s", outcome.Error))
	}

	rec := outcome.Record
	if rec == nil {
		return reject("No card extracted")
	}

	confidence := outcome.ConfidenceOrZero()
	if confidence < minConfidence {
		return reject(fmt.Sprintf("Low confidence: %.2f", confidence))
	}

	if rec.Title == "Unknown Opportunity" || rec.Organization == "" || rec.Organization == "Unknown" {
		return reject("Generic extraction")
	}

	titleLower := strings.ToLower(rec.Title)
	for _, marker := range rankingMarkers {
		if strings.Contains(titleLower, marker) {
			return reject(fmt.Sprintf("Ranking article: %s", rec.Title))
		}
	}

	if rec.IsExpired {
		if !rec.TimingType.Recurring() {
			return reject("Expired one-time opportunity (deadline/end date in the past)")
		}
		// The next cycle usually appears on the same page.
		rec.RecheckDays = priorityRecheckDays
	}

	return Decision{Accept: true, Record: rec}
}

func reject(reason string) Decision {
	return Decision{Reason: reason}
}
