package reconcile

import (
	"fmt"

	"github.com/memodeck/memodeck/internal/deck"
	"github.com/memodeck/memodeck/internal/domain"
	"github.com/memodeck/memodeck/internal/ingest"
	"github.com/memodeck/memodeck/internal/storage"
)

// ImportSummary reports the outcome of importing external card
// records.
type ImportSummary struct {
	Imported int
	Skipped  int // records that did not look like card data at all
	Failures []ingest.Failure
}

// ImportRecords loads externally-sourced card records into the store.
// Records that fail the cheap shape pre-check are skipped; the rest go
// through strict validation, one failure per bad record, indexed
// against the input. Valid records must also carry a question field
// for the card's content; answer and context are optional.
func ImportRecords(db *storage.DB, recs []ingest.Record) ImportSummary {
	var sum ImportSummary

	for i, rec := range recs {
		if !ingest.LooksLikeCard(rec) {
			sum.Skipped++
			continue
		}

		state, err := ingest.Card(rec)
		if err != nil {
			sum.Failures = append(sum.Failures, ingest.Failure{Index: i, Message: err.Error(), Record: rec})
			continue
		}

		question, _ := rec["question"].(string)
		if question == "" {
			sum.Failures = append(sum.Failures, ingest.Failure{
				Index:   i,
				Message: `field "question" is missing`,
				Record:  rec,
			})
			continue
		}
		answer, _ := rec["answer"].(string)
		context, _ := rec["context"].(string)

		card := domain.Card{Question: question, Answer: answer, Context: context}
		card.Fingerprint = deck.Fingerprint(card)

		existing, err := db.FindCardByFingerprint(card.Fingerprint)
		if err != nil {
			sum.Failures = append(sum.Failures, ingest.Failure{Index: i, Message: err.Error(), Record: rec})
			continue
		}
		if existing != nil {
			sum.Failures = append(sum.Failures, ingest.Failure{
				Index:   i,
				Message: fmt.Sprintf("card %s already stored", card.Fingerprint),
				Record:  rec,
			})
			continue
		}

		if err := db.ImportCard(card, state, 0); err != nil {
			sum.Failures = append(sum.Failures, ingest.Failure{Index: i, Message: err.Error(), Record: rec})
			continue
		}
		sum.Imported++
	}
	return sum
}
