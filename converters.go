package esmemory

import (
	"iter"
	"slices"

	dombatch "github.com/kailas-cloud/esmemory/internal/domain/batch"
	"github.com/kailas-cloud/esmemory/internal/domain/record"
)

func toDomainRecord(r *Record) record.Record {
	return record.Record{
		ID:      r.ID,
		Vector:  r.Vector,
		Tags:    record.TagsFromMap(r.Tags),
		Payload: r.Payload,
	}
}

func fromDomainRecord(r *record.Record) Record {
	out := Record{ID: r.ID, Vector: r.Vector, Payload: r.Payload}
	if !r.Tags.IsEmpty() {
		out.Tags = r.Tags.ToMap()
	}
	return out
}

func toDomainFilters(filters []Filter) []record.Filter {
	if len(filters) == 0 {
		return nil
	}
	out := make([]record.Filter, 0, len(filters))
	for _, f := range filters {
		keys := make([]string, 0, len(f))
		for k := range f {
			keys = append(keys, k)
		}
		// stable clause order keeps queries cache friendly
		slices.Sort(keys)
		df := record.NewFilter()
		for _, k := range keys {
			df.ByTag(k, f[k]...)
		}
		out = append(out, *df)
	}
	return out
}

func fromScoredSeq(seq iter.Seq2[record.Scored, error]) iter.Seq2[ScoredRecord, error] {
	return func(yield func(ScoredRecord, error) bool) {
		for s, err := range seq {
			if err != nil {
				yield(ScoredRecord{}, err)
				return
			}
			if !yield(ScoredRecord{Record: fromDomainRecord(&s.Record), Score: s.Score}, nil) {
				return
			}
		}
	}
}

func fromRecordSeq(seq iter.Seq2[record.Record, error]) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for r, err := range seq {
			if err != nil {
				yield(Record{}, err)
				return
			}
			if !yield(fromDomainRecord(&r), nil) {
				return
			}
		}
	}
}

func fromBatchResults(results []dombatch.Result) []BatchResult {
	out := make([]BatchResult, len(results))
	for i, r := range results {
		out[i] = BatchResult{ID: r.ID(), Err: r.Err()}
	}
	return out
}
