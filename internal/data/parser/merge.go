package parser

import (
	"sort"

	"github.com/plcscope/plcscope/internal/core/model"
)

// MergeParsedLogs combines several parsed logs into one: entries are
// concatenated and re-sorted chronologically, lookups are unioned, and the
// merged range spans the earliest start to the latest end. Returns nil when
// there is nothing to merge.
func MergeParsedLogs(logs []*model.ParsedLog) *model.ParsedLog {
	var nonNil []*model.ParsedLog
	for _, l := range logs {
		if l != nil {
			nonNil = append(nonNil, l)
		}
	}
	if len(nonNil) == 0 {
		return nil
	}

	var entries []model.LogEntry
	var combined *model.TimeRange
	for _, l := range nonNil {
		entries = append(entries, l.Entries...)
		if l.TimeRange == nil {
			continue
		}
		if combined == nil {
			tr := *l.TimeRange
			combined = &tr
			continue
		}
		if l.TimeRange.Start.Before(combined.Start) {
			combined.Start = l.TimeRange.Start
		}
		if l.TimeRange.End.After(combined.End) {
			combined.End = l.TimeRange.End
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})

	return model.NewParsedLog(entries, combined)
}

// MergeParseResults combines per-file results into one, tagging every error
// with its originating file. Files that failed without reporting anything
// get a synthetic error so the failure stays visible.
func MergeParseResults(resultsByFile map[string]model.ParseResult) model.ParseResult {
	paths := make([]string, 0, len(resultsByFile))
	for path := range resultsByFile {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var logs []*model.ParsedLog
	var errs []model.ParseError

	for _, path := range paths {
		result := resultsByFile[path]
		if result.Data != nil {
			logs = append(logs, result.Data)
		}

		for _, e := range result.Errors {
			if e.FilePath == "" {
				e.FilePath = path
			}
			errs = append(errs, e)
		}

		if !result.Success() && len(result.Errors) == 0 {
			errs = append(errs, model.ParseError{
				Line:     0,
				Reason:   "parsing failed with no additional details",
				FilePath: path,
			})
		}
	}

	return model.ParseResult{Data: MergeParsedLogs(logs), Errors: errs}
}
