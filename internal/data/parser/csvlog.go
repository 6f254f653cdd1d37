package parser

import "regexp"

// newCSVLogParser handles comma-separated signal logs:
//
//	2025-10-21 23:08:27.995,B1ACNV13309-104@D19,B,62
//	2025-10-21 23:08:27.995,B1ACPT15001-104@D19,Status,Error
func newCSVLogParser() *templateParser {
	return newTemplateParser(lineFormat{
		name: "csvlog",
		pattern: regexp.MustCompile(
			`^(?P<ts>\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d+)\s*,\s*` +
				`(?P<path>[^,]+)\s*,\s*` +
				`(?P<signal>[^,]+)\s*,\s*` +
				`(?P<value>.*?)\s*$`),
		sampleSize: 5,
	})
}
