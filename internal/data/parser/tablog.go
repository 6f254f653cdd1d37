package parser

import "regexp"

// newTabLogParser handles the tab-delimited trace format, where each line
// carries a leading and a trailing timestamp:
//
//	2025-09-22 13:00:00.199 [] CellB/Assembly/Robot-02@Backup	OUTPUT1:CLAMP_ENGAGED	OUT	ON		Station-12	OK	2025-09-22 13:00:00.201
func newTabLogParser() *templateParser {
	return newTemplateParser(lineFormat{
		name: "tablog",
		pattern: regexp.MustCompile(
			`^(?P<ts>\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d+)\s\[\]\s` +
				`(?P<path>[^\t]+)\t` +
				`(?P<signal>[^\t]+)\t` +
				`(?P<direction>[^\t]*)\t` +
				`(?P<value>[^\t]*)\t` +
				`(?P<blank>[^\t]*)\t` +
				`(?P<location>[^\t]*)\t` +
				`(?P<flag1>[^\t]*)` +
				`(?:\t(?P<flag2>[^\t]*))?` +
				`\t(?P<ts2>\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d+)\s*$`),
		sampleSize: 5,
	})
}
