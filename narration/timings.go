package narration

import (
	"bufio"
	"bytes"
	"encoding/json"

	"reddit-reads-pipeline/types"
)

// parseTimingLines reads word timings from provider stdout, one JSON object
// per line. Lines that are not timing objects are ignored so providers can
// log freely.
func parseTimingLines(out []byte) []types.WordTiming {
	var timings []types.WordTiming
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		var t types.WordTiming
		if err := json.Unmarshal(line, &t); err != nil || t.Text == "" {
			continue
		}
		timings = append(timings, t)
	}
	return timings
}
