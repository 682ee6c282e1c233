package captions

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"reddit-reads-pipeline/types"
)

// FormatSRT renders a caption track in SubRip format: sequential index,
// HH:MM:SS,mmm --> HH:MM:SS,mmm timecodes, unit text, blank separator.
func FormatSRT(track []types.Caption) string {
	var sb strings.Builder
	for i, c := range track {
		fmt.Fprintf(&sb, "%d\n", i+1)
		fmt.Fprintf(&sb, "%s --> %s\n", formatSRTTime(c.Start), formatSRTTime(c.End))
		fmt.Fprintf(&sb, "%s\n\n", c.Text)
	}
	return sb.String()
}

// WriteSRT saves a caption track as an .srt sidecar file
func WriteSRT(track []types.Caption, path string) error {
	return os.WriteFile(path, []byte(FormatSRT(track)), 0644)
}

// ParseSRT reads SRT content back into a caption track. Sub-millisecond
// precision is lost; nothing else.
func ParseSRT(content string) ([]types.Caption, error) {
	content = strings.TrimSpace(strings.ReplaceAll(content, "\r\n", "\n"))
	if content == "" {
		return nil, nil
	}

	var track []types.Caption
	for _, block := range strings.Split(content, "\n\n") {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 3 {
			continue
		}
		if _, err := strconv.Atoi(strings.TrimSpace(lines[0])); err != nil {
			continue
		}
		parts := strings.Split(lines[1], "-->")
		if len(parts) != 2 {
			continue
		}
		start, err := parseSRTTime(parts[0])
		if err != nil {
			return nil, err
		}
		end, err := parseSRTTime(parts[1])
		if err != nil {
			return nil, err
		}
		track = append(track, types.Caption{
			Start: start,
			End:   end,
			Text:  strings.Join(lines[2:], "\n"),
		})
	}
	return track, nil
}

// WriteJSON saves a caption track as a JSON array of {start, end, text}
func WriteJSON(track []types.Caption, path string) error {
	data, err := json.MarshalIndent(track, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadJSON loads a caption track saved by WriteJSON
func ReadJSON(path string) ([]types.Caption, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var track []types.Caption
	if err := json.Unmarshal(data, &track); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return track, nil
}

func formatSRTTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	millis := int(seconds*1000 + 0.5)
	h := millis / 3600000
	m := millis % 3600000 / 60000
	s := millis % 60000 / 1000
	ms := millis % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

func parseSRTTime(value string) (float64, error) {
	value = strings.TrimSpace(value)
	// some tools emit a period instead of the standard comma
	value = strings.ReplaceAll(value, ".", ",")
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid srt timestamp %q", value)
	}
	hms := strings.Split(parts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid srt timestamp %q", value)
	}
	h, errH := strconv.Atoi(hms[0])
	m, errM := strconv.Atoi(hms[1])
	s, errS := strconv.Atoi(hms[2])
	ms, errMS := strconv.Atoi(parts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid srt timestamp %q", value)
	}
	return float64(h*3600+m*60+s) + float64(ms)/1000, nil
}
