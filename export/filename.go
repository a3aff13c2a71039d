package export

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// DefaultFilenamePattern names table exports when no pattern is configured.
const DefaultFilenamePattern = "{{.Table}}_{{.Timestamp}}"

type filenameData struct {
	Table     string
	Format    string
	Timestamp string
	Date      string
}

// RenderFilename expands a text/template pattern into an output filename and
// appends the format extension when missing. Available fields are Table,
// Format, Timestamp and Date.
func RenderFilename(pattern, table string, format Format, now time.Time) (string, error) {
	if strings.TrimSpace(pattern) == "" {
		pattern = DefaultFilenamePattern
	}

	data := filenameData{
		Table:     sanitizeFilename(table),
		Format:    string(NormalizeFormat(format)),
		Timestamp: now.UTC().Format("20060102T150405Z"),
		Date:      now.UTC().Format("20060102"),
	}

	tmpl, err := template.New("filename").Option("missingkey=error").Parse(pattern)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	result := strings.TrimSpace(buf.String())
	if result == "" {
		return "", fmt.Errorf("empty filename")
	}

	ext := Extension(format)
	if !strings.HasSuffix(strings.ToLower(result), "."+ext) {
		result = result + "." + ext
	}
	return result, nil
}

func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return '_'
		}
		return r
	}, name)
}
