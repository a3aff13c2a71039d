package export

import "strings"

// NormalizeFormat coerces format values into known aliases with defaults applied.
func NormalizeFormat(format Format) Format {
	normalized := strings.ToLower(strings.TrimSpace(string(format)))
	switch normalized {
	case "", string(FormatCSV):
		return FormatCSV
	case "jsonl", "json-lines", "jsonlines":
		return FormatNDJSON
	case "excel", "xls":
		return FormatXLSX
	case "sqlite3", "db":
		return FormatSQLite
	default:
		return Format(normalized)
	}
}

func normalizeOptions(format Format, opts RenderOptions) RenderOptions {
	if opts.CSV.Delimiter == 0 {
		opts.CSV.Delimiter = ','
	}
	if !opts.CSV.HeadersSet {
		opts.CSV.IncludeHeaders = true
	}
	if !opts.XLSX.HeadersSet {
		opts.XLSX.IncludeHeaders = true
	}
	if !opts.JSON.IndentSet && opts.JSON.Indent == "" && format == FormatJSON {
		opts.JSON.Indent = "  "
	}
	return opts
}

// ContentType returns the MIME type for a format.
func ContentType(format Format) string {
	switch NormalizeFormat(format) {
	case FormatCSV:
		return "text/csv"
	case FormatNDJSON:
		return "application/x-ndjson"
	case FormatJSON:
		return "application/json"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatSQLite:
		return "application/vnd.sqlite3"
	default:
		return "application/octet-stream"
	}
}

// Extension returns the file extension for a format, without the dot.
func Extension(format Format) string {
	normalized := NormalizeFormat(format)
	if normalized == FormatNDJSON {
		return "jsonl"
	}
	return string(normalized)
}
