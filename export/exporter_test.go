package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func mustRecord(t *testing.T, keys []string, values ...any) Record {
	t.Helper()
	r, err := RecordFromValues(keys, values)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	return r
}

func parseCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v\n%s", err, data)
	}
	return records
}

func parseJSON(t *testing.T, data []byte) []map[string]any {
	t.Helper()
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var out []map[string]any
	if err := decoder.Decode(&out); err != nil {
		t.Fatalf("parse json: %v\n%s", err, data)
	}
	return out
}

// jsonObjectKeys returns the key order of each object in a JSON array.
func jsonObjectKeys(t *testing.T, data []byte) [][]string {
	t.Helper()
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("parse json: %v", err)
	}
	out := make([][]string, len(raw))
	for i, obj := range raw {
		decoder := json.NewDecoder(bytes.NewReader(obj))
		if _, err := decoder.Token(); err != nil {
			t.Fatalf("token: %v", err)
		}
		for decoder.More() {
			key, err := decoder.Token()
			if err != nil {
				t.Fatalf("token: %v", err)
			}
			out[i] = append(out[i], key.(string))
			var skip json.RawMessage
			if err := decoder.Decode(&skip); err != nil {
				t.Fatalf("value: %v", err)
			}
		}
	}
	return out
}

func TestExportRecordsAsCSV_Empty(t *testing.T) {
	out, err := ExportRecordsAsCSV(nil, nil)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if out == nil || len(out) != 0 {
		t.Fatalf("expected zero-length output, got %q", out)
	}
}

func TestExportRecordsAsJSON_Empty(t *testing.T) {
	out, err := ExportRecordsAsJSON(nil, nil)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if string(out) != "[]" {
		t.Fatalf("expected [], got %q", out)
	}
}

func TestExportRecords_ColumnsWithoutRecords(t *testing.T) {
	out, err := ExportRecordsAsCSV(nil, []string{"a", "b"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if string(out) != "a,b\n" {
		t.Fatalf("expected header only, got %q", out)
	}

	out, err = ExportRecordsAsJSON([]Record{}, []string{"id", "name", "value"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if string(out) != "[]" {
		t.Fatalf("expected [], got %q", out)
	}
}

func TestExportRecords_InferredColumnsFollowFirstRecord(t *testing.T) {
	keys := []string{"name", "id", "score"}
	records := []Record{
		mustRecord(t, keys, "Test 1", 1, 9.5),
		mustRecord(t, []string{"id", "score", "name"}, 2, 7.25, "Test 2"),
	}

	out, err := ExportRecordsAsCSV(records, nil)
	if err != nil {
		t.Fatalf("export csv: %v", err)
	}
	rows := parseCSV(t, out)
	if !reflect.DeepEqual(rows[0], keys) {
		t.Fatalf("expected header %v, got %v", keys, rows[0])
	}
	if !reflect.DeepEqual(rows[2], []string{"Test 2", "2", "7.25"}) {
		t.Fatalf("expected projected second row, got %v", rows[2])
	}

	out, err = ExportRecordsAsJSON(records, nil)
	if err != nil {
		t.Fatalf("export json: %v", err)
	}
	for i, got := range jsonObjectKeys(t, out) {
		if !reflect.DeepEqual(got, keys) {
			t.Fatalf("object %d: expected keys %v, got %v", i, keys, got)
		}
	}
}

func TestExportRecords_ExplicitColumnsSubset(t *testing.T) {
	records := []Record{
		mustRecord(t, []string{"id", "name", "value"}, 1, "Test 1", 100),
		mustRecord(t, []string{"id", "name", "value"}, 2, "Test 2", 200),
	}
	columns := []string{"value", "id"}

	out, err := ExportRecordsAsCSV(records, columns)
	if err != nil {
		t.Fatalf("export csv: %v", err)
	}
	want := [][]string{{"value", "id"}, {"100", "1"}, {"200", "2"}}
	if got := parseCSV(t, out); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	out, err = ExportRecordsAsJSON(records, columns)
	if err != nil {
		t.Fatalf("export json: %v", err)
	}
	for _, got := range jsonObjectKeys(t, out) {
		if !reflect.DeepEqual(got, columns) {
			t.Fatalf("expected keys %v, got %v", columns, got)
		}
	}
	payload := parseJSON(t, out)
	if payload[1]["value"] != json.Number("200") {
		t.Fatalf("expected value 200, got %v", payload[1]["value"])
	}
}

func TestExportRecords_MissingColumnIsValidationError(t *testing.T) {
	records := []Record{mustRecord(t, []string{"id"}, 1)}

	for _, format := range []Format{FormatCSV, FormatJSON} {
		_, err := NewExporter().ExportRecords(format, records, []string{"id", "email", "age"})
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("%s: expected *ValidationError, got %T %v", format, err, err)
		}
		if !reflect.DeepEqual(validationErr.Columns, []string{"email", "age"}) {
			t.Fatalf("%s: expected missing columns, got %v", format, validationErr.Columns)
		}
	}
}

func TestExportRecords_DuplicateColumnsRejected(t *testing.T) {
	records := []Record{mustRecord(t, []string{"id"}, 1)}
	_, err := ExportRecordsAsCSV(records, []string{"id", "id"})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExportRecords_HeterogeneousRecords(t *testing.T) {
	records := []Record{
		mustRecord(t, []string{"id", "name"}, 1, "a"),
		mustRecord(t, []string{"id"}, 2),
	}

	out, err := ExportRecordsAsJSON(records, []string{"id", "name"})
	if err != nil {
		t.Fatalf("lenient export: %v", err)
	}
	payload := parseJSON(t, out)
	if payload[1]["name"] != nil {
		t.Fatalf("expected null for absent key, got %v", payload[1]["name"])
	}

	strict := NewExporter()
	strict.StrictColumns = true
	_, err = strict.ExportRecords(FormatJSON, records, []string{"id", "name"})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected strict validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "record 1") {
		t.Fatalf("expected record index in message, got %q", err.Error())
	}
}

func TestExportRecords_VariousTypes(t *testing.T) {
	keys := []string{"int", "float", "string", "bool", "none"}
	records := []Record{
		mustRecord(t, keys, 1, 1.5, "test", true, nil),
		mustRecord(t, keys, 2, 2.5, "test2", false, nil),
	}

	out, err := ExportRecordsAsCSV(records, keys)
	if err != nil {
		t.Fatalf("export csv: %v", err)
	}
	rows := parseCSV(t, out)
	if !reflect.DeepEqual(rows[1], []string{"1", "1.5", "test", "True", ""}) {
		t.Fatalf("unexpected csv row %v", rows[1])
	}
	if rows[2][3] != "False" {
		t.Fatalf("expected False, got %q", rows[2][3])
	}
	for _, bad := range []string{"None", "nan", "<nil>"} {
		if strings.Contains(string(out), bad) {
			t.Fatalf("csv must not contain %q: %s", bad, out)
		}
	}

	out, err = ExportRecordsAsJSON(records, keys)
	if err != nil {
		t.Fatalf("export json: %v", err)
	}
	payload := parseJSON(t, out)
	first := payload[0]
	if first["int"] != json.Number("1") {
		t.Fatalf("expected int 1, got %v", first["int"])
	}
	if first["float"] != json.Number("1.5") {
		t.Fatalf("expected float 1.5, got %v", first["float"])
	}
	if first["string"] != "test" {
		t.Fatalf("expected string, got %v", first["string"])
	}
	if first["bool"] != true || payload[1]["bool"] != false {
		t.Fatalf("expected booleans, got %v / %v", first["bool"], payload[1]["bool"])
	}
	if value, ok := first["none"]; !ok || value != nil {
		t.Fatalf("expected explicit null, got %v (present=%t)", value, ok)
	}
}

func TestExportRecords_SpecialCharactersRoundTrip(t *testing.T) {
	keys := []string{"name", "desc"}
	records := []Record{
		mustRecord(t, keys, "Test, with comma", `Quote "test"`),
		mustRecord(t, keys, "New\nline", "Tab\there"),
	}

	out, err := ExportRecordsAsCSV(records, keys)
	if err != nil {
		t.Fatalf("export csv: %v", err)
	}
	rows := parseCSV(t, out)
	want := [][]string{keys, {"Test, with comma", `Quote "test"`}, {"New\nline", "Tab\there"}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("expected %q, got %q", want, rows)
	}

	out, err = ExportRecordsAsJSON(records, keys)
	if err != nil {
		t.Fatalf("export json: %v", err)
	}
	payload := parseJSON(t, out)
	if payload[0]["desc"] != `Quote "test"` || payload[1]["name"] != "New\nline" || payload[1]["desc"] != "Tab\there" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestExportRecords_UnicodeFidelity(t *testing.T) {
	keys := []string{"name", "emoji"}
	records := []Record{
		mustRecord(t, keys, "Test 测试", "😀🎉"),
		mustRecord(t, keys, "Café", "☕"),
	}

	out, err := ExportRecordsAsCSV(records, keys)
	if err != nil {
		t.Fatalf("export csv: %v", err)
	}
	rows := parseCSV(t, out)
	if rows[1][0] != "Test 测试" || rows[1][1] != "😀🎉" || rows[2][0] != "Café" || rows[2][1] != "☕" {
		t.Fatalf("unexpected csv rows %q", rows)
	}

	out, err = ExportRecordsAsJSON(records, keys)
	if err != nil {
		t.Fatalf("export json: %v", err)
	}
	if !strings.Contains(string(out), "Café") || strings.Contains(string(out), `\u`) {
		t.Fatalf("expected literal non-ASCII output, got %s", out)
	}
	payload := parseJSON(t, out)
	if payload[1]["name"] != "Café" || payload[1]["emoji"] != "☕" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestExporter_AdditionalFormats(t *testing.T) {
	records := []Record{
		mustRecord(t, []string{"id", "name"}, 1, "alice"),
		mustRecord(t, []string{"id", "name"}, 2, nil),
	}
	exporter := NewExporter()

	out, err := exporter.ExportRecords("jsonl", records, nil)
	if err != nil {
		t.Fatalf("export ndjson: %v", err)
	}
	if strings.Count(string(out), "\n") != 2 {
		t.Fatalf("expected two lines, got %q", out)
	}

	out, err = exporter.ExportRecords(FormatXLSX, records, nil)
	if err != nil {
		t.Fatalf("export xlsx: %v", err)
	}
	file, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer func() {
		_ = file.Close()
	}()
	rows, err := file.GetRows(file.GetSheetName(0))
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	if len(rows) != 3 || rows[0][1] != "name" || rows[1][1] != "alice" {
		t.Fatalf("unexpected xlsx rows %v", rows)
	}

	_, err = exporter.ExportRecords("yaml", records, nil)
	if KindFromError(err) != KindValidation {
		t.Fatalf("expected unsupported format validation error, got %v", err)
	}
	var exportErr *ExportError
	if !errors.As(err, &exportErr) {
		t.Fatalf("expected *ExportError, got %T", err)
	}
}
