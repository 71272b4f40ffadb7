package testutil

import (
	"encoding/json"
	"reflect"
	"testing"
	"unicode"
)

// AssertJSONEqual asserts that two JSON strings are semantically equal.
func AssertJSONEqual(t *testing.T, expected, actual string) {
	t.Helper()

	var expectedJSON, actualJSON interface{}
	if err := json.Unmarshal([]byte(expected), &expectedJSON); err != nil {
		t.Fatalf("failed to parse expected JSON: %v", err)
	}
	if err := json.Unmarshal([]byte(actual), &actualJSON); err != nil {
		t.Fatalf("failed to parse actual JSON: %v", err)
	}

	if !reflect.DeepEqual(expectedJSON, actualJSON) {
		expectedPretty, _ := json.MarshalIndent(expectedJSON, "", "  ")
		actualPretty, _ := json.MarshalIndent(actualJSON, "", "  ")
		t.Errorf("JSON not equal:\nExpected:\n%s\n\nActual:\n%s", expectedPretty, actualPretty)
	}
}

// AssertNoControlBytes fails if s contains a raw control character: an ASCII
// control byte, DEL or a C1 control.
func AssertNoControlBytes(t *testing.T, s string) {
	t.Helper()
	for i, r := range s {
		if unicode.IsControl(r) {
			t.Errorf("raw control rune U+%04X at index %d in %q", r, i, s)
			return
		}
	}
}
