package normalize

import (
	"encoding/json"
	"testing"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("json.Unmarshal(%s) error = %v", s, err)
	}
	return v
}

func TestFields_PickPriority(t *testing.T) {
	f := Fields{"code": {"frequencyCode", "frequency", "code"}}

	tests := []struct {
		name string
		rec  string
		want any
	}{
		{"first alias wins", `{"frequencyCode":"BID","frequency":"TID","code":"QID"}`, "BID"},
		{"null alias skipped", `{"frequencyCode":null,"frequency":"TID"}`, "TID"},
		{"last alias", `{"code":"QID"}`, "QID"},
		{"absent", `{"other":"x"}`, nil},
		{"empty string is present", `{"frequencyCode":"","code":"QID"}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.Pick(AsRecord(decode(t, tt.rec)), "code")
			if got != tt.want {
				t.Errorf("Pick() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestFields_PickUndeclaredField(t *testing.T) {
	f := Fields{}
	rec := Record{"priority": 3.0}
	if got := f.Pick(rec, "priority"); got != 3.0 {
		t.Errorf("Pick(undeclared) = %v, want own-name lookup", got)
	}
	if got := f.Pick(nil, "priority"); got != nil {
		t.Errorf("Pick(nil record) = %v, want nil", got)
	}
}

func TestUnwrap(t *testing.T) {
	v := decode(t, `{"data":{"dosageRule":{"id":7}}}`)
	rec := Unwrap(v, "data", "dosageRule")
	if rec["id"] != 7.0 {
		t.Errorf("Unwrap() = %v, want inner record", rec)
	}

	flat := decode(t, `{"id":8,"data":"scalar"}`)
	if rec := Unwrap(flat, "data"); rec["id"] != 8.0 {
		t.Errorf("Unwrap() descended into a scalar envelope: %v", rec)
	}

	if rec := Unwrap(decode(t, `[1,2]`), "data"); rec != nil {
		t.Errorf("Unwrap(array) = %v, want nil", rec)
	}
}

func TestUnwrapList(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"bare array", `[{"id":1},{"id":2}]`, 2},
		{"data array", `{"data":[{"id":1}]}`, 1},
		{"paged", `{"data":{"content":[{"id":1},{"id":2},{"id":3}]}}`, 3},
		{"scalar", `"x"`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UnwrapList(decode(t, tt.in), listEnvelopes...); len(got) != tt.want {
				t.Errorf("len(UnwrapList()) = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestStringifyAndTruthy(t *testing.T) {
	stringTests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{45.0, "45"},
		{2.5, "2.5"},
		{true, "true"},
		{[]any{"a", 1.0}, `["a",1]`},
		{map[string]any{"k": "v"}, `{"k":"v"}`},
	}
	for _, tt := range stringTests {
		if got := Stringify(tt.in); got != tt.want {
			t.Errorf("Stringify(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}

	truthyTests := []struct {
		in   any
		want bool
	}{
		{nil, false},
		{false, false},
		{"", false},
		{0.0, false},
		{"false", true},
		{1.0, true},
		{[]any{}, true},
		{map[string]any{}, true},
	}
	for _, tt := range truthyTests {
		if got := Truthy(tt.in); got != tt.want {
			t.Errorf("Truthy(%#v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
