package llm

import "testing"

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":[1,2]}\n```", `{"a":[1,2]}`},
		{"trailing comma", `{"a":[1,2,],}`, `{"a":[1,2]}`},
		{"whitespace", "  \n{\"a\":1}\n ", `{"a":1}`},
		{"valid commas in strings", `{"a":["x, ]","y, }"]}`, `{"a":["x, ]","y, }"]}`},
		{"fenced commas in strings", "```json\n{\"a\":[\"x, ]\"]}\n```", `{"a":["x, ]"]}`},
	}
	for _, tc := range cases {
		if got := ExtractJSON(tc.in); got != tc.want {
			t.Errorf("%s: ExtractJSON = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestParseListNullIsEmpty(t *testing.T) {
	items, err := ParseList(`{"hierarchy":null}`, "hierarchy")
	if err != nil {
		t.Fatalf("ParseList: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
}

func TestParseListKeepsValidNames(t *testing.T) {
	items, err := ParseList(`{"concepts": ["Tuple (a, )", "Set {x, }"]}`, "concepts")
	if err != nil {
		t.Fatalf("ParseList: %v", err)
	}
	names, err := DecodeItems[string](items)
	if err != nil {
		t.Fatalf("DecodeItems: %v", err)
	}
	if len(names) != 2 || names[0] != "Tuple (a, )" || names[1] != "Set {x, }" {
		t.Fatalf("names = %q", names)
	}
}
