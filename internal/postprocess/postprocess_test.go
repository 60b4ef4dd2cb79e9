package postprocess

import "testing"

func TestClean(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Hola mundo", "Hola mundo"},
		{"thinking block", "<think>Spanish it is</think>Hola mundo", "Hola mundo"},
		{"reasoning block", "<reasoning>...</reasoning>\nHola", "Hola"},
		{"truncated thinking", "Hola<think>and then the model", "Hola"},
		{"surrounding whitespace", "  Hola  ", "Hola"},
		{"multiline block", "<thinking>line one\nline two</thinking>Hola", "Hola"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Clean(c.in); got != c.want {
				t.Errorf("Clean(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestCleanItem_QuoteUnwrapping(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"double quotes", `"Hola mundo"`, "Hola mundo"},
		{"single quotes", "'Hola'", "Hola"},
		{"guillemets", "«Hola»", "Hola"},
		{"curly quotes", "“Hola”", "Hola"},
		{"interior quote kept", `"she said "no" twice"`, `"she said "no" twice"`},
		{"quoted dialogue kept", `"Stop!" he shouted`, `"Stop!" he shouted`},
		{"lone quote", `"`, `"`},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := CleanItem(c.in); got != c.want {
				t.Errorf("CleanItem(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}
