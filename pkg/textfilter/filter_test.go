package textfilter

import "testing"

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain text untouched",
			input:    "You step into the clearing.",
			expected: "You step into the clearing.",
		},
		{
			name:     "code fences stripped",
			input:    "```\nYou step into the clearing.\n```",
			expected: "You step into the clearing.",
		},
		{
			name:     "fenced language tag stripped",
			input:    "```text\nA door creaks open.\n```",
			expected: "A door creaks open.",
		},
		{
			name:     "emphasis unwrapped",
			input:    "The **ancient** door _creaks_ open.",
			expected: "The ancient door creaks open.",
		},
		{
			name:     "headings removed",
			input:    "## The Ending\nYou made it home.",
			expected: "The Ending\nYou made it home.",
		},
		{
			name:     "blank runs collapsed",
			input:    "First paragraph.\n\n\n\nSecond paragraph.",
			expected: "First paragraph.\n\nSecond paragraph.",
		},
		{
			name:     "surrounding whitespace trimmed",
			input:    "\n\n  A quiet field.  \n",
			expected: "A quiet field.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.input); got != tt.expected {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestShouldFilterContent(t *testing.T) {
	tests := []struct {
		rating   string
		expected bool
	}{
		{"G", true},
		{"PG", true},
		{"PG13", true},
		{"PG-13", true},
		{"pg", true},
		{" pg13 ", true},
		{"R", false},
		{"", false},
		{"unrated", false},
	}

	for _, tt := range tests {
		if got := ShouldFilterContent(tt.rating); got != tt.expected {
			t.Errorf("ShouldFilterContent(%q) = %v, want %v", tt.rating, got, tt.expected)
		}
	}
}

func TestMask(t *testing.T) {
	m := NewMasker()

	tests := []struct {
		input    string
		expected string
	}{
		{"What the hell happened?", "What the heck happened?"},
		{"DAMN that troll!", "DANG that troll!"},
		{"Hell's gates open.", "Heck's gates open."},
		{"The hellhound growls.", "The hellhound growls."}, // word boundary respected
		{"Nothing to see here.", "Nothing to see here."},
	}

	for _, tt := range tests {
		if got := m.Mask(tt.input); got != tt.expected {
			t.Errorf("Mask(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
