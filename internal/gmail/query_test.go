package gmail

import "testing"

func TestFromQuery(t *testing.T) {
	if got := FromQuery(" evil.example ").Raw; got != "from: evil.example" {
		t.Fatalf("unexpected query %q", got)
	}
}

func TestJoinOr(t *testing.T) {
	tests := []struct {
		name  string
		input []Query
		want  string
	}{
		{name: "none", input: nil, want: ""},
		{name: "single", input: []Query{FromQuery("a@example.com")}, want: "from: a@example.com"},
		{
			name:  "multiple",
			input: []Query{FromQuery("a@example.com"), FromQuery("b@example.net")},
			want:  "from: a@example.com OR from: b@example.net",
		},
		{
			name:  "skips-empty",
			input: []Query{{}, FromQuery("a@example.com"), {}},
			want:  "from: a@example.com",
		},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			if got := JoinOr(tc.input...).Raw; got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestBlockAction(t *testing.T) {
	action := BlockAction()
	if len(action.AddLabels) != 1 || action.AddLabels[0] != LabelTrash {
		t.Fatalf("unexpected add labels %v", action.AddLabels)
	}
	if len(action.RemoveLabels) != 1 || action.RemoveLabels[0] != LabelInbox {
		t.Fatalf("unexpected remove labels %v", action.RemoveLabels)
	}
}
