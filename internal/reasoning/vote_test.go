// internal/reasoning/vote_test.go
package reasoning

import "testing"

func TestNormalizeAnswer(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "42", "42"},
		{"lowercases and trims", "  The Answer  ", "the answer"},
		{"collapses whitespace", "four\n\tscore  and seven", "four score and seven"},
		{"strips think block", "<think>Let me work this out.</think>The answer is 4.", "4"},
		{"strips multiple think blocks", "<think>a</think>x<think>b</think> Final answer: 7", "7"},
		{"drops unclosed think block", "So far so good <think>hmm this is tricky", "so far so good"},
		{"final answer marker", "Reasoning here. Final answer: Paris", "paris"},
		{"answer is marker", "I believe the answer is 12 because of the above.", "12 because of the above"},
		{"last marker wins", "answer: 3 ... wait, final answer: 5", "5"},
		{"trims punctuation", "Final answer: \"42\".", "42"},
		{"no marker keeps text", "pure response text", "pure response text"},
		{"empty", "", ""},
		{"only think block", "<think>nothing else</think>", ""},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeAnswer(tc.in); got != tc.want {
				t.Fatalf("NormalizeAnswer(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestWeightedVote(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		if _, ok := WeightedVote(nil); ok {
			t.Fatal("vote over no paths should report no winner")
		}
	})

	t.Run("confidence outweighs count", func(t *testing.T) {
		t.Parallel()
		paths := []Path{
			{ID: 0, Text: "it is 9", Answer: "9", Confidence: 0.2},
			{ID: 1, Text: "probably 9", Answer: "9", Confidence: 0.2},
			{ID: 2, Text: "The answer is 7.", Answer: "7", Confidence: 0.9},
		}
		winner, ok := WeightedVote(paths)
		if !ok {
			t.Fatal("expected a winner")
		}
		if winner.Answer != "7" {
			t.Fatalf("winner answer = %q, want %q", winner.Answer, "7")
		}
	})

	t.Run("winner is best path of winning group", func(t *testing.T) {
		t.Parallel()
		paths := []Path{
			{ID: 0, Text: "weak yes", Answer: "yes", Confidence: 0.3},
			{ID: 1, Text: "strong yes", Answer: "yes", Confidence: 0.8},
			{ID: 2, Text: "no", Answer: "no", Confidence: 0.5},
		}
		winner, ok := WeightedVote(paths)
		if !ok {
			t.Fatal("expected a winner")
		}
		if winner.ID != 1 || winner.Text != "strong yes" {
			t.Fatalf("winner = %+v, want path 1", winner)
		}
	})

	t.Run("tie prefers more confident representative", func(t *testing.T) {
		t.Parallel()
		// Both groups carry weight 0.75; beta's strongest member is stronger.
		paths := []Path{
			{ID: 0, Text: "alpha", Answer: "alpha", Confidence: 0.5},
			{ID: 1, Text: "beta", Answer: "beta", Confidence: 0.625},
			{ID: 2, Text: "alpha again", Answer: "alpha", Confidence: 0.25},
			{ID: 3, Text: "beta again", Answer: "beta", Confidence: 0.125},
		}
		winner, ok := WeightedVote(paths)
		if !ok {
			t.Fatal("expected a winner")
		}
		if winner.Answer != "beta" || winner.ID != 1 {
			t.Fatalf("tie should go to the group with the stronger representative, got %+v", winner)
		}
	})
}
