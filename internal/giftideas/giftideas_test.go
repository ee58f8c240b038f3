package giftideas

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type fakeGenerator struct {
	text   string
	err    error
	prompt string
}

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func TestGenerate(t *testing.T) {
	gen := &fakeGenerator{text: "1. Watch - A nice watch\n2. Book - A good book"}
	svc := NewService(gen, zap.NewNop().Sugar())

	ideas, fail := svc.Generate(context.Background(), Person{Hobbies: "hiking", Budget: "$50"})
	if fail != nil {
		t.Fatalf("failure: %v", fail)
	}
	if len(ideas) != 2 || ideas[0].Name != "Watch" || ideas[1].Name != "Book" {
		t.Errorf("ideas = %v", ideas)
	}

	if !strings.Contains(gen.prompt, "hiking") || !strings.Contains(gen.prompt, "$50") {
		t.Error("person attributes missing from prompt")
	}
}

func TestGenerateFailureClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind FailureKind
	}{
		{"auth", errors.New("401 unauthorized"), FailAuth},
		{"invalid key", errors.New("invalid api key provided"), FailAuth},
		{"quota", errors.New("429 rate limit exceeded"), FailQuota},
		{"network", errors.New("dial tcp: connection refused"), FailNetwork},
		{"timeout", errors.New("request timeout"), FailNetwork},
		{"unknown", errors.New("something odd"), FailUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(&fakeGenerator{err: tc.err}, zap.NewNop().Sugar())
			ideas, fail := svc.Generate(context.Background(), Person{})
			if ideas != nil {
				t.Errorf("ideas = %v, want nil", ideas)
			}
			if fail == nil || fail.Kind != tc.kind {
				t.Fatalf("failure = %+v, want kind %s", fail, tc.kind)
			}
			if fail.Details != tc.err.Error() {
				t.Errorf("details = %q", fail.Details)
			}
			if fail.Message == "" || strings.Contains(fail.Message, tc.err.Error()) {
				t.Errorf("message %q must be user-facing, not the raw error", fail.Message)
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(Person{
		Hobbies:     "hiking",
		Occupation:  "chef",
		Personality: "outgoing",
	})
	for _, want := range []string{"hiking", "chef", "outgoing", "EXACTLY 8"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	// Empty fields stay out of the prompt.
	if strings.Contains(p, "Budget") {
		t.Error("empty budget leaked into prompt")
	}
}
