package config

import (
	"testing"
	"time"

	"github.com/spboyer/agentra/judge"
)

func TestNewEvalConfig_DefaultValues(t *testing.T) {
	cfg := NewEvalConfig()

	if cfg.SystemName() != "" {
		t.Fatalf("SystemName() = %q, want empty", cfg.SystemName())
	}
	if cfg.Workers() != DefaultWorkers {
		t.Fatalf("Workers() = %d, want %d", cfg.Workers(), DefaultWorkers)
	}
	if cfg.SampleRate() != 1.0 {
		t.Fatalf("SampleRate() = %v, want 1.0", cfg.SampleRate())
	}
	if cfg.Format() != "console" {
		t.Fatalf("Format() = %q, want console", cfg.Format())
	}
	if cfg.ResultsDir() != "agentra-results" {
		t.Fatalf("ResultsDir() = %q, want agentra-results", cfg.ResultsDir())
	}
	if cfg.Judge().Provider != judge.ProviderAuto {
		t.Fatalf("Judge().Provider = %q, want auto", cfg.Judge().Provider)
	}
	if cfg.Weights() != nil {
		t.Fatalf("Weights() = %v, want nil", cfg.Weights())
	}
	if cfg.Evaluators() != nil {
		t.Fatalf("Evaluators() = %v, want nil", cfg.Evaluators())
	}
	if cfg.FailUnder() != 0 {
		t.Fatalf("FailUnder() = %v, want 0", cfg.FailUnder())
	}
	if cfg.Publish().Enabled() {
		t.Fatalf("Publish().Enabled() = true, want false")
	}
}

func TestNewEvalConfig_AppliesFunctionalOptions(t *testing.T) {
	cfg := NewEvalConfig(
		WithSystem("support-bot", "Answers billing questions"),
		WithEvaluators([]string{"functional", "safety"}),
		WithWeights(map[string]float64{"functional": 0.5}),
		WithJudge(judge.Settings{Provider: judge.ProviderOpenAI, Model: "gpt-4", Timeout: time.Minute}),
		WithWorkers(8),
		WithSampleRate(0.25),
		WithFailUnder(0.7),
		WithFilter([]string{"refund*"}),
		WithFormat("junit"),
		WithOutputPath("report.xml"),
		WithResultsDir("out"),
		WithSaveName("nightly"),
		WithSessionLog("session.jsonl"),
		WithPublish(Publish{AccountURL: "https://acct.blob.core.windows.net/", Container: "evals"}),
	)

	if cfg.SystemName() != "support-bot" || cfg.Description() != "Answers billing questions" {
		t.Fatalf("system = %q/%q", cfg.SystemName(), cfg.Description())
	}
	if got := cfg.Evaluators(); len(got) != 2 || got[1] != "safety" {
		t.Fatalf("Evaluators() = %v", got)
	}
	if cfg.Weights()["functional"] != 0.5 {
		t.Fatalf("Weights() = %v", cfg.Weights())
	}
	if cfg.Judge().Model != "gpt-4" || cfg.Judge().Timeout != time.Minute {
		t.Fatalf("Judge() = %+v", cfg.Judge())
	}
	if cfg.Workers() != 8 {
		t.Fatalf("Workers() = %d, want 8", cfg.Workers())
	}
	if cfg.SampleRate() != 0.25 {
		t.Fatalf("SampleRate() = %v, want 0.25", cfg.SampleRate())
	}
	if cfg.FailUnder() != 0.7 {
		t.Fatalf("FailUnder() = %v, want 0.7", cfg.FailUnder())
	}
	if got := cfg.Filter(); len(got) != 1 || got[0] != "refund*" {
		t.Fatalf("Filter() = %v", got)
	}
	if cfg.Format() != "junit" || cfg.OutputPath() != "report.xml" {
		t.Fatalf("output = %q %q", cfg.Format(), cfg.OutputPath())
	}
	if cfg.ResultsDir() != "out" || cfg.SaveName() != "nightly" {
		t.Fatalf("results = %q %q", cfg.ResultsDir(), cfg.SaveName())
	}
	if cfg.SessionLog() != "session.jsonl" {
		t.Fatalf("SessionLog() = %q", cfg.SessionLog())
	}
	if !cfg.Publish().Enabled() {
		t.Fatalf("Publish().Enabled() = false, want true")
	}
}

func TestOptionOrder_LastOptionWins(t *testing.T) {
	cfg := NewEvalConfig(
		WithWorkers(2),
		WithWorkers(6),
		WithJudge(judge.Settings{Provider: judge.ProviderCopilot, Model: "gpt-5"}),
		WithJudgeModel("claude-sonnet-4"),
		WithJudgeProvider(judge.ProviderAnthropic),
		WithWeights(map[string]float64{"functional": 0.5, "safety": 0.2}),
		WithWeight("safety", 0.4),
	)

	if cfg.Workers() != 6 {
		t.Fatalf("Workers() = %d, want 6", cfg.Workers())
	}
	if cfg.Judge().Provider != judge.ProviderAnthropic || cfg.Judge().Model != "claude-sonnet-4" {
		t.Fatalf("Judge() = %+v", cfg.Judge())
	}
	if w := cfg.Weights(); w["safety"] != 0.4 || w["functional"] != 0.5 {
		t.Fatalf("Weights() = %v", w)
	}
}

func TestWithWorkers_ClampsToOne(t *testing.T) {
	if got := NewEvalConfig(WithWorkers(0)).Workers(); got != 1 {
		t.Fatalf("Workers() = %d, want 1", got)
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	weights := map[string]float64{"functional": 0.5}
	cfg := NewEvalConfig(WithWeights(weights), WithFilter([]string{"a"}))

	weights["functional"] = 0.9
	cfg.Weights()["functional"] = 0.1
	cfg.Filter()[0] = "b"

	if cfg.Weights()["functional"] != 0.5 {
		t.Fatalf("Weights() mutated: %v", cfg.Weights())
	}
	if cfg.Filter()[0] != "a" {
		t.Fatalf("Filter() mutated: %v", cfg.Filter())
	}
}

func TestWithWeight_StartsFromEmpty(t *testing.T) {
	cfg := NewEvalConfig(WithWeight("performance", 0.3))
	if w := cfg.Weights(); len(w) != 1 || w["performance"] != 0.3 {
		t.Fatalf("Weights() = %v", w)
	}
}

func TestPublishEnabled(t *testing.T) {
	tests := []struct {
		name string
		p    Publish
		want bool
	}{
		{"empty", Publish{}, false},
		{"container only", Publish{Container: "evals"}, false},
		{"account url", Publish{AccountURL: "https://a", Container: "evals"}, true},
		{"connection string", Publish{ConnectionStringEnv: "AZURE_STORAGE", Container: "evals"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Enabled(); got != tt.want {
				t.Fatalf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewEvalConfig_NilOptionPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for nil option, got none")
		}
	}()

	_ = NewEvalConfig(WithWorkers(2), nil)
}
