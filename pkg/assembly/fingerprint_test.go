package assembly

import "testing"

func TestFingerprint_Deterministic(t *testing.T) {
	in := FingerprintInput{
		TenantID:    "acme",
		EntityID:    "opp-1",
		TemplateID:  "tpl-1",
		AssistantID: "sales-bot",
	}

	first := Fingerprint(in)
	if first == "" {
		t.Fatal("expected non-empty fingerprint")
	}
	for i := 0; i < 5; i++ {
		if got := Fingerprint(in); got != first {
			t.Fatalf("fingerprint changed across calls: %s != %s", got, first)
		}
	}
}

func TestFingerprint_TenantIsolation(t *testing.T) {
	base := FingerprintInput{TenantID: "acme", EntityID: "opp-1", TemplateID: "tpl-1"}
	other := base
	other.TenantID = "globex"

	if Fingerprint(base) == Fingerprint(other) {
		t.Error("expected different fingerprints across tenants")
	}
}

func TestFingerprint_InputSensitivity(t *testing.T) {
	base := FingerprintInput{TenantID: "acme", EntityID: "opp-1", TemplateID: "tpl-1"}

	tests := []struct {
		name   string
		mutate func(*FingerprintInput)
	}{
		{"entity", func(in *FingerprintInput) { in.EntityID = "opp-2" }},
		{"template", func(in *FingerprintInput) { in.TemplateID = "tpl-2" }},
		{"assistant", func(in *FingerprintInput) { in.AssistantID = "bot" }},
		{"override", func(in *FingerprintInput) { in.MaxTokensOverride = 512 }},
		{"access version", func(in *FingerprintInput) { in.AccessVersion = "v2" }},
		{"scope token", func(in *FingerprintInput) { in.ScopeToken = "sales-team" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mutated := base
			tt.mutate(&mutated)
			if Fingerprint(base) == Fingerprint(mutated) {
				t.Errorf("expected %s to change the fingerprint", tt.name)
			}
		})
	}
}

func TestFingerprint_NoFieldConfusion(t *testing.T) {
	// 字段值不能因拼接而互相混淆
	a := FingerprintInput{TenantID: "ab", EntityID: "c"}
	b := FingerprintInput{TenantID: "a", EntityID: "bc"}

	if Fingerprint(a) == Fingerprint(b) {
		t.Error("expected field boundaries to be preserved")
	}
}

func TestFingerprint_OverrideZeroEqualsAbsent(t *testing.T) {
	with := FingerprintInput{TenantID: "acme", EntityID: "opp-1", TemplateID: "tpl-1", MaxTokensOverride: 0}
	without := FingerprintInput{TenantID: "acme", EntityID: "opp-1", TemplateID: "tpl-1"}

	if Fingerprint(with) != Fingerprint(without) {
		t.Error("expected zero override to equal absent override")
	}
}
