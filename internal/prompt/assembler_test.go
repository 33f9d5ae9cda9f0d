package prompt

import (
	"strings"
	"testing"
)

func TestAssemble(t *testing.T) {
	t.Run("base instructions pass through without template", func(t *testing.T) {
		got := Assemble("You are a helpful assistant.", nil, "", false)
		if got != "You are a helpful assistant." {
			t.Errorf("Assemble() = %q, want base unchanged", got)
		}
	})

	t.Run("company name substituted into domain and patterns", func(t *testing.T) {
		tmpl := DefaultTemplate(IntensityStrict)
		got := Assemble("Base.", &tmpl, "Acme Corp", false)

		if !strings.Contains(got, "customer support for Acme Corp") {
			t.Errorf("domain not substituted:\n%s", got)
		}
		if !strings.Contains(got, "I can only help with questions about Acme Corp.") {
			t.Errorf("refusal message not substituted:\n%s", got)
		}
		if strings.Contains(got, "{company_name}") {
			t.Errorf("placeholder survived substitution:\n%s", got)
		}
	})

	t.Run("template company name used when caller passes none", func(t *testing.T) {
		tmpl := DefaultTemplate(IntensityLight)
		tmpl.CompanyName = "Widgets Ltd"
		got := Assemble("Base.", &tmpl, "", false)

		if !strings.Contains(got, "Widgets Ltd") {
			t.Errorf("template company name not applied:\n%s", got)
		}
	})

	t.Run("generic fallback when no company name anywhere", func(t *testing.T) {
		tmpl := DefaultTemplate(IntensityLight)
		got := Assemble("Base.", &tmpl, "", false)

		if !strings.Contains(got, FallbackCompanyName) {
			t.Errorf("fallback company name missing:\n%s", got)
		}
	})

	t.Run("disabled intensity contributes nothing", func(t *testing.T) {
		tmpl := DefaultTemplate(IntensityDisabled)
		got := Assemble("Base.", &tmpl, "Acme", false)
		if got != "Base." {
			t.Errorf("Assemble() = %q, want base only for disabled template", got)
		}
	})

	t.Run("restriction block appended only when flag set", func(t *testing.T) {
		tmpl := DefaultTemplate(IntensityStrict)

		without := Assemble("Base.", &tmpl, "Acme", false)
		if strings.Contains(without, "IMPORTANT OPERATING RULES") {
			t.Error("restriction block present without flag")
		}

		with := Assemble("Base.", &tmpl, "Acme", true)
		if !strings.Contains(with, "IMPORTANT OPERATING RULES") {
			t.Error("restriction block missing with flag set")
		}
		if !strings.Contains(with, `reply exactly: "I'm sorry, but I can only help with topics related to my role."`) {
			t.Error("literal refusal line missing from restriction block")
		}
	})

	t.Run("restriction block identical across intensities", func(t *testing.T) {
		strict := DefaultTemplate(IntensityStrict)
		ultra := DefaultTemplate(IntensityUltraStrict)

		a := Assemble("Base.", &strict, "Acme", true)
		b := Assemble("Base.", &ultra, "Acme", true)

		idx := strings.Index(a, "IMPORTANT OPERATING RULES")
		jdx := strings.Index(b, "IMPORTANT OPERATING RULES")
		if idx < 0 || jdx < 0 {
			t.Fatal("restriction block missing")
		}
		if a[idx:] != b[jdx:] {
			t.Error("restriction block differs across intensities")
		}
	})

	t.Run("ultra strict adds competitor rule", func(t *testing.T) {
		tmpl := DefaultTemplate(IntensityUltraStrict)
		got := Assemble("Base.", &tmpl, "Acme", false)
		if !strings.Contains(got, "competitors") {
			t.Errorf("competitor rule missing for ultra_strict:\n%s", got)
		}
	})
}

func TestDefaultTemplate(t *testing.T) {
	tests := []struct {
		intensity Intensity
		want      ContextLimitations
	}{
		{IntensityDisabled, ContextLimitations{}},
		{IntensityLight, ContextLimitations{InventionPrevention: true}},
		{IntensityStrict, ContextLimitations{StrictBoundaries: true, RejectOutOfScope: true, InventionPrevention: true}},
		{IntensityUltraStrict, ContextLimitations{StrictBoundaries: true, RejectOutOfScope: true, InventionPrevention: true, CompetitorMention: true}},
	}
	for _, tt := range tests {
		tmpl := DefaultTemplate(tt.intensity)
		if tmpl.ContextLimitations != tt.want {
			t.Errorf("DefaultTemplate(%s).ContextLimitations = %+v, want %+v",
				tt.intensity, tmpl.ContextLimitations, tt.want)
		}
	}
}
