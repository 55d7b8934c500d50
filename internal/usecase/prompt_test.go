package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"legal-intake/internal/jurisdiction"
)

func TestComposeSystemPrompt_EmbedsFirstExemplarOnly(t *testing.T) {
	exemplars := []StyleExemplar{
		{Subject: "First subject", Body: "First body."},
		{Subject: "Second subject", Body: "Second body."},
	}
	prompt := composeSystemPrompt(legalContext(jurisdiction.Ambiguous, VariantParalegal), exemplars)

	require.Contains(t, prompt, "Example - Subject: First subject\nFirst body.")
	require.NotContains(t, prompt, "Second subject")
}

func TestComposeSystemPrompt_SmallClaimsReferral(t *testing.T) {
	prompt := composeSystemPrompt(legalContext(jurisdiction.SmallClaims, VariantParalegal), defaultExemplars)

	require.Contains(t, prompt, "under the $35,000 Small Claims Court limit")
	require.Contains(t, prompt, "cannot act as counsel")
	require.Contains(t, prompt, "licensed paralegal")
	require.NotContains(t, prompt, "deputy judge")
}

func TestComposeSystemPrompt_DeputyJudgeVariant(t *testing.T) {
	prompt := composeSystemPrompt(legalContext(jurisdiction.SmallClaims, VariantDeputyJudge), defaultExemplars)

	require.Contains(t, prompt, "deputy judge")
	require.Contains(t, prompt, "licensed paralegal")
}

func TestComposeSystemPrompt_AboveSmallClaimsOmitsReferral(t *testing.T) {
	prompt := composeSystemPrompt(legalContext(jurisdiction.AboveSmallClaims, VariantParalegal), defaultExemplars)

	require.Contains(t, prompt, "Superior Court")
	require.NotContains(t, prompt, "paralegal")
}

func TestComposeSystemPrompt_BehavioralConstraints(t *testing.T) {
	prompt := composeSystemPrompt(legalContext(jurisdiction.Ambiguous, VariantParalegal), defaultExemplars)

	for _, want := range []string{
		"Do NOT greet or apologize more than once",
		"Do NOT add your name or sign-offs",
		"NEVER offer a call immediately",
		"Decline Family Law matters unless post-judgment enforcement",
		"Decline Real Estate unless it's mortgage-related",
		"personal injury, insurance, construction, shareholder disputes, professional negligence, and mortgage enforcement",
		"Respond to each message like a conversation, NOT like a new intake.",
	} {
		require.Contains(t, prompt, want)
	}
}

func TestComposeSystemPrompt_Deterministic(t *testing.T) {
	ctx := legalContext(jurisdiction.SmallClaims, VariantParalegal)
	first := composeSystemPrompt(ctx, defaultExemplars)
	second := composeSystemPrompt(ctx, defaultExemplars)
	require.Equal(t, first, second)
}

func TestLegalContext_CoversEveryCategory(t *testing.T) {
	for _, cat := range []jurisdiction.Category{
		jurisdiction.SmallClaims, jurisdiction.AboveSmallClaims, jurisdiction.Ambiguous,
	} {
		require.NotEmpty(t, strings.TrimSpace(legalContext(cat, VariantParalegal)), "category=%s", cat)
	}
}
