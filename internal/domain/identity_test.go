package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/membank/membank/internal/apperr"
)

func TestGraphIDRoundTrip(t *testing.T) {
	gid := GraphID("acme/payments", "main", "comp-AuthService")
	assert.Equal(t, "acme/payments:main:comp-AuthService", gid)

	repo, branch, id, err := SplitGraphID(gid)
	require.NoError(t, err)
	assert.Equal(t, "acme/payments", repo)
	assert.Equal(t, "main", branch)
	assert.Equal(t, "comp-AuthService", id)
}

func TestSplitGraphIDKeepsColonsInLogicalID(t *testing.T) {
	_, _, id, err := SplitGraphID("repo:main:comp-a:b:c")
	require.NoError(t, err)
	assert.Equal(t, "comp-a:b:c", id)
}

func TestSplitGraphIDRejectsMalformed(t *testing.T) {
	for _, gid := range []string{"", "repo", "repo:main", "repo::id", ":main:id"} {
		_, _, _, err := SplitGraphID(gid)
		require.Error(t, err, gid)
		assert.True(t, apperr.IsCode(err, apperr.CodeInvalidArgument), gid)
	}
}

func TestSameLogicalIDDistinctBranches(t *testing.T) {
	a := GraphID("repo", "main", "comp-x")
	b := GraphID("repo", "feature", "comp-x")
	assert.NotEqual(t, a, b)
}

func TestCheckIDPrefix(t *testing.T) {
	require.NoError(t, CheckIDPrefix(LabelComponent, "comp-auth"))
	require.NoError(t, CheckIDPrefix(LabelDecision, "dec-20250110"))
	require.NoError(t, CheckIDPrefix(LabelMetadata, "anything-goes"))

	err := CheckIDPrefix(LabelComponent, "auth")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidArgument))

	// prefix alone is not a valid id
	assert.Error(t, CheckIDPrefix(LabelRule, "rule-"))
}

func TestCheckStatus(t *testing.T) {
	require.NoError(t, CheckStatus(LabelComponent, ComponentActive))
	require.NoError(t, CheckStatus(LabelDecision, DecisionFailed))
	assert.Error(t, CheckStatus(LabelComponent, "retired"))
	// labels without a status convention accept anything
	require.NoError(t, CheckStatus(LabelFile, "whatever"))
}

func TestDecisionTransitions(t *testing.T) {
	require.NoError(t, CheckDecisionTransition(DecisionProposed, DecisionApproved))
	require.NoError(t, CheckDecisionTransition(DecisionApproved, DecisionImplemented))
	require.NoError(t, CheckDecisionTransition(DecisionApproved, DecisionFailed))
	// same status always allowed
	require.NoError(t, CheckDecisionTransition(DecisionImplemented, DecisionImplemented))

	for _, tc := range [][2]string{
		{DecisionProposed, DecisionImplemented},
		{DecisionImplemented, DecisionProposed},
		{DecisionFailed, DecisionApproved},
		{DecisionApproved, DecisionProposed},
	} {
		err := CheckDecisionTransition(tc[0], tc[1])
		require.Error(t, err, "%s -> %s", tc[0], tc[1])
		assert.True(t, apperr.IsCode(err, apperr.CodeConflict))
	}
}

func TestValidateDate(t *testing.T) {
	require.NoError(t, ValidateDate("date", "2025-01-14"))
	for _, bad := range []string{"", "2025-1-14", "20250114", "2025/01/14", "2025-01-1x"} {
		assert.Error(t, ValidateDate("date", bad), bad)
	}
}

func TestLabelForType(t *testing.T) {
	label, err := LabelForType("Component")
	require.NoError(t, err)
	assert.Equal(t, LabelComponent, label)

	_, err = LabelForType("widget")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidArgument))
}
