package resume

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavecore/execore/internal/model"
)

func TestClassify_Completed(t *testing.T) {
	e := NewEngine()
	d := e.Classify(model.Step{ID: "s1", Status: model.StepCompleted})
	assert.Equal(t, model.ActionResume, d.Action)
	assert.Equal(t, "s1", d.FromStep)
	assert.InDelta(t, 0.95, d.Confidence, 0.0001)
	require.Len(t, d.Alternatives, 1)
	assert.Equal(t, model.ActionRestart, d.Alternatives[0].Action)
	assert.InDelta(t, 0.5, d.Alternatives[0].Confidence, 0.0001)
}

func TestClassify_Pending(t *testing.T) {
	e := NewEngine()
	d := e.Classify(model.Step{ID: "s2", Status: model.StepPending})
	assert.Equal(t, model.ActionResume, d.Action)
	assert.Equal(t, "s2", d.FromStep)
	assert.InDelta(t, 0.9, d.Confidence, 0.0001)
	require.Len(t, d.Alternatives, 2)
	assert.Equal(t, model.ActionSkip, d.Alternatives[0].Action)
	assert.InDelta(t, 0.6, d.Alternatives[0].Confidence, 0.0001)
	assert.Equal(t, model.ActionRestart, d.Alternatives[1].Action)
	assert.InDelta(t, 0.4, d.Alternatives[1].Confidence, 0.0001)
}

func TestClassify_Executing(t *testing.T) {
	e := NewEngine()
	d := e.Classify(model.Step{ID: "s3", Status: model.StepExecuting})
	assert.Equal(t, model.ActionResume, d.Action)
	assert.InDelta(t, 0.9, d.Confidence, 0.0001)
	require.Len(t, d.Alternatives, 2)
}

func TestClassify_FailedWithAgentFixablePattern(t *testing.T) {
	e := NewEngine()
	d := e.Classify(model.Step{
		ID: "s4", Status: model.StepFailed, Attempt: 1, MaxAttempts: 3,
		Error: &model.StepError{Message: "syntax error near line 10"},
	})
	assert.Equal(t, model.ActionResume, d.Action)
	assert.NotEmpty(t, d.Alternatives)
}

func TestClassify_FailedWithAgentFixablePatternButExhausted(t *testing.T) {
	e := NewEngine()
	d := e.Classify(model.Step{
		ID: "s5", Status: model.StepFailed, Attempt: 3, MaxAttempts: 3,
		Error: &model.StepError{Message: "type mismatch: cannot convert int to string"},
	})
	assert.Equal(t, model.ActionRestart, d.Action)
}

func TestClassify_FailedWithEnvPatternRequiresHuman(t *testing.T) {
	e := NewEngine()
	d := e.Classify(model.Step{
		ID: "s6", Status: model.StepFailed, Attempt: 1, MaxAttempts: 3,
		Error: &model.StepError{Message: "permission denied: /var/lock"},
	})
	assert.Equal(t, model.ActionAbort, d.Action)
}

func TestClassify_FailedUnmatchedRecoverable(t *testing.T) {
	e := NewEngine()
	d := e.Classify(model.Step{
		ID: "s7", Status: model.StepFailed, Attempt: 1, MaxAttempts: 3,
		Error: &model.StepError{Message: "something unusual happened", Recoverable: true},
	})
	assert.Equal(t, model.ActionResume, d.Action)
}

func TestClassify_FailedUnmatchedUnrecoverable(t *testing.T) {
	e := NewEngine()
	d := e.Classify(model.Step{
		ID: "s8", Status: model.StepFailed, Attempt: 1, MaxAttempts: 3,
		Error: &model.StepError{Message: "something unusual happened", Recoverable: false},
	})
	assert.Equal(t, model.ActionAbort, d.Action)
}

func TestFindBestResumePoint_PrefersResumeOverAbort(t *testing.T) {
	e := NewEngine()
	now := time.Now()
	checkpoints := []model.StepCheckpoint{
		{Step: model.Step{ID: "a", Status: model.StepFailed, Error: &model.StepError{Message: "permission denied"}}, CreatedAt: now.Add(-time.Minute)},
		{Step: model.Step{ID: "b", Status: model.StepPending}, CreatedAt: now},
	}

	best := e.FindBestResumePoint(checkpoints)
	assert.NotNil(t, best)
	assert.Equal(t, "b", best.Checkpoint.Step.ID)
	assert.Equal(t, model.ActionResume, best.Decision.Action)
}

func TestFindBestResumePoint_EmptyInput(t *testing.T) {
	e := NewEngine()
	assert.Nil(t, e.FindBestResumePoint(nil))
}

func TestDetectErrorPattern_FirstMatchWins(t *testing.T) {
	p := DetectErrorPattern("connection refused while dialing; command not found too", "")
	assert.NotNil(t, p)
	assert.Equal(t, EnvLevel, p.Category)
	assert.Contains(t, p.Pattern, "connection refused")
}

func TestDetectErrorPattern_NoMatch(t *testing.T) {
	assert.Nil(t, DetectErrorPattern("everything is fine", ""))
	assert.Nil(t, DetectErrorPattern("", ""))
}

func TestDetectErrorPattern_MatchesByCodeWithoutMessageMatch(t *testing.T) {
	p := DetectErrorPattern("the operation did not complete as expected", "rate_limit")
	assert.NotNil(t, p)
	assert.Contains(t, p.Suggestion, "rate limit")
}

func TestDetectErrorPattern_CodeIsCaseInsensitive(t *testing.T) {
	p := DetectErrorPattern("", "Resource_Exhausted")
	assert.NotNil(t, p)
	assert.Contains(t, p.Suggestion, "Disk full")
}

func TestClassify_FailedMatchesPatternByCodeAlone(t *testing.T) {
	e := NewEngine()
	d := e.Classify(model.Step{
		ID: "s9", Status: model.StepFailed, Attempt: 1, MaxAttempts: 3,
		Error: &model.StepError{Message: "the agent reported a problem", Code: "permission_error"},
	})
	assert.Equal(t, model.ActionAbort, d.Action)
}
