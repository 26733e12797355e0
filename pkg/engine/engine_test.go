package engine_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/aferraz/driveline/pkg/engine"
	"github.com/aferraz/driveline/pkg/models"
	"github.com/aferraz/driveline/pkg/persistence"
	"github.com/aferraz/driveline/pkg/persistence/file"
	"github.com/aferraz/driveline/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAdapter struct {
	kind       models.StepKind
	configured bool
	execErr    error
	calls      int
}

func (a *fakeAdapter) Kind() models.StepKind { return a.kind }

func (a *fakeAdapter) Configured(_ *models.Automation) bool { return a.configured }

func (a *fakeAdapter) Execute(_ context.Context, _ *models.Automation, _ map[string]any) error {
	a.calls++

	return a.execErr
}

type fakeScheduler struct {
	err   error
	calls []string
}

func (s *fakeScheduler) ScheduleResume(_ context.Context, automationID string, _ int) error {
	s.calls = append(s.calls, automationID)

	return s.err
}

type fixture struct {
	persistence *file.Persistence
	registry    *registry.Registry
	scheduler   *fakeScheduler
	engine      *engine.Engine
	discord     *fakeAdapter
	slack       *fakeAdapter
	notion      *fakeAdapter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := file.NewPersistence(t.TempDir())

	f := &fixture{
		persistence: p,
		registry:    registry.NewRegistry(logger),
		scheduler:   &fakeScheduler{},
		discord:     &fakeAdapter{kind: models.StepKindDiscord, configured: true},
		slack:       &fakeAdapter{kind: models.StepKindSlack, configured: true},
		notion:      &fakeAdapter{kind: models.StepKindNotion, configured: true},
	}

	f.registry.Register(f.discord)
	f.registry.Register(f.slack)
	f.registry.Register(f.notion)

	f.engine = engine.NewEngine(logger, p, f.registry, f.scheduler, nil, nil)

	return f
}

func (f *fixture) createAccount(t *testing.T, credits models.Credits) *models.Account {
	t.Helper()

	account := &models.Account{ID: "acct-1", DriveResourceID: "res-1", Credits: credits}
	require.NoError(t, f.persistence.AccountRepository().Save(context.Background(), account))

	return account
}

func (f *fixture) createAutomation(t *testing.T, accountID string) *models.Automation {
	t.Helper()

	automation := &models.Automation{AccountID: accountID, Name: "test", Published: true}
	require.NoError(t, f.persistence.AutomationRepository().Save(context.Background(), automation))

	return automation
}

func TestRun_AllStepsSucceed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	account := f.createAccount(t, models.RemainingCredits(5))
	automation := f.createAutomation(t, account.ID)

	record, err := f.engine.Run(ctx, automation,
		[]models.StepKind{models.StepKindDiscord, models.StepKindNotion},
		models.TriggerKindDriveActivity, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusSuccess, record.Status)
	require.Len(t, record.Results, 2)
	assert.Equal(t, models.StepOutcomeSuccess, record.Results[0].Outcome)
	assert.Equal(t, models.StepOutcomeSuccess, record.Results[1].Outcome)
	assert.Equal(t, 1, f.discord.calls)
	assert.Equal(t, 1, f.notion.calls)

	// The trigger segment debits one credit.
	loaded, err := f.persistence.AccountRepository().GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.Credits.Remaining())
}

func TestRun_EmptyStepList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	account := f.createAccount(t, models.RemainingCredits(5))
	automation := f.createAutomation(t, account.ID)

	record, err := f.engine.Run(ctx, automation, nil, models.TriggerKindDriveActivity, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusSuccess, record.Status)
	assert.Empty(t, record.Results)

	loaded, err := f.persistence.AccountRepository().GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.Credits.Remaining())
}

func TestRun_MissingConfigDowngradesToPartial(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	account := f.createAccount(t, models.UnlimitedCredits())
	automation := f.createAutomation(t, account.ID)

	f.slack.configured = false

	record, err := f.engine.Run(ctx, automation,
		[]models.StepKind{models.StepKindSlack, models.StepKindDiscord},
		models.TriggerKindDriveActivity, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusPartial, record.Status)
	require.Len(t, record.Results, 2)
	assert.Equal(t, models.StepOutcomeFailed, record.Results[0].Outcome)
	assert.Equal(t, models.ReasonMissingConfig, record.Results[0].Reason)
	// The adapter is never called for an unconfigured step.
	assert.Equal(t, 0, f.slack.calls)
	// The loop continues past the failure.
	assert.Equal(t, models.StepOutcomeSuccess, record.Results[1].Outcome)
}

func TestRun_AdapterErrorDowngradesToPartial(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	account := f.createAccount(t, models.UnlimitedCredits())
	automation := f.createAutomation(t, account.ID)

	f.discord.execErr = errors.New("webhook returned HTTP 500")

	record, err := f.engine.Run(ctx, automation,
		[]models.StepKind{models.StepKindDiscord, models.StepKindNotion},
		models.TriggerKindDriveActivity, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusPartial, record.Status)
	require.Len(t, record.Results, 2)
	assert.Equal(t, models.ReasonExecutionError, record.Results[0].Reason)
	assert.Contains(t, record.Results[0].Error, "500")
	assert.Equal(t, models.StepOutcomeSuccess, record.Results[1].Outcome)
}

func TestRun_UnknownKindContinues(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	account := f.createAccount(t, models.UnlimitedCredits())
	automation := f.createAutomation(t, account.ID)

	record, err := f.engine.Run(ctx, automation,
		[]models.StepKind{"Fax", models.StepKindDiscord},
		models.TriggerKindDriveActivity, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusPartial, record.Status)
	require.Len(t, record.Results, 2)
	assert.Equal(t, models.ReasonUnknownNodeType, record.Results[0].Reason)
	assert.Equal(t, models.StepOutcomeSuccess, record.Results[1].Outcome)
}

func TestRun_WaitSuspends(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	account := f.createAccount(t, models.RemainingCredits(5))
	automation := f.createAutomation(t, account.ID)

	record, err := f.engine.Run(ctx, automation,
		[]models.StepKind{models.StepKindDiscord, models.StepKindWait, models.StepKindNotion},
		models.TriggerKindDriveActivity, nil)
	require.NoError(t, err)

	// Only the steps before and including the Wait produce results.
	require.Len(t, record.Results, 2)
	assert.Equal(t, models.StepOutcomeSuccess, record.Results[0].Outcome)
	assert.Equal(t, models.StepOutcomeScheduled, record.Results[1].Outcome)
	assert.Equal(t, models.ExecutionStatusPartial, record.Status)
	assert.Equal(t, 0, f.notion.calls)
	assert.Equal(t, []string{automation.ID}, f.scheduler.calls)

	// The tail after the Wait is persisted.
	loaded, err := f.persistence.AutomationRepository().GetByID(ctx, automation.ID)
	require.NoError(t, err)
	require.True(t, loaded.Suspended())
	assert.Equal(t, []models.StepKind{models.StepKindNotion}, loaded.RemainingPath)

	// The trigger segment still pays its debit.
	loadedAccount, err := f.persistence.AccountRepository().GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, loadedAccount.Credits.Remaining())
}

func TestRun_TrailingWaitLeavesEmptyTail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	account := f.createAccount(t, models.UnlimitedCredits())
	automation := f.createAutomation(t, account.ID)

	record, err := f.engine.Run(ctx, automation,
		[]models.StepKind{models.StepKindDiscord, models.StepKindWait},
		models.TriggerKindDriveActivity, nil)
	require.NoError(t, err)

	require.Len(t, record.Results, 2)
	assert.Equal(t, models.StepOutcomeScheduled, record.Results[1].Outcome)

	loaded, err := f.persistence.AutomationRepository().GetByID(ctx, automation.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Suspended())
	assert.Empty(t, loaded.RemainingPath)
}

func TestRun_SchedulingFailureContinues(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	account := f.createAccount(t, models.UnlimitedCredits())
	automation := f.createAutomation(t, account.ID)

	f.scheduler.err = errors.New("cron service returned HTTP 500")

	record, err := f.engine.Run(ctx, automation,
		[]models.StepKind{models.StepKindWait, models.StepKindNotion},
		models.TriggerKindDriveActivity, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusPartial, record.Status)
	require.Len(t, record.Results, 2)
	assert.Equal(t, models.ReasonCronScheduleFailed, record.Results[0].Reason)
	// The delay is skipped, not retried: the loop continues.
	assert.Equal(t, models.StepOutcomeSuccess, record.Results[1].Outcome)

	// The suspension state is untouched on scheduling failure.
	loaded, err := f.persistence.AutomationRepository().GetByID(ctx, automation.ID)
	require.NoError(t, err)
	assert.False(t, loaded.Suspended())
}

func TestResume_RunsPersistedTail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	account := f.createAccount(t, models.RemainingCredits(5))
	automation := f.createAutomation(t, account.ID)

	_, err := f.engine.Run(ctx, automation,
		[]models.StepKind{models.StepKindWait, models.StepKindNotion},
		models.TriggerKindDriveActivity, nil)
	require.NoError(t, err)

	record, err := f.engine.Resume(ctx, automation.ID)
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, models.TriggerKindResume, record.TriggerKind)
	assert.Equal(t, models.ExecutionStatusSuccess, record.Status)
	require.Len(t, record.Results, 1)
	assert.Equal(t, models.StepKindNotion, record.Results[0].Kind)

	// A drained resume releases the suspension state.
	loaded, err := f.persistence.AutomationRepository().GetByID(ctx, automation.ID)
	require.NoError(t, err)
	assert.False(t, loaded.Suspended())

	// Resume segments never debit: one credit for the whole logical run.
	loadedAccount, err := f.persistence.AccountRepository().GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, loadedAccount.Credits.Remaining())

	// Two records, one per segment.
	_, total, err := f.persistence.ExecutionRepository().List(ctx, persistence.ListExecutionsOptions{AccountID: account.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestResume_ChainedWaits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	account := f.createAccount(t, models.UnlimitedCredits())
	automation := f.createAutomation(t, account.ID)

	_, err := f.engine.Run(ctx, automation,
		[]models.StepKind{models.StepKindWait, models.StepKindDiscord, models.StepKindWait, models.StepKindNotion},
		models.TriggerKindDriveActivity, nil)
	require.NoError(t, err)

	record, err := f.engine.Resume(ctx, automation.ID)
	require.NoError(t, err)

	// The resume segment hits the second Wait and suspends again.
	require.Len(t, record.Results, 2)
	assert.Equal(t, models.StepOutcomeScheduled, record.Results[1].Outcome)

	loaded, err := f.persistence.AutomationRepository().GetByID(ctx, automation.ID)
	require.NoError(t, err)
	require.True(t, loaded.Suspended())
	assert.Equal(t, []models.StepKind{models.StepKindNotion}, loaded.RemainingPath)

	// The second resume drains the rest.
	record, err = f.engine.Resume(ctx, automation.ID)
	require.NoError(t, err)
	require.Len(t, record.Results, 1)
	assert.Equal(t, models.StepKindNotion, record.Results[0].Kind)

	loaded, err = f.persistence.AutomationRepository().GetByID(ctx, automation.ID)
	require.NoError(t, err)
	assert.False(t, loaded.Suspended())
}

func TestResume_NotSuspendedIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	account := f.createAccount(t, models.RemainingCredits(5))
	automation := f.createAutomation(t, account.ID)

	record, err := f.engine.Resume(ctx, automation.ID)
	require.NoError(t, err)
	assert.Nil(t, record)

	// No record, no debit.
	_, total, err := f.persistence.ExecutionRepository().List(ctx, persistence.ListExecutionsOptions{AccountID: account.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)

	loaded, err := f.persistence.AccountRepository().GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, loaded.Credits.Remaining())
}

func TestResume_UnknownAutomation(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Resume(context.Background(), "missing")
	assert.True(t, persistence.IsAutomationNotFound(err))
}

func TestRecordFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	account := f.createAccount(t, models.RemainingCredits(5))

	record := f.engine.RecordFailure(ctx, "auto-x", account.ID,
		models.TriggerKindDriveActivity, errors.New("automation could not be loaded"))

	assert.Equal(t, models.ExecutionStatusFailed, record.Status)
	assert.Equal(t, "automation could not be loaded", record.Error)
	assert.Empty(t, record.Results)

	records, _, err := f.persistence.ExecutionRepository().List(ctx, persistence.ListExecutionsOptions{AccountID: account.ID})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.ExecutionStatusFailed, records[0].Status)
}

func TestRun_ResultCountMatchesAttemptedSteps(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	account := f.createAccount(t, models.UnlimitedCredits())
	automation := f.createAutomation(t, account.ID)

	f.slack.configured = false
	f.notion.execErr = errors.New("boom")

	steps := []models.StepKind{
		models.StepKindDiscord,
		models.StepKindSlack,
		"Fax",
		models.StepKindNotion,
	}

	record, err := f.engine.Run(ctx, automation, steps, models.TriggerKindDriveActivity, nil)
	require.NoError(t, err)

	// Exactly one result per attempted step, in order.
	require.Len(t, record.Results, len(steps))

	for i, step := range steps {
		assert.Equal(t, step, record.Results[i].Kind)
	}
}
