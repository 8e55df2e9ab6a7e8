package registry

import (
	"context"
	"errors"
	"testing"
)

func TestSetYanked_FlipNotifiesOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	pkg := env.createCrate(t, "widget", alice)
	env.createVersion(t, pkg, "1.0.0")

	if err := env.svc.SetYanked(ctx, alice, "widget", "1.0.0", true); err != nil {
		t.Fatalf("SetYanked: %v", err)
	}

	v, err := env.db.GetVersion(ctx, pkg.ID, "1.0.0")
	if err != nil {
		t.Fatalf("GetVersion: %v", err)
	}
	if !v.Yanked {
		t.Error("version should be yanked")
	}
	if len(env.notifier.calls) != 1 {
		t.Fatalf("notify calls = %d, want 1", len(env.notifier.calls))
	}
	call := env.notifier.calls[0]
	if call.crate != "widget" || call.version != "1.0.0" || !call.yanked {
		t.Errorf("notify call = %+v", call)
	}
}

func TestSetYanked_AlreadyInStateIsSilentNoop(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	pkg := env.createCrate(t, "widget", alice)
	env.createVersion(t, pkg, "1.0.0")

	if err := env.svc.SetYanked(ctx, alice, "widget", "1.0.0", true); err != nil {
		t.Fatalf("first yank: %v", err)
	}
	if err := env.svc.SetYanked(ctx, alice, "widget", "1.0.0", true); err != nil {
		t.Fatalf("second yank should succeed as a no-op, got %v", err)
	}
	if len(env.notifier.calls) != 1 {
		t.Errorf("notify calls = %d, want exactly 1", len(env.notifier.calls))
	}
}

func TestSetYanked_NotifyFailureRollsBackFlag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	pkg := env.createCrate(t, "widget", alice)
	env.createVersion(t, pkg, "1.0.0")
	env.notifier.fail = errors.New("index unreachable")

	err := env.svc.SetYanked(ctx, alice, "widget", "1.0.0", true)
	if !Retryable(err) {
		t.Fatalf("expected a retryable error, got %v", err)
	}

	v, err := env.db.GetVersion(ctx, pkg.ID, "1.0.0")
	if err != nil {
		t.Fatalf("GetVersion: %v", err)
	}
	if v.Yanked {
		t.Error("yank flag must be rolled back when the index notify fails")
	}
}

func TestSetYanked_RequiresOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	mallory := env.createUser(t, "mallory")
	pkg := env.createCrate(t, "widget", alice)
	env.createVersion(t, pkg, "1.0.0")

	err := env.svc.SetYanked(ctx, mallory, "widget", "1.0.0", true)
	if !errors.Is(err, ErrInsufficientRights) {
		t.Fatalf("expected ErrInsufficientRights, got %v", err)
	}
	if len(env.notifier.calls) != 0 {
		t.Errorf("notify calls = %d, want 0", len(env.notifier.calls))
	}
}

func TestSetYanked_UnknownVersion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	env.createCrate(t, "widget", alice)

	err := env.svc.SetYanked(ctx, alice, "widget", "9.9.9", true)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Version != "9.9.9" {
		t.Errorf("error names version %q, want 9.9.9", nf.Version)
	}
}

func TestRecordBuildInfo_UpsertUpdatesPassedOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	pkg := env.createCrate(t, "widget", alice)
	v := env.createVersion(t, pkg, "1.0.0")

	sub := BuildInfoSubmission{
		RustVersion: "rustc 1.14.0 (e8a012324 2016-12-16)",
		Target:      "x86_64-unknown-linux-gnu",
		Passed:      false,
	}
	if err := env.svc.RecordBuildInfo(ctx, alice, "widget", "1.0.0", sub); err != nil {
		t.Fatalf("RecordBuildInfo: %v", err)
	}

	sub.Passed = true
	if err := env.svc.RecordBuildInfo(ctx, alice, "widget", "1.0.0", sub); err != nil {
		t.Fatalf("RecordBuildInfo resubmit: %v", err)
	}

	records, err := env.db.ListBuildRecords(ctx, v.ID)
	if err != nil {
		t.Fatalf("ListBuildRecords: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("record count = %d, want 1 after upsert", len(records))
	}
	if !records[0].Passed {
		t.Error("resubmission should have flipped passed to true")
	}
}

func TestRecordBuildInfo_ParseFailureWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	pkg := env.createCrate(t, "widget", alice)
	v := env.createVersion(t, pkg, "1.0.0")

	err := env.svc.RecordBuildInfo(ctx, alice, "widget", "1.0.0", BuildInfoSubmission{
		RustVersion: "1.15.0",
		Target:      "x86_64-unknown-linux-gnu",
		Passed:      true,
	})
	var malformed *MalformedDescriptorError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedDescriptorError, got %v", err)
	}

	records, err := env.db.ListBuildRecords(ctx, v.ID)
	if err != nil {
		t.Fatalf("ListBuildRecords: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("record count = %d, want 0 after aborted submission", len(records))
	}
}

func TestBuildInfo_ReportGroupsByChannel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	pkg := env.createCrate(t, "widget", alice)
	v := env.createVersion(t, pkg, "1.0.0")

	submissions := []BuildInfoSubmission{
		{RustVersion: "rustc 1.14.0 (e8a012324 2016-12-16)", Target: "x86_64-unknown-linux-gnu", Passed: true},
		{RustVersion: "rustc 1.13.0 (2c6933acc 2016-11-07)", Target: "x86_64-unknown-linux-gnu", Passed: false},
		{RustVersion: "rustc 1.16.0-nightly (df8debf6d 2017-01-25)", Target: "x86_64-apple-darwin", Passed: true},
		{RustVersion: "rustc 1.15.0-beta.5 (10893a9a3 2017-01-19)", Target: "x86_64-apple-darwin", Passed: true},
	}
	for _, sub := range submissions {
		if err := env.svc.RecordBuildInfo(ctx, alice, "widget", "1.0.0", sub); err != nil {
			t.Fatalf("RecordBuildInfo(%s): %v", sub.RustVersion, err)
		}
	}

	report, err := env.svc.BuildInfo(ctx, "widget", "1.0.0")
	if err != nil {
		t.Fatalf("BuildInfo: %v", err)
	}
	if report.ID != v.ID {
		t.Errorf("report id = %d, want %d", report.ID, v.ID)
	}

	stable := report.Ordering["stable"]
	if len(stable) != 2 || stable[0] != "1.13.0" || stable[1] != "1.14.0" {
		t.Errorf("stable ordering = %v, want [1.13.0 1.14.0]", stable)
	}
	nightly := report.Ordering["nightly"]
	if len(nightly) != 1 || nightly[0] != "2017-01-25T00:00:00Z" {
		t.Errorf("nightly ordering = %v, want [2017-01-25T00:00:00Z]", nightly)
	}
	beta := report.Ordering["beta"]
	if len(beta) != 1 || beta[0] != "2017-01-19T00:00:00Z" {
		t.Errorf("beta ordering = %v, want [2017-01-19T00:00:00Z]", beta)
	}

	if passed := report.Stable["1.14.0"]["x86_64-unknown-linux-gnu"]; !passed {
		t.Error("stable 1.14.0 should have passed")
	}
	if passed := report.Stable["1.13.0"]["x86_64-unknown-linux-gnu"]; passed {
		t.Error("stable 1.13.0 should have failed")
	}
}
