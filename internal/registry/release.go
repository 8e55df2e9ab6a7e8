package registry

import (
	"context"
	"fmt"

	"github.com/openregistry/registry-go/internal/store"
)

// BuildInfoSubmission is one reported build result for a crate version.
type BuildInfoSubmission struct {
	RustVersion string `json:"rust_version"`
	Target      string `json:"target"`
	Passed      bool   `json:"passed"`
}

// SetYanked sets a version's yanked flag. When the flag already matches
// the requested state the call succeeds without touching the index. An
// actual flip updates the flag and notifies the index publication
// collaborator inside the same transaction; a notify failure rolls the
// flag update back and surfaces as retryable.
func (s *Service) SetYanked(ctx context.Context, actor *store.User, crateName, num string, yanked bool) error {
	return s.db.Tx(ctx, func(tx store.Datastore) error {
		pkg, version, err := s.crateVersion(ctx, tx, crateName, num)
		if err != nil {
			return err
		}

		level, err := s.RightsOnCrate(ctx, tx, actor, pkg)
		if err != nil {
			return err
		}
		if level < RightsPublish {
			return fmt.Errorf("must already be an owner to yank or unyank: %w", ErrInsufficientRights)
		}

		if version.Yanked == yanked {
			return nil
		}

		if err := tx.SetVersionYanked(ctx, version.ID, yanked); err != nil {
			return err
		}
		if err := s.index.NotifyYankStateChanged(ctx, pkg.Name, version.Num, yanked); err != nil {
			return &RetryableError{Op: "index yank notification", Err: err}
		}
		return nil
	})
}

// RecordBuildInfo upserts one (toolchain, target) build result for a
// crate version. The rust version descriptor is parsed before any write;
// a descriptor that fails to parse aborts the operation with no state
// change. Re-submitting the same key updates only the passed flag and
// the timestamp.
func (s *Service) RecordBuildInfo(ctx context.Context, actor *store.User, crateName, num string, info BuildInfoSubmission) error {
	if _, err := ParseChannelVersion(info.RustVersion); err != nil {
		return err
	}

	return s.db.Tx(ctx, func(tx store.Datastore) error {
		pkg, version, err := s.crateVersion(ctx, tx, crateName, num)
		if err != nil {
			return err
		}

		level, err := s.RightsOnCrate(ctx, tx, actor, pkg)
		if err != nil {
			return err
		}
		if level < RightsPublish {
			return fmt.Errorf("must already be an owner to publish build info: %w", ErrInsufficientRights)
		}

		return tx.UpsertBuildRecord(ctx, &store.BuildRecord{
			VersionID:   version.ID,
			RustVersion: info.RustVersion,
			Target:      info.Target,
			Passed:      info.Passed,
		})
	})
}

// BuildInfo assembles the aggregated pass/fail matrix for a crate
// version, grouped by channel with per-channel orderings.
func (s *Service) BuildInfo(ctx context.Context, crateName, num string) (*BuildInfoReport, error) {
	_, version, err := s.crateVersion(ctx, s.db, crateName, num)
	if err != nil {
		return nil, err
	}

	records, err := s.db.ListBuildRecords(ctx, version.ID)
	if err != nil {
		return nil, err
	}

	report := NewBuildInfoReport(version.ID)
	for _, rec := range records {
		cv, err := ParseChannelVersion(rec.RustVersion)
		if err != nil {
			return nil, err
		}
		report.Add(cv, rec.Target, rec.Passed)
	}
	return report, nil
}
