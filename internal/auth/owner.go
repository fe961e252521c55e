// ABOUTME: Ownership check for mutating share operations
// ABOUTME: Compares the authenticated user against the report's owner

package auth

import (
	"context"
	"errors"

	"github.com/Talotekniikkalehtila/doku/internal/store"
)

// ReportLookup is the slice of the store needed for ownership checks.
type ReportLookup interface {
	GetReport(ctx context.Context, id string) (*store.Report, error)
}

// ErrNotOwner is returned when the authenticated user does not own the report.
var ErrNotOwner = errors.New("user does not own report")

// IsOwner checks that userID owns the report. Returns store.ErrNotFound if
// the report does not exist and ErrNotOwner on an ownership mismatch.
func IsOwner(ctx context.Context, reports ReportLookup, userID, reportID string) error {
	report, err := reports.GetReport(ctx, reportID)
	if err != nil {
		return err
	}
	if report.OwnerID != userID {
		return ErrNotOwner
	}
	return nil
}
