package domain

import "context"

// Service moves terminal reservations into the archive and prunes the
// archive itself. All entry points are idempotent: a crash between copy
// and delete leaves a row that the next pass finishes moving.
type Service interface {
	// RunMaintenance runs the full pass: completed moves, cancelled
	// moves, then the retention purge.
	RunMaintenance(ctx context.Context) (*MaintenanceResult, error)
	// MoveCompleted archives completed reservations whose terminal
	// transition is older than the completed grace period.
	MoveCompleted(ctx context.Context) (moved, failed int, err error)
	// MoveCancelled archives cancelled reservations past the cancelled
	// grace period.
	MoveCancelled(ctx context.Context) (moved, failed int, err error)
	// ArchiveOld deletes archive rows closed before the retention cutoff.
	ArchiveOld(ctx context.Context) (deleted int, err error)

	Search(ctx context.Context, req SearchRequest) ([]ReservationHistory, int64, error)
	Stats(ctx context.Context) (*Stats, error)
}
