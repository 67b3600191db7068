package lookup

import (
	"fmt"

	"pms_sync/internal/domain"
)

// Canonical stay statuses.
const (
	StatusBefore    = "before"
	StatusInStay    = "instay"
	StatusAfter     = "after"
	StatusCancelled = "cancelled"
)

var reservationStatus = map[string]string{
	"Enquired":  StatusBefore,
	"Requested": StatusBefore,
	"Optional":  StatusBefore,
	"Confirmed": StatusBefore,
	"Started":   StatusInStay,
	"Processed": StatusAfter,
	"Canceled":  StatusCancelled,
}

// StatusFor is a strict lookup: status drives business rules, so an
// unknown vendor status is an error rather than a default.
func StatusFor(vendorStatus string) (string, error) {
	if s, ok := reservationStatus[vendorStatus]; ok {
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnmappedStatus, vendorStatus)
}
