package fighter

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/gangledger/internal/platform/errors"
	"github.com/louisbranch/gangledger/internal/platform/id"
)

// CaptureOutcome describes the state of a capture record.
type CaptureOutcome int

const (
	// OutcomeUnspecified represents an invalid capture outcome value.
	OutcomeUnspecified CaptureOutcome = iota
	// OutcomeInCaptivity indicates the fighter is currently held by another gang.
	OutcomeInCaptivity
	// OutcomeSoldToThirdParty indicates the captor sold the fighter. Terminal.
	OutcomeSoldToThirdParty
	// OutcomeReturned indicates the fighter went back to its gang, with or
	// without a ransom. Terminal.
	OutcomeReturned
	// OutcomeReleased indicates the captor let the fighter go for nothing.
	// Terminal.
	OutcomeReleased
)

var (
	// ErrCaptureSameGang indicates a gang capturing its own fighter.
	ErrCaptureSameGang = apperrors.New(apperrors.CodeCaptureSameGang, "a gang cannot capture its own fighter")
	// ErrCaptureDead indicates an attempt to capture a dead fighter.
	ErrCaptureDead = apperrors.New(apperrors.CodeCaptureFighterDead, "dead fighters cannot be captured")
	// ErrAlreadyCaptive indicates the fighter already has an open capture.
	ErrAlreadyCaptive = apperrors.New(apperrors.CodeCaptureAlreadyCaptive, "fighter is already held captive")
	// ErrNotCaptive indicates a resolution of a capture that is not open.
	ErrNotCaptive = apperrors.New(apperrors.CodeCaptureNotCaptive, "fighter is not held captive")
	// ErrNegativeRansom indicates a negative ransom amount.
	ErrNegativeRansom = apperrors.New(apperrors.CodeCaptureRansomNegative, "ransom must not be negative")
	// ErrNegativeAmount indicates a negative sale amount.
	ErrNegativeAmount = apperrors.New(apperrors.CodeCaptureAmountNegative, "sale amount must not be negative")
)

// Capture records one capture of a fighter by a rival gang. The fighter's
// own status is untouched; while the open record blocks its cost, the
// roster keeps showing the fighter.
type Capture struct {
	ID        string
	FighterID string
	// CapturingGangID is the rival gang holding the fighter.
	CapturingGangID string
	Outcome         CaptureOutcome
	// RansomPaid is the amount the original gang paid to get the fighter
	// back. Only set for OutcomeReturned.
	RansomPaid int
	CapturedAt time.Time
	// ResolvedAt is set once the capture reaches a terminal outcome.
	ResolvedAt *time.Time
}

// Blocks reports whether the capture zeroes the fighter's cost contribution.
// Open captures and third-party sales block; returns and releases do not.
func (c Capture) Blocks() bool {
	return c.Outcome == OutcomeInCaptivity || c.Outcome == OutcomeSoldToThirdParty
}

// Resolved reports whether the capture reached a terminal outcome.
func (c Capture) Resolved() bool {
	return c.Outcome != OutcomeInCaptivity && c.Outcome != OutcomeUnspecified
}

// NewCapture opens a capture record for a fighter taken by a rival gang.
// The caller is responsible for rejecting fighters that already have an
// open capture.
func NewCapture(f Fighter, capturingGangID string, now func() time.Time, idGenerator func() (string, error)) (Capture, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	capturingGangID = strings.TrimSpace(capturingGangID)
	if capturingGangID == "" {
		return Capture{}, apperrors.New(apperrors.CodeFighterEmptyGangID, "capturing gang id is required")
	}
	if capturingGangID == f.GangID {
		return Capture{}, ErrCaptureSameGang
	}
	if f.Status == StatusDead {
		return Capture{}, ErrCaptureDead
	}
	if f.IsStash {
		return Capture{}, ErrStashFighter
	}
	if f.Archival == ArchivalArchived {
		return Capture{}, ErrArchived
	}

	captureID, err := idGenerator()
	if err != nil {
		return Capture{}, fmt.Errorf("generate capture id: %w", err)
	}

	return Capture{
		ID:              captureID,
		FighterID:       f.ID,
		CapturingGangID: capturingGangID,
		Outcome:         OutcomeInCaptivity,
		CapturedAt:      now().UTC(),
	}, nil
}

// ResolveCapture closes an open capture with a terminal outcome. Ransom is
// only recorded for returns; other outcomes ignore it.
func ResolveCapture(c Capture, outcome CaptureOutcome, ransom int, now func() time.Time) (Capture, error) {
	if now == nil {
		now = time.Now
	}
	if c.Outcome != OutcomeInCaptivity {
		return Capture{}, ErrNotCaptive
	}
	switch outcome {
	case OutcomeSoldToThirdParty, OutcomeReturned, OutcomeReleased:
	default:
		return Capture{}, apperrors.WithMetadata(
			apperrors.CodeCaptureNotCaptive,
			fmt.Sprintf("capture cannot resolve to %s", OutcomeLabel(outcome)),
			map[string]string{"Outcome": OutcomeLabel(outcome)},
		)
	}
	if ransom < 0 {
		return Capture{}, ErrNegativeRansom
	}

	resolvedAt := now().UTC()
	updated := c
	updated.Outcome = outcome
	updated.ResolvedAt = &resolvedAt
	if outcome == OutcomeReturned {
		updated.RansomPaid = ransom
	}
	return updated, nil
}

// OutcomeLabel returns a stable label for a capture outcome.
func OutcomeLabel(outcome CaptureOutcome) string {
	switch outcome {
	case OutcomeInCaptivity:
		return "IN_CAPTIVITY"
	case OutcomeSoldToThirdParty:
		return "SOLD_TO_THIRD_PARTY"
	case OutcomeReturned:
		return "RETURNED"
	case OutcomeReleased:
		return "RELEASED"
	default:
		return "UNSPECIFIED"
	}
}

// OutcomeFromLabel parses a string label into a CaptureOutcome.
func OutcomeFromLabel(value string) (CaptureOutcome, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return OutcomeUnspecified, fmt.Errorf("capture outcome is required")
	}
	switch strings.ToUpper(trimmed) {
	case "IN_CAPTIVITY":
		return OutcomeInCaptivity, nil
	case "SOLD_TO_THIRD_PARTY":
		return OutcomeSoldToThirdParty, nil
	case "RETURNED":
		return OutcomeReturned, nil
	case "RELEASED":
		return OutcomeReleased, nil
	default:
		return OutcomeUnspecified, fmt.Errorf("unknown capture outcome: %s", trimmed)
	}
}
