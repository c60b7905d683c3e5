// Package gang models a roster of fighters and its running economic totals.
package gang

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/gangledger/internal/platform/errors"
	"github.com/louisbranch/gangledger/internal/platform/id"
)

// Status describes the lifecycle of a gang.
type Status int

const (
	// StatusUnspecified represents an invalid gang status value.
	StatusUnspecified Status = iota
	// StatusBuilding indicates a roster under construction, before any campaign.
	StatusBuilding
	// StatusCampaignMode indicates a campaign clone whose economy is live.
	StatusCampaignMode
)

var (
	// ErrEmptyOwner indicates a missing gang owner.
	ErrEmptyOwner = apperrors.New(apperrors.CodeGangOwnerEmpty, "gang owner is required")
	// ErrEmptyName indicates a missing gang name.
	ErrEmptyName = apperrors.New(apperrors.CodeGangNameEmpty, "gang name is required")
	// ErrEmptyHouse indicates a missing gang house.
	ErrEmptyHouse = apperrors.New(apperrors.CodeGangHouseEmpty, "gang house is required")
	// ErrAlreadyInCampaign indicates a gang whose campaign already started.
	ErrAlreadyInCampaign = apperrors.New(apperrors.CodeGangAlreadyInCampaign, "gang already transitioned into campaign mode")
	// ErrInsufficientCredits indicates a spend larger than the gang's current credits.
	ErrInsufficientCredits = apperrors.New(apperrors.CodeGangInsufficientCredits, "gang cannot afford the operation")
	// ErrStashFighterExists indicates a second stash fighter for the same gang.
	ErrStashFighterExists = apperrors.New(apperrors.CodeGangStashFighterExists, "gang already has a stash fighter")
)

// Totals are the gang's running economic totals. Rating and stash are derived
// from the roster; credits move only through ledger appends.
type Totals struct {
	// Rating is the in-battle point value of all non-stash fighters.
	Rating int
	// Stash is the value of equipment parked on the stash fighter.
	Stash int
	// Credits is the spendable currency balance.
	Credits int
	// CreditsEarned counts credits ever earned. It only decreases through
	// explicit audit corrections.
	CreditsEarned int
}

// Gang represents a roster of fighters with running economic totals.
type Gang struct {
	ID    string
	Owner string
	Name  string
	// House selects the faction-specific cost overrides in the catalog.
	House  string
	Status Status
	// CampaignID links the gang to a campaign. Empty when unattached.
	CampaignID string
	// OriginalGangID points at the roster this gang was cloned from at
	// campaign start. Empty for originals.
	OriginalGangID string
	Totals         Totals
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsClone reports whether the gang is a campaign clone of another roster.
func (g Gang) IsClone() bool {
	return g.OriginalGangID != ""
}

// CanAfford reports whether current credits cover the given spend.
func (g Gang) CanAfford(amount int) bool {
	return g.Totals.Credits >= amount
}

// CreateGangInput describes the metadata needed to create a gang.
type CreateGangInput struct {
	Owner string
	Name  string
	House string
	// CampaignID optionally attaches the roster to a campaign at creation.
	CampaignID string
}

// CreateGang creates a new gang in building status with a generated ID and
// zeroed totals.
func CreateGang(input CreateGangInput, now func() time.Time, idGenerator func() (string, error)) (Gang, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeCreateGangInput(input)
	if err != nil {
		return Gang{}, err
	}

	gangID, err := idGenerator()
	if err != nil {
		return Gang{}, fmt.Errorf("generate gang id: %w", err)
	}

	createdAt := now().UTC()
	return Gang{
		ID:         gangID,
		Owner:      normalized.Owner,
		Name:       normalized.Name,
		House:      normalized.House,
		Status:     StatusBuilding,
		CampaignID: normalized.CampaignID,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}, nil
}

// NormalizeCreateGangInput trims and validates gang input metadata.
func NormalizeCreateGangInput(input CreateGangInput) (CreateGangInput, error) {
	input.Owner = strings.TrimSpace(input.Owner)
	if input.Owner == "" {
		return CreateGangInput{}, ErrEmptyOwner
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return CreateGangInput{}, ErrEmptyName
	}
	input.House = strings.TrimSpace(input.House)
	if input.House == "" {
		return CreateGangInput{}, ErrEmptyHouse
	}
	input.CampaignID = strings.TrimSpace(input.CampaignID)
	return input, nil
}

// Clone derives the campaign-mode copy of a building roster. The clone keeps
// the source's identity fields and totals and records its origin; ledger
// history is not copied, the caller seeds it with a genesis entry.
func Clone(source Gang, now func() time.Time, idGenerator func() (string, error)) (Gang, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	if source.Status != StatusBuilding {
		return Gang{}, apperrors.WithMetadata(
			apperrors.CodeGangAlreadyInCampaign,
			fmt.Sprintf("gang %s is not in building status", source.ID),
			map[string]string{"GangID": source.ID, "Status": StatusLabel(source.Status)},
		)
	}

	cloneID, err := idGenerator()
	if err != nil {
		return Gang{}, fmt.Errorf("generate gang id: %w", err)
	}

	createdAt := now().UTC()
	return Gang{
		ID:             cloneID,
		Owner:          source.Owner,
		Name:           source.Name,
		House:          source.House,
		Status:         StatusCampaignMode,
		CampaignID:     source.CampaignID,
		OriginalGangID: source.ID,
		Totals:         source.Totals,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}, nil
}

// StatusLabel returns a stable label for a gang status.
func StatusLabel(status Status) string {
	switch status {
	case StatusBuilding:
		return "BUILDING"
	case StatusCampaignMode:
		return "CAMPAIGN_MODE"
	default:
		return "UNSPECIFIED"
	}
}

// StatusFromLabel parses a string label into a Status. It trims whitespace
// and matches case-insensitively.
func StatusFromLabel(value string) (Status, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return StatusUnspecified, fmt.Errorf("gang status is required")
	}
	switch strings.ToUpper(trimmed) {
	case "BUILDING":
		return StatusBuilding, nil
	case "CAMPAIGN_MODE":
		return StatusCampaignMode, nil
	default:
		return StatusUnspecified, fmt.Errorf("unknown gang status: %s", trimmed)
	}
}
