// Package errors provides structured error handling for roster operations.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Gang errors
	CodeGangNameEmpty               Code = "GANG_NAME_EMPTY"
	CodeGangHouseEmpty              Code = "GANG_HOUSE_EMPTY"
	CodeGangOwnerEmpty              Code = "GANG_OWNER_EMPTY"
	CodeGangInvalidStatusTransition Code = "GANG_INVALID_STATUS_TRANSITION"
	CodeGangAlreadyInCampaign       Code = "GANG_ALREADY_IN_CAMPAIGN"
	CodeGangInsufficientCredits     Code = "GANG_INSUFFICIENT_CREDITS"
	CodeGangStashFighterExists      Code = "GANG_STASH_FIGHTER_EXISTS"

	// Campaign errors
	CodeCampaignEmptyID Code = "CAMPAIGN_EMPTY_ID"
	CodeCampaignNoGangs Code = "CAMPAIGN_NO_GANGS"

	// Fighter errors
	CodeFighterEmptyGangID             Code = "FIGHTER_EMPTY_GANG_ID"
	CodeFighterNameEmpty               Code = "FIGHTER_NAME_EMPTY"
	CodeFighterTemplateEmpty           Code = "FIGHTER_TEMPLATE_EMPTY"
	CodeFighterInvalidStatusTransition Code = "FIGHTER_INVALID_STATUS_TRANSITION"
	CodeFighterArchived                Code = "FIGHTER_ARCHIVED"
	CodeFighterNotArchived             Code = "FIGHTER_NOT_ARCHIVED"
	CodeFighterIsStash                 Code = "FIGHTER_IS_STASH"
	CodeFighterInsufficientXp          Code = "FIGHTER_INSUFFICIENT_XP"
	CodeFighterXpNegative              Code = "FIGHTER_XP_NEGATIVE"

	// Capture errors
	CodeCaptureSameGang       Code = "CAPTURE_SAME_GANG"
	CodeCaptureFighterDead    Code = "CAPTURE_FIGHTER_DEAD"
	CodeCaptureAlreadyCaptive Code = "CAPTURE_ALREADY_CAPTIVE"
	CodeCaptureNotCaptive     Code = "CAPTURE_NOT_CAPTIVE"
	CodeCaptureRansomNegative Code = "CAPTURE_RANSOM_NEGATIVE"
	CodeCaptureAmountNegative Code = "CAPTURE_AMOUNT_NEGATIVE"

	// Equipment assignment errors
	CodeAssignmentEmptyFighterID     Code = "ASSIGNMENT_EMPTY_FIGHTER_ID"
	CodeAssignmentEquipmentEmpty     Code = "ASSIGNMENT_EQUIPMENT_EMPTY"
	CodeAssignmentArchived           Code = "ASSIGNMENT_ARCHIVED"
	CodeAssignmentComponentUnknown   Code = "ASSIGNMENT_COMPONENT_UNKNOWN"
	CodeAssignmentComponentDuplicate Code = "ASSIGNMENT_COMPONENT_DUPLICATE"
	CodeAssignmentComponentMissing   Code = "ASSIGNMENT_COMPONENT_MISSING"

	// Advancement errors
	CodeAdvancementEmptyFighterID   Code = "ADVANCEMENT_EMPTY_FIGHTER_ID"
	CodeAdvancementTypeEmpty        Code = "ADVANCEMENT_TYPE_EMPTY"
	CodeAdvancementSelectionInvalid Code = "ADVANCEMENT_SELECTION_INVALID"
	CodeAdvancementXpNegative       Code = "ADVANCEMENT_XP_NEGATIVE"
	CodeAdvancementArchived         Code = "ADVANCEMENT_ARCHIVED"

	// Ledger errors
	CodeLedgerInvalidKind Code = "LEDGER_INVALID_KIND"
	CodeLedgerActorEmpty  Code = "LEDGER_ACTOR_EMPTY"

	// Content catalog errors
	CodeTemplateUnknown          Code = "TEMPLATE_UNKNOWN"
	CodeEquipmentUnknown         Code = "EQUIPMENT_UNKNOWN"
	CodeContentInvalid           Code = "CONTENT_INVALID"
	CodeContentExpressionInvalid Code = "CONTENT_EXPRESSION_INVALID"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"

	// Query errors
	CodeFilterInvalid    Code = "FILTER_INVALID"
	CodeOrderByInvalid   Code = "ORDER_BY_INVALID"
	CodePageTokenInvalid Code = "PAGE_TOKEN_INVALID"
)

// Kind buckets codes by how callers should react to them.
type Kind int

const (
	// KindInternal covers unexpected failures with no caller remedy.
	KindInternal Kind = iota
	// KindValidation covers rejected input; the operation never started.
	KindValidation
	// KindIllegalState covers operations the current lifecycle state disallows.
	KindIllegalState
	// KindNotFound covers missing records.
	KindNotFound
)

// Kind maps domain codes to error kinds.
func (c Code) Kind() Kind {
	switch c {
	// Validation - bad input, nothing mutated
	case CodeGangNameEmpty,
		CodeGangHouseEmpty,
		CodeGangOwnerEmpty,
		CodeGangInsufficientCredits,
		CodeGangStashFighterExists,
		CodeCampaignEmptyID,
		CodeFighterEmptyGangID,
		CodeFighterNameEmpty,
		CodeFighterTemplateEmpty,
		CodeFighterInsufficientXp,
		CodeFighterXpNegative,
		CodeCaptureSameGang,
		CodeCaptureRansomNegative,
		CodeCaptureAmountNegative,
		CodeAssignmentEmptyFighterID,
		CodeAssignmentEquipmentEmpty,
		CodeAssignmentComponentUnknown,
		CodeAssignmentComponentDuplicate,
		CodeAssignmentComponentMissing,
		CodeAdvancementEmptyFighterID,
		CodeAdvancementTypeEmpty,
		CodeAdvancementSelectionInvalid,
		CodeAdvancementXpNegative,
		CodeLedgerInvalidKind,
		CodeLedgerActorEmpty,
		CodeTemplateUnknown,
		CodeEquipmentUnknown,
		CodeContentInvalid,
		CodeContentExpressionInvalid,
		CodeFilterInvalid,
		CodeOrderByInvalid,
		CodePageTokenInvalid:
		return KindValidation

	// Illegal state - the lifecycle state disallows the operation
	case CodeGangInvalidStatusTransition,
		CodeGangAlreadyInCampaign,
		CodeCampaignNoGangs,
		CodeFighterInvalidStatusTransition,
		CodeFighterArchived,
		CodeFighterNotArchived,
		CodeFighterIsStash,
		CodeCaptureFighterDead,
		CodeCaptureAlreadyCaptive,
		CodeCaptureNotCaptive,
		CodeAssignmentArchived,
		CodeAdvancementArchived:
		return KindIllegalState

	// NotFound - record doesn't exist
	case CodeNotFound:
		return KindNotFound

	default:
		return KindInternal
	}
}
