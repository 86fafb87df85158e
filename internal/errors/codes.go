package errors

// Generic error code definitions used as sensible defaults across modules.
const (
	CodeRequirementGeneric  = "REQ-000"
	CodeOptionalGeneric     = "OPT-000"
	CodeCollaboratorGeneric = "COL-000"
	CodeDatabaseGeneric     = "DB-000"
)

// Specific codes raised by the installer collaborators.
const (
	CodeConfigRead        = "CFG-001"
	CodeConfigWrite       = "CFG-002"
	CodeConfigVerify      = "CFG-003"
	CodeDatabaseConnect   = "DB-001"
	CodeDatabaseCreate    = "DB-002"
	CodeDatabaseSchema    = "DB-003"
	CodeDatabaseFixtures  = "DB-004"
	CodeDatabaseMigration = "DB-005"
	CodeDatabaseBackup    = "DB-006"
	CodeValidationFields  = "VAL-001"
)
