package data

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	apperrors "mautic-installer/internal/errors"
	"mautic-installer/internal/install"
	"mautic-installer/internal/logger"
)

type adminFields struct {
	FirstName string `key:"admin_firstname" validate:"required,max=191"`
	LastName  string `key:"admin_lastname" validate:"required,max=191"`
	Username  string `key:"admin_username" validate:"required,min=3,max=191,printascii"`
	Email     string `key:"admin_email" validate:"required,email,max=191"`
	Password  string `key:"admin_password" validate:"required,min=6,max_bytes=72"`
}

// AccountCreator validates and stores the first administrator.
type AccountCreator struct {
	db     *Database
	cost   int
	logger logger.Logger
}

// NewAccountCreator wires an AccountCreator hashing with bcrypt's default cost.
func NewAccountCreator(db *Database, log logger.Logger) *AccountCreator {
	if log == nil {
		log = logger.NewStandardLogger()
	}
	return &AccountCreator{db: db, cost: bcrypt.DefaultCost, logger: log}
}

// CreateAdmin validates params, checks that username and email are free and
// inserts the account with the administrator role.
func (a *AccountCreator) CreateAdmin(ctx context.Context, params install.AdminParams) error {
	fields := adminFields{
		FirstName: strings.TrimSpace(params.FirstName),
		LastName:  strings.TrimSpace(params.LastName),
		Username:  strings.TrimSpace(params.Username),
		Email:     strings.TrimSpace(params.Email),
		Password:  params.Password,
	}
	if err := validateStruct(fields); err != nil {
		return err
	}

	conn, err := a.db.Conn(ctx)
	if err != nil {
		return err
	}

	if err := a.checkUnique(ctx, conn, fields); err != nil {
		return err
	}

	var roleID int64
	err = conn.QueryRowContext(ctx,
		"SELECT id FROM "+a.db.Table("roles")+" WHERE name = ?", AdministratorRole).Scan(&roleID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.DatabaseError(apperrors.CodeDatabaseFixtures, "administrator role is missing; load fixtures first", nil).
			WithModule("data").WithOperation("CreateAdmin")
	}
	if err != nil {
		return errors.Wrap(err, "failed to look up administrator role")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(fields.Password), a.cost)
	if err != nil {
		return errors.Wrap(err, "failed to hash password")
	}

	_, err = conn.ExecContext(ctx,
		"INSERT INTO "+a.db.Table("users")+
			" (role_id, username, password, first_name, last_name, email, is_published, date_added)"+
			" VALUES (?, ?, ?, ?, ?, ?, 1, ?)",
		roleID, fields.Username, string(hash), fields.FirstName, fields.LastName, fields.Email, time.Now().UTC())
	if err != nil {
		return apperrors.DatabaseError(apperrors.CodeDatabaseGeneric, "failed to store administrator", err).
			WithModule("data").WithOperation("CreateAdmin")
	}

	a.logger.InfoContext(ctx, "administrator created", logger.String("username", fields.Username))
	return nil
}

func (a *AccountCreator) checkUnique(ctx context.Context, conn *sql.DB, fields adminFields) error {
	taken := apperrors.FieldErrors{}
	checks := []struct {
		column, value, key string
	}{
		{"username", fields.Username, install.KeyAdminUsername},
		{"email", fields.Email, install.KeyAdminEmail},
	}
	for _, check := range checks {
		var count int
		err := conn.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM "+a.db.Table("users")+" WHERE "+check.column+" = ?", check.value).Scan(&count)
		if err != nil {
			return errors.Wrapf(err, "failed to check %s uniqueness", check.column)
		}
		if count > 0 {
			taken.Add(check.key, "is already in use")
		}
	}
	return taken.OrNil()
}
