package installer

import (
	"context"

	apperrors "mautic-installer/internal/errors"
	errlog "mautic-installer/internal/errors/logging"
	"mautic-installer/internal/install"
	"mautic-installer/internal/logger"
)

// Service runs the logic of each phase and translates collaborator
// outcomes into step results. It never decides whether the run continues.
type Service struct {
	c      Collaborators
	logger logger.Logger
}

// NewService builds a Service. Every collaborator is required.
func NewService(c Collaborators, log logger.Logger) (*Service, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewStandardLogger()
	}
	return &Service{c: c, logger: log}, nil
}

// Check probes hard requirements first and recommendations only when every
// hard requirement is met.
func (s *Service) Check(ctx context.Context, site install.SiteParams) install.StepResult {
	var messages install.Messages
	missing := s.c.Requirements.CheckRequirements(ctx, site.SiteURL)
	for _, text := range missing {
		messages = messages.Add(install.CategoryRequirements, "", text)
	}
	if len(messages) > 0 {
		s.logCheck(ctx, apperrors.New(apperrors.CodeRequirementGeneric, apperrors.ErrCategoryRequirement,
			"installation requirements not met", nil).WithField("count", len(missing)))
		return install.Failure(messages)
	}

	recommended := s.c.Optional.CheckOptionalSettings(ctx, site.SiteURL)
	for _, text := range recommended {
		messages = messages.Add(install.CategoryOptional, "", text)
	}
	if len(messages) > 0 {
		s.logCheck(ctx, apperrors.New(apperrors.CodeOptionalGeneric, apperrors.ErrCategoryOptional,
			"optional settings not met", nil).WithField("count", len(recommended)))
	}
	return install.Failure(messages)
}

func (s *Service) logCheck(ctx context.Context, appErr *apperrors.AppError) {
	if appErr.Category.Fatal() {
		errlog.Error(ctx, s.logger, appErr.Message, appErr)
		return
	}
	s.logger.WarnContext(ctx, appErr.Message, errlog.Fields(appErr)...)
}

// Provision validates the connection parameters and creates the database.
func (s *Service) Provision(ctx context.Context, params install.DbParams) install.StepResult {
	return s.result(ctx, "database provisioning failed", install.CategoryValidation,
		s.c.Provisioner.Provision(ctx, params))
}

// Schema applies the schema.
func (s *Service) Schema(ctx context.Context, params install.DbParams) install.StepResult {
	return s.result(ctx, "schema creation failed", install.CategoryGeneral,
		s.c.Schema.ApplySchema(ctx, params))
}

// Fixtures loads baseline data.
func (s *Service) Fixtures(ctx context.Context) install.StepResult {
	return s.result(ctx, "fixture loading failed", install.CategoryGeneral,
		s.c.Fixtures.LoadFixtures(ctx))
}

// CreateAdmin creates the administrator account.
func (s *Service) CreateAdmin(ctx context.Context, params install.AdminParams) install.StepResult {
	return s.result(ctx, "administrator creation failed", install.CategoryValidation,
		s.c.Admin.CreateAdmin(ctx, params))
}

// SaveConfiguration persists the runtime configuration and, on success,
// requests the finalization tail.
func (s *Service) SaveConfiguration(ctx context.Context, params install.CombinedParams) install.StepResult {
	result := s.result(ctx, "saving configuration failed", install.CategoryGeneral,
		s.c.Configuration.SaveConfiguration(ctx, params))
	if result.Failed() {
		return result
	}
	return install.Finalize()
}

// result converts err into a step result. Field errors become one message
// per field under fieldCategory; anything else is a general failure.
func (s *Service) result(ctx context.Context, msg string, fieldCategory install.Category, err error) install.StepResult {
	if err == nil {
		return install.Success()
	}

	var messages install.Messages
	if fe, ok := apperrors.AsFieldErrors(err); ok && len(fe) > 0 {
		errlog.Error(ctx, s.logger, msg,
			apperrors.ValidationError(apperrors.CodeValidationFields, fe.Error(), err).WithField("fields", fe.Fields()))
		for _, field := range fe.Fields() {
			messages = messages.Add(fieldCategory, field, fe[field])
		}
		return install.Failure(messages)
	}

	if _, ok := apperrors.As(err); ok {
		errlog.Error(ctx, s.logger, msg, err)
	} else {
		errlog.Error(ctx, s.logger, msg, apperrors.CollaboratorError(apperrors.CodeCollaboratorGeneric, msg, err))
	}
	return install.Failure(messages.Add(install.CategoryGeneral, "", describe(err)))
}

func describe(err error) string {
	appErr, ok := apperrors.As(err)
	if !ok {
		return err.Error()
	}
	if appErr.Err != nil {
		return appErr.Message + ": " + appErr.Err.Error()
	}
	return appErr.Message
}
