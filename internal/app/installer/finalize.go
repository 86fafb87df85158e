package installer

import (
	"context"

	"mautic-installer/internal/install"
	"mautic-installer/internal/logger"
)

// Finalize writes the final configuration for siteURL and then applies
// outstanding migrations. Migrations only run once the configuration has
// been written and read back; their failure is reported but does not fail
// the installation.
func (s *Service) Finalize(ctx context.Context, siteURL string, params install.CombinedParams) install.StepResult {
	result := s.result(ctx, "writing final configuration failed", install.CategoryGeneral,
		s.c.ConfigWriter.WriteFinal(ctx, siteURL, params))
	if result.Failed() {
		return result
	}

	if err := s.c.Migrations.RunMigrations(ctx); err != nil {
		s.logger.WarnContext(ctx, "migrations did not complete; run them again after installation",
			logger.Error(err))
	}
	return install.Success()
}
