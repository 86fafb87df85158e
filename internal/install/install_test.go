package install

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNormalizeIndex(t *testing.T) {
	for _, i := range []int{-5, -1, 4, 99} {
		assert.Equal(t, StepCheck, NormalizeIndex(i), "index %d", i)
	}
	for i, want := range Steps {
		assert.Equal(t, want, NormalizeIndex(i))
	}
}

func TestStepIndexExitCode(t *testing.T) {
	assert.Equal(t, 0, StepCheck.ExitCode())
	assert.Equal(t, -1, StepDatabase.ExitCode())
	assert.Equal(t, -3, StepConfiguration.ExitCode())
}

func TestNewStepIDRejectsSubStepOutsideDatabase(t *testing.T) {
	id, err := NewStepID(StepDatabase, SubSchema)
	require.NoError(t, err)
	assert.Equal(t, "database.schema", id.String())

	_, err = NewStepID(StepAdmin, SubFixtures)
	require.Error(t, err)

	_, err = NewStepID(StepIndex(7), SubNone)
	require.Error(t, err)

	id, err = NewStepID(StepAdmin, SubNone)
	require.NoError(t, err)
	assert.Equal(t, "admin", id.String())
}

func TestStepResultVariants(t *testing.T) {
	assert.False(t, Success().Failed())
	assert.False(t, Success().NeedsFinalize())
	assert.True(t, Finalize().NeedsFinalize())
	assert.False(t, Finalize().Failed())

	failed := Failure(Messages{}.Add(CategoryGeneral, "", "boom"))
	assert.True(t, failed.Failed())
	assert.Equal(t, "[general] boom", failed.Messages().String())

	assert.False(t, Failure(nil).Failed())
}

func TestMessagesCategories(t *testing.T) {
	ms := Messages{}.
		Add(CategoryOptional, "", "use https").
		Add(CategoryOptional, "", "more disk")

	assert.True(t, ms.Only(CategoryOptional))
	assert.False(t, ms.Has(CategoryRequirements))

	ms = ms.Add(CategoryValidation, "db_host", "required")
	assert.False(t, ms.Only(CategoryOptional))
	assert.Equal(t, "validation", ms[2].Label())
	assert.Equal(t, "[validation] db_host: required", ms[2].String())
	assert.False(t, Messages(nil).Only(CategoryOptional))
}

func TestBuildParametersLayering(t *testing.T) {
	persisted := map[string]string{KeyDBName: "stored", KeyDBHost: "db.internal", "secret_key": "x"}
	overrides := map[string]string{KeyDBName: "m1", KeyAdminEmail: "a@b.com", KeySiteURL: "http://x.test"}

	p := BuildParameters(DefaultValues(), persisted, overrides)

	assert.Equal(t, "m1", p.Db.Name)
	assert.Equal(t, "db.internal", p.Db.Host)
	assert.Equal(t, "pdo_mysql", p.Db.Driver)
	assert.Equal(t, "3306", p.Db.Port)
	assert.Equal(t, Flag("true"), p.Db.BackupTables)
	assert.Equal(t, "bak_", p.Db.BackupPrefix)
	assert.Equal(t, "Admin", p.Admin.FirstName)
	assert.Equal(t, "a@b.com", p.Admin.Email)
	assert.Equal(t, "http://x.test", p.Site.SiteURL)

	combined := p.Combined()
	assert.Equal(t, "Admin Mautic", combined.Mailer.FromName)
	assert.Equal(t, "a@b.com", combined.Mailer.FromEmail)
	assert.Equal(t, p.Db, combined.Db)
}

func TestFlagAcceptsBooleanAndString(t *testing.T) {
	var doc struct {
		A Flag `yaml:"a"`
		B Flag `yaml:"b"`
		C Flag `yaml:"c"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("a: true\nb: \"0\"\nc: maybe\n"), &doc))

	v, ok := doc.A.Bool()
	assert.True(t, ok)
	assert.True(t, v)

	v, ok = doc.B.Bool()
	assert.True(t, ok)
	assert.False(t, v)

	_, ok = doc.C.Bool()
	assert.False(t, ok)

	require.Error(t, yaml.Unmarshal([]byte("a: [1, 2]\n"), &doc))
}

func TestDbParamsValuesSkipsEmpty(t *testing.T) {
	values := DbParams{Driver: "pdo_sqlite", Name: "/tmp/m.db"}.Values()
	assert.Equal(t, map[string]string{KeyDBDriver: "pdo_sqlite", KeyDBName: "/tmp/m.db"}, values)
}
