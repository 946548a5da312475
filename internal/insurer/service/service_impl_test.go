package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/healthlane/claimflow/internal/insurer/domain"
	"github.com/healthlane/claimflow/internal/insurer/repository"
	"github.com/healthlane/claimflow/internal/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, migration.Migrate(db))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:   db,
		Log:  zap.NewNop(),
		Repo: repository.Provide(),
	})
	return svc, db, node
}

func TestGetActiveByCode(t *testing.T) {
	svc, db, node := newTestService(t)

	require.NoError(t, db.Create(&domain.Insurer{
		ID: node.Generate(), Code: "BCBS", Name: "Blue Cross", IsActive: true,
	}).Error)
	require.NoError(t, db.Create(&domain.Insurer{
		ID: node.Generate(), Code: "DORMANT", Name: "Dormant Payer", IsActive: false,
	}).Error)

	ins, err := svc.GetActiveByCode(context.Background(), "BCBS")
	require.NoError(t, err)
	assert.Equal(t, "Blue Cross", ins.Name)

	_, err = svc.GetActiveByCode(context.Background(), "DORMANT")
	assert.ErrorIs(t, err, domain.ErrInsurerInactive)

	_, err = svc.GetActiveByCode(context.Background(), "NOPE")
	assert.ErrorIs(t, err, domain.ErrInsurerNotFound)

	_, err = svc.GetActiveByCode(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrInsurerNotFound)
}

func TestListActive(t *testing.T) {
	svc, db, node := newTestService(t)

	require.NoError(t, db.Create(&domain.Insurer{
		ID: node.Generate(), Code: "A", Name: "Active", IsActive: true,
	}).Error)
	require.NoError(t, db.Create(&domain.Insurer{
		ID: node.Generate(), Code: "B", Name: "Inactive", IsActive: false,
	}).Error)

	insurers, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, insurers, 1)
	assert.Equal(t, "A", insurers[0].Code)
}

func TestSpecialtyMultiplierDefault(t *testing.T) {
	ins := &domain.Insurer{}
	assert.Equal(t, 1.0, ins.SpecialtyMultiplier("Cardiology"))
}
