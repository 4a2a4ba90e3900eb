package service

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fishtech/fishtech-backend/internal/haccp/repository"
	"github.com/fishtech/fishtech-backend/pkg/errors"
	"github.com/fishtech/fishtech-backend/pkg/testutil"
)

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	s, err := testutil.NewIntegrationSuite(ctx)
	if err != nil {
		log.Fatalf("failed to set up integration suite: %v", err)
	}
	suite = s

	code := m.Run()
	_ = suite.Cleanup(ctx)
	os.Exit(code)
}

func newDocumentService() *DocumentService {
	return NewDocumentService(
		repository.NewDocumentRepository(suite.DB),
		suite.DB,
		suite.Logger,
		nil,
	)
}

func completeSet(t *testing.T, ctx context.Context, svc *DocumentService, key repository.SetKey, version int) {
	t.Helper()
	now := time.Now()
	by := "Quinn Okafor"
	for _, docType := range repository.DocumentTypes {
		_, err := svc.Save(ctx, &SaveDocumentRequest{
			CompanyID:      key.CompanyID,
			ProductType:    key.ProductType,
			DocumentType:   docType,
			Year:           key.Year,
			Version:        version,
			Status:         repository.StatusCompleted,
			DocumentData:   json.RawMessage(`{"steps":["receive","fillet"]}`),
			OriginatedDate: &now,
			OriginatedBy:   &by,
			ApprovedDate:   &now,
			ApprovedBy:     &by,
		}, by)
		require.NoError(t, err)
	}
}

func TestDocumentLifecycle(t *testing.T) {
	testutil.SkipIfShort(t)
	tt := suite.SetupTenant(t, context.Background(), "lifecycle-plant")
	ctx := suite.TenantContext(tt)
	svc := newDocumentService()

	key := repository.SetKey{ProductType: "smoked_salmon", Year: 2025}

	// First read bootstraps a blank version 1.
	current, err := svc.GetCurrent(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 1, current.Version)
	assert.Equal(t, SetInProgress, current.SetStatus)
	require.Len(t, current.Documents, 4)
	for _, doc := range current.Documents {
		assert.Equal(t, repository.StatusNotStarted, doc.Status)
	}

	// Completing all four documents closes version 1.
	completeSet(t, ctx, svc, key, 1)

	history, err := svc.History(ctx, key)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, SetCompleted, history[0].SetStatus)
	assert.Equal(t, 4, history[0].Completed)

	// Generating opens version 2 with carried content and cleared approvals.
	generated, err := svc.GenerateVersion(ctx, key, "Quinn Okafor")
	require.NoError(t, err)
	assert.Equal(t, 2, generated.Version)
	assert.Equal(t, SetInProgress, generated.SetStatus)
	require.Len(t, generated.Documents, 4)
	for _, doc := range generated.Documents {
		assert.Equal(t, repository.StatusInProgress, doc.Status)
		assert.JSONEq(t, `{"steps":["receive","fillet"]}`, string(doc.DocumentData))
		assert.NotNil(t, doc.OriginatedBy)
		assert.Nil(t, doc.ApprovedDate)
		assert.Nil(t, doc.ApprovedBy)
	}

	// Only one draft may be open at a time.
	_, err = svc.GenerateVersion(ctx, key, "Quinn Okafor")
	require.Error(t, err)
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "CONFLICT", appErr.Code)

	// The current version rule prefers the open draft.
	current, err = svc.GetCurrent(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 2, current.Version)
	assert.Equal(t, SetInProgress, current.SetStatus)

	// Years reflects what exists.
	years, err := svc.Years(ctx, nil, key.ProductType)
	require.NoError(t, err)
	assert.Equal(t, []int{2025}, years)
}

func TestSaveCompleted_PurgesStaleDrafts(t *testing.T) {
	testutil.SkipIfShort(t)
	tt := suite.SetupTenant(t, context.Background(), "purge-plant")
	ctx := suite.TenantContext(tt)
	svc := newDocumentService()

	key := repository.SetKey{ProductType: "cold_smoked_trout", Year: 2025}
	completeSet(t, ctx, svc, key, 1)

	_, err := svc.GenerateVersion(ctx, key, "Quinn Okafor")
	require.NoError(t, err)

	// Completing the flow chart in version 2 removes no completed rows but
	// wipes unfinished drafts of the same document elsewhere.
	_, err = svc.Save(ctx, &SaveDocumentRequest{
		ProductType:  key.ProductType,
		DocumentType: repository.DocFlowChart,
		Year:         key.Year,
		Version:      2,
		Status:       repository.StatusCompleted,
		DocumentData: json.RawMessage(`{"boxes":["thaw","brine","smoke"]}`),
	}, "Quinn Okafor")
	require.NoError(t, err)

	// The completed version 1 flow chart survives.
	v1, err := svc.GetVersion(ctx, key, 1)
	require.NoError(t, err)
	assert.Len(t, v1.Documents, 4)

	// Version 2 still holds all four rows, one now completed.
	v2, err := svc.GetVersion(ctx, key, 2)
	require.NoError(t, err)
	require.Len(t, v2.Documents, 4)
	completed := 0
	for _, doc := range v2.Documents {
		if doc.Status == repository.StatusCompleted {
			completed++
		}
	}
	assert.Equal(t, 1, completed)
}

func TestSyncSource(t *testing.T) {
	testutil.SkipIfShort(t)
	tt := suite.SetupTenant(t, context.Background(), "sync-plant")
	ctx := suite.TenantContext(tt)
	svc := newDocumentService()

	key := repository.SetKey{ProductType: "pickled_herring", Year: 2025}
	_, err := svc.GetCurrent(ctx, key)
	require.NoError(t, err)

	_, err = svc.Save(ctx, &SaveDocumentRequest{
		ProductType:  key.ProductType,
		DocumentType: repository.DocFlowChart,
		Year:         key.Year,
		Version:      1,
		Status:       repository.StatusInProgress,
		DocumentData: json.RawMessage(`{"boxes":["receive","brine","pack"]}`),
	}, "Quinn Okafor")
	require.NoError(t, err)

	// The hazard analysis reads its structure from the flow chart draft.
	source, err := svc.SyncSource(ctx, key, repository.DocHazardAnalysis)
	require.NoError(t, err)
	assert.Equal(t, repository.DocFlowChart, source.DocumentType)
	assert.JSONEq(t, `{"boxes":["receive","brine","pack"]}`, string(source.DocumentData))

	// The product description has no upstream document.
	_, err = svc.SyncSource(ctx, key, repository.DocProductDescription)
	require.Error(t, err)
}
