package service

import (
	"context"
	"strings"
	"testing"

	"engagement/internal/cache"
	"engagement/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReport(reporter uuid.UUID, contentID uint) CreateReportInput {
	return CreateReportInput{
		ReporterID:  reporter,
		ContentType: models.ReportContentComment,
		ContentID:   contentID,
		ReportType:  models.ReportTypeSpam,
		Reason:      "link farm",
	}
}

func TestReportService_CreateReport_Validation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	bad := newReport(uuid.New(), 1)
	bad.ContentType = "POST"
	_, err := env.reports.CreateReport(ctx, bad)
	assertValidationError(t, err)

	bad = newReport(uuid.New(), 1)
	bad.ReportType = "RUDE"
	_, err = env.reports.CreateReport(ctx, bad)
	assertValidationError(t, err)

	bad = newReport(uuid.New(), 1)
	bad.Reason = strings.Repeat("r", models.ReportReasonMaxLength+1)
	_, err = env.reports.CreateReport(ctx, bad)
	assertValidationError(t, err)

	_, err = env.reports.CreateReport(ctx, newReport(uuid.Nil, 1))
	assertValidationError(t, err)
}

func TestReportService_OneActiveReportPerTarget(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	reporter := uuid.New()
	admin := Caller{UserID: uuid.New(), Admin: true}

	first, err := env.reports.CreateReport(ctx, newReport(reporter, 7))
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusInReview, first.Status)

	_, err = env.reports.CreateReport(ctx, newReport(reporter, 7))
	assertAppError(t, err, models.CodeConflict)

	// A different reporter on the same content is fine.
	_, err = env.reports.CreateReport(ctx, newReport(uuid.New(), 7))
	require.NoError(t, err)

	_, err = env.reports.ResolveReport(ctx, admin, first.ID, ResolveReportInput{Action: models.ReportStatusDismissed, AdminNotes: "not spam"})
	require.NoError(t, err)

	again, err := env.reports.CreateReport(ctx, newReport(reporter, 7))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, again.ID)
}

func TestReportService_ResolveReport(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	admin := Caller{UserID: uuid.New(), Admin: true}

	report, err := env.reports.CreateReport(ctx, newReport(uuid.New(), 3))
	require.NoError(t, err)

	t.Run("requires admin", func(t *testing.T) {
		_, err := env.reports.ResolveReport(ctx, Caller{UserID: uuid.New()}, report.ID,
			ResolveReportInput{Action: models.ReportStatusResolved, AdminNotes: "x"})
		assertUnauthorizedError(t, err)
	})

	t.Run("rejects non-terminal action", func(t *testing.T) {
		_, err := env.reports.ResolveReport(ctx, admin, report.ID,
			ResolveReportInput{Action: models.ReportStatusInReview, AdminNotes: "x"})
		assertValidationError(t, err)
	})

	t.Run("requires notes", func(t *testing.T) {
		_, err := env.reports.ResolveReport(ctx, admin, report.ID,
			ResolveReportInput{Action: models.ReportStatusResolved, AdminNotes: " "})
		assertValidationError(t, err)
	})

	t.Run("unknown report", func(t *testing.T) {
		_, err := env.reports.ResolveReport(ctx, admin, 9999,
			ResolveReportInput{Action: models.ReportStatusResolved, AdminNotes: "x"})
		assertAppError(t, err, models.CodeNotFound)
	})

	resolved, err := env.reports.ResolveReport(ctx, admin, report.ID,
		ResolveReportInput{Action: models.ReportStatusResolved, AdminNotes: "removed the comment"})
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusResolved, resolved.Status)
	assert.Equal(t, "removed the comment", resolved.AdminNotes)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, admin.UserID, *resolved.ResolvedBy)

	second := Caller{UserID: uuid.New(), Admin: true}
	_, err = env.reports.ResolveReport(ctx, second, report.ID,
		ResolveReportInput{Action: models.ReportStatusDismissed, AdminNotes: "changed my mind"})
	assertAppError(t, err, models.CodeConflict)

	got, err := env.reports.GetReport(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusResolved, got.Status)
	assert.Equal(t, "removed the comment", got.AdminNotes)
	assert.Equal(t, admin.UserID, *got.ResolvedBy)
}

func TestReportService_WritesInvalidateDashboards(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	counts, err := env.engagement.ReportStatusCounts(ctx)
	require.NoError(t, err)
	assert.Zero(t, counts[models.ReportStatusInReview])
	assert.True(t, env.redis.Exists(cache.ReportStatusCountsKey()))

	_, err = env.reports.CreateReport(ctx, newReport(uuid.New(), 1))
	require.NoError(t, err)
	assert.False(t, env.redis.Exists(cache.ReportStatusCountsKey()))

	counts, err = env.engagement.ReportStatusCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[models.ReportStatusInReview])
}

func TestReportService_ListAndDelete(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	reporter := uuid.New()

	var ids []uint
	for i := uint(1); i <= 3; i++ {
		r, err := env.reports.CreateReport(ctx, newReport(reporter, i))
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}

	byUUID, err := env.reports.GetReport(ctx, ids[0])
	require.NoError(t, err)
	viaUUID, err := env.reports.GetReportByUUID(ctx, byUUID.UUID)
	require.NoError(t, err)
	assert.Equal(t, ids[0], viaUUID.ID)

	status := models.ReportStatus("OPEN")
	_, err = env.reports.ListReports(ctx, models.ReportFilter{Status: &status})
	assertValidationError(t, err)

	_, err = env.reports.ListReports(ctx, models.ReportFilter{PageRequest: models.PageRequest{Sort: models.SortByLikeCnt}})
	assertValidationError(t, err)

	page, err := env.reports.ListReports(ctx, models.ReportFilter{ReporterID: &reporter, PageRequest: models.PageRequest{Size: 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.TotalPages)

	_, err = env.reports.BatchDeleteReports(ctx, Caller{UserID: reporter}, ids)
	assertUnauthorizedError(t, err)

	n, err := env.reports.BatchDeleteReports(ctx, Caller{UserID: uuid.New(), Admin: true}, ids)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = env.reports.GetReport(ctx, ids[1])
	assertAppError(t, err, models.CodeNotFound)
}
