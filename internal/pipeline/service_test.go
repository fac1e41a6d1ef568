package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/kizamehoshigaki/retail-analytics-dashboard/internal/clock"
	"github.com/kizamehoshigaki/retail-analytics-dashboard/internal/config"
	"github.com/kizamehoshigaki/retail-analytics-dashboard/internal/pipeline/domain"
	whdomain "github.com/kizamehoshigaki/retail-analytics-dashboard/internal/warehouse/domain"
	"github.com/kizamehoshigaki/retail-analytics-dashboard/internal/warehouse/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const header = "Order ID,Order Date,Ship Date,Ship Mode,Customer ID,Customer Name,Segment,Country,City,State,Postal Code,Region,Product ID,Category,Sub-Category,Product Name,Sales,Quantity,Discount,Profit"

const (
	rowBookcase = "CA-2016-152156,11/8/2016,11/11/2016,Second Class,CG-12520,Claire Gute,Consumer,United States,Henderson,Kentucky,42420,South,FUR-BO-10001798,Furniture,Bookcases,Bush Somerset Bookcase,261.96,2,0,41.9136"
	rowChair    = "CA-2016-152156,11/8/2016,11/11/2016,Second Class,CG-12520,Claire Gute,Consumer,United States,Henderson,Kentucky,42420,South,FUR-CH-10000454,Furniture,Chairs,Hon Deluxe Chair,731.94,3,0,219.582"
	rowLabels   = "CA-2016-138688,6/12/2016,6/16/2016,Second Class,DV-13045,Darrin Van Huff,Corporate,United States,Los Angeles,California,90036,West,OFF-LA-10000240,Office Supplies,Labels,Self-Adhesive Labels,14.62,2,0,6.8714"
)

func writeSource(t *testing.T, rows ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "superstore.csv")
	content := strings.Join(append([]string{header}, rows...), "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func openWarehouse(t *testing.T, name string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&whdomain.DimCustomer{},
		&whdomain.DimProduct{},
		&whdomain.DimLocation{},
		&whdomain.DimDate{},
		&whdomain.FactOrder{},
	))
	return db
}

func newTestService(t *testing.T, db *gorm.DB, sourceCSV string, mutate func(*config.Config)) *Service {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := config.Config{SourceCSV: sourceCSV, DBType: "sqlite"}
	if mutate != nil {
		mutate(&cfg)
	}

	return New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
		Cfg:   cfg,
		Rules: config.DefaultQualityRules(),
		Clock: clock.NewFakeClock(time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)),
	})
}

func TestRunLoadsStarSchema(t *testing.T) {
	db := openWarehouse(t, "e2e_load")
	svc := newTestService(t, db, writeSource(t, rowBookcase, rowChair, rowLabels), nil)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSucceeded, report.Status)

	assert.Equal(t, 3, report.RowsRead)
	assert.Equal(t, 3, report.RowsAccepted)
	assert.Equal(t, 0, report.RowsRejected)
	assert.Equal(t, 3, report.FactsWritten)

	assert.Equal(t, int64(2), report.WarehouseCustomers)
	assert.Equal(t, int64(3), report.WarehouseProducts)
	assert.Equal(t, int64(2), report.WarehouseLocations)
	assert.Equal(t, int64(4), report.WarehouseDates)
	assert.Equal(t, int64(3), report.WarehouseFacts)

	assert.True(t, report.ReconciliationPassed())
}

func TestRunReferentialIntegrity(t *testing.T) {
	db := openWarehouse(t, "e2e_refs")
	svc := newTestService(t, db, writeSource(t, rowBookcase, rowLabels), nil)

	_, err := svc.Run(context.Background())
	require.NoError(t, err)

	var dangling int64
	require.NoError(t, db.Raw(`
		SELECT COUNT(*) FROM fact_orders f
		LEFT JOIN dim_customer c ON c.customer_key = f.customer_key
		LEFT JOIN dim_product p ON p.product_key = f.product_key
		LEFT JOIN dim_location l ON l.location_key = f.location_key
		LEFT JOIN dim_date od ON od.date_key = f.order_date_key
		LEFT JOIN dim_date sd ON sd.date_key = f.ship_date_key
		WHERE c.customer_key IS NULL OR p.product_key IS NULL
		   OR l.location_key IS NULL OR od.date_key IS NULL OR sd.date_key IS NULL
	`).Scan(&dangling).Error)
	assert.Zero(t, dangling)
}

func TestRunTwiceKeepsDimensionCountsStable(t *testing.T) {
	db := openWarehouse(t, "e2e_rerun")
	source := writeSource(t, rowBookcase, rowChair, rowLabels)
	svc := newTestService(t, db, source, nil)

	first, err := svc.Run(context.Background())
	require.NoError(t, err)

	second, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSucceeded, second.Status)

	// Dimensions are upserted by natural key; facts are append-only, so the
	// second batch doubles them. Both batch-scoped reconciliations pass.
	assert.Equal(t, first.WarehouseCustomers, second.WarehouseCustomers)
	assert.Equal(t, first.WarehouseProducts, second.WarehouseProducts)
	assert.Equal(t, first.WarehouseLocations, second.WarehouseLocations)
	assert.Equal(t, first.WarehouseDates, second.WarehouseDates)
	assert.Equal(t, first.WarehouseFacts*2, second.WarehouseFacts)
	assert.True(t, second.ReconciliationPassed())
}

func TestRunResetFactsBeforeReload(t *testing.T) {
	db := openWarehouse(t, "e2e_reset")
	source := writeSource(t, rowBookcase, rowChair)
	svc := newTestService(t, db, source, func(cfg *config.Config) { cfg.ResetFacts = true })

	_, err := svc.Run(context.Background())
	require.NoError(t, err)
	second, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), second.WarehouseFacts)
}

func TestRunEmptySourceSucceeds(t *testing.T) {
	db := openWarehouse(t, "e2e_empty")
	svc := newTestService(t, db, writeSource(t), nil)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSucceeded, report.Status)
	assert.Zero(t, report.RowsRead)
	assert.Zero(t, report.FactsWritten)
	assert.Zero(t, report.WarehouseFacts)
	require.Len(t, report.Reconciliation, 4)
	assert.True(t, report.ReconciliationPassed())
}

func TestRunDuplicateLineItemRemoved(t *testing.T) {
	db := openWarehouse(t, "e2e_dup")
	svc := newTestService(t, db, writeSource(t, rowBookcase, rowBookcase), nil)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.DuplicatesRemoved)
	assert.Equal(t, 1, report.FactsWritten)
	assert.True(t, report.ReconciliationPassed())
}

func TestRunViolationReportedNotFatal(t *testing.T) {
	badDiscount := strings.Replace(rowLabels, ",2,0,6.8714", ",2,1.5,6.8714", 1)

	db := openWarehouse(t, "e2e_violation")
	svc := newTestService(t, db, writeSource(t, rowBookcase, badDiscount), nil)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSucceeded, report.Status)
	assert.Equal(t, 1, report.RowsRejected)
	assert.Equal(t, 1, report.ViolationCounts[domain.RuleDiscountRange])
	assert.Equal(t, 1, report.FactsWritten)
}

func TestRunMissingColumnAbortsBeforeWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.csv")
	broken := strings.Replace(header, ",Sales", "", 1) + "\n" +
		"CA-1,11/8/2016,11/11/2016,First Class,C-1,A,Consumer,United States,Henderson,Kentucky,42420,South,P-1,Furniture,Bookcases,Bookcase,2,0,41.9\n"
	require.NoError(t, os.WriteFile(path, []byte(broken), 0o600))

	db := openWarehouse(t, "e2e_structural")
	svc := newTestService(t, db, path, nil)

	report, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStructural)
	assert.Equal(t, domain.StatusFailed, report.Status)

	var facts int64
	require.NoError(t, db.Model(&whdomain.FactOrder{}).Count(&facts).Error)
	assert.Zero(t, facts)
}

func TestRunStorageFailureRollsBackDimensions(t *testing.T) {
	db := openWarehouse(t, "e2e_rollback")
	svc := newTestService(t, db, writeSource(t, rowBookcase, rowChair), nil)

	// Losing the fact table mid-run fails the load after the dimension
	// upserts; the shared transaction must take those back with it.
	require.NoError(t, db.Migrator().DropTable(&whdomain.FactOrder{}))

	report, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.Equal(t, domain.StatusFailed, report.Status)

	var customers, products int64
	require.NoError(t, db.Model(&whdomain.DimCustomer{}).Count(&customers).Error)
	require.NoError(t, db.Model(&whdomain.DimProduct{}).Count(&products).Error)
	assert.Zero(t, customers)
	assert.Zero(t, products)
}

func TestRunFirstObservedCustomerNameWins(t *testing.T) {
	renamed := strings.Replace(rowChair, "Claire Gute", "Claire G.", 1)

	db := openWarehouse(t, "e2e_conflict")
	svc := newTestService(t, db, writeSource(t, rowBookcase, renamed), nil)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.WarehouseCustomers)
	assert.Equal(t, 1, report.AttributeConflicts["customer"])

	var name string
	require.NoError(t, db.Raw(`SELECT customer_name FROM dim_customer WHERE customer_id = ?`, "CG-12520").Scan(&name).Error)
	assert.Equal(t, "Claire Gute", name)
}

func TestRunReconciliationLaw(t *testing.T) {
	db := openWarehouse(t, "e2e_reconcile")
	svc := newTestService(t, db, writeSource(t, rowBookcase, rowChair, rowLabels), nil)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	byMetric := map[string]domain.ReconciliationEntry{}
	for _, e := range report.Reconciliation {
		byMetric[e.Metric] = e
	}
	sales := byMetric["total_sales"]
	assert.True(t, sales.Match)
	assert.InDelta(t, 261.96+731.94+14.62, sales.Source, 1e-9)
	assert.InDelta(t, sales.Source, sales.Warehouse, 1e-6)
	assert.Equal(t, float64(2), byMetric["total_orders"].Source)
}
