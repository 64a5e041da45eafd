package repository

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// dryRunDB opens a connectionless session that builds SQL without executing
// it, and captures every generated query so statements can be asserted on.
func dryRunDB(t *testing.T) (*gorm.DB, *[]string) {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=pos dbname=pos",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open dry-run session: %v", err)
	}

	captured := &[]string{}
	err = db.Callback().Query().After("gorm:query").Register("capture_sql", func(tx *gorm.DB) {
		*captured = append(*captured, tx.Statement.SQL.String())
	})
	if err != nil {
		t.Fatalf("failed to register capture callback: %v", err)
	}
	return db, captured
}

// The commit-time stock and balance rechecks are only sound if the reads
// actually take row locks; a plain SELECT lets two concurrent sales both
// pass the check and both write.
func TestLockReadsEmitForUpdate(t *testing.T) {
	db, captured := dryRunDB(t)
	id := uuid.New()

	productRepo := NewProductRepo(db)
	customerRepo := NewCustomerRepo(db)
	saleRepo := NewSaleRepo(db)

	cases := []struct {
		name string
		run  func()
	}{
		{"product", func() { productRepo.LockByID(db, id) }},
		{"variant", func() { productRepo.LockVariantByID(db, id) }},
		{"customer", func() { customerRepo.LockByID(db, id) }},
		{"sale", func() { saleRepo.LockByID(db, id) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			*captured = (*captured)[:0]
			tc.run()
			if len(*captured) == 0 {
				t.Fatal("no SQL captured")
			}
			if !strings.Contains((*captured)[0], "FOR UPDATE") {
				t.Errorf("lock read built without FOR UPDATE: %s", (*captured)[0])
			}
		})
	}
}

// Plain reads must not take locks; reporting and lookups may never block
// the sale path.
func TestUnlockedReadsStayUnlocked(t *testing.T) {
	db, captured := dryRunDB(t)

	NewProductRepo(db).FindByID(uuid.New())
	if len(*captured) == 0 {
		t.Fatal("no SQL captured")
	}
	if strings.Contains((*captured)[0], "FOR UPDATE") {
		t.Errorf("plain read unexpectedly locks: %s", (*captured)[0])
	}
}
