package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Sasidhar-2001/HMS/internal/clock"
	"github.com/Sasidhar-2001/HMS/internal/config"
	feedomain "github.com/Sasidhar-2001/HMS/internal/fee/domain"
)

var testDBSeq atomic.Int64

func setupSweepTestDB(t *testing.T) (*gorm.DB, *snowflake.Node) {
	t.Helper()
	dsn := fmt.Sprintf("file:sweep%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&feedomain.Fee{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return db, node
}

func insertFee(t *testing.T, db *gorm.DB, node *snowflake.Node, status feedomain.FeeStatus, due time.Time) snowflake.ID {
	t.Helper()
	fee := feedomain.Fee{
		ID:            node.Generate(),
		StudentID:     node.Generate(),
		Type:          feedomain.FeeTypeRoomRent,
		Month:         int(due.Month()),
		Year:          due.Year(),
		DueDate:       due,
		Amount:        1000,
		FinalAmount:   1000,
		BalanceAmount: 1000,
		Status:        status,
	}
	if err := db.Create(&fee).Error; err != nil {
		t.Fatalf("insert fee: %v", err)
	}
	return fee.ID
}

func TestMarkOverdueSweepsInBatches(t *testing.T) {
	db, node := setupSweepTestDB(t)
	today := time.Date(2026, time.April, 1, 2, 30, 0, 0, time.UTC)
	due := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		insertFee(t, db, node, feedomain.FeeStatusPending, due)
	}
	notDue := insertFee(t, db, node, feedomain.FeeStatusPending, time.Date(2026, time.April, 10, 0, 0, 0, 0, time.UTC))
	partial := insertFee(t, db, node, feedomain.FeeStatusPartial, due)

	sweeper := NewSweeper(db, zap.NewNop(), clock.Fixed{At: today}, config.Config{SweepBatchSize: 2})
	total, err := sweeper.MarkOverdue(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if total != 5 {
		t.Fatalf("expected 5 fees swept, got %d", total)
	}

	var overdue int64
	if err := db.Model(&feedomain.Fee{}).
		Where("status = ?", feedomain.FeeStatusOverdue).
		Count(&overdue).Error; err != nil {
		t.Fatalf("count overdue: %v", err)
	}
	if overdue != 5 {
		t.Fatalf("expected 5 overdue rows, got %d", overdue)
	}

	// Fees not yet due and fees already in other states are untouched.
	assertStatus(t, db, notDue, feedomain.FeeStatusPending)
	assertStatus(t, db, partial, feedomain.FeeStatusPartial)
}

func TestMarkOverdueNoWork(t *testing.T) {
	db, node := setupSweepTestDB(t)
	today := time.Date(2026, time.April, 1, 2, 30, 0, 0, time.UTC)
	insertFee(t, db, node, feedomain.FeeStatusPending, time.Date(2026, time.April, 10, 0, 0, 0, 0, time.UTC))

	sweeper := NewSweeper(db, zap.NewNop(), clock.Fixed{At: today}, config.Config{})
	total, err := sweeper.MarkOverdue(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected no fees swept, got %d", total)
	}
}

func assertStatus(t *testing.T, db *gorm.DB, id snowflake.ID, want feedomain.FeeStatus) {
	t.Helper()
	var fee feedomain.Fee
	if err := db.First(&fee, "id = ?", id).Error; err != nil {
		t.Fatalf("load fee: %v", err)
	}
	if fee.Status != want {
		t.Fatalf("fee %s: expected %s, got %s", id, want, fee.Status)
	}
}
