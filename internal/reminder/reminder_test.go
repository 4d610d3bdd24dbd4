package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/marugo/torioki/internal/clock"
	"github.com/marugo/torioki/internal/config"
	notificationdomain "github.com/marugo/torioki/internal/notification/domain"
	reservationdomain "github.com/marugo/torioki/internal/reservation/domain"
	reservationrepo "github.com/marugo/torioki/internal/reservation/repository"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var baseTime = time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)

const (
	lineUserA = "U4af4980629abcdef1234567890abcdef"
	lineUserB = "Ub1c2d3e4f5abcdef1234567890abcdef"
)

type dispatcherStub struct {
	mu               sync.Mutex
	sent             []string
	sentReservations []string
	failFor          map[string]bool
	notifiedAt       map[string]bool
}

func (d *dispatcherStub) Notify(ctx context.Context, recipient string, kind notificationdomain.Kind, summary notificationdomain.ReservationSummary) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failFor[recipient] {
		return notificationdomain.ErrPushFailed
	}
	d.sent = append(d.sent, recipient)
	d.sentReservations = append(d.sentReservations, summary.ReservationID)
	return nil
}

func (d *dispatcherStub) DispatchAsync(recipient string, kind notificationdomain.Kind, summary notificationdomain.ReservationSummary) {
	_ = d.Notify(context.Background(), recipient, kind, summary)
}

func (d *dispatcherStub) WasNotifiedSince(ctx context.Context, reservationID string, kind notificationdomain.Kind, since time.Time) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.notifiedAt[reservationID], nil
}

func (d *dispatcherStub) Flush() {}

func (d *dispatcherStub) Sent() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.sent))
	copy(out, d.sent)
	return out
}

func (d *dispatcherStub) SentReservations() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.sentReservations))
	copy(out, d.sentReservations)
	return out
}

func setupReminder(t *testing.T, dispatcher notificationdomain.Dispatcher) (*Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(&reservationdomain.Reservation{}, &reservationdomain.ReservationItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	service := New(Params{
		DB:           db,
		Log:          zap.NewNop(),
		Config:       config.Config{Scheduler: config.SchedulerConfig{ReminderLead: 24 * time.Hour}},
		Clock:        clock.NewFakeClock(baseTime),
		Reservations: reservationrepo.Provide(),
		Dispatcher:   dispatcher,
	})
	return service, db, node
}

func seed(t *testing.T, db *gorm.DB, node *snowflake.Node, status reservationdomain.Status, pickup time.Time, lineUserID *string) snowflake.ID {
	t.Helper()
	id := node.Generate()
	reservation := reservationdomain.Reservation{
		ID:           id,
		PresetID:     1,
		CustomerName: "田中一郎",
		Phone:        "090-1111-2222",
		PickupDate:   pickup,
		Status:       status,
		TotalAmount:  500,
		LineUserID:   lineUserID,
		CreatedAt:    baseTime.Add(-24 * time.Hour),
		UpdatedAt:    baseTime.Add(-24 * time.Hour),
	}
	if err := db.Create(&reservation).Error; err != nil {
		t.Fatalf("seed reservation: %v", err)
	}
	item := reservationdomain.ReservationItem{
		ID: node.Generate(), ReservationID: id, ProductID: 11,
		ProductName: "桜餅", Quantity: 2, UnitPrice: 250, Subtotal: 500,
		CreatedAt: reservation.CreatedAt,
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return id
}

func strPtr(s string) *string { return &s }

func tomorrowAt(hour int) time.Time {
	return time.Date(2026, 4, 11, hour, 0, 0, 0, time.UTC)
}

func TestSendBatchTargetsTomorrowWindow(t *testing.T) {
	dispatcher := &dispatcherStub{}
	service, db, node := setupReminder(t, dispatcher)

	seed(t, db, node, reservationdomain.StatusConfirmed, tomorrowAt(10), strPtr(lineUserA))
	// outside the window: today and the day after tomorrow
	seed(t, db, node, reservationdomain.StatusConfirmed, baseTime.Add(2*time.Hour), strPtr(lineUserB))
	seed(t, db, node, reservationdomain.StatusConfirmed, tomorrowAt(10).Add(24*time.Hour), strPtr(lineUserB))

	result, err := service.SendBatch(context.Background())
	if err != nil {
		t.Fatalf("send batch: %v", err)
	}
	if result.Scanned != 1 || result.Sent != 1 {
		t.Fatalf("expected 1 scanned 1 sent, got %+v", result)
	}
	sent := dispatcher.Sent()
	if len(sent) != 1 || sent[0] != lineUserA {
		t.Fatalf("unexpected recipients: %v", sent)
	}
}

func TestSendBatchSkipsUnreachableAndTerminal(t *testing.T) {
	dispatcher := &dispatcherStub{}
	service, db, node := setupReminder(t, dispatcher)

	seed(t, db, node, reservationdomain.StatusConfirmed, tomorrowAt(10), nil)
	seed(t, db, node, reservationdomain.StatusConfirmed, tomorrowAt(11), strPtr("not-a-line-id"))
	seed(t, db, node, reservationdomain.StatusCancelled, tomorrowAt(12), strPtr(lineUserA))
	seed(t, db, node, reservationdomain.StatusPending, tomorrowAt(13), strPtr(lineUserB))

	result, err := service.SendBatch(context.Background())
	if err != nil {
		t.Fatalf("send batch: %v", err)
	}
	// cancelled row is not even scanned
	if result.Scanned != 3 {
		t.Fatalf("expected 3 scanned, got %+v", result)
	}
	if result.Sent != 1 || result.Skipped != 2 {
		t.Fatalf("expected 1 sent 2 skipped, got %+v", result)
	}
	sent := dispatcher.Sent()
	if len(sent) != 1 || sent[0] != lineUserB {
		t.Fatalf("unexpected recipients: %v", sent)
	}
}

func TestSendBatchRemindsEachReservationForSameUser(t *testing.T) {
	dispatcher := &dispatcherStub{}
	service, db, node := setupReminder(t, dispatcher)

	// two reservations, same recipient, both picked up tomorrow
	first := seed(t, db, node, reservationdomain.StatusConfirmed, tomorrowAt(10), strPtr(lineUserA))
	second := seed(t, db, node, reservationdomain.StatusConfirmed, tomorrowAt(15), strPtr(lineUserA))

	result, err := service.SendBatch(context.Background())
	if err != nil {
		t.Fatalf("send batch: %v", err)
	}
	if result.Scanned != 2 || result.Sent != 2 || result.Skipped != 0 {
		t.Fatalf("expected both reservations reminded, got %+v", result)
	}
	sent := dispatcher.SentReservations()
	if len(sent) != 2 || sent[0] != first.String() || sent[1] != second.String() {
		t.Fatalf("unexpected reminded reservations: %v", sent)
	}
}

func TestSendBatchDedupsAcrossRuns(t *testing.T) {
	dispatcher := &dispatcherStub{notifiedAt: map[string]bool{}}
	service, db, node := setupReminder(t, dispatcher)

	reminded := seed(t, db, node, reservationdomain.StatusConfirmed, tomorrowAt(10), strPtr(lineUserA))
	seed(t, db, node, reservationdomain.StatusConfirmed, tomorrowAt(15), strPtr(lineUserA))
	dispatcher.notifiedAt[reminded.String()] = true

	result, err := service.SendBatch(context.Background())
	if err != nil {
		t.Fatalf("send batch: %v", err)
	}
	// only the reservation without an audit record today gets a push
	if result.Sent != 1 || result.Skipped != 1 {
		t.Fatalf("expected already-reminded reservation skipped, got %+v", result)
	}
	sent := dispatcher.SentReservations()
	if len(sent) != 1 || sent[0] == reminded.String() {
		t.Fatalf("unexpected reminded reservations: %v", sent)
	}
}

func TestSendBatchCountsFailuresAndContinues(t *testing.T) {
	dispatcher := &dispatcherStub{failFor: map[string]bool{lineUserA: true}}
	service, db, node := setupReminder(t, dispatcher)

	seed(t, db, node, reservationdomain.StatusConfirmed, tomorrowAt(10), strPtr(lineUserA))
	seed(t, db, node, reservationdomain.StatusConfirmed, tomorrowAt(11), strPtr(lineUserB))

	result, err := service.SendBatch(context.Background())
	if !errors.Is(err, notificationdomain.ErrPushFailed) {
		t.Fatalf("expected push failure surfaced, got %v", err)
	}
	if result.Sent != 1 || result.Failed != 1 {
		t.Fatalf("expected 1 sent 1 failed, got %+v", result)
	}
	sent := dispatcher.Sent()
	if len(sent) != 1 || sent[0] != lineUserB {
		t.Fatalf("unexpected recipients: %v", sent)
	}
}
