package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/marugo/torioki/internal/config"
	"github.com/marugo/torioki/internal/notification/domain"
	"github.com/marugo/torioki/internal/notification/repository"
	"github.com/marugo/torioki/internal/providers/line"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testLineUserID = "U4af4980629abcdef1234567890abcdef"

type providerStub struct {
	mu     sync.Mutex
	pushes []pushCall
	err    error
}

type pushCall struct {
	to       string
	messages []line.Message
}

func (p *providerStub) Push(ctx context.Context, to string, messages []line.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushes = append(p.pushes, pushCall{to: to, messages: messages})
	return p.err
}

func (p *providerStub) calls() []pushCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]pushCall, len(p.pushes))
	copy(out, p.pushes)
	return out
}

func setupDispatcher(t *testing.T, provider line.Provider) (domain.Dispatcher, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(&domain.NotificationRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	d := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Provider: provider,
		Repo:     repository.Provide(),
		Cfg: config.Config{
			Line: config.LineConfig{PublicURL: "https://shop.example.com"},
		},
	})
	return d, db
}

func summaryFixture() domain.ReservationSummary {
	return domain.ReservationSummary{
		ReservationID: "1820000000000001",
		CustomerName:  "佐藤花子",
		PickupDate:    time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		TotalAmount:   1194,
		Items: []domain.ItemSummary{
			{ProductName: "いちご大福", Quantity: 3, UnitPrice: 398, Subtotal: 1194},
		},
	}
}

func loadRecords(t *testing.T, db *gorm.DB) []domain.NotificationRecord {
	t.Helper()
	var records []domain.NotificationRecord
	if err := db.Order("id").Find(&records).Error; err != nil {
		t.Fatalf("load records: %v", err)
	}
	return records
}

func TestNotifyPushesAndRecords(t *testing.T) {
	provider := &providerStub{}
	d, db := setupDispatcher(t, provider)

	if err := d.Notify(context.Background(), testLineUserID, domain.KindConfirmation, summaryFixture()); err != nil {
		t.Fatalf("notify: %v", err)
	}

	calls := provider.calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 push, got %d", len(calls))
	}
	if calls[0].to != testLineUserID {
		t.Fatalf("unexpected recipient %q", calls[0].to)
	}
	text := calls[0].messages[0].Text
	if !strings.Contains(text, "予約完了") || !strings.Contains(text, "いちご大福") {
		t.Fatalf("unexpected message body: %q", text)
	}
	if !strings.Contains(text, "https://shop.example.com/reservation/1820000000000001") {
		t.Fatalf("expected reservation link in body: %q", text)
	}

	records := loadRecords(t, db)
	if len(records) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(records))
	}
	if records[0].Kind != domain.KindConfirmation {
		t.Fatalf("expected confirmation record, got %q", records[0].Kind)
	}
	if records[0].ReservationID != "1820000000000001" {
		t.Fatalf("expected reservation id on the audit record, got %q", records[0].ReservationID)
	}
}

func TestNotifyPushFailureStillRecords(t *testing.T) {
	provider := &providerStub{err: errors.New("line api 500")}
	d, db := setupDispatcher(t, provider)

	err := d.Notify(context.Background(), testLineUserID, domain.KindReminder, summaryFixture())
	if !errors.Is(err, domain.ErrPushFailed) {
		t.Fatalf("expected ErrPushFailed, got %v", err)
	}

	records := loadRecords(t, db)
	if len(records) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(records))
	}
	if records[0].Kind != domain.KindError {
		t.Fatalf("expected error record, got %q", records[0].Kind)
	}

	var payload struct {
		RequestedKind domain.Kind `json:"requested_kind"`
		Error         string      `json:"error"`
	}
	if err := json.Unmarshal(records[0].Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.RequestedKind != domain.KindReminder {
		t.Fatalf("expected requested kind reminder, got %q", payload.RequestedKind)
	}
	if !strings.Contains(payload.Error, "line api 500") {
		t.Fatalf("expected push failure detail in payload, got %q", payload.Error)
	}
}

func TestNotifyInvalidRecipientSkipsPush(t *testing.T) {
	provider := &providerStub{}
	d, db := setupDispatcher(t, provider)

	err := d.Notify(context.Background(), "not-a-line-id", domain.KindConfirmation, summaryFixture())
	if !errors.Is(err, domain.ErrInvalidRecipient) {
		t.Fatalf("expected ErrInvalidRecipient, got %v", err)
	}
	if len(provider.calls()) != 0 {
		t.Fatal("expected no push for an invalid recipient")
	}

	records := loadRecords(t, db)
	if len(records) != 1 || records[0].Kind != domain.KindError {
		t.Fatalf("expected one error record, got %+v", records)
	}
}

func TestDispatchAsyncCompletesAfterFlush(t *testing.T) {
	provider := &providerStub{}
	d, db := setupDispatcher(t, provider)

	d.DispatchAsync(testLineUserID, domain.KindCancellation, summaryFixture())
	d.Flush()

	if len(provider.calls()) != 1 {
		t.Fatalf("expected 1 push after flush, got %d", len(provider.calls()))
	}
	records := loadRecords(t, db)
	if len(records) != 1 || records[0].Kind != domain.KindCancellation {
		t.Fatalf("expected one cancellation record, got %+v", records)
	}
}

func TestWasNotifiedSinceMatchesReservationKindAndCutoff(t *testing.T) {
	provider := &providerStub{}
	d, _ := setupDispatcher(t, provider)

	summary := summaryFixture()
	if err := d.Notify(context.Background(), testLineUserID, domain.KindReminder, summary); err != nil {
		t.Fatalf("notify: %v", err)
	}

	sent, err := d.WasNotifiedSince(context.Background(), summary.ReservationID, domain.KindReminder, time.Now().UTC().Add(-time.Minute))
	if err != nil {
		t.Fatalf("was notified: %v", err)
	}
	if !sent {
		t.Fatal("expected reminder to count as sent")
	}

	sent, err = d.WasNotifiedSince(context.Background(), summary.ReservationID, domain.KindReminder, time.Now().UTC().Add(time.Minute))
	if err != nil {
		t.Fatalf("was notified: %v", err)
	}
	if sent {
		t.Fatal("expected no record after a future cutoff")
	}

	sent, err = d.WasNotifiedSince(context.Background(), summary.ReservationID, domain.KindConfirmation, time.Now().UTC().Add(-time.Minute))
	if err != nil {
		t.Fatalf("was notified: %v", err)
	}
	if sent {
		t.Fatal("expected kind filter to exclude the reminder record")
	}

	sent, err = d.WasNotifiedSince(context.Background(), "1829999999999999", domain.KindReminder, time.Now().UTC().Add(-time.Minute))
	if err != nil {
		t.Fatalf("was notified: %v", err)
	}
	if sent {
		t.Fatal("expected another reservation of the same user to stay unreminded")
	}
}

func TestIsValidLineUserID(t *testing.T) {
	cases := []struct {
		id    string
		valid bool
	}{
		{testLineUserID, true},
		{"", false},
		{"U4af4980629abcdef1234567890abcde", false},   // 32 chars
		{"X4af4980629abcdef1234567890abcdef", false},  // wrong prefix
		{"U4AF4980629ABCDEF1234567890ABCDEF", false},  // uppercase hex
		{"U4af4980629abcdef1234567890abcdeg", false},  // non-hex tail
	}
	for _, tc := range cases {
		if got := IsValidLineUserID(tc.id); got != tc.valid {
			t.Fatalf("IsValidLineUserID(%q) = %v, want %v", tc.id, got, tc.valid)
		}
	}
}
