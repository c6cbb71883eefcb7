package records_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/qagate/internal/records"
	"github.com/JaimeStill/qagate/pkg/lifecycle"
	"github.com/JaimeStill/qagate/pkg/pagination"
	"github.com/JaimeStill/qagate/pkg/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pageConfig(t *testing.T) pagination.Config {
	t.Helper()
	var cfg pagination.Config
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func newSystem(t *testing.T, store records.Store, archive storage.System) records.System {
	t.Helper()
	if archive == nil {
		archive = storage.Disabled()
	}
	return records.New(store, archive, newValidator(t), discardLogger(), pageConfig(t))
}

func batchRows() []records.RawRecord {
	return []records.RawRecord{
		{"lot_number": "LN-C-1", "process": "Final Inspection", "assignee": "ana", "yield_pct": 98.0, "timestamp": "2024-03-04T08:00:00Z"},
		{"lot_number": "LN-C-2", "process": "final inspection ", "assignee": "ana", "yield_pct": 91.0, "timestamp": "2024-03-04T09:00:00Z"},
		{"lot_number": "LN-R-3", "process": "Outer Layer", "assignee": "ben", "yield_pct": 85.5, "timestamp": "2024-03-05T10:00:00Z", "failure_reason": "Delamination"},
	}
}

func TestIngestIdempotent(t *testing.T) {
	ctx := context.Background()
	store := records.NewMemoryStore()
	sys := newSystem(t, store, nil)
	req := records.IngestRequest{Source: "export.json", Rows: batchRows()}

	first, err := sys.Ingest(ctx, req)
	if err != nil {
		t.Fatalf("first Ingest() error = %v", err)
	}
	if first.Admitted != 3 || first.Duplicates != 0 {
		t.Errorf("first batch = %+v", first)
	}

	second, err := sys.Ingest(ctx, req)
	if err != nil {
		t.Fatalf("second Ingest() error = %v", err)
	}
	if second.Admitted != 0 || second.Duplicates != 3 || second.Superseded != 0 {
		t.Errorf("second batch admitted=%d duplicates=%d superseded=%d, want 0/3/0",
			second.Admitted, second.Duplicates, second.Superseded)
	}

	n, _ := store.Count(ctx, records.Filter{})
	if n != 3 {
		t.Errorf("stored records = %d, want 3", n)
	}

	history, err := sys.Batches(ctx, pagination.PageRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if history.Total != 2 {
		t.Errorf("batch history = %d, want 2", history.Total)
	}
}

func TestIngestSupersede(t *testing.T) {
	ctx := context.Background()
	store := records.NewMemoryStore()
	sys := newSystem(t, store, nil)

	if _, err := sys.Ingest(ctx, records.IngestRequest{Rows: batchRows()}); err != nil {
		t.Fatal(err)
	}

	corrected := batchRows()[:1]
	corrected[0]["yield_pct"] = 72.0
	corrected[0]["failure_reason"] = "Scratch"

	report, err := sys.Ingest(ctx, records.IngestRequest{Rows: corrected})
	if err != nil {
		t.Fatal(err)
	}
	if report.Superseded != 1 {
		t.Fatalf("Superseded = %d, want 1", report.Superseded)
	}

	recs, err := sys.Query(ctx, records.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	var current *records.Record
	for i := range recs {
		if recs[i].YieldPct == 98.0 {
			t.Error("old yield still visible through Query")
		}
		if recs[i].LotNumber == "LN-C-1" {
			current = &recs[i]
		}
	}
	if current == nil || current.YieldPct != 72.0 {
		t.Fatalf("LN-C-1 = %+v, want yield 72", current)
	}
	id := current.ID

	revs, err := sys.Revisions(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(revs) != 1 || revs[0].Previous.YieldPct != 98.0 || revs[0].Current.YieldPct != 72.0 {
		t.Errorf("revisions = %+v", revs)
	}
	if revs[0].BatchID != report.BatchID {
		t.Error("revision not attributed to the superseding batch")
	}
}

func collidingRows() []records.RawRecord {
	return []records.RawRecord{
		{"lot_number": "LN-Q-9", "process": "Dispensing", "yield_pct": 60.0, "timestamp": "2024-03-04T08:00:00Z"},
		{"lot_number": "LN-Q-9", "process": "dispensing", "yield_pct": 65.0, "timestamp": "2024-03-04T08:00:00Z"},
	}
}

func TestIngestLastWriteWinsWithinBatch(t *testing.T) {
	ctx := context.Background()
	sys := newSystem(t, records.NewMemoryStore(), nil)

	report, err := sys.Ingest(ctx, records.IngestRequest{Rows: collidingRows()})
	if err != nil {
		t.Fatal(err)
	}
	if report.Admitted != 1 || report.Collapsed != 1 || report.Superseded != 0 {
		t.Errorf("admitted=%d collapsed=%d superseded=%d, want 1/1/0",
			report.Admitted, report.Collapsed, report.Superseded)
	}

	recs, _ := sys.Query(ctx, records.Filter{})
	if len(recs) != 1 || recs[0].YieldPct != 65.0 {
		t.Fatalf("stored = %+v, want single record with the later yield", recs)
	}

	revs, err := sys.Revisions(ctx, recs[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(revs) != 0 {
		t.Errorf("collapsed rows must not leave revisions, got %d", len(revs))
	}
}

func TestIngestCollidingBatchIdempotent(t *testing.T) {
	ctx := context.Background()
	sys := newSystem(t, records.NewMemoryStore(), nil)
	req := records.IngestRequest{Source: "line-q", Rows: collidingRows()}

	if _, err := sys.Ingest(ctx, req); err != nil {
		t.Fatal(err)
	}
	second, err := sys.Ingest(ctx, req)
	if err != nil {
		t.Fatal(err)
	}

	if second.Admitted != 0 || second.Duplicates != 1 || second.Superseded != 0 || second.Collapsed != 1 {
		t.Errorf("second batch admitted=%d duplicates=%d superseded=%d collapsed=%d, want 0/1/0/1",
			second.Admitted, second.Duplicates, second.Superseded, second.Collapsed)
	}

	recs, _ := sys.Query(ctx, records.Filter{})
	if len(recs) != 1 || recs[0].YieldPct != 65.0 {
		t.Fatalf("stored = %+v, want single record with the later yield", recs)
	}
	revs, _ := sys.Revisions(ctx, recs[0].ID)
	if len(revs) != 0 {
		t.Errorf("revisions after two uploads = %d, want 0", len(revs))
	}

	batches, err := sys.Batches(ctx, pagination.PageRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(batches.Data) != 2 {
		t.Fatalf("batches = %d, want 2", len(batches.Data))
	}
	for _, b := range batches.Data {
		if b.Collapsed != 1 {
			t.Errorf("batch %s collapsed = %d, want 1", b.ID, b.Collapsed)
		}
	}
}

func TestIngestReportsRejectedRows(t *testing.T) {
	ctx := context.Background()
	sys := newSystem(t, records.NewMemoryStore(), nil)

	rows := batchRows()
	delete(rows[1], "yield_pct")

	report, err := sys.Ingest(ctx, records.IngestRequest{Rows: rows})
	if err != nil {
		t.Fatal(err)
	}

	if report.Admitted != 2 {
		t.Errorf("Admitted = %d, want 2", report.Admitted)
	}
	if len(report.Rejected) != 1 {
		t.Fatalf("Rejected = %+v, want one entry", report.Rejected)
	}
	rej := report.Rejected[0]
	if rej.Row != 1 || rej.Kind != records.MissingField || rej.Field != "yield_pct" {
		t.Errorf("rejection = %+v, want row 1 MissingField(yield_pct)", rej)
	}
}

func TestIngestWarningsCarryRow(t *testing.T) {
	ctx := context.Background()
	sys := newSystem(t, records.NewMemoryStore(), nil)

	rows := batchRows()
	rows[2]["lot_number"] = "TRIM-3"
	rows[2]["process"] = "Laser Trim"

	report, err := sys.Ingest(ctx, records.IngestRequest{Rows: rows})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Warnings) != 1 || report.Warnings[0].Row != 2 || report.Warnings[0].Kind != records.UnmappedProcess {
		t.Errorf("warnings = %+v", report.Warnings)
	}
	if report.Admitted != 3 {
		t.Errorf("unmapped process must not reject the row; admitted = %d", report.Admitted)
	}
}

type failingStore struct {
	*records.MemoryStore
	failAfter int
	writes    int
}

var errDiskFull = errors.New("disk full")

func (f *failingStore) Upsert(ctx context.Context, rec records.Record) error {
	if f.writes >= f.failAfter {
		return errDiskFull
	}
	f.writes++
	return f.MemoryStore.Upsert(ctx, rec)
}

func TestIngestStoreFailureKeepsPriorRows(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{MemoryStore: records.NewMemoryStore(), failAfter: 1}
	sys := newSystem(t, store, nil)

	report, err := sys.Ingest(ctx, records.IngestRequest{Rows: batchRows()})
	if !errors.Is(err, records.ErrStoreUnavailable) || !errors.Is(err, errDiskFull) {
		t.Fatalf("Ingest() error = %v, want ErrStoreUnavailable wrapping the store error", err)
	}
	if report == nil || report.Admitted != 1 {
		t.Fatalf("partial report = %+v, want admitted=1", report)
	}

	n, _ := store.Count(ctx, records.Filter{})
	if n != 1 {
		t.Errorf("stored = %d, want 1 (row before the failure kept)", n)
	}
}

type memoryArchive struct {
	blobs map[string][]byte
}

func (m *memoryArchive) Enabled() bool                      { return true }
func (m *memoryArchive) Start(*lifecycle.Coordinator) error { return nil }

func (m *memoryArchive) Download(context.Context, string) (io.ReadCloser, error) {
	return nil, storage.ErrNotFound
}

func (m *memoryArchive) Upload(_ context.Context, key string, r io.Reader, _ string) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}
	m.blobs[key] = buf.Bytes()
	return nil
}

func TestIngestArchivesPayload(t *testing.T) {
	archive := &memoryArchive{blobs: map[string][]byte{}}
	sys := newSystem(t, records.NewMemoryStore(), archive)

	report, err := sys.Ingest(context.Background(), records.IngestRequest{Source: "march.json", Rows: batchRows()})
	if err != nil {
		t.Fatal(err)
	}
	if report.ArchiveKey == nil {
		t.Fatal("ArchiveKey not set")
	}
	data, ok := archive.blobs[*report.ArchiveKey]
	if !ok || !bytes.Contains(data, []byte("march.json")) {
		t.Errorf("archived payload missing or incomplete under %s", *report.ArchiveKey)
	}
}

func TestFindUnknown(t *testing.T) {
	sys := newSystem(t, records.NewMemoryStore(), nil)
	if _, err := sys.Find(context.Background(), uuid.New()); !errors.Is(err, records.ErrNotFound) {
		t.Errorf("Find() error = %v, want ErrNotFound", err)
	}
}
