package logwriter

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dtatools/transferlog/internal/config"
	"github.com/dtatools/transferlog/internal/domain"
)

func testConfig(outputDir string) *config.Config {
	cfg := config.Default()
	cfg.Logging.OutputFolder = outputDir
	cfg.Requests.OutputFolder = outputDir
	return cfg
}

func testTransferContext() domain.TransferContext {
	return domain.TransferContext{
		Kind:             domain.OperationTransfer,
		MediaType:        "Flash",
		MediaID:          "CN-1001",
		TransferType:     "Low to High",
		TransferTypeAbbr: "L2H",
		Source:           "Intranet",
		Destination:      "Customer",
		Direction:        domain.DirectionOutgoing,
		TransferDate:     time.Date(2025, time.March, 14, 0, 0, 0, 0, time.Local),
		Username:         "jdoe",
		ComputerName:     "WS-042",
	}
}

func testInventory() domain.Inventory {
	return domain.Inventory{
		Entries: []domain.FileEntry{
			{
				Path:        "/data/a.txt",
				DisplayPath: "a.txt",
				Kind:        domain.EntryKindFile,
				Size:        10,
				ModTime:     time.Date(2025, time.March, 1, 12, 0, 0, 0, time.Local),
				Permissions: "-rw-r--r--",
				Checksum:    "deadbeef",
			},
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	return rows
}

// TestWriteTransfer tests the happy path: detail file plus summary row
func TestWriteTransfer(t *testing.T) {
	dir := t.TempDir()
	w := New(testConfig(dir))
	now := time.Date(2025, time.March, 14, 9, 30, 0, 0, time.Local)

	res, err := w.Write(testTransferContext(), testInventory(), now)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if res.Counter != 1 {
		t.Errorf("counter = %d, want 1", res.Counter)
	}

	detailName := filepath.Base(res.DetailPath)
	if detailName != "20250314_jdoe_L2H_Intranet-Customer_001.csv" {
		t.Errorf("detail name = %q", detailName)
	}
	if filepath.Base(res.SummaryPath) != "TransferLog_2025.log" {
		t.Errorf("summary name = %q", filepath.Base(res.SummaryPath))
	}

	detail := readCSV(t, res.DetailPath)
	if len(detail) != 2 {
		t.Fatalf("detail rows = %d, want 2 (header + entry)", len(detail))
	}
	if detail[0][0] != "Level" || detail[0][6] != "FileHash" {
		t.Errorf("detail header = %v", detail[0])
	}
	row := detail[1]
	if row[0] != "0" || row[2] != "/data/a.txt" || row[3] != "10" || row[6] != "deadbeef" {
		t.Errorf("detail row = %v", row)
	}

	summary := readCSV(t, res.SummaryPath)
	if len(summary) != 2 {
		t.Fatalf("summary rows = %d, want 2 (header + record)", len(summary))
	}
	rec := summary[1]
	if rec[0] != "2025-03-14 09:30:00" {
		t.Errorf("timestamp = %q", rec[0])
	}
	if rec[7] != "Intranet" || rec[8] != "Customer" || rec[9] != "Outgoing" {
		t.Errorf("source/destination/direction = %v", rec[7:10])
	}
	if rec[10] != "1" || rec[11] != "10" {
		t.Errorf("count/size = %v", rec[10:12])
	}
	if rec[12] != detailName {
		t.Errorf("file log reference = %q, want %q", rec[12], detailName)
	}
}

// TestWriteCollisionCounter tests that an existing counter=1 file pushes
// the new detail file to counter=2 without overwriting
func TestWriteCollisionCounter(t *testing.T) {
	dir := t.TempDir()
	w := New(testConfig(dir))
	now := time.Date(2025, time.March, 14, 9, 30, 0, 0, time.Local)

	first, err := w.Write(testTransferContext(), testInventory(), now)
	if err != nil {
		t.Fatalf("first Write failed: %v", err)
	}

	firstContent, err := os.ReadFile(first.DetailPath)
	if err != nil {
		t.Fatalf("read first detail: %v", err)
	}

	second, err := w.Write(testTransferContext(), testInventory(), now)
	if err != nil {
		t.Fatalf("second Write failed: %v", err)
	}

	if second.Counter != 2 {
		t.Errorf("second counter = %d, want 2", second.Counter)
	}
	if !strings.Contains(filepath.Base(second.DetailPath), "_002.csv") {
		t.Errorf("second detail name = %q", filepath.Base(second.DetailPath))
	}

	// counter=1 file untouched
	after, err := os.ReadFile(first.DetailPath)
	if err != nil {
		t.Fatalf("re-read first detail: %v", err)
	}
	if string(after) != string(firstContent) {
		t.Error("first detail file was modified by second write")
	}

	// Summary has two rows in insertion order
	summary := readCSV(t, second.SummaryPath)
	if len(summary) != 3 {
		t.Fatalf("summary rows = %d, want 3 (header + 2)", len(summary))
	}
	if summary[1][12] != filepath.Base(first.DetailPath) {
		t.Errorf("row 1 references %q", summary[1][12])
	}
	if summary[2][12] != filepath.Base(second.DetailPath) {
		t.Errorf("row 2 references %q", summary[2][12])
	}
}

// TestWriteNamingExhausted tests the fail-fatal probe bound for
// templates without a counter token
func TestWriteNamingExhausted(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Logging.FileListName = "fixed-name.csv"
	w := New(cfg)
	now := time.Now()

	if _, err := w.Write(testTransferContext(), testInventory(), now); err != nil {
		t.Fatalf("first Write failed: %v", err)
	}

	_, err := w.Write(testTransferContext(), testInventory(), now)
	if !errors.Is(err, domain.ErrNamingExhausted) {
		t.Errorf("expected ErrNamingExhausted, got %v", err)
	}

	// The failed operation must not have appended a summary row
	summary := readCSV(t, filepath.Join(dir, "TransferLog_"+now.Format("2006")+".log"))
	if len(summary) != 2 {
		t.Errorf("summary rows = %d, want 2 (header + first op only)", len(summary))
	}
}

// TestWriteSummaryAppendFailure tests the partial-success case: the
// detail file is written, the summary append fails, and the error names
// the surviving detail file
func TestWriteSummaryAppendFailure(t *testing.T) {
	dir := t.TempDir()
	w := New(testConfig(dir))
	now := time.Date(2025, time.March, 14, 9, 30, 0, 0, time.Local)

	// A directory squatting on the summary name makes the append fail
	// after the detail file exists
	summaryName := "TransferLog_2025.log"
	if err := os.Mkdir(filepath.Join(dir, summaryName), 0755); err != nil {
		t.Fatalf("pre-create summary obstruction: %v", err)
	}

	_, err := w.Write(testTransferContext(), testInventory(), now)
	if err == nil {
		t.Fatal("expected a partial write error, got nil")
	}

	var partial *domain.PartialWriteError
	if !errors.As(err, &partial) {
		t.Fatalf("expected PartialWriteError, got %T: %v", err, err)
	}

	wantDetail := filepath.Join(dir, "20250314_jdoe_L2H_Intranet-Customer_001.csv")
	if partial.DetailPath != wantDetail {
		t.Errorf("DetailPath = %q, want %q", partial.DetailPath, wantDetail)
	}
	if !strings.Contains(err.Error(), filepath.Base(wantDetail)) {
		t.Errorf("error text %q does not name the orphaned detail file", err.Error())
	}

	// The detail file survives for manual reconciliation
	detail := readCSV(t, partial.DetailPath)
	if len(detail) != 2 {
		t.Errorf("detail rows = %d, want 2 (header + entry)", len(detail))
	}
}

// TestWriteArchiveMemberRows tests level-1 rows for archive contents
func TestWriteArchiveMemberRows(t *testing.T) {
	dir := t.TempDir()
	w := New(testConfig(dir))

	inv := domain.Inventory{
		Entries: []domain.FileEntry{
			{
				Path:        "/data/bundle.zip",
				DisplayPath: "bundle.zip",
				Kind:        domain.EntryKindFile,
				Size:        512,
				ModTime:     time.Now(),
				Checksum:    "cafef00d",
				ArchiveContents: []domain.ArchiveEntry{
					{Name: "inner/a.txt", Size: 5, ModTime: time.Now()},
					{Name: "inner/b.txt", Size: 7, ModTime: time.Now()},
				},
			},
		},
	}

	res, err := w.Write(testTransferContext(), inv, time.Now())
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	rows := readCSV(t, res.DetailPath)
	if len(rows) != 4 {
		t.Fatalf("detail rows = %d, want 4 (header + file + 2 members)", len(rows))
	}

	member := rows[2]
	if member[0] != "1" || member[1] != "bundle.zip" || member[2] != "inner/a.txt" || member[3] != "5" {
		t.Errorf("member row = %v", member)
	}
	if member[6] != "" {
		t.Errorf("member hash should be empty, got %q", member[6])
	}
}

// TestWriteErrorMarkers tests per-entry error rendering
func TestWriteErrorMarkers(t *testing.T) {
	dir := t.TempDir()
	w := New(testConfig(dir))

	inv := domain.Inventory{
		Entries: []domain.FileEntry{
			{
				Path:        "/data/locked.bin",
				Kind:        domain.EntryKindFile,
				Size:        99,
				ModTime:     time.Now(),
				ChecksumErr: "permission denied",
			},
			{
				Path:       "/data/broken.zip",
				Kind:       domain.EntryKindFile,
				Size:       12,
				ModTime:    time.Now(),
				ArchiveErr: "unexpected EOF",
			},
		},
	}

	res, err := w.Write(testTransferContext(), inv, time.Now())
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	rows := readCSV(t, res.DetailPath)
	if len(rows) != 4 {
		t.Fatalf("detail rows = %d, want 4 (header + 2 entries + archive error)", len(rows))
	}

	if !strings.HasPrefix(rows[1][6], "ERROR: permission denied") {
		t.Errorf("checksum error marker = %q", rows[1][6])
	}
	if rows[3][0] != "1" || rows[3][3] != "ERROR" || !strings.Contains(rows[3][6], "unexpected EOF") {
		t.Errorf("archive error row = %v", rows[3])
	}
}

// TestWriteRequest tests request semantics: request columns and the
// request-eligible token subset
func TestWriteRequest(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	w := New(cfg)
	now := time.Date(2025, time.March, 14, 9, 30, 0, 0, time.Local)

	tc := domain.TransferContext{
		Kind:         domain.OperationRequest,
		Requestor:    "asmith",
		Purpose:      "Quarterly data pull",
		TransferDate: time.Date(2025, time.March, 13, 0, 0, 0, 0, time.Local),
		ComputerName: "WS-007",
	}

	res, err := w.Write(tc, testInventory(), now)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if filepath.Base(res.DetailPath) != "20250314_asmith_Request_001.csv" {
		t.Errorf("detail name = %q", filepath.Base(res.DetailPath))
	}
	if filepath.Base(res.SummaryPath) != "RequestLog_2025.log" {
		t.Errorf("summary name = %q", filepath.Base(res.SummaryPath))
	}

	summary := readCSV(t, res.SummaryPath)
	if summary[0][4] != "Purpose" {
		t.Errorf("request header = %v", summary[0])
	}
	rec := summary[1]
	if rec[2] != "asmith" || rec[4] != "Quarterly data pull" {
		t.Errorf("request row = %v", rec)
	}
}

// TestRequestTemplateTransferTokenStaysLiteral tests that {source} in a
// request template is left unresolved
func TestRequestTemplateTransferTokenStaysLiteral(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Requests.FileListName = "{date}_{source}_Request_{counter}.csv"
	w := New(cfg)
	now := time.Date(2025, time.March, 14, 9, 30, 0, 0, time.Local)

	tc := domain.TransferContext{
		Kind:         domain.OperationRequest,
		Requestor:    "asmith",
		Purpose:      "p",
		TransferDate: now,
		ComputerName: "WS-007",
	}

	res, err := w.Write(tc, testInventory(), now)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if filepath.Base(res.DetailPath) != "20250314_{source}_Request_001.csv" {
		t.Errorf("detail name = %q, want literal {source} kept", filepath.Base(res.DetailPath))
	}
}

// TestWriteEmptyFolderPlaceholder tests directory placeholder rows
func TestWriteEmptyFolderPlaceholder(t *testing.T) {
	dir := t.TempDir()
	w := New(testConfig(dir))

	inv := domain.Inventory{
		Entries: []domain.FileEntry{
			{
				Path:        "/data/b",
				DisplayPath: "b",
				Kind:        domain.EntryKindDirectory,
				Size:        0,
				ModTime:     time.Now(),
				Permissions: "drwxr-xr-x",
			},
		},
	}

	res, err := w.Write(testTransferContext(), inv, time.Now())
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	rows := readCSV(t, res.DetailPath)
	row := rows[1]
	if row[3] != "0" {
		t.Errorf("directory size = %q, want 0", row[3])
	}
	if row[6] != "" {
		t.Errorf("directory hash = %q, want empty", row[6])
	}

	// A directory-only inventory has zero files but still logs
	summary := readCSV(t, res.SummaryPath)
	if summary[1][10] != "0" {
		t.Errorf("file count = %q, want 0", summary[1][10])
	}
}

// TestWriteOutputDirOverride tests the per-operation output override
func TestWriteOutputDirOverride(t *testing.T) {
	base := t.TempDir()
	override := filepath.Join(base, "elsewhere")

	w := New(testConfig(filepath.Join(base, "default")))
	tc := testTransferContext()
	tc.OutputDir = override

	res, err := w.Write(tc, testInventory(), time.Now())
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if filepath.Dir(res.DetailPath) != override {
		t.Errorf("detail written to %q, want %q", filepath.Dir(res.DetailPath), override)
	}
}
