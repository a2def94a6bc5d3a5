package packaging

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"shadow7-backend/internal/artifacts"
	"shadow7-backend/internal/joblog"
	"shadow7-backend/internal/mailer"
	"shadow7-backend/internal/requests"
)

type recordingMailer struct {
	sent []mailer.DownloadNotice
	err  error
}

func (m *recordingMailer) SendDownloadLink(ctx context.Context, n mailer.DownloadNotice) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, n)
	return nil
}

func testAssembler(t *testing.T, reqRepo requests.Repo, artRepo artifacts.Repo, mail mailer.Mailer) *Assembler {
	t.Helper()
	return &Assembler{
		Requests:      reqRepo,
		Artifacts:     artRepo,
		Deliveries:    NewMemoryRepo(),
		Log:           joblog.NewMemory(),
		Mail:          mail,
		PackagesDir:   t.TempDir(),
		PublicBaseURL: "http://localhost:8002",
		TTL:           PackageTTL,
	}
}

func seedLedger(t *testing.T, reqRepo requests.Repo, artRepo artifacts.Repo, code string) string {
	t.Helper()
	ctx := context.Background()
	requestID := "req-" + code

	if err := reqRepo.Create(ctx, requests.ManuscriptRequest{
		ID:           requestID,
		TrackingCode: code,
		UserEmail:    "author@example.com",
		UserName:     "Author",
		Status:       requests.StatusPackaging,
	}); err != nil {
		t.Fatalf("seed request: %v", err)
	}

	if err := artRepo.UpsertOutline(ctx, artifacts.Outline{
		ID:           "outline-1",
		RequestID:    requestID,
		BookTitle:    "رحلة الكتابة",
		BookSubtitle: "من الفكرة إلى الكتاب",
	}); err != nil {
		t.Fatalf("seed outline: %v", err)
	}

	chapters := []artifacts.Chapter{
		{ID: "ch-1", RequestID: requestID, Number: 1, Title: "البداية", Content: "نص الفصل الأول", WordCount: 300},
		{ID: "ch-2", RequestID: requestID, Number: 2, Title: "النهاية", Content: "نص الفصل الثاني", WordCount: 200},
	}
	for _, ch := range chapters {
		if err := artRepo.UpsertChapter(ctx, ch); err != nil {
			t.Fatalf("seed chapter: %v", err)
		}
	}

	if err := artRepo.ReplaceReports(ctx, requestID, []artifacts.Report{
		{ID: "rep-1", RequestID: requestID, Type: "quality", Content: map[string]any{"score": 8.5}},
	}); err != nil {
		t.Fatalf("seed reports: %v", err)
	}

	return requestID
}

func readZipEntry(t *testing.T, zr *zip.ReadCloser, name string) []byte {
	t.Helper()
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		r, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		defer r.Close()
		data, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		return data
	}
	t.Fatalf("entry %s not found in archive", name)
	return nil
}

func TestAssembleBuildsArchive(t *testing.T) {
	reqRepo := requests.NewMemoryRepo()
	artRepo := artifacts.NewMemoryRepo()
	mail := &recordingMailer{}
	asm := testAssembler(t, reqRepo, artRepo, mail)
	requestID := seedLedger(t, reqRepo, artRepo, "S7-1A2B3C4D")
	ctx := context.Background()

	result, err := asm.Assemble(ctx, "S7-1A2B3C4D")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if result.TotalWords != 500 {
		t.Fatalf("expected 500 total words, got %d", result.TotalWords)
	}
	if result.DownloadURL != "http://localhost:8002/api/shadow7/download/S7-1A2B3C4D" {
		t.Fatalf("unexpected download URL %q", result.DownloadURL)
	}
	remaining := time.Until(result.ExpiresAt)
	if remaining < 6*24*time.Hour || remaining > 8*24*time.Hour {
		t.Fatalf("expected roughly 7 day expiry, got %v", remaining)
	}

	delivery, err := asm.Deliveries.GetByRequestID(ctx, requestID)
	if err != nil {
		t.Fatalf("GetByRequestID: %v", err)
	}
	if delivery.InternalISBN != "978-0-S7-2B3C4D-0" {
		t.Fatalf("unexpected ISBN %q", delivery.InternalISBN)
	}
	if delivery.ZipFileSize == 0 {
		t.Fatalf("expected recorded archive size")
	}
	if !delivery.EmailSent {
		t.Fatalf("expected email flag set after notification")
	}
	if len(mail.sent) != 1 || mail.sent[0].To != "author@example.com" {
		t.Fatalf("expected one delivery email, got %+v", mail.sent)
	}

	zr, err := zip.OpenReader(delivery.ZipFilePath)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer zr.Close()

	manuscript := string(readZipEntry(t, zr, "manuscript.txt"))
	if !strings.HasPrefix(manuscript, "# رحلة الكتابة\n\n## من الفكرة إلى الكتاب\n\n---\n\n") {
		t.Fatalf("unexpected manuscript header:\n%s", manuscript)
	}
	if !strings.Contains(manuscript, "## الفصل 1: البداية\n\nنص الفصل الأول\n") {
		t.Fatalf("chapter 1 missing from manuscript:\n%s", manuscript)
	}
	if !strings.Contains(manuscript, "## الفصل 2: النهاية\n\nنص الفصل الثاني\n") {
		t.Fatalf("chapter 2 missing from manuscript:\n%s", manuscript)
	}

	var metadata struct {
		TrackingID    string `json:"tracking_id"`
		BookTitle     string `json:"book_title"`
		TotalChapters int    `json:"total_chapters"`
		TotalWords    int    `json:"total_words"`
		InternalISBN  string `json:"internal_isbn"`
	}
	if err := json.Unmarshal(readZipEntry(t, zr, "metadata.json"), &metadata); err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	if metadata.TrackingID != "S7-1A2B3C4D" || metadata.TotalChapters != 2 || metadata.TotalWords != 500 {
		t.Fatalf("unexpected metadata: %+v", metadata)
	}
	if metadata.InternalISBN != "978-0-S7-2B3C4D-0" {
		t.Fatalf("unexpected metadata ISBN %q", metadata.InternalISBN)
	}

	var report map[string]any
	if err := json.Unmarshal(readZipEntry(t, zr, "reports/quality.json"), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report["score"] != 8.5 {
		t.Fatalf("unexpected report content: %v", report)
	}

	// The scratch directory must be gone, only the archive and locks remain.
	if _, err := os.Stat(delivery.ZipFilePath); err != nil {
		t.Fatalf("archive missing: %v", err)
	}
}

func TestAssembleReplacesPriorArchive(t *testing.T) {
	reqRepo := requests.NewMemoryRepo()
	artRepo := artifacts.NewMemoryRepo()
	asm := testAssembler(t, reqRepo, artRepo, nil)
	requestID := seedLedger(t, reqRepo, artRepo, "S7-1A2B3C4D")
	ctx := context.Background()

	first, err := asm.Assemble(ctx, "S7-1A2B3C4D")
	if err != nil {
		t.Fatalf("first Assemble: %v", err)
	}
	second, err := asm.Assemble(ctx, "S7-1A2B3C4D")
	if err != nil {
		t.Fatalf("second Assemble: %v", err)
	}
	if second.ExpiresAt.Before(first.ExpiresAt) {
		t.Fatalf("re-assembly must refresh expiry")
	}

	delivery, err := asm.Deliveries.GetByRequestID(ctx, requestID)
	if err != nil {
		t.Fatalf("GetByRequestID: %v", err)
	}
	if !strings.HasSuffix(delivery.ZipFilePath, "Shadow7_S7-1A2B3C4D.zip") {
		t.Fatalf("unexpected archive path %q", delivery.ZipFilePath)
	}
}

func TestAssembleUnknownCode(t *testing.T) {
	asm := testAssembler(t, requests.NewMemoryRepo(), artifacts.NewMemoryRepo(), nil)

	if _, err := asm.Assemble(context.Background(), "S7-MISSING1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAssembleSurvivesMailFailure(t *testing.T) {
	reqRepo := requests.NewMemoryRepo()
	artRepo := artifacts.NewMemoryRepo()
	mail := &recordingMailer{err: errors.New("smtp down")}
	asm := testAssembler(t, reqRepo, artRepo, mail)
	requestID := seedLedger(t, reqRepo, artRepo, "S7-1A2B3C4D")
	ctx := context.Background()

	if _, err := asm.Assemble(ctx, "S7-1A2B3C4D"); err != nil {
		t.Fatalf("Assemble must not fail on mail errors: %v", err)
	}

	delivery, err := asm.Deliveries.GetByRequestID(ctx, requestID)
	if err != nil {
		t.Fatalf("GetByRequestID: %v", err)
	}
	if delivery.EmailSent {
		t.Fatalf("email flag must stay unset after send failure")
	}
}

func TestDownloadGate(t *testing.T) {
	reqRepo := requests.NewMemoryRepo()
	artRepo := artifacts.NewMemoryRepo()
	asm := testAssembler(t, reqRepo, artRepo, nil)
	requestID := seedLedger(t, reqRepo, artRepo, "S7-1A2B3C4D")
	ctx := context.Background()

	if _, err := asm.Assemble(ctx, "S7-1A2B3C4D"); err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	// Still packaging: the gate stays closed.
	if _, _, err := asm.Download(ctx, "S7-1A2B3C4D"); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}

	if err := reqRepo.Advance(ctx, "S7-1A2B3C4D", requests.Advance{Status: requests.StatusCompleted}); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	delivery, fileName, err := asm.Download(ctx, "S7-1A2B3C4D")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if fileName != "Shadow7_S7-1A2B3C4D.zip" {
		t.Fatalf("unexpected attachment name %q", fileName)
	}
	if delivery.ZipFilePath == "" {
		t.Fatalf("expected archive path in delivery")
	}

	if _, _, err := asm.Download(ctx, "S7-1A2B3C4D"); err != nil {
		t.Fatalf("second Download: %v", err)
	}
	stored, _ := asm.Deliveries.GetByRequestID(ctx, requestID)
	if stored.DownloadCount != 2 {
		t.Fatalf("expected download count 2, got %d", stored.DownloadCount)
	}
	if stored.LastDownloaded == nil {
		t.Fatalf("expected last_downloaded stamped")
	}
}

func TestDownloadExpired(t *testing.T) {
	reqRepo := requests.NewMemoryRepo()
	artRepo := artifacts.NewMemoryRepo()
	asm := testAssembler(t, reqRepo, artRepo, nil)
	requestID := seedLedger(t, reqRepo, artRepo, "S7-1A2B3C4D")
	ctx := context.Background()

	if _, err := asm.Assemble(ctx, "S7-1A2B3C4D"); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if err := reqRepo.Advance(ctx, "S7-1A2B3C4D", requests.Advance{Status: requests.StatusCompleted}); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	delivery, err := asm.Deliveries.GetByRequestID(ctx, requestID)
	if err != nil {
		t.Fatalf("GetByRequestID: %v", err)
	}
	delivery.ExpiresAt = time.Now().Add(-time.Hour)
	if err := asm.Deliveries.Upsert(ctx, delivery); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if _, _, err := asm.Download(ctx, "S7-1A2B3C4D"); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestDownloadMissingArchive(t *testing.T) {
	reqRepo := requests.NewMemoryRepo()
	artRepo := artifacts.NewMemoryRepo()
	asm := testAssembler(t, reqRepo, artRepo, nil)
	requestID := seedLedger(t, reqRepo, artRepo, "S7-1A2B3C4D")
	ctx := context.Background()

	if _, err := asm.Assemble(ctx, "S7-1A2B3C4D"); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if err := reqRepo.Advance(ctx, "S7-1A2B3C4D", requests.Advance{Status: requests.StatusCompleted}); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	delivery, _ := asm.Deliveries.GetByRequestID(ctx, requestID)
	if err := os.Remove(delivery.ZipFilePath); err != nil {
		t.Fatalf("remove archive: %v", err)
	}

	if _, _, err := asm.Download(ctx, "S7-1A2B3C4D"); !errors.Is(err, ErrFileMissing) {
		t.Fatalf("expected ErrFileMissing, got %v", err)
	}
}

func TestDownloadUnknownCode(t *testing.T) {
	asm := testAssembler(t, requests.NewMemoryRepo(), artifacts.NewMemoryRepo(), nil)

	if _, _, err := asm.Download(context.Background(), "S7-MISSING1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
