package packaging

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"shadow7-backend/internal/artifacts"
	"shadow7-backend/internal/joblog"
	"shadow7-backend/internal/mailer"
	"shadow7-backend/internal/requests"
	"shadow7-backend/internal/shared/metrics"
	"shadow7-backend/internal/shared/telemetry"
)

// Assembler builds delivery archives from the stage ledger.
type Assembler struct {
	Requests   requests.Repo
	Artifacts  artifacts.Repo
	Deliveries DeliveryRepo
	Log        joblog.Appender
	Mail       mailer.Mailer

	// PackagesDir holds scratch directories, lock files and finished archives.
	PackagesDir   string
	PublicBaseURL string
	TTL           time.Duration
}

// Result is what a successful assembly reports back to the workflow.
type Result struct {
	DownloadURL string
	ExpiresAt   time.Time
	TotalWords  int
}

// Assemble builds the archive for a request and publishes its delivery
// record. Re-assembly for the same tracking code replaces the prior archive
// and refreshes the expiry. A per-tracking-code file lock keeps two
// concurrent assemblies of the same request from racing on the scratch
// directory.
func (a *Assembler) Assemble(ctx context.Context, trackingCode string) (Result, error) {
	req, err := a.Requests.GetByTrackingCode(ctx, trackingCode)
	if err != nil {
		if errors.Is(err, requests.ErrNotFound) {
			return Result{}, ErrNotFound
		}
		return Result{}, err
	}

	started := time.Now()

	lock, err := a.acquireLock(ctx, trackingCode)
	if err != nil {
		return Result{}, err
	}
	defer lock.Unlock()

	outline, err := a.Artifacts.GetOutline(ctx, req.ID)
	if err != nil && !errors.Is(err, artifacts.ErrNotFound) {
		return Result{}, err
	}
	bookTitle := outline.BookTitle
	if bookTitle == "" {
		bookTitle = "Generated Book"
	}

	chapters, err := a.Artifacts.ListChapters(ctx, req.ID)
	if err != nil {
		return Result{}, err
	}
	reports, err := a.Artifacts.ListReports(ctx, req.ID)
	if err != nil {
		return Result{}, err
	}

	scratchDir := filepath.Join(a.PackagesDir, trackingCode)
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return Result{}, err
	}

	totalWords, err := writeManuscript(scratchDir, bookTitle, outline.BookSubtitle, chapters)
	if err != nil {
		return Result{}, err
	}

	isbn := pseudoISBN(trackingCode)
	if err := writeMetadata(scratchDir, trackingCode, bookTitle, len(chapters), totalWords, isbn); err != nil {
		return Result{}, err
	}
	if err := writeReports(scratchDir, reports); err != nil {
		return Result{}, err
	}

	zipPath := filepath.Join(a.PackagesDir, archiveName(trackingCode))
	if err := zipDirectory(zipPath, scratchDir); err != nil {
		return Result{}, err
	}
	if err := os.RemoveAll(scratchDir); err != nil {
		telemetry.Warn("scratch cleanup failed", map[string]any{
			"tracking_code": trackingCode,
			"error":         err.Error(),
		})
	}

	info, err := os.Stat(zipPath)
	if err != nil {
		return Result{}, err
	}

	ttl := a.TTL
	if ttl <= 0 {
		ttl = PackageTTL
	}
	expiresAt := time.Now().UTC().Add(ttl)
	downloadURL := a.PublicBaseURL + "/api/shadow7/download/" + trackingCode

	delivery := Delivery{
		ID:             uuid.NewString(),
		RequestID:      req.ID,
		ZipFilePath:    zipPath,
		ZipFileURL:     downloadURL,
		ZipFileSize:    info.Size(),
		InternalISBN:   isbn,
		WordCountFinal: totalWords,
		ExpiresAt:      expiresAt,
	}
	if err := a.Deliveries.Upsert(ctx, delivery); err != nil {
		return Result{}, err
	}

	metrics.IncPackageBuilt()
	metrics.ObservePackagingDurationMs(float64(time.Since(started).Milliseconds()))

	a.Log.Append(ctx, joblog.Entry{
		RequestID: req.ID,
		Module:    "fulfillment",
		Message:   fmt.Sprintf("package created: %d words", totalWords),
		Details:   map[string]any{"zip_size": info.Size(), "isbn": isbn},
	})

	a.notify(ctx, req, delivery)

	return Result{DownloadURL: downloadURL, ExpiresAt: expiresAt, TotalWords: totalWords}, nil
}

// Download checks the gate conditions and returns the delivery plus the path
// of the archive to stream. The download counter is incremented on success.
func (a *Assembler) Download(ctx context.Context, trackingCode string) (Delivery, string, error) {
	req, err := a.Requests.GetByTrackingCode(ctx, trackingCode)
	if err != nil {
		if errors.Is(err, requests.ErrNotFound) {
			return Delivery{}, "", ErrNotFound
		}
		return Delivery{}, "", err
	}

	if req.Status != requests.StatusCompleted {
		return Delivery{}, "", ErrNotReady
	}

	delivery, err := a.Deliveries.GetByRequestID(ctx, req.ID)
	if err != nil {
		return Delivery{}, "", err
	}
	if delivery.ZipFilePath == "" {
		return Delivery{}, "", ErrFileMissing
	}
	if !delivery.ExpiresAt.IsZero() && time.Now().After(delivery.ExpiresAt) {
		return Delivery{}, "", ErrExpired
	}
	if _, err := os.Stat(delivery.ZipFilePath); err != nil {
		return Delivery{}, "", ErrFileMissing
	}

	if err := a.Deliveries.IncrementDownload(ctx, req.ID); err != nil {
		return Delivery{}, "", err
	}
	metrics.IncDownloadServed()

	return delivery, archiveName(trackingCode), nil
}

func (a *Assembler) acquireLock(ctx context.Context, trackingCode string) (*flock.Flock, error) {
	lockDir := filepath.Join(a.PackagesDir, ".locks")
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, err
	}
	lock := flock.New(filepath.Join(lockDir, trackingCode+".lock"))
	ok, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("packaging already in progress for %s", trackingCode)
	}
	return lock, nil
}

// notify emails the download link best-effort. A send failure is logged and
// never fails the assembly.
func (a *Assembler) notify(ctx context.Context, req requests.ManuscriptRequest, d Delivery) {
	if a.Mail == nil {
		return
	}
	err := a.Mail.SendDownloadLink(ctx, mailer.DownloadNotice{
		To:           req.UserEmail,
		Name:         req.UserName,
		TrackingCode: req.TrackingCode,
		DownloadURL:  d.ZipFileURL,
		ExpiresAt:    d.ExpiresAt,
	})
	if err != nil {
		telemetry.Warn("delivery email failed", map[string]any{
			"tracking_code": req.TrackingCode,
			"error":         err.Error(),
		})
		return
	}
	if err := a.Deliveries.MarkEmailSent(ctx, req.ID); err != nil {
		telemetry.Warn("email flag update failed", map[string]any{
			"tracking_code": req.TrackingCode,
			"error":         err.Error(),
		})
	}
}

func archiveName(trackingCode string) string {
	return "Shadow7_" + trackingCode + ".zip"
}

// pseudoISBN derives a stable ISBN-looking identifier from the trailing six
// characters of the tracking code.
func pseudoISBN(trackingCode string) string {
	tail := trackingCode
	if len(tail) > 6 {
		tail = tail[len(tail)-6:]
	}
	return "978-0-S7-" + tail + "-0"
}

// writeManuscript renders manuscript.txt and returns the summed chapter word
// count.
func writeManuscript(dir, title, subtitle string, chapters []artifacts.Chapter) (int, error) {
	f, err := os.Create(filepath.Join(dir, "manuscript.txt"))
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "# %s\n\n", title); err != nil {
		return 0, err
	}
	if subtitle != "" {
		if _, err := fmt.Fprintf(f, "## %s\n\n", subtitle); err != nil {
			return 0, err
		}
	}
	if _, err := io.WriteString(f, "---\n\n"); err != nil {
		return 0, err
	}

	totalWords := 0
	for _, ch := range chapters {
		if _, err := fmt.Fprintf(f, "\n\n## الفصل %d: %s\n\n", ch.Number, ch.Title); err != nil {
			return 0, err
		}
		if _, err := io.WriteString(f, ch.Content); err != nil {
			return 0, err
		}
		if _, err := io.WriteString(f, "\n"); err != nil {
			return 0, err
		}
		totalWords += ch.WordCount
	}
	return totalWords, f.Close()
}

func writeMetadata(dir, trackingCode, title string, chapterCount, totalWords int, isbn string) error {
	metadata := map[string]any{
		"tracking_id":    trackingCode,
		"book_title":     title,
		"total_chapters": chapterCount,
		"total_words":    totalWords,
		"generated_at":   time.Now().UTC().Format(time.RFC3339),
		"internal_isbn":  isbn,
	}
	return writeJSONFile(filepath.Join(dir, "metadata.json"), metadata)
}

func writeReports(dir string, reports []artifacts.Report) error {
	if len(reports) == 0 {
		return nil
	}
	reportsDir := filepath.Join(dir, "reports")
	if err := os.MkdirAll(reportsDir, 0o755); err != nil {
		return err
	}
	for _, rep := range reports {
		content := rep.Content
		if content == nil {
			content = map[string]any{}
		}
		if err := writeJSONFile(filepath.Join(reportsDir, rep.Type+".json"), content); err != nil {
			return err
		}
	}
	return nil
}

func writeJSONFile(path string, value any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return err
	}
	return f.Close()
}

// zipDirectory archives dir into zipPath with entry paths relative to dir.
func zipDirectory(zipPath, dir string) error {
	out, err := os.Create(zipPath)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(w, src)
		return err
	})
	if err != nil {
		zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return out.Close()
}
