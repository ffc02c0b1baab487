package pipeline

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/nvalandra/redraft/internal/importer"
	"github.com/nvalandra/redraft/internal/papers"
	"github.com/nvalandra/redraft/internal/store"
)

// Worker turns one queued import job into an open document session.
type Worker struct {
	registry    *papers.Client // nil when no registry is configured
	docs        *store.Store
	log         *slog.Logger
	pdfFallback bool
}

func NewWorker(registry *papers.Client, docs *store.Store, log *slog.Logger, pdfFallback bool) *Worker {
	return &Worker{
		registry:    registry,
		docs:        docs,
		log:         log,
		pdfFallback: pdfFallback,
	}
}

// Process parses the job's file, builds the live document, loads the
// project's papers when a registry is available, and registers the session.
func (w *Worker) Process(ctx context.Context, job *Job) {
	job.SetStatus(StatusParsing, "parsing")

	imp, err := importer.ForFile(job.Filename)
	if err != nil {
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "unsupported_file")
		return
	}
	if pdf, ok := imp.(*importer.PDFImporter); ok {
		pdf.FallbackPdftotext = w.pdfFallback
	}

	doc, title, err := imp.Import(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		w.log.Error("import failed", "job_id", job.ID, "filename", job.Filename, "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parse_error")
		return
	}
	if job.Title != "" {
		title = job.Title
	} else {
		job.SetTitle(title)
	}

	job.SetStatus(StatusBuilding, "building")
	sess := store.NewSession(job.DocID, title, doc)

	if job.ProjectID != "" && w.registry != nil {
		w.loadPapers(ctx, job, sess)
	}

	w.docs.Put(sess)
	job.SetBlockCount(len(doc.Children))
	job.SetStatus(StatusCompleted, "completed")
	w.log.Info("document imported",
		"job_id", job.ID,
		"doc_id", job.DocID,
		"blocks", len(doc.Children),
	)
}

// loadPapers fetches the project's paper set with retry on transient
// registry failures. A paper load failure degrades the session (citations
// resolve as stubs) rather than failing the import.
func (w *Worker) loadPapers(ctx context.Context, job *Job, sess *store.Session) {
	for attempt := 0; ; attempt++ {
		list, err := w.registry.ProjectPapers(ctx, job.ProjectID)
		if err == nil {
			sess.Papers.Set(list)
			return
		}
		if !IsRetryable(err) || attempt >= MaxRetries {
			w.log.Warn("paper registry unavailable", "project_id", job.ProjectID, "error", err)
			job.AddError("papers: " + err.Error())
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(Backoff(attempt)):
		}
	}
}
