// Package workerproc runs the document analysis pipeline: it claims
// queued jobs, drives them through the gateway step by step, and
// records progress so the API can report it live.
package workerproc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"approval-backend/internal/ai"
	"approval-backend/internal/documents"
	"approval-backend/internal/extract"
	"approval-backend/internal/jobs"
	"approval-backend/internal/notifications"
	"approval-backend/internal/shared/metrics"
	"approval-backend/internal/shared/storage/object"
	"approval-backend/internal/shared/telemetry"
)

// Processor executes one claimed job at a time.
type Processor struct {
	Jobs     jobs.Repo
	Docs     documents.Repo
	Store    object.ObjectStore
	Gateway  ai.Gateway
	Notifier *notifications.Service
}

// errTerminal wraps failures where a retry cannot help: unreadable
// files and gateway rejections of the input.
type errTerminal struct {
	err error
}

func (e errTerminal) Error() string { return e.err.Error() }
func (e errTerminal) Unwrap() error { return e.err }

// Process runs the pipeline for a job already claimed as processing.
// The outcome (completed, requeued, or terminally failed) is written
// back to the job and mirrored onto the document.
func (p *Processor) Process(ctx context.Context, job jobs.Job) {
	started := time.Now()

	doc, err := p.Docs.GetByID(ctx, job.DocumentID)
	if err != nil {
		// Terminal when the document is gone; a cancelled context means
		// shutdown raced the claim and the job goes back to the queue.
		p.fail(context.WithoutCancel(ctx), job, documents.Document{}, fmt.Errorf("load document: %w", err), ctx.Err() == nil)
		return
	}

	if err := p.Docs.SetAnalysisStatus(ctx, doc.ID, documents.AnalysisProcessing); err != nil {
		telemetry.Error("worker.doc_status", map[string]any{"document_id": doc.ID, "error": err.Error()})
	}

	summary, insights, err := p.run(ctx, &job, &doc)

	// Outcome writes must land even when shutdown already cancelled the
	// job's context, or the claim stays stuck in processing.
	ctx = context.WithoutCancel(ctx)

	if err != nil {
		var terminal errTerminal
		p.fail(ctx, job, doc, err, errors.As(err, &terminal) || job.Attempts >= job.MaxAttempts)
		return
	}

	if err := p.Docs.SetAnalysisResults(ctx, doc.ID, summary, insights, documents.AnalysisCompleted); err != nil {
		p.fail(ctx, job, doc, fmt.Errorf("store results: %w", err), job.Attempts >= job.MaxAttempts)
		return
	}
	if err := p.Jobs.Complete(ctx, job.ID); err != nil {
		telemetry.Error("worker.job_complete", map[string]any{"job_id": job.ID, "error": err.Error()})
	}
	metrics.IncJobCompleted()
	metrics.ObserveJobDurationMs(float64(time.Since(started).Milliseconds()))

	if p.Notifier != nil {
		p.Notifier.Notify(ctx, doc.UploaderID, notifications.KindAnalysisCompleted,
			"Analysis ready for "+doc.FileName, "", doc.RequestType, doc.RequestID)
	}
	telemetry.Info("worker.job.completed", map[string]any{
		"job_id":      job.ID,
		"document_id": doc.ID,
		"attempts":    job.Attempts,
		"duration_ms": time.Since(started).Milliseconds(),
	})
}

// run drives the pipeline steps in order, recording progress after each.
func (p *Processor) run(ctx context.Context, job *jobs.Job, doc *documents.Document) (summary, insights string, err error) {
	if err := p.step(ctx, job, jobs.StepPreparing); err != nil {
		return "", "", err
	}
	if _, err := extract.Text(ctx, p.Store, doc.StorageKey, doc.MimeType, doc.FileName); err != nil {
		return "", "", errTerminal{fmt.Errorf("prepare: %w", err)}
	}

	if err := p.step(ctx, job, jobs.StepUploading); err != nil {
		return "", "", err
	}
	if doc.ExternalFileID == "" {
		body, err := p.Store.Open(ctx, doc.StorageKey)
		if err != nil {
			return "", "", fmt.Errorf("open object: %w", err)
		}
		fileID, err := p.Gateway.EnsureUploaded(ctx, doc.FileName, doc.Fingerprint, body)
		body.Close()
		if err != nil {
			return "", "", classify(fmt.Errorf("upload: %w", err))
		}
		if err := p.Docs.SetExternalFileID(ctx, doc.ID, fileID); err != nil {
			return "", "", fmt.Errorf("record file id: %w", err)
		}
		doc.ExternalFileID = fileID
	}

	if err := p.step(ctx, job, jobs.StepAnalyzing); err != nil {
		return "", "", err
	}
	if _, err := p.Gateway.Analyze(ctx, doc.ExternalFileID); err != nil {
		return "", "", classify(fmt.Errorf("analyze: %w", err))
	}

	if err := p.step(ctx, job, jobs.StepGeneratingSummary); err != nil {
		return "", "", err
	}
	summary, err = p.Gateway.Summarize(ctx, doc.ExternalFileID)
	if err != nil {
		return "", "", classify(fmt.Errorf("summarize: %w", err))
	}

	if err := p.step(ctx, job, jobs.StepGeneratingInsights); err != nil {
		return "", "", err
	}
	insights, err = p.Gateway.Insights(ctx, doc.ExternalFileID)
	if err != nil {
		return "", "", classify(fmt.Errorf("insights: %w", err))
	}

	return summary, insights, nil
}

func (p *Processor) step(ctx context.Context, job *jobs.Job, step string) error {
	number := jobs.StepNumber(step)
	if err := p.Jobs.UpdateStep(ctx, job.ID, step, number, 0); err != nil {
		return fmt.Errorf("record step %s: %w", step, err)
	}
	job.CurrentStep = step
	job.CurrentStepNumber = number
	return nil
}

// fail requeues the job for another attempt, or marks it terminally
// failed and tells the uploader.
func (p *Processor) fail(ctx context.Context, job jobs.Job, doc documents.Document, cause error, terminal bool) {
	telemetry.Error("worker.job.failed", map[string]any{
		"job_id":      job.ID,
		"document_id": job.DocumentID,
		"step":        job.CurrentStep,
		"attempts":    job.Attempts,
		"terminal":    terminal,
		"error":       cause.Error(),
	})

	if !terminal {
		if err := p.Jobs.Requeue(ctx, job.ID, cause.Error()); err != nil {
			telemetry.Error("worker.job_requeue", map[string]any{"job_id": job.ID, "error": err.Error()})
		}
		if doc.ID != "" {
			if err := p.Docs.SetAnalysisStatus(ctx, doc.ID, documents.AnalysisPending); err != nil {
				telemetry.Error("worker.doc_status", map[string]any{"document_id": doc.ID, "error": err.Error()})
			}
		}
		metrics.IncJobRequeued()
		return
	}

	if err := p.Jobs.Fail(ctx, job.ID, cause.Error()); err != nil {
		telemetry.Error("worker.job_fail", map[string]any{"job_id": job.ID, "error": err.Error()})
	}
	if doc.ID != "" {
		if err := p.Docs.SetAnalysisStatus(ctx, doc.ID, documents.AnalysisFailed); err != nil {
			telemetry.Error("worker.doc_status", map[string]any{"document_id": doc.ID, "error": err.Error()})
		}
		if p.Notifier != nil {
			p.Notifier.Notify(ctx, doc.UploaderID, notifications.KindAnalysisFailed,
				"Analysis failed for "+doc.FileName, cause.Error(), doc.RequestType, doc.RequestID)
		}
	}
	metrics.IncJobFailed()
}

// classify marks gateway input rejections as terminal; transport
// failures stay retryable.
func classify(err error) error {
	if errors.Is(err, ai.ErrBadRequest) {
		return errTerminal{err}
	}
	return err
}
