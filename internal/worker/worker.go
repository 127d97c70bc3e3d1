// Package worker consumes credential email jobs from the queue and drives
// delivery end to end: load the registration, fetch or re-render the QR
// image, send the email, record the attempt.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/marea-events/backend/internal/credential"
	"github.com/marea-events/backend/internal/emaillogs"
	"github.com/marea-events/backend/internal/events"
	"github.com/marea-events/backend/internal/mailer"
	"github.com/marea-events/backend/internal/models"
	"github.com/marea-events/backend/internal/registrations"
	"github.com/marea-events/backend/pkg/queue"
	"github.com/marea-events/backend/pkg/storage"
)

// EmailProcessor processes credential email jobs.
type EmailProcessor struct {
	regRepo   *registrations.Repository
	eventRepo *events.Repository
	logRepo   *emaillogs.Repository
	s3        *storage.S3
	mail      *mailer.Mailer
	queue     *queue.Queue
	logger    *zap.Logger
}

// NewEmailProcessor creates a credential email processor.
func NewEmailProcessor(regRepo *registrations.Repository, eventRepo *events.Repository, logRepo *emaillogs.Repository, s3 *storage.S3, mail *mailer.Mailer, q *queue.Queue, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{
		regRepo:   regRepo,
		eventRepo: eventRepo,
		logRepo:   logRepo,
		s3:        s3,
		mail:      mail,
		queue:     q,
		logger:    logger,
	}
}

// Process executes one credential email job.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeCredentialEmail {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.CredentialEmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	reg, err := p.regRepo.Get(ctx, payload.EventID, payload.Email)
	if err != nil {
		return fmt.Errorf("load registration: %w", err)
	}
	ev, err := p.eventRepo.GetByID(ctx, payload.EventID)
	if err != nil {
		return fmt.Errorf("load event: %w", err)
	}

	png := p.loadQR(ctx, reg)

	emailType := models.EmailTypeCredential
	if payload.Resend {
		emailType = models.EmailTypeCredentialResend
	}
	subject := mailer.CredentialSubject(ev.Title)

	sendErr := p.mail.SendCredential(ctx, mailer.CredentialParams{
		To:         reg.Email,
		FullName:   reg.FullName,
		EventTitle: ev.Title,
		EventDate:  ev.StartsAt.UTC().Format("January 2, 2006 15:04 MST"),
		QRPNG:      png,
	})

	status := models.EmailLogStatusSent
	errMsg := ""
	if sendErr != nil {
		status = models.EmailLogStatusFailed
		errMsg = sendErr.Error()
	}
	if err := p.logRepo.Record(ctx, reg.EventID, reg.RegistrationID, emailType, reg.Email, subject, status, errMsg); err != nil {
		p.logger.Error("record email log failed",
			zap.String("registration_id", reg.RegistrationID.String()), zap.Error(err))
	}
	if sendErr != nil {
		return fmt.Errorf("send credential email: %w", sendErr)
	}

	p.logger.Info("credential email delivered",
		zap.String("registration_id", reg.RegistrationID.String()),
		zap.String("email_type", emailType))
	return nil
}

// loadQR fetches the stored QR image, re-rendering it from the registration's
// secret when the object is missing. The re-rendered image is re-uploaded so
// the next delivery finds it.
func (p *EmailProcessor) loadQR(ctx context.Context, reg *models.Registration) []byte {
	png, err := p.s3.Get(ctx, reg.QRS3Key)
	if err == nil {
		return png
	}
	p.logger.Warn("qr fetch failed, re-rendering",
		zap.String("key", reg.QRS3Key), zap.Error(err))

	png, err = credential.Encode(credential.Payload{
		EventID: reg.EventID.String(),
		Email:   reg.Email,
		Token:   reg.QRToken.String(),
	})
	if err != nil {
		p.logger.Error("qr re-render failed",
			zap.String("registration_id", reg.RegistrationID.String()), zap.Error(err))
		return nil
	}
	if err := p.s3.Upload(ctx, reg.QRS3Key, "image/png", png); err != nil {
		p.logger.Warn("qr re-upload failed", zap.String("key", reg.QRS3Key), zap.Error(err))
	}
	return png
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
