package session

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/apexlabs/ntamock-backend/internal/engine"
	"github.com/apexlabs/ntamock-backend/internal/metrics"
	"github.com/apexlabs/ntamock-backend/internal/model"
)

// ResultSink persists a finished attempt. Implementations may assign r.ID.
type ResultSink interface {
	Append(ctx context.Context, r *model.Result) error
}

// StageDelays is how long each stage stays visible.
type StageDelays struct {
	Auditing    time.Duration
	Matching    time.Duration
	Calculating time.Duration
	Syncing     time.Duration
	Finalizing  time.Duration
}

// DefaultStageDelays mirrors the pacing students expect from the real
// exam console.
func DefaultStageDelays() StageDelays {
	return StageDelays{
		Auditing:    500 * time.Millisecond,
		Matching:    500 * time.Millisecond,
		Calculating: 400 * time.Millisecond,
		Finalizing:  500 * time.Millisecond,
	}
}

func (d StageDelays) of(stage model.SubmissionStage) time.Duration {
	switch stage {
	case model.StageAuditing:
		return d.Auditing
	case model.StageMatching:
		return d.Matching
	case model.StageCalculating:
		return d.Calculating
	case model.StageSyncing:
		return d.Syncing
	case model.StageFinalizing:
		return d.Finalizing
	}
	return 0
}

// Pipeline walks a session through AUDITING, MATCHING, CALCULATING,
// SYNCING and FINALIZING, then back to IDLE on the result summary.
type Pipeline struct {
	sink        ResultSink
	delays      StageDelays
	syncTimeout time.Duration
	log         zerolog.Logger
}

// NewPipeline creates a Pipeline writing results to sink.
func NewPipeline(sink ResultSink, delays StageDelays, syncTimeout time.Duration, log zerolog.Logger) *Pipeline {
	if syncTimeout <= 0 {
		syncTimeout = 5 * time.Second
	}
	return &Pipeline{
		sink:        sink,
		delays:      delays,
		syncTimeout: syncTimeout,
		log:         log.With().Str("component", "submission_pipeline").Logger(),
	}
}

// Run executes one submission. The answers are frozen once, scored once,
// and a failed sync only logs. Whatever happens, including a panic, the
// session ends on the result summary with the submission flag cleared.
func (p *Pipeline) Run(ctx context.Context, s *Session, trigger model.SubmitTrigger) {
	started := time.Now()
	log := p.log.With().Str("session_id", s.ID).Str("trigger", string(trigger)).Logger()

	var outcome *Outcome
	status := "completed"

	defer func() {
		if r := recover(); r != nil {
			status = "recovered"
			log.Error().Interface("panic", r).Msg("Submission failed, showing summary anyway")
		}
		s.finish(outcome, trigger)

		metrics.SubmissionsTotal.WithLabelValues(string(trigger), status).Inc()
		metrics.SubmissionDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
	}()

	p.enter(s, model.StageAuditing)
	frozen := s.freezeAnswers()

	p.enter(s, model.StageMatching)

	p.enter(s, model.StageCalculating)
	scored := newOutcome(s.exam, engine.Score(s.exam, frozen), trigger)

	p.enter(s, model.StageSyncing)
	result := s.result(scored)
	if err := p.sync(ctx, result); err != nil {
		status = "sync_failed"
		metrics.SyncFailures.Inc()
		log.Warn().Err(err).Msg("Result sync failed, continuing to summary")
	} else {
		scored.Synced = true
		scored.ResultID = result.ID
	}

	p.enter(s, model.StageFinalizing)
	outcome = scored

	log.Info().
		Int("score", scored.Total).
		Int("correct", scored.Correct).
		Int("incorrect", scored.Incorrect).
		Int("unattempted", scored.Unattempted).
		Bool("synced", scored.Synced).
		Msg("Submission complete")
}

func (p *Pipeline) enter(s *Session, stage model.SubmissionStage) {
	s.setStage(stage)
	if d := p.delays.of(stage); d > 0 {
		time.Sleep(d)
	}
}

// sync hands the result to the sink. A panicking sink is reported as an
// error so the pipeline still finalizes.
func (p *Pipeline) sync(ctx context.Context, r *model.Result) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("result sink panicked: %v", rec)
		}
	}()
	if p.sink == nil {
		return fmt.Errorf("no result sink configured")
	}
	ctx, cancel := context.WithTimeout(ctx, p.syncTimeout)
	defer cancel()
	return p.sink.Append(ctx, r)
}
