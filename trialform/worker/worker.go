package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/G-Node/trialform/trialform/db"
	"github.com/G-Node/trialform/trialform/form"
)

// DefaultQueueLength is used when New is given a non-positive length.
const DefaultQueueLength = 100

// ErrQueueFull is returned by Enqueue when the queue cannot take another job.
var ErrQueueFull = errors.New("submission queue full")

// SubmitAction runs on the sanitized payload of an accepted submission.  The
// returned messages are stored with the submission record.
type SubmitAction func(ctx context.Context, payload form.Values) ([]string, error)

// Job couples the stored submission record with the payload it was made
// with.  Only the record is written to the database.
type Job struct {
	*db.Submission
	Payload form.Values
}

// NewJob returns a job for an accepted submission from the given session.
func NewJob(sessionID string, payload form.Values) *Job {
	return &Job{
		Submission: &db.Submission{SessionID: sessionID, Accepted: true},
		Payload:    payload,
	}
}

// Worker with queue for running submit actions asynchronously.
type Worker struct {
	queue  chan *Job
	stop   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
	Action SubmitAction
	db     *db.Connection
	log    *log.Logger
}

func New(dbconn *db.Connection, queueLen int, logger *log.Logger) *Worker {
	if queueLen <= 0 {
		queueLen = DefaultQueueLength
	}
	if logger == nil {
		logger = log.Default()
	}
	w := new(Worker)
	w.queue = make(chan *Job, queueLen)
	w.stop = make(chan struct{})
	w.db = dbconn
	w.log = logger
	w.Action = LogAction(logger)
	return w
}

// Enqueue stores the job's record in the database and adds the job to the
// queue.  It never blocks: a full queue returns ErrQueueFull and the record
// is finished with that message.
func (w *Worker) Enqueue(j *Job) error {
	j.SubmitTime = time.Now()
	if err := w.db.InsertSubmission(j.Submission); err != nil {
		w.log.Printf("Error inserting submission %+v into db: %v", j.Submission, err)
		return err
	}
	select {
	case w.queue <- j:
		return nil
	default:
	}
	j.EndTime = time.Now()
	j.Message = ErrQueueFull.Error()
	if err := w.db.UpdateSubmission(j.Submission); err != nil {
		w.log.Printf("Error updating submission [S%d]: %v", j.ID, err)
	}
	return ErrQueueFull
}

// Stop ends the worker once the running job has finished.  Queued jobs that
// have not started are left unfinished.
func (w *Worker) Stop() {
	w.once.Do(func() {
		close(w.stop)
	})
	w.wg.Wait()
}

func (w *Worker) run(j *Job) {
	defer func() {
		// Update submission entry in db when done
		if err := w.db.UpdateSubmission(j.Submission); err != nil {
			w.log.Printf("Error updating submission [S%d]: %v", j.ID, err)
		}
	}()
	w.log.Printf("Starting submission [S%d]", j.ID)
	action := w.Action
	if action == nil {
		action = LogAction(w.log)
	}
	msgs, err := action(context.Background(), j.Payload)
	j.EndTime = time.Now()
	if err == nil {
		w.log.Printf("Submission [S%d] finished", j.ID)
		j.Message = strings.Join(msgs, "\n")
	} else {
		w.log.Printf("Submission [S%d] failed: %s", j.ID, err)
		j.Message = err.Error()
	}
}

func (w *Worker) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case job := <-w.queue:
				w.run(job)
			case <-w.stop:
				return
			}
		}
	}()
	w.log.Print("Worker started")
}

// LogAction returns the default submit action: it logs the payload with the
// password redacted.
func LogAction(logger *log.Logger) SubmitAction {
	return func(_ context.Context, payload form.Values) ([]string, error) {
		logger.Printf("Form submitted: %s", Redact(payload))
		return []string{"logged"}, nil
	}
}

// Redact formats the payload for logging, masking the password.
func Redact(v form.Values) string {
	pw := ""
	if v.Password != "" {
		pw = "********"
	}
	return fmt.Sprintf("firstName=%q lastName=%q email=%q password=%q", v.FirstName, v.LastName, v.Email, pw)
}
