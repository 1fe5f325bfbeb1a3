package processing

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Runner executes jobs with qgis_process.
type Runner struct {
	// Command is the qgis_process executable.
	Command string
	// DryRun logs the command lines without running them.
	DryRun bool
	Log    logrus.FieldLogger
}

// BatchResult counts the outcome of RunAll.
type BatchResult struct {
	Total     int      `json:"total"`
	Succeeded int      `json:"succeeded"`
	Failed    []string `json:"failed,omitempty"`
}

// CommandLine returns the shell-readable command that runs the job.
func (r *Runner) CommandLine(job Job) string {
	parts := []string{r.Command}
	for _, a := range job.Args() {
		if strings.ContainsAny(a, " \t'\"") {
			a = fmt.Sprintf("%q", a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// Run executes a single job.
func (r *Runner) Run(ctx context.Context, job Job) error {
	log := r.Log.WithFields(logrus.Fields{"job": job.Name, "algorithm": job.Algorithm})
	if r.DryRun {
		log.Info(r.CommandLine(job))
		return nil
	}

	for _, d := range job.Dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", d, err)
		}
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.Command, job.Args()...)
	cmd.Stderr = &stderr

	start := time.Now()
	log.Debug(r.CommandLine(job))
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("running %s: %w", job.Name, err)
		}
		return fmt.Errorf("running %s: %w: %s", job.Name, err, msg)
	}
	log.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Info("job finished")
	if s := strings.TrimSpace(string(out)); s != "" {
		log.Debug(s)
	}
	return nil
}

// RunAll runs jobs in order. A failed job is logged and the batch moves on;
// cancelling ctx stops the batch.
func (r *Runner) RunAll(ctx context.Context, jobs []Job) (BatchResult, error) {
	res := BatchResult{Total: len(jobs)}
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := r.Run(ctx, job); err != nil {
			r.Log.WithError(err).WithField("job", job.Name).Error("job failed")
			res.Failed = append(res.Failed, job.Name)
			continue
		}
		res.Succeeded++
	}
	return res, nil
}
