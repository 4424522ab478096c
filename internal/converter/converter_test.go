package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
)

// TestHelperProcess is the fake converter. It is a no-op unless re-executed
// by helperCommand.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("SPLATGEN_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) > 0 {
		args = args[1:]
	}

	switch os.Getenv("SPLATGEN_HELPER_MODE") {
	case "fail":
		fmt.Fprintln(os.Stderr, "splat-transform: unsupported input")
		os.Exit(3)
	default:
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: convert [-w] script output")
			os.Exit(2)
		}
		script, output := args[len(args)-2], args[len(args)-1]
		data, err := os.ReadFile(script)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		header := "ply\n" + strings.Join(args[:len(args)-2], " ") + "\n"
		if err := os.WriteFile(output, append([]byte(header), data...), 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	os.Exit(0)
}

func helperCommand(t *testing.T, mode string, overwrite bool) *Command {
	t.Helper()
	t.Setenv("SPLATGEN_HELPER_PROCESS", "1")
	t.Setenv("SPLATGEN_HELPER_MODE", mode)
	return &Command{Args: []string{os.Args[0], "-test.run=TestHelperProcess", "--"}, Overwrite: overwrite}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line    string
		want    []string
		wantErr error
	}{
		{DefaultCommand, []string{"npx", "@playcanvas/splat-transform"}, nil},
		{`"/opt/splat tools/convert" --quiet`, []string{"/opt/splat tools/convert", "--quiet"}, nil},
		{"   ", nil, ErrEmptyCommand},
	}
	for _, tt := range tests {
		got, err := ParseCommand(tt.line, false)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("ParseCommand(%q) error = %v, want %v", tt.line, err, tt.wantErr)
			continue
		}
		if err == nil && !reflect.DeepEqual(got.Args, tt.want) {
			t.Errorf("ParseCommand(%q) = %q, want %q", tt.line, got.Args, tt.want)
		}
	}

	if _, err := ParseCommand(`npx "unterminated`, false); err == nil {
		t.Error("unterminated quote accepted")
	}
}

func TestArgv(t *testing.T) {
	job := Job{Script: "in.mjs", Output: "out.ply"}
	c := &Command{Args: []string{"npx", "splat-transform"}}
	if got, want := c.Argv(job), []string{"npx", "splat-transform", "in.mjs", "out.ply"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Argv = %q, want %q", got, want)
	}
	c.Overwrite = true
	if got, want := c.Argv(job), []string{"npx", "splat-transform", "-w", "in.mjs", "out.ply"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Argv = %q, want %q", got, want)
	}
	if len(c.Args) != 2 {
		t.Error("Argv modified the command")
	}
}

func TestRunSuccess(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "gen.mjs")
	output := filepath.Join(dir, "out.ply")
	if err := os.WriteFile(script, []byte("export {}"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := helperCommand(t, "ok", true)
	if err := c.Run(context.Background(), Job{Script: script, Output: output}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); got != "ply\n-w\nexport {}" {
		t.Errorf("output = %q", got)
	}
}

func TestRunFailureSurfacesStderr(t *testing.T) {
	c := helperCommand(t, "fail", false)
	err := c.Run(context.Background(), Job{Script: "a.mjs", Output: "a.ply"})
	if !errors.Is(err, ErrConverterInvocationFailed) {
		t.Fatalf("Run error = %v, want ErrConverterInvocationFailed", err)
	}
	if !strings.Contains(err.Error(), "unsupported input") {
		t.Errorf("error %q does not carry stderr", err)
	}
}

func TestRunMissingBinary(t *testing.T) {
	c := &Command{Args: []string{filepath.Join(t.TempDir(), "no-such-converter")}}
	err := c.Run(context.Background(), Job{Script: "a.mjs", Output: "a.ply"})
	if !errors.Is(err, ErrConverterInvocationFailed) {
		t.Errorf("Run error = %v", err)
	}
}

// recorder is a Runner that logs jobs and checks they never overlap.
type recorder struct {
	mu      sync.Mutex
	jobs    []Job
	running bool
	overlap bool
	fail    string
}

func (r *recorder) Run(ctx context.Context, job Job) error {
	r.mu.Lock()
	if r.running {
		r.overlap = true
	}
	r.running = true
	r.jobs = append(r.jobs, job)
	r.mu.Unlock()

	time.Sleep(time.Millisecond)

	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
	if job.Output == r.fail {
		return ErrConverterInvocationFailed
	}
	return nil
}

func TestQueueRunsJobsSequentially(t *testing.T) {
	rec := &recorder{fail: "3.ply"}
	q := NewQueue(rec)
	defer q.Close()

	ctx := context.Background()
	var wg sync.WaitGroup
	errs := make([]error, 6)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = q.Do(ctx, Job{Script: "s.mjs", Output: fmt.Sprintf("%d.ply", i)})
		}()
	}
	wg.Wait()

	if rec.overlap {
		t.Error("jobs ran concurrently")
	}
	if len(rec.jobs) != 6 {
		t.Errorf("ran %d jobs, want 6", len(rec.jobs))
	}
	for i, err := range errs {
		if (i == 3) != (err != nil) {
			t.Errorf("job %d error = %v", i, err)
		}
	}
}

func TestQueueCanceledAndClosed(t *testing.T) {
	rec := &recorder{}
	q := NewQueue(rec)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := q.Do(ctx, Job{Output: "x.ply"}); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled job error = %v", err)
	}

	q.Close()
	q.Close()
	if err := q.Do(context.Background(), Job{}); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("closed queue error = %v", err)
	}
	if len(rec.jobs) != 0 {
		t.Errorf("ran %d jobs, want 0", len(rec.jobs))
	}
}
