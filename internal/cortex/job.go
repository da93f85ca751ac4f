// Package cortex implements the job contract between Cortex and a responder:
// input is a JSON document read from the job directory or stdin, and the
// outcome is a single JSON envelope written to the job directory or stdout.
package cortex

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const redacted = "REMOVED"

// Job is one responder invocation.
type Job struct {
	raw    []byte
	input  gjson.Result
	dir    string
	Output io.Writer
}

// ReadJob loads the job input. With a job directory the input is
// <dir>/input/input.json and the envelope goes to <dir>/output/output.json;
// otherwise stdin and stdout are used.
func ReadJob(dir string, stdin io.Reader) (*Job, error) {
	var (
		raw []byte
		err error
	)
	if dir != "" {
		raw, err = os.ReadFile(filepath.Join(dir, "input", "input.json"))
	} else {
		raw, err = io.ReadAll(stdin)
	}
	if err != nil {
		return nil, errors.Wrap(err, "read job input")
	}
	return ParseJob(raw, dir)
}

// ParseJob wraps an already loaded input document.
func ParseJob(raw []byte, dir string) (*Job, error) {
	if !gjson.ValidBytes(raw) {
		return nil, errors.New("job input is not valid JSON")
	}
	return &Job{raw: raw, input: gjson.ParseBytes(raw), dir: dir}, nil
}

// Param returns the string at a dotted path such as "config.service", or ""
// when it is absent.
func (j *Job) Param(path string) string {
	return j.input.Get(escapePath(path)).String()
}

// Report emits the success envelope.
func (j *Job) Report(full any, operations []Operation) error {
	if operations == nil {
		operations = []Operation{}
	}
	return j.write(map[string]any{
		"success":    true,
		"full":       full,
		"operations": operations,
	})
}

// Error emits the failure envelope. Secrets in the config section of the
// echoed input are redacted.
func (j *Job) Error(message string) error {
	return j.write(map[string]any{
		"success":      false,
		"input":        json.RawMessage(j.sanitizedInput()),
		"errorMessage": message,
	})
}

func (j *Job) sanitizedInput() []byte {
	out := append([]byte(nil), j.raw...)
	j.input.Get("config").ForEach(func(key, _ gjson.Result) bool {
		name := strings.ToLower(key.String())
		if strings.Contains(name, "key") || strings.Contains(name, "password") || strings.Contains(name, "secret") {
			if updated, err := sjson.SetBytes(out, "config."+escapeKey(key.String()), redacted); err == nil {
				out = updated
			}
		}
		return true
	})
	return out
}

func (j *Job) write(envelope map[string]any) error {
	w := j.Output
	if w == nil && j.dir != "" {
		outDir := filepath.Join(j.dir, "output")
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return errors.Wrap(err, "create output directory")
		}
		f, err := os.Create(filepath.Join(outDir, "output.json"))
		if err != nil {
			return errors.Wrap(err, "create output file")
		}
		defer f.Close()
		w = f
	}
	if w == nil {
		w = os.Stdout
	}
	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		return errors.Wrap(err, "write job output")
	}
	return nil
}

var (
	pathEscaper = strings.NewReplacer("*", `\*`, "?", `\?`)
	keyEscaper  = strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
)

// escapePath escapes gjson wildcards in a dotted path.
func escapePath(path string) string { return pathEscaper.Replace(path) }

// escapeKey escapes a single object key for use as one path segment.
func escapeKey(key string) string { return keyEscaper.Replace(key) }
