// Package export finalizes the session store and writes the result
// document as a JSON file.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/gofrs/uuid/v5"

	"github.com/overtake/league-capture/log"
	"github.com/overtake/league-capture/pkg/lookup"
	"github.com/overtake/league-capture/pkg/processing/finalize"
	"github.com/overtake/league-capture/pkg/processing/store"
)

var nonAlphaNum = regexp.MustCompile(`[^a-zA-Z0-9]`)

type Exporter struct {
	lg        *log.Logger
	clk       clock.Clock
	outputDir string
}

type Option func(e *Exporter)

func WithLogger(lg *log.Logger) Option {
	return func(e *Exporter) { e.lg = lg }
}

func WithClock(c clock.Clock) Option {
	return func(e *Exporter) { e.clk = c }
}

func New(outputDir string, opts ...Option) *Exporter {
	ret := &Exporter{
		lg:        log.Default(),
		clk:       clock.New(),
		outputDir: outputDir,
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Write finalizes the store and writes the document to the output
// directory, returning the path of the written file.
func (e *Exporter) Write(st *store.SessionStore) (string, error) {
	doc, err := finalize.Finalize(st)
	if err != nil {
		return "", fmt.Errorf("finalizing capture: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding result document: %w", err)
	}

	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	path := filepath.Join(e.outputDir, e.filename(st))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing result document: %w", err)
	}

	e.lg.Info("exported league JSON",
		log.String("path", path),
		log.Int("sessions", len(doc.Sessions)))
	return path, nil
}

// filename builds "<Track>_<yyyyMMdd_HHmmss>_<shortCode>.json"; the short
// code is the tail of the capture UID in hex, or a random id when no UID
// was ever seen.
func (e *Exporter) filename(st *store.SessionStore) string {
	trackName := "Unknown"
	for _, sid := range st.SessionIDs() {
		sess := st.Sessions[sid]
		if sess.TrackID != nil {
			if tn, ok := lookup.Tracks[*sess.TrackID]; ok {
				trackName = tn
			}
			break
		}
	}
	trackName = nonAlphaNum.ReplaceAllString(trackName, "")

	stamp := e.clk.Now().Format("20060102_150405")

	var uid string
	if st.SessionUID != nil {
		uid = fmt.Sprintf("%08X", *st.SessionUID)
	} else {
		uid = strings.ReplaceAll(uuid.Must(uuid.NewV4()).String(), "-", "")[:8]
	}
	shortCode := uid
	if len(uid) > 6 {
		shortCode = uid[len(uid)-6:]
	}

	return fmt.Sprintf("%s_%s_%s.json", trackName, stamp, shortCode)
}
