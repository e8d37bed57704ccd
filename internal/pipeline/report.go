package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/qiniu/x/log"
	"golang.org/x/mod/sumdb/dirhash"

	"github.com/tealdb/depforge/internal/prefix"
)

// reportFile is written into the install root after a completed run.
const reportFile = ".depforge.json"

const (
	statusOK     = "ok"
	statusFailed = "failed"
)

// Report records one completed run: what was built, how long each stage
// took, and a digest of the populated lib directory. It is a pure record;
// nothing reads it back to decide whether work can be skipped.
type Report struct {
	RunID            string        `json:"run_id"`
	Started          time.Time     `json:"started"`
	Finished         time.Time     `json:"finished"`
	Stages           []StageRecord `json:"stages"`
	Archives         []string      `json:"archives"`
	LibDigest        string        `json:"lib_digest,omitempty"`
	AllocatorVersion string        `json:"allocator_version,omitempty"`
	EngineVersion    string        `json:"engine_version,omitempty"`
}

// StageRecord is one stage's outcome.
type StageRecord struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Duration string `json:"duration"`
}

func (p *Pipeline) buildReport(pfx prefix.Prefix, started time.Time, archives []string) Report {
	rep := Report{
		RunID:            uuid.New().String(),
		Started:          started,
		Finished:         time.Now(),
		Stages:           p.stages,
		Archives:         archives,
		AllocatorVersion: p.cfg.AllocatorVersion,
		EngineVersion:    p.cfg.EngineVersion,
	}
	digest, err := dirhash.HashDir(pfx.LibDir(), "lib", dirhash.Hash1)
	if err != nil {
		log.Warnf("digest %s: %v", pfx.LibDir(), err)
	} else {
		rep.LibDigest = digest
	}
	return rep
}

// writeReport records the run under the install root. The build stands on
// its own; a report that cannot be written is a warning, not a failure.
func writeReport(pfx prefix.Prefix, rep Report) {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err == nil {
		err = os.WriteFile(filepath.Join(pfx.Root, reportFile), data, 0o644)
	}
	if err != nil {
		log.Warnf("write build report: %v", err)
	}
}
