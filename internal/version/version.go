// Package version - метаданные сборки, проставляются через -ldflags.
package version

import (
	"fmt"
	"time"
)

var (
	BuildDate   string // YYYY-MM-DD (UTC)
	BuildCommit string
	BuildBranch string
)

// Номер сборки - дни от начала проекта
var projectEpoch = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

// BuildInfo - то, что отдаёт /version
type BuildInfo struct {
	Build  int    `json:"build"`
	Date   string `json:"date,omitempty"`
	Commit string `json:"commit,omitempty"`
	Branch string `json:"branch,omitempty"`
	Known  bool   `json:"known"`
	Error  string `json:"error,omitempty"`
}

// BuildNumber считает номер сборки по BuildDate
func BuildNumber() (int, error) {
	if BuildDate == "" {
		return 0, fmt.Errorf("build date not set")
	}

	t, err := time.ParseInLocation(time.DateOnly, BuildDate, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("invalid build date %q: %w", BuildDate, err)
	}
	if t.Before(projectEpoch) {
		return 0, fmt.Errorf("build date %s is before %s", BuildDate, projectEpoch.Format(time.DateOnly))
	}

	// Обе даты в UTC, переходов на летнее время нет
	return int(t.Sub(projectEpoch).Hours() / 24), nil
}

func Info() BuildInfo {
	info := BuildInfo{
		Date:   BuildDate,
		Commit: BuildCommit,
		Branch: BuildBranch,
	}

	n, err := BuildNumber()
	if err != nil {
		info.Error = err.Error()
		return info
	}
	info.Build = n
	info.Known = true
	return info
}

// String - строка для лога при старте
func String() string {
	info := Info()
	if !info.Known {
		return fmt.Sprintf("overworld-server, unknown build (%s)", info.Error)
	}
	return fmt.Sprintf("overworld-server build %d (%s) commit[%s] branch[%s]",
		info.Build, info.Date, orUnknown(info.Commit), orUnknown(info.Branch))
}

func orUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
